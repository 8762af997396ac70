package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kasuganosora/chargen/game/chargen"
	"gopkg.in/yaml.v3"
)

// readState loads a build from a YAML or JSON file; "-" reads YAML from stdin.
func readState(path string, stdin io.Reader) (*chargen.CharacterState, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	st := chargen.NewCharacterState()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, st)
	} else {
		err = yaml.Unmarshal(raw, st)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	// Normalises maps left nil by the decoder.
	return st.Clone(), nil
}

// write renders v in the chosen format. text falls back to YAML for values
// without a text form.
func write(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "text":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown output format %q", format)
}
