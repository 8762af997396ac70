package resource

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/kasuganosora/chargen/data"
	"github.com/kasuganosora/chargen/game/chargen"
	"gopkg.in/yaml.v3"
)

// ErrDuplicateID is returned when two catalog files define the same id.
var ErrDuplicateID = errors.New("resource: duplicate catalog id")

// ErrDanglingRef is returned when a catalog entry names an id that does not exist.
var ErrDanglingRef = errors.New("resource: dangling catalog reference")

// CatalogLoader reads the YAML catalog files under one directory of a file
// system and merges them into a single chargen.Catalog.
type CatalogLoader struct {
	FS      fs.FS
	Dir     string
	Rules   chargen.Rules
	Catalog *chargen.Catalog
	// Files lists the YAML files read, in load order.
	Files []string
}

// NewLoader creates a loader for dataPath on disk. An empty path reads the
// catalog embedded in the binary.
func NewLoader(dataPath string, rules chargen.Rules) *CatalogLoader {
	if dataPath == "" {
		return NewFSLoader(data.Catalog, data.CatalogDir, rules)
	}
	return NewFSLoader(os.DirFS(dataPath), ".", rules)
}

func NewFSLoader(fsys fs.FS, dir string, rules chargen.Rules) *CatalogLoader {
	return &CatalogLoader{FS: fsys, Dir: dir, Rules: rules}
}

// Load reads every *.yaml file in name order and checks cross references.
func (cl *CatalogLoader) Load() error {
	entries, err := fs.ReadDir(cl.FS, cl.Dir)
	if err != nil {
		return fmt.Errorf("resource: readdir %s: %w", cl.Dir, err)
	}
	cat := &chargen.Catalog{Rules: cl.Rules}
	cl.Files = cl.Files[:0]
	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		name := path.Join(cl.Dir, e.Name())
		var frag chargen.Catalog
		if err := loadYAML(cl.FS, name, &frag); err != nil {
			return err
		}
		if err := merge(cat, &frag, name); err != nil {
			return err
		}
		cl.Files = append(cl.Files, name)
	}
	if err := checkRefs(cat); err != nil {
		return err
	}
	cl.Catalog = cat
	return nil
}

// LoadCatalog is NewLoader followed by Load.
func LoadCatalog(dataPath string, rules chargen.Rules) (*chargen.Catalog, error) {
	cl := NewLoader(dataPath, rules)
	if err := cl.Load(); err != nil {
		return nil, err
	}
	return cl.Catalog, nil
}

func loadYAML[T any](fsys fs.FS, name string, out *T) error {
	f, err := fsys.Open(name)
	if err != nil {
		return fmt.Errorf("resource: read %s: %w", name, err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("resource: parse %s: %w", name, err)
	}
	return nil
}

func mergeMap[V any](dst *map[string]V, src map[string]V, kind, file string) error {
	if len(src) == 0 {
		return nil
	}
	if *dst == nil {
		*dst = make(map[string]V, len(src))
	}
	for id, v := range src {
		if _, dup := (*dst)[id]; dup {
			return fmt.Errorf("%w: %s %q in %s", ErrDuplicateID, kind, id, file)
		}
		(*dst)[id] = v
	}
	return nil
}

func merge(dst, src *chargen.Catalog, file string) error {
	if src.Priorities.Attributes != nil || src.Priorities.Metatype != nil || src.Priorities.Skills != nil ||
		src.Priorities.Magic != nil || src.Priorities.Resources != nil {
		if dst.Priorities.Attributes != nil {
			return fmt.Errorf("%w: priority table in %s", ErrDuplicateID, file)
		}
		dst.Priorities = src.Priorities
	}
	if len(src.AttributeIDs) > 0 {
		if len(dst.AttributeIDs) > 0 {
			return fmt.Errorf("%w: attribute_ids in %s", ErrDuplicateID, file)
		}
		dst.AttributeIDs = slices.Clone(src.AttributeIDs)
	}
	return errors.Join(
		mergeMap(&dst.Metatypes, src.Metatypes, "metatype", file),
		mergeMap(&dst.Skills, src.Skills, "skill", file),
		mergeMap(&dst.SkillGroups, src.SkillGroups, "skill group", file),
		mergeMap(&dst.Spells, src.Spells, "spell", file),
		mergeMap(&dst.Powers, src.Powers, "power", file),
		mergeMap(&dst.ComplexForms, src.ComplexForms, "complex form", file),
		mergeMap(&dst.Traditions, src.Traditions, "tradition", file),
		mergeMap(&dst.Qualities, src.Qualities, "quality", file),
		mergeMap(&dst.Augments, src.Augments, "augment", file),
		mergeMap(&dst.Grades, src.Grades, "grade", file),
		mergeMap(&dst.Gear, src.Gear, "gear", file),
		mergeMap(&dst.Drones, src.Drones, "drone", file),
		mergeMap(&dst.DroneMods, src.DroneMods, "drone mod", file),
		mergeMap(&dst.Lifestyles, src.Lifestyles, "lifestyle", file),
		mergeMap(&dst.Presets, src.Presets, "preset", file),
	)
}

// checkRefs verifies that ids named inside the catalog exist.
func checkRefs(c *chargen.Catalog) error {
	var errs []error
	missing := func(kind, id, owner string) {
		errs = append(errs, fmt.Errorf("%w: %s %q (from %s)", ErrDanglingRef, kind, id, owner))
	}
	for _, id := range sortedIDs(c.Skills) {
		if g := c.Skills[id].Group; g != "" {
			if _, ok := c.SkillGroup(g); !ok {
				missing("skill group", g, "skill "+id)
			}
		}
	}
	for _, id := range sortedIDs(c.Metatypes) {
		for _, attr := range c.AttributeIDs {
			if _, ok := c.AttributeRange(id, attr); !ok {
				missing("attribute", attr, "metatype "+id)
			}
		}
	}
	for _, id := range sortedIDs(c.Presets) {
		p := c.Presets[id]
		owner := "preset " + id
		if p.Metatype != "" {
			if _, ok := c.Metatype(p.Metatype); !ok {
				missing("metatype", p.Metatype, owner)
			}
		}
		for _, sk := range sortedIDs(p.Skills) {
			if _, ok := c.Skill(sk); !ok {
				missing("skill", sk, owner)
			}
		}
		for _, aug := range sortedIDs(p.Augments) {
			if _, ok := c.Augment(aug); !ok {
				missing("augment", aug, owner)
			}
			if g := p.Augments[aug].Grade; g != "" {
				if _, ok := c.Grade(g); !ok {
					missing("grade", g, owner)
				}
			}
		}
		for _, g := range p.Gear {
			if _, ok := c.GearItem(g.ItemID); !ok {
				missing("gear", g.ItemID, owner)
			}
		}
		if p.Lifestyle != "" {
			if _, ok := c.Lifestyle(p.Lifestyle); !ok {
				missing("lifestyle", p.Lifestyle, owner)
			}
		}
	}
	return errors.Join(errs...)
}

func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
