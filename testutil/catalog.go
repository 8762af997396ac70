package testutil

import (
	"testing"

	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/kasuganosora/chargen/resource"
	"github.com/stretchr/testify/require"
)

// Catalog loads the embedded sample catalog with the default rules.
func Catalog(t testing.TB) *chargen.Catalog {
	t.Helper()
	c, err := resource.LoadCatalog("", chargen.DefaultRules())
	require.NoError(t, err, "Catalog: LoadCatalog")
	return c
}

// PresetState returns the named preset applied to an empty build.
func PresetState(t testing.TB, c *chargen.Catalog, id string) *chargen.CharacterState {
	t.Helper()
	s, ok := chargen.LoadPreset(chargen.NewCharacterState(), c, id)
	require.True(t, ok, "PresetState: %s", id)
	return s
}
