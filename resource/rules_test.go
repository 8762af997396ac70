package resource

import (
	"testing"

	"github.com/kasuganosora/chargen/config"
	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRules_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	r, err := BuildRules(cfg.Rules)
	require.NoError(t, err)

	def := chargen.DefaultRules()
	assert.Equal(t, def.BaseEssence, r.BaseEssence)
	assert.Equal(t, def.TraditionRequired, r.TraditionRequired)
	assert.Equal(t, chargen.AnyOf{Qualities: []string{"biocompatibility"}}, r.Biocompatibility)
}

func TestBuildRules_CEL(t *testing.T) {
	r, err := BuildRules(config.RulesConfig{
		EssenceWarning:       0.5,
		BiocompatibilityExpr: `"symbiotes" in augments`,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, r.EssenceWarning)
	require.IsType(t, &chargen.CELCondition{}, r.Biocompatibility)
	assert.True(t, r.Biocompatibility.Match(chargen.Facts{Augments: []string{"symbiotes"}}))
}

func TestBuildRules_Errors(t *testing.T) {
	_, err := BuildRules(config.RulesConfig{BiocompatibilityExpr: `size(qualities)`})
	assert.Error(t, err)

	_, err = BuildRules(config.RulesConfig{TraditionRequired: []string{"shaman"}})
	assert.ErrorContains(t, err, `unknown awakening "shaman"`)
}
