package resource

import (
	"fmt"

	"github.com/kasuganosora/chargen/config"
	"github.com/kasuganosora/chargen/game/chargen"
)

// BuildRules turns the rules section of the config into the engine's table.
// Zero values fall back to chargen.DefaultRules.
func BuildRules(cfg config.RulesConfig) (chargen.Rules, error) {
	r := chargen.DefaultRules()
	if cfg.Version != "" {
		r.Version = cfg.Version
	}
	if cfg.BaseEssence > 0 {
		r.BaseEssence = cfg.BaseEssence
	}
	if cfg.EssenceWarning > 0 {
		r.EssenceWarning = cfg.EssenceWarning
	}
	if cfg.UnspentNuyen > 0 {
		r.UnspentNuyen = cfg.UnspentNuyen
	}
	if cfg.BiocompatibilityFactor > 0 {
		r.BiocompatibilityFactor = cfg.BiocompatibilityFactor
	}
	if cfg.MaxSkillRating > 0 {
		r.MaxSkillRating = cfg.MaxSkillRating
	}
	if cfg.SpellsPerMagic > 0 {
		r.SpellsPerMagic = cfg.SpellsPerMagic
	}
	if cfg.FormsPerResonance > 0 {
		r.FormsPerResonance = cfg.FormsPerResonance
	}
	if cfg.KnowledgePerPoint > 0 {
		r.KnowledgePerPoint = cfg.KnowledgePerPoint
	}
	if len(cfg.TraditionRequired) > 0 {
		r.TraditionRequired = r.TraditionRequired[:0:0]
		for _, a := range cfg.TraditionRequired {
			aw := chargen.Awakening(a)
			if !aw.Valid() {
				return chargen.Rules{}, fmt.Errorf("resource: rules: unknown awakening %q", a)
			}
			r.TraditionRequired = append(r.TraditionRequired, aw)
		}
	}

	switch {
	case cfg.BiocompatibilityExpr != "":
		cond, err := chargen.NewCELCondition(cfg.BiocompatibilityExpr)
		if err != nil {
			return chargen.Rules{}, fmt.Errorf("resource: rules: %w", err)
		}
		r.Biocompatibility = cond
	case len(cfg.BiocompatibilityQualities) > 0 || len(cfg.BiocompatibilityAugments) > 0:
		r.Biocompatibility = chargen.AnyOf{
			Qualities: cfg.BiocompatibilityQualities,
			Augments:  cfg.BiocompatibilityAugments,
		}
	}
	return r, nil
}
