package chargen

import "math"

// Pool is an integer point pool.
type Pool struct {
	Spent     int `json:"spent"`
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
}

func newPool(spent, total int) Pool {
	return Pool{Spent: spent, Total: total, Remaining: total - spent}
}

// PointPool is a fractional pool (adept power points).
type PointPool struct {
	Spent     float64 `json:"spent"`
	Total     float64 `json:"total"`
	Remaining float64 `json:"remaining"`
}

type EssencePool struct {
	Base      float64 `json:"base"`
	Spent     float64 `json:"spent"`
	Remaining float64 `json:"remaining"`
	BioFactor float64 `json:"bio_factor"`
}

type NuyenPool struct {
	Spent     int64 `json:"spent"`
	Total     int64 `json:"total"`
	Remaining int64 `json:"remaining"`
}

// Dashboard is the derived budget view of one CharacterState. It is never stored.
type Dashboard struct {
	Attributes      Pool        `json:"attributes"`
	Skills          Pool        `json:"skills"`
	SkillGroups     Pool        `json:"skill_groups"`
	Special         Pool        `json:"special"`
	Knowledge       Pool        `json:"knowledge"`
	Spells          Pool        `json:"spells"`
	ComplexForms    Pool        `json:"complex_forms"`
	PowerPoints     PointPool   `json:"power_points"`
	Essence         EssencePool `json:"essence"`
	Nuyen           NuyenPool   `json:"nuyen"`
	MagicRating     int         `json:"magic_rating"`
	ResonanceRating int         `json:"resonance_rating"`
}

// ComputeBudget derives every pool from a state and the catalog. It has no side
// effects; map iteration is key-sorted so repeated calls are bit-identical.
func ComputeBudget(s *CharacterState, c *Catalog) Dashboard {
	if s == nil {
		s = NewCharacterState()
	}
	rules := c.Rules
	var d Dashboard

	d.Attributes = newPool(attributePointsSpent(s, c), c.AttributePoints(s.Priorities))

	grant := c.SkillPoints(s.Priorities)
	skillSpent := 0
	for _, id := range sortedKeys(s.Skills) {
		skillSpent += s.Skills[id]
	}
	for _, id := range sortedKeys(s.Specializations) {
		if s.Specializations[id] != "" {
			skillSpent++
		}
	}
	d.Skills = newPool(skillSpent, grant.Skills)

	groupSpent := 0
	for _, id := range sortedKeys(s.SkillGroups) {
		groupSpent += s.SkillGroups[id]
	}
	d.SkillGroups = newPool(groupSpent, grant.Groups)

	specialSpent := 0
	for _, k := range sortedKeys(s.Special) {
		specialSpent += max(0, s.Special[k])
	}
	d.Special = newPool(specialSpent, c.SpecialPoints(s.Priorities, s.Metatype))

	knowledgeSpent := 0
	for _, id := range sortedKeys(s.KnowledgeSkills) {
		knowledgeSpent += s.KnowledgeSkills[id]
	}
	for _, id := range sortedKeys(s.Languages) {
		knowledgeSpent += s.Languages[id]
	}
	knowledgeTotal := (AttributeValue(s, c, "intuition") + AttributeValue(s, c, "logic")) * rules.KnowledgePerPoint
	d.Knowledge = newPool(knowledgeSpent, knowledgeTotal)

	d.MagicRating, d.ResonanceRating = ratings(s, c)

	spellsTotal := 0
	if s.Awakening.CastsSpells() {
		spellsTotal = rules.SpellsPerMagic * d.MagicRating
	}
	d.Spells = newPool(countTrue(s.Spells), spellsTotal)

	formsTotal := 0
	if s.Awakening.Threads() {
		formsTotal = rules.FormsPerResonance * d.ResonanceRating
	}
	d.ComplexForms = newPool(countTrue(s.ComplexForms), formsTotal)

	ppSpent := 0.0
	for _, id := range sortedKeys(s.Powers) {
		if def, ok := c.Power(id); ok {
			ppSpent += def.PPCost * float64(s.Powers[id])
		}
	}
	ppTotal := 0.0
	if s.Awakening.UsesPowers() {
		ppTotal = float64(d.MagicRating)
	}
	d.PowerPoints = PointPool{Spent: round4(ppSpent), Total: ppTotal, Remaining: round4(ppTotal - ppSpent)}

	d.Essence = essence(s, c)
	d.Nuyen = nuyen(s, c)
	return d
}

// AttributeValue returns the current rating, defaulting to the metatype minimum.
func AttributeValue(s *CharacterState, c *Catalog, id string) int {
	if v, ok := s.Attributes[id]; ok {
		return v
	}
	r, _ := c.AttributeRange(s.Metatype, id)
	return r.Min
}

func attributePointsSpent(s *CharacterState, c *Catalog) int {
	spent := 0
	for _, id := range c.AttributeIDs {
		r, _ := c.AttributeRange(s.Metatype, id)
		spent += max(0, AttributeValue(s, c, id)-r.Min)
	}
	return spent
}

func ratings(s *CharacterState, c *Catalog) (magic, resonance int) {
	grant := c.MagicGrant(s.Priorities, s.Awakening)
	switch s.Awakening {
	case Mage, Adept, MysticAdept:
		magic = grant.Magic + max(0, s.Special[SpecialMagic])
	case Technomancer:
		resonance = grant.Resonance + max(0, s.Special[SpecialResonance])
	}
	return magic, resonance
}

// BioFactor is the essence multiplier the biocompatibility condition yields.
func BioFactor(s *CharacterState, rules Rules) float64 {
	if rules.Biocompatibility == nil || rules.BiocompatibilityFactor <= 0 {
		return 1.0
	}
	if rules.Biocompatibility.Match(FactsOf(s)) {
		return rules.BiocompatibilityFactor
	}
	return 1.0
}

func augmentRating(def AugmentDef, sel AugmentSelection) float64 {
	if def.MaxRating <= 0 {
		return 1
	}
	return float64(max(1, sel.Rating))
}

func gradeOf(c *Catalog, id string) Grade {
	if g, ok := c.Grade(id); ok {
		return g
	}
	return Grade{Name: id, EssenceMultiplier: 1, CostMultiplier: 1}
}

func essence(s *CharacterState, c *Catalog) EssencePool {
	bio := BioFactor(s, c.Rules)
	spent := 0.0
	for _, id := range sortedKeys(s.Augments) {
		def, ok := c.Augment(id)
		if !ok {
			continue
		}
		sel := s.Augments[id]
		spent += def.EssenceCost * augmentRating(def, sel) * gradeOf(c, sel.Grade).EssenceMultiplier * bio
	}
	base := c.Rules.BaseEssence
	return EssencePool{
		Base:      base,
		Spent:     round4(spent),
		Remaining: round4(base - spent),
		BioFactor: bio,
	}
}

// AugmentCost is the nuyen price of one augment selection.
func AugmentCost(def AugmentDef, sel AugmentSelection, g Grade) int64 {
	return int64(math.Round(float64(def.Cost) * augmentRating(def, sel) * g.CostMultiplier))
}

func nuyen(s *CharacterState, c *Catalog) NuyenPool {
	var spent int64
	for _, id := range sortedKeys(s.Augments) {
		if def, ok := c.Augment(id); ok {
			sel := s.Augments[id]
			spent += AugmentCost(def, sel, gradeOf(c, sel.Grade))
		}
	}
	for _, g := range s.Gear {
		if def, ok := c.GearItem(g.ItemID); ok {
			spent += def.Cost * int64(g.Quantity)
		}
	}
	for _, id := range sortedKeys(s.Drones) {
		if def, ok := c.Drone(id); ok {
			spent += def.Cost
		}
		for _, modID := range s.Drones[id].Mods {
			if mod, ok := c.DroneMod(modID); ok {
				spent += mod.Cost
			}
		}
	}
	if l, ok := c.Lifestyle(s.Lifestyle); ok {
		spent += l.Cost
	}
	total := c.Resources(s.Priorities)
	return NuyenPool{Spent: spent, Total: total, Remaining: total - spent}
}

func countTrue(m map[string]bool) int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
