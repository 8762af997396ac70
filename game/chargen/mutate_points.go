package chargen

import "math"

// poolCeiling is the highest value a key may reach from cur with remaining
// points left in its pool. An overspent pool never pulls the ceiling below cur,
// so refunds move one step at a time.
func poolCeiling(cur, limit, remaining int) int {
	return max(cur, min(limit, cur+remaining))
}

func AdjustAttribute(s *CharacterState, c *Catalog, id string, delta int) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	r, ok := c.AttributeRange(s.Metatype, id)
	if !ok {
		return s, false
	}
	cur := AttributeValue(s, c, id)
	res := Bump(id, delta, BumpOptions{
		Current: s.Attributes,
		Min:     r.Min,
		Default: r.Min,
		Max: func() int {
			return poolCeiling(cur, r.Max, ComputeBudget(s, c).Attributes.Remaining)
		},
	})
	if !res.OK {
		return s, false
	}
	next := s.Clone()
	next.Attributes = res.Values
	return next, true
}

// specialBase is the rating a special attribute starts at before bonus points.
func specialBase(s *CharacterState, c *Catalog, key string) (base, ceiling int, ok bool) {
	r, hasRange := c.SpecialRange(s.Metatype, key)
	grant := c.MagicGrant(s.Priorities, s.Awakening)
	switch key {
	case SpecialEdge:
		if !hasRange {
			return 0, 0, false
		}
		return r.Min, r.Max, true
	case SpecialMagic:
		if s.Awakening != Mage && s.Awakening != Adept && s.Awakening != MysticAdept {
			return 0, 0, false
		}
		ceiling = 6
		if hasRange {
			ceiling = r.Max
		}
		return grant.Magic, ceiling, true
	case SpecialResonance:
		if s.Awakening != Technomancer {
			return 0, 0, false
		}
		ceiling = 6
		if hasRange {
			ceiling = r.Max
		}
		return grant.Resonance, ceiling, true
	}
	return 0, 0, false
}

// AdjustSpecial spends or refunds special attribute points above the base rating.
func AdjustSpecial(s *CharacterState, c *Catalog, key string, delta int) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	base, ceiling, ok := specialBase(s, c, key)
	if !ok {
		return s, false
	}
	cur := max(0, s.Special[key])
	res := Bump(key, delta, BumpOptions{
		Current:      s.Special,
		DeleteOnZero: true,
		Max: func() int {
			return poolCeiling(cur, ceiling-base, ComputeBudget(s, c).Special.Remaining)
		},
	})
	if !res.OK {
		return s, false
	}
	next := s.Clone()
	next.Special = res.Values
	return next, true
}

func AdjustSkill(s *CharacterState, c *Catalog, id string, delta int) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	def, ok := c.Skill(id)
	if !ok {
		return s, false
	}
	limit := def.MaxRating
	if limit <= 0 {
		limit = c.Rules.MaxSkillRating
	}
	cur := s.Skills[id]
	res := Bump(id, delta, BumpOptions{
		Current:      s.Skills,
		DeleteOnZero: true,
		Max: func() int {
			return poolCeiling(cur, limit, ComputeBudget(s, c).Skills.Remaining)
		},
	})
	if !res.OK {
		return s, false
	}
	next := s.Clone()
	next.Skills = res.Values
	if _, kept := next.Skills[id]; !kept {
		delete(next.Specializations, id)
	}
	return next, true
}

func AdjustSkillGroup(s *CharacterState, c *Catalog, id string, delta int) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	if _, ok := c.SkillGroup(id); !ok {
		return s, false
	}
	cur := s.SkillGroups[id]
	res := Bump(id, delta, BumpOptions{
		Current:      s.SkillGroups,
		DeleteOnZero: true,
		Max: func() int {
			return poolCeiling(cur, c.Rules.MaxSkillRating, ComputeBudget(s, c).SkillGroups.Remaining)
		},
	})
	if !res.OK {
		return s, false
	}
	next := s.Clone()
	next.SkillGroups = res.Values
	return next, true
}

// SetSpecialization sets or, with an empty name, clears a skill's specialization.
// A new specialization costs one skill point.
func SetSpecialization(s *CharacterState, c *Catalog, skillID, name string) (*CharacterState, bool) {
	if Locked(s) || s.Specializations[skillID] == name {
		return s, false
	}
	if name != "" {
		if s.Skills[skillID] <= 0 {
			return s, false
		}
		if s.Specializations[skillID] == "" && ComputeBudget(s, c).Skills.Remaining < 1 {
			return s, false
		}
	}
	next := s.Clone()
	if name == "" {
		delete(next.Specializations, skillID)
	} else {
		next.Specializations[skillID] = name
	}
	return next, true
}

// AdjustKnowledgeSkill rates a free-form knowledge skill from the knowledge pool.
func AdjustKnowledgeSkill(s *CharacterState, c *Catalog, id string, delta int) (*CharacterState, bool) {
	if Locked(s) || id == "" {
		return s, false
	}
	cur := s.KnowledgeSkills[id]
	res := Bump(id, delta, BumpOptions{
		Current:      s.KnowledgeSkills,
		DeleteOnZero: true,
		Max: func() int {
			return poolCeiling(cur, c.Rules.MaxSkillRating, ComputeBudget(s, c).Knowledge.Remaining)
		},
	})
	if !res.OK {
		return s, false
	}
	next := s.Clone()
	next.KnowledgeSkills = res.Values
	return next, true
}

// AdjustLanguage rates a language from the knowledge pool.
func AdjustLanguage(s *CharacterState, c *Catalog, id string, delta int) (*CharacterState, bool) {
	if Locked(s) || id == "" {
		return s, false
	}
	cur := s.Languages[id]
	res := Bump(id, delta, BumpOptions{
		Current:      s.Languages,
		DeleteOnZero: true,
		Max: func() int {
			return poolCeiling(cur, c.Rules.MaxSkillRating, ComputeBudget(s, c).Knowledge.Remaining)
		},
	})
	if !res.OK {
		return s, false
	}
	next := s.Clone()
	next.Languages = res.Values
	return next, true
}

// ToggleSpell learns a spell when the spell pool has room, or forgets a known one.
func ToggleSpell(s *CharacterState, c *Catalog, id string) (*CharacterState, bool) {
	if Locked(s) || !s.Awakening.CastsSpells() {
		return s, false
	}
	if _, ok := c.Spell(id); !ok {
		return s, false
	}
	if s.Spells[id] {
		next := s.Clone()
		delete(next.Spells, id)
		return next, true
	}
	if ComputeBudget(s, c).Spells.Remaining < 1 {
		return s, false
	}
	next := s.Clone()
	next.Spells[id] = true
	return next, true
}

func ToggleComplexForm(s *CharacterState, c *Catalog, id string) (*CharacterState, bool) {
	if Locked(s) || !s.Awakening.Threads() {
		return s, false
	}
	if _, ok := c.ComplexForm(id); !ok {
		return s, false
	}
	if s.ComplexForms[id] {
		next := s.Clone()
		delete(next.ComplexForms, id)
		return next, true
	}
	if ComputeBudget(s, c).ComplexForms.Remaining < 1 {
		return s, false
	}
	next := s.Clone()
	next.ComplexForms[id] = true
	return next, true
}

// AdjustPower changes an adept power's level within MaxLevel and the power points left.
func AdjustPower(s *CharacterState, c *Catalog, id string, delta int) (*CharacterState, bool) {
	if Locked(s) || !s.Awakening.UsesPowers() {
		return s, false
	}
	def, ok := c.Power(id)
	if !ok {
		return s, false
	}
	maxLevel := max(1, def.MaxLevel)
	cur := s.Powers[id]
	res := Bump(id, delta, BumpOptions{
		Current:      s.Powers,
		DeleteOnZero: true,
		Max: func() int {
			if def.PPCost <= 0 {
				return maxLevel
			}
			remaining := ComputeBudget(s, c).PowerPoints.Remaining
			affordable := int(math.Floor(remaining/def.PPCost + 1e-9))
			return poolCeiling(cur, maxLevel, affordable)
		},
	})
	if !res.OK {
		return s, false
	}
	next := s.Clone()
	next.Powers = res.Values
	return next, true
}
