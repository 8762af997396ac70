package chargen

import (
	"maps"
	"slices"
)

// A part is one slice of CharacterState that field groups are built from.
type part struct {
	name string
	copy func(dst, src *CharacterState)
}

var (
	partName       = part{"name", func(d, s *CharacterState) { d.Name = s.Name }}
	partPriorities = part{"priorities", func(d, s *CharacterState) { d.Priorities = cloneMap(s.Priorities) }}
	partMetatype   = part{"metatype", func(d, s *CharacterState) { d.Metatype = s.Metatype }}
	partAwakening  = part{"awakening", func(d, s *CharacterState) { d.Awakening = s.Awakening }}
	partTradition  = part{"tradition", func(d, s *CharacterState) { d.Tradition = s.Tradition }}
	partAttributes = part{"attributes", func(d, s *CharacterState) { d.Attributes = cloneMap(s.Attributes) }}
	partSpecial    = part{"special", func(d, s *CharacterState) { d.Special = cloneMap(s.Special) }}
	partSkills     = part{"skills", func(d, s *CharacterState) {
		d.Skills = cloneMap(s.Skills)
		d.Specializations = cloneMap(s.Specializations)
	}}
	partSkillGroups = part{"skill_groups", func(d, s *CharacterState) { d.SkillGroups = cloneMap(s.SkillGroups) }}
	partKnowledge   = part{"knowledge", func(d, s *CharacterState) {
		d.KnowledgeSkills = cloneMap(s.KnowledgeSkills)
		d.Languages = cloneMap(s.Languages)
	}}
	partSpells       = part{"spells", func(d, s *CharacterState) { d.Spells = cloneMap(s.Spells) }}
	partPowers       = part{"powers", func(d, s *CharacterState) { d.Powers = cloneMap(s.Powers) }}
	partComplexForms = part{"complex_forms", func(d, s *CharacterState) { d.ComplexForms = cloneMap(s.ComplexForms) }}
	partAugments     = part{"augments", func(d, s *CharacterState) { d.Augments = cloneMap(s.Augments) }}
	partGear         = part{"gear", func(d, s *CharacterState) { d.Gear = slices.Clone(s.Gear) }}
	partDrones       = part{"drones", func(d, s *CharacterState) {
		d.Drones = make(map[string]DroneLoadout, len(s.Drones))
		for id, l := range s.Drones {
			d.Drones[id] = DroneLoadout{Mods: slices.Clone(l.Mods)}
		}
	}}
	partQualities = part{"qualities", func(d, s *CharacterState) { d.Qualities = slices.Clone(s.Qualities) }}
	partContacts  = part{"contacts", func(d, s *CharacterState) { d.Contacts = slices.Clone(s.Contacts) }}
	partLifestyle = part{"lifestyle", func(d, s *CharacterState) { d.Lifestyle = s.Lifestyle }}
)

var allParts = []part{
	partName, partPriorities, partMetatype, partAwakening, partTradition, partAttributes,
	partSpecial, partSkills, partSkillGroups, partKnowledge, partSpells, partPowers,
	partComplexForms, partAugments, partGear, partDrones, partQualities, partContacts,
	partLifestyle,
}

// fieldParts lists what each field group owns. Groups whose mutations clear or
// clamp neighbouring data own those neighbours too.
var fieldParts = map[string][]part{
	FieldName:         {partName},
	FieldPriorities:   {partPriorities},
	FieldMetatype:     {partMetatype, partAttributes, partSpecial},
	FieldMagic:        {partAwakening, partTradition, partSpells, partPowers, partComplexForms, partSpecial},
	FieldTradition:    {partTradition},
	FieldAttributes:   {partAttributes},
	FieldSpecial:      {partSpecial},
	FieldSkills:       {partSkills},
	FieldSkillGroups:  {partSkillGroups},
	FieldKnowledge:    {partKnowledge},
	FieldSpells:       {partSpells},
	FieldPowers:       {partPowers},
	FieldComplexForms: {partComplexForms},
	FieldAugments:     {partAugments},
	FieldGear:         {partGear},
	FieldDrones:       {partDrones},
	FieldQualities:    {partQualities},
	FieldContacts:     {partContacts},
	FieldNuyen:        {partLifestyle},
	FieldBuild:        allParts,
}

func partsOf(field string) []part {
	if ps, ok := fieldParts[field]; ok {
		return ps
	}
	return allParts
}

// Parts returns the names of the state slices a field group owns. Unknown
// groups own the whole state.
func Parts(field string) []string {
	ps := partsOf(field)
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.name
	}
	return names
}

// Project returns a state holding only the slices field owns.
func Project(s *CharacterState, field string) *CharacterState {
	out := &CharacterState{}
	for _, p := range partsOf(field) {
		p.copy(out, s)
	}
	return out
}

// FieldEqual reports whether a and b agree on everything field owns.
func FieldEqual(a, b *CharacterState, field string) bool {
	return Project(a, field).Equal(Project(b, field))
}

// Overlay returns a copy of dst with the slices field owns taken from src.
// The lock flag is always kept from dst.
func Overlay(dst, src *CharacterState, field string) *CharacterState {
	out := dst.Clone()
	for _, p := range partsOf(field) {
		p.copy(out, src)
	}
	return out
}

// ChangedParts lists the slices that differ between a and b, in a stable order.
func ChangedParts(a, b *CharacterState) []string {
	var changed []string
	for _, p := range allParts {
		pa, pb := &CharacterState{}, &CharacterState{}
		p.copy(pa, a)
		p.copy(pb, b)
		if !pa.Equal(pb) {
			changed = append(changed, p.name)
		}
	}
	return changed
}

// KnownField reports whether field names a field group.
func KnownField(field string) bool {
	_, ok := fieldParts[field]
	return ok
}

// Fields returns every known field group name, sorted.
func Fields() []string {
	return slices.Sorted(maps.Keys(fieldParts))
}
