package chargen

// Preset is a named archetype template.
type Preset struct {
	Name            string                      `yaml:"name" json:"name"`
	Priorities      Priorities                  `yaml:"priorities" json:"priorities"`
	Metatype        string                      `yaml:"metatype" json:"metatype"`
	Awakening       Awakening                   `yaml:"awakening" json:"awakening"`
	Tradition       string                      `yaml:"tradition" json:"tradition,omitempty"`
	Attributes      map[string]int              `yaml:"attributes" json:"attributes"`
	Special         map[string]int              `yaml:"special" json:"special"`
	Skills          map[string]int              `yaml:"skills" json:"skills"`
	Specializations map[string]string           `yaml:"specializations" json:"specializations"`
	SkillGroups     map[string]int              `yaml:"skill_groups" json:"skill_groups"`
	KnowledgeSkills map[string]int              `yaml:"knowledge_skills" json:"knowledge_skills"`
	Languages       map[string]int              `yaml:"languages" json:"languages"`
	Spells          []string                    `yaml:"spells" json:"spells"`
	Powers          map[string]int              `yaml:"powers" json:"powers"`
	ComplexForms    []string                    `yaml:"complex_forms" json:"complex_forms"`
	Augments        map[string]AugmentSelection `yaml:"augments" json:"augments"`
	Gear            []GearEntry                 `yaml:"gear" json:"gear"`
	Drones          map[string][]string         `yaml:"drones" json:"drones"`
	Qualities       []string                    `yaml:"qualities" json:"qualities"`
	Contacts        []Contact                   `yaml:"contacts" json:"contacts"`
	Lifestyle       string                      `yaml:"lifestyle" json:"lifestyle,omitempty"`
}

// ApplyPreset expands a template into a full state fragment. It is a pure data
// mapping; nothing is validated or computed.
func ApplyPreset(p Preset) *CharacterState {
	s := &CharacterState{
		Priorities:      cloneMap(p.Priorities),
		Metatype:        p.Metatype,
		Awakening:       p.Awakening,
		Tradition:       p.Tradition,
		Attributes:      cloneMap(p.Attributes),
		Special:         cloneMap(p.Special),
		Skills:          cloneMap(p.Skills),
		Specializations: cloneMap(p.Specializations),
		SkillGroups:     cloneMap(p.SkillGroups),
		KnowledgeSkills: cloneMap(p.KnowledgeSkills),
		Languages:       cloneMap(p.Languages),
		Spells:          make(map[string]bool, len(p.Spells)),
		Powers:          cloneMap(p.Powers),
		ComplexForms:    make(map[string]bool, len(p.ComplexForms)),
		Augments:        cloneMap(p.Augments),
		Drones:          make(map[string]DroneLoadout, len(p.Drones)),
		Lifestyle:       p.Lifestyle,
	}
	if s.Metatype == "" {
		s.Metatype = "human"
	}
	if s.Awakening == "" {
		s.Awakening = Mundane
	}
	for _, id := range p.Spells {
		s.Spells[id] = true
	}
	for _, id := range p.ComplexForms {
		s.ComplexForms[id] = true
	}
	for id, mods := range p.Drones {
		s.Drones[id] = DroneLoadout{Mods: append([]string(nil), mods...)}
	}
	s.Gear = append([]GearEntry(nil), p.Gear...)
	s.Qualities = append([]string(nil), p.Qualities...)
	s.Contacts = append([]Contact(nil), p.Contacts...)
	return s
}
