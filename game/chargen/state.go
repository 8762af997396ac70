package chargen

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
)

// Priorities assigns a letter to each category. A missing or empty entry is unassigned.
type Priorities map[Category]Letter

// AugmentSelection is the grade and rating chosen for one installed augment.
type AugmentSelection struct {
	Grade  string `json:"grade" yaml:"grade"`
	Rating int    `json:"rating,omitempty" yaml:"rating"`
}

// GearEntry is a purchased item and how many were bought.
type GearEntry struct {
	ItemID   string `json:"item_id" yaml:"item_id"`
	Quantity int    `json:"quantity" yaml:"quantity"`
}

// DroneLoadout lists the mods fitted to one owned drone.
type DroneLoadout struct {
	Mods []string `json:"mods" yaml:"mods"`
}

// Contact is an NPC the character knows, rated by connection and loyalty.
type Contact struct {
	Name       string `json:"name" yaml:"name"`
	Connection int    `json:"connection" yaml:"connection"`
	Loyalty    int    `json:"loyalty" yaml:"loyalty"`
}

// CharacterState is one snapshot of a build in progress. Engine functions never
// mutate a snapshot they are given; every change returns a new one.
type CharacterState struct {
	Name            string                      `json:"name" yaml:"name"`
	Priorities      Priorities                  `json:"priorities" yaml:"priorities"`
	Metatype        string                      `json:"metatype" yaml:"metatype"`
	Awakening       Awakening                   `json:"awakening" yaml:"awakening"`
	Tradition       string                      `json:"tradition,omitempty" yaml:"tradition"`
	Attributes      map[string]int              `json:"attributes" yaml:"attributes"`
	Special         map[string]int              `json:"special" yaml:"special"`
	Skills          map[string]int              `json:"skills" yaml:"skills"`
	Specializations map[string]string           `json:"specializations" yaml:"specializations"`
	SkillGroups     map[string]int              `json:"skill_groups" yaml:"skill_groups"`
	KnowledgeSkills map[string]int              `json:"knowledge_skills" yaml:"knowledge_skills"`
	Languages       map[string]int              `json:"languages" yaml:"languages"`
	Spells          map[string]bool             `json:"spells" yaml:"spells"`
	Powers          map[string]int              `json:"powers" yaml:"powers"`
	ComplexForms    map[string]bool             `json:"complex_forms" yaml:"complex_forms"`
	Augments        map[string]AugmentSelection `json:"augments" yaml:"augments"`
	Gear            []GearEntry                 `json:"gear" yaml:"gear"`
	Drones          map[string]DroneLoadout     `json:"drones" yaml:"drones"`
	Qualities       []string                    `json:"qualities" yaml:"qualities"`
	Contacts        []Contact                   `json:"contacts" yaml:"contacts"`
	Lifestyle       string                      `json:"lifestyle,omitempty" yaml:"lifestyle"`
	Saved           bool                        `json:"saved" yaml:"saved"`
}

// NewCharacterState returns an empty human, mundane build with no priorities assigned.
func NewCharacterState() *CharacterState {
	return &CharacterState{
		Priorities:      Priorities{},
		Metatype:        "human",
		Awakening:       Mundane,
		Attributes:      map[string]int{},
		Special:         map[string]int{},
		Skills:          map[string]int{},
		Specializations: map[string]string{},
		SkillGroups:     map[string]int{},
		KnowledgeSkills: map[string]int{},
		Languages:       map[string]int{},
		Spells:          map[string]bool{},
		Powers:          map[string]int{},
		ComplexForms:    map[string]bool{},
		Augments:        map[string]AugmentSelection{},
		Drones:          map[string]DroneLoadout{},
	}
}

// Clone returns a deep copy. Nil maps come back as empty maps so callers can
// write to the copy without checks.
func (s *CharacterState) Clone() *CharacterState {
	if s == nil {
		return NewCharacterState()
	}
	out := *s
	out.Priorities = cloneMap(s.Priorities)
	out.Attributes = cloneMap(s.Attributes)
	out.Special = cloneMap(s.Special)
	out.Skills = cloneMap(s.Skills)
	out.Specializations = cloneMap(s.Specializations)
	out.SkillGroups = cloneMap(s.SkillGroups)
	out.KnowledgeSkills = cloneMap(s.KnowledgeSkills)
	out.Languages = cloneMap(s.Languages)
	out.Spells = cloneMap(s.Spells)
	out.Powers = cloneMap(s.Powers)
	out.ComplexForms = cloneMap(s.ComplexForms)
	out.Augments = cloneMap(s.Augments)
	out.Gear = slices.Clone(s.Gear)
	out.Drones = make(map[string]DroneLoadout, len(s.Drones))
	for id, d := range s.Drones {
		out.Drones[id] = DroneLoadout{Mods: slices.Clone(d.Mods)}
	}
	out.Qualities = slices.Clone(s.Qualities)
	out.Contacts = slices.Clone(s.Contacts)
	return &out
}

// Equal compares two snapshots structurally. Nil and empty containers are equal.
func (s *CharacterState) Equal(o *CharacterState) bool {
	a, errA := s.canonical()
	b, errB := o.canonical()
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

func (s *CharacterState) canonical() ([]byte, error) {
	// Clone normalises nil maps; json sorts map keys.
	c := s.Clone()
	if len(c.Gear) == 0 {
		c.Gear = nil
	}
	if len(c.Qualities) == 0 {
		c.Qualities = nil
	}
	if len(c.Contacts) == 0 {
		c.Contacts = nil
	}
	for id, d := range c.Drones {
		if len(d.Mods) == 0 {
			c.Drones[id] = DroneLoadout{}
		}
	}
	return json.Marshal(c)
}

// HasQuality reports whether the state carries the given quality.
func (s *CharacterState) HasQuality(id string) bool {
	return slices.Contains(s.Qualities, id)
}

// GearQuantity returns the quantity held of an item, 0 when absent.
func (s *CharacterState) GearQuantity(id string) int {
	for _, g := range s.Gear {
		if g.ItemID == id {
			return g.Quantity
		}
	}
	return 0
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	maps.Copy(out, m)
	return out
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
