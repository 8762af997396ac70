package chargen

import (
	"errors"
	"fmt"
)

// ErrUnknownOp is returned for a Command whose Op has no mutation.
var ErrUnknownOp = errors.New("chargen: unknown mutation op")

// Command is the wire form of one mutation request.
type Command struct {
	Op       string   `json:"op" binding:"required"`
	Category Category `json:"category,omitempty"`
	Letter   Letter   `json:"letter,omitempty"`
	ID       string   `json:"id,omitempty"`
	// Target is the owning entity for nested edits (the drone of a drone mod).
	Target    string    `json:"target,omitempty"`
	Grade     string    `json:"grade,omitempty"`
	Name      string    `json:"name,omitempty"`
	Delta     int       `json:"delta,omitempty"`
	Rating    int       `json:"rating,omitempty"`
	Awakening Awakening `json:"awakening,omitempty"`
	Contact   *Contact  `json:"contact,omitempty"`
}

type commandEntry struct {
	field string
	build func(cmd Command) Mutation
}

var commands = map[string]commandEntry{
	"set_priority": {FieldPriorities, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) {
			return SetPriorityOf(s, c, cmd.Category, cmd.Letter)
		}
	}},
	"set_metatype": {FieldMetatype, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) { return SetMetatype(s, c, cmd.ID) }
	}},
	"set_awakening": {FieldMagic, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) { return SetAwakening(s, c, cmd.Awakening) }
	}},
	"set_tradition": {FieldTradition, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) { return SetTradition(s, c, cmd.ID) }
	}},
	"adjust_attribute": {FieldAttributes, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) {
			return AdjustAttribute(s, c, cmd.ID, cmd.Delta)
		}
	}},
	"adjust_special": {FieldSpecial, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) {
			return AdjustSpecial(s, c, cmd.ID, cmd.Delta)
		}
	}},
	"adjust_skill": {FieldSkills, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) {
			return AdjustSkill(s, c, cmd.ID, cmd.Delta)
		}
	}},
	"adjust_skill_group": {FieldSkillGroups, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) {
			return AdjustSkillGroup(s, c, cmd.ID, cmd.Delta)
		}
	}},
	"set_specialization": {FieldSkills, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) {
			return SetSpecialization(s, c, cmd.ID, cmd.Name)
		}
	}},
	"adjust_knowledge": {FieldKnowledge, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) {
			return AdjustKnowledgeSkill(s, c, cmd.ID, cmd.Delta)
		}
	}},
	"adjust_language": {FieldKnowledge, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) {
			return AdjustLanguage(s, c, cmd.ID, cmd.Delta)
		}
	}},
	"toggle_spell": {FieldSpells, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) { return ToggleSpell(s, c, cmd.ID) }
	}},
	"toggle_complex_form": {FieldComplexForms, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) { return ToggleComplexForm(s, c, cmd.ID) }
	}},
	"adjust_power": {FieldPowers, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) {
			return AdjustPower(s, c, cmd.ID, cmd.Delta)
		}
	}},
	"add_augment": {FieldAugments, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) {
			return AddAugment(s, c, cmd.ID, cmd.Grade, cmd.Rating)
		}
	}},
	"remove_augment": {FieldAugments, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) { return RemoveAugment(s, c, cmd.ID) }
	}},
	"set_augment_grade": {FieldAugments, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) {
			return SetAugmentGrade(s, c, cmd.ID, cmd.Grade)
		}
	}},
	"adjust_augment_rating": {FieldAugments, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) {
			return AdjustAugmentRating(s, c, cmd.ID, cmd.Delta)
		}
	}},
	"add_gear": {FieldGear, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) { return AddGear(s, c, cmd.ID) }
	}},
	"remove_gear": {FieldGear, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) { return RemoveGear(s, c, cmd.ID) }
	}},
	"add_drone": {FieldDrones, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) { return AddDrone(s, c, cmd.ID) }
	}},
	"remove_drone": {FieldDrones, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) { return RemoveDrone(s, c, cmd.ID) }
	}},
	"install_drone_mod": {FieldDrones, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) {
			return InstallDroneMod(s, c, cmd.Target, cmd.ID)
		}
	}},
	"remove_drone_mod": {FieldDrones, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) {
			return RemoveDroneMod(s, c, cmd.Target, cmd.ID)
		}
	}},
	"add_quality": {FieldQualities, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) { return AddQuality(s, c, cmd.ID) }
	}},
	"remove_quality": {FieldQualities, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) { return RemoveQuality(s, c, cmd.ID) }
	}},
	"set_lifestyle": {FieldNuyen, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) { return SetLifestyle(s, c, cmd.ID) }
	}},
	"add_contact": {FieldContacts, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) {
			if cmd.Contact == nil {
				return s, false
			}
			return AddContact(s, c, *cmd.Contact)
		}
	}},
	"remove_contact": {FieldContacts, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) { return RemoveContact(s, c, cmd.Name) }
	}},
	"load_preset": {FieldBuild, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) { return LoadPreset(s, c, cmd.ID) }
	}},
	"set_name": {FieldName, func(cmd Command) Mutation {
		return func(s *CharacterState, c *Catalog) (*CharacterState, bool) { return SetName(s, c, cmd.Name) }
	}},
}

// Resolve turns a command into its mutation and the field group it edits.
func (cmd Command) Resolve() (field string, m Mutation, err error) {
	entry, ok := commands[cmd.Op]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownOp, cmd.Op)
	}
	return entry.field, entry.build(cmd), nil
}

// SetName renames the build.
func SetName(s *CharacterState, _ *Catalog, name string) (*CharacterState, bool) {
	if Locked(s) || s.Name == name {
		return s, false
	}
	next := s.Clone()
	next.Name = name
	return next, true
}
