package chargen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClone_IsDeep(t *testing.T) {
	s := NewCharacterState()
	s.Attributes["body"] = 3
	s.Gear = []GearEntry{{ItemID: "katana", Quantity: 1}}
	s.Drones["mct_fly_spy"] = DroneLoadout{Mods: []string{"rotor_upgrade"}}

	c := s.Clone()
	c.Attributes["body"] = 4
	c.Gear[0].Quantity = 2
	c.Drones["mct_fly_spy"].Mods[0] = "armor_upgrade"

	assert.Equal(t, 3, s.Attributes["body"])
	assert.Equal(t, 1, s.Gear[0].Quantity)
	assert.Equal(t, "rotor_upgrade", s.Drones["mct_fly_spy"].Mods[0])
}

func TestClone_NormalisesNilMaps(t *testing.T) {
	s := (&CharacterState{Metatype: "elf"}).Clone()
	assert.NotNil(t, s.Skills)
	s.Skills["con"] = 1

	var nilState *CharacterState
	assert.Equal(t, "human", nilState.Clone().Metatype)
}

func TestEqual(t *testing.T) {
	a := NewCharacterState()
	b := &CharacterState{Metatype: "human", Awakening: Mundane, Gear: []GearEntry{}}
	assert.True(t, a.Equal(b), "nil and empty containers compare equal")

	b.Skills = map[string]int{"con": 1}
	assert.False(t, a.Equal(b))

	c := a.Clone()
	c.Saved = true
	assert.False(t, a.Equal(c))
}

func TestGearQuantityAndHasQuality(t *testing.T) {
	s := NewCharacterState()
	s.Gear = []GearEntry{{ItemID: "regular_ammo", Quantity: 7}}
	s.Qualities = []string{"toughness"}
	assert.Equal(t, 7, s.GearQuantity("regular_ammo"))
	assert.Equal(t, 0, s.GearQuantity("katana"))
	assert.True(t, s.HasQuality("toughness"))
	assert.False(t, s.HasQuality("bad_luck"))
}

func TestApplyPreset_PureMapping(t *testing.T) {
	p := Preset{
		Priorities:   Priorities{CategoryMagic: LetterA},
		Awakening:    Mage,
		Tradition:    "hermetic",
		Spells:       []string{"manabolt", "heal"},
		ComplexForms: nil,
		Drones:       map[string][]string{"mct_fly_spy": {"rotor_upgrade"}},
		Gear:         []GearEntry{{ItemID: "katana", Quantity: 1}},
	}
	s := ApplyPreset(p)
	assert.Equal(t, "human", s.Metatype)
	assert.Equal(t, Mage, s.Awakening)
	assert.Equal(t, map[string]bool{"manabolt": true, "heal": true}, s.Spells)
	assert.Equal(t, []string{"rotor_upgrade"}, s.Drones["mct_fly_spy"].Mods)

	s.Priorities[CategoryMagic] = LetterB
	s.Gear[0].Quantity = 9
	s.Drones["mct_fly_spy"].Mods[0] = "x"
	assert.Equal(t, LetterA, p.Priorities[CategoryMagic], "preset not aliased")
	assert.Equal(t, 1, p.Gear[0].Quantity)
	assert.Equal(t, "rotor_upgrade", p.Drones["mct_fly_spy"][0])

	assert.Equal(t, Mundane, ApplyPreset(Preset{}).Awakening)
}
