package resource

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/kasuganosora/chargen/game/memo"
)

var ErrUnknownKind = errors.New("resource: unknown catalog kind")
var ErrUnknownSort = errors.New("resource: unknown sort order")

// Entry is one row of a catalog listing.
type Entry struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category,omitempty"`
	Cost      int64   `json:"cost,omitempty"`
	Essence   float64 `json:"essence,omitempty"`
	PPCost    float64 `json:"pp_cost,omitempty"`
	MaxRating int     `json:"max_rating,omitempty"`
}

// Catalog listing kinds.
const (
	KindMetatypes    = "metatypes"
	KindSkills       = "skills"
	KindSkillGroups  = "skill_groups"
	KindSpells       = "spells"
	KindPowers       = "powers"
	KindComplexForms = "complex_forms"
	KindTraditions   = "traditions"
	KindQualities    = "qualities"
	KindAugments     = "augments"
	KindGrades       = "grades"
	KindGear         = "gear"
	KindDrones       = "drones"
	KindDroneMods    = "drone_mods"
	KindLifestyles   = "lifestyles"
	KindPresets      = "presets"
)

// Sort orders accepted by List.
const (
	SortName     = "name"
	SortID       = "id"
	SortCost     = "cost"
	SortCostDesc = "-cost"
)

func entries[V any](m map[string]V, row func(id string, v V) Entry) []Entry {
	out := make([]Entry, 0, len(m))
	for id, v := range m {
		out = append(out, row(id, v))
	}
	return out
}

func named(id, name string) Entry { return Entry{ID: id, Name: name} }

// rows builds the unfiltered listing of one kind.
func rows(c *chargen.Catalog, kind string) ([]Entry, bool) {
	switch kind {
	case KindMetatypes:
		return entries(c.Metatypes, func(id string, m chargen.Metatype) Entry { return named(id, m.Name) }), true
	case KindSkills:
		return entries(c.Skills, func(id string, s chargen.SkillDef) Entry {
			return Entry{ID: id, Name: s.Name, Category: s.Group, MaxRating: s.MaxRating}
		}), true
	case KindSkillGroups:
		return entries(c.SkillGroups, func(id string, n chargen.NamedDef) Entry { return named(id, n.Name) }), true
	case KindSpells:
		return entries(c.Spells, func(id string, s chargen.SpellDef) Entry {
			return Entry{ID: id, Name: s.Name, Category: s.Category}
		}), true
	case KindPowers:
		return entries(c.Powers, func(id string, p chargen.PowerDef) Entry {
			return Entry{ID: id, Name: p.Name, PPCost: p.PPCost, MaxRating: p.MaxLevel}
		}), true
	case KindComplexForms:
		return entries(c.ComplexForms, func(id string, n chargen.NamedDef) Entry { return named(id, n.Name) }), true
	case KindTraditions:
		return entries(c.Traditions, func(id string, n chargen.NamedDef) Entry { return named(id, n.Name) }), true
	case KindQualities:
		return entries(c.Qualities, func(id string, n chargen.NamedDef) Entry { return named(id, n.Name) }), true
	case KindAugments:
		return entries(c.Augments, func(id string, a chargen.AugmentDef) Entry {
			return Entry{ID: id, Name: a.Name, Cost: a.Cost, Essence: a.EssenceCost, MaxRating: a.MaxRating}
		}), true
	case KindGrades:
		return entries(c.Grades, func(id string, g chargen.Grade) Entry {
			return Entry{ID: id, Name: g.Name, Essence: g.EssenceMultiplier}
		}), true
	case KindGear:
		return entries(c.Gear, func(id string, g chargen.GearDef) Entry {
			return Entry{ID: id, Name: g.Name, Cost: g.Cost, MaxRating: g.MaxQuantity}
		}), true
	case KindDrones:
		return entries(c.Drones, func(id string, d chargen.DroneDef) Entry {
			return Entry{ID: id, Name: d.Name, Cost: d.Cost, Category: d.Category}
		}), true
	case KindDroneMods:
		return entries(c.DroneMods, func(id string, m chargen.DroneModDef) Entry {
			return Entry{ID: id, Name: m.Name, Cost: m.Cost, Category: strings.Join(m.AllowedCategories, ","), MaxRating: m.MaxPerDrone}
		}), true
	case KindLifestyles:
		return entries(c.Lifestyles, func(id string, l chargen.LifestyleDef) Entry {
			return Entry{ID: id, Name: l.Name, Cost: l.Cost}
		}), true
	case KindPresets:
		return entries(c.Presets, func(id string, p chargen.Preset) Entry { return named(id, p.Name) }), true
	}
	return nil, false
}

// Views serves filtered and sorted catalog listings, memoised per kind.
type Views struct {
	catalog *chargen.Catalog
	cache   *memo.Cache[[]Entry]
}

func NewViews(c *chargen.Catalog, capacity int) *Views {
	return &Views{catalog: c, cache: memo.New[[]Entry](capacity)}
}

// List returns the entries of kind whose id, name or category contains query
// (case-insensitive), ordered by sortBy. An empty sortBy orders by name.
func (v *Views) List(kind, query, sortBy string) ([]Entry, error) {
	if sortBy == "" {
		sortBy = SortName
	}
	cmpFn, ok := sorters[sortBy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSort, sortBy)
	}
	if _, ok := rows(v.catalog, kind); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := v.cache.Get(kind, []any{q, sortBy}, func() []Entry {
		all, _ := rows(v.catalog, kind)
		filtered := slices.DeleteFunc(all, func(e Entry) bool { return !matches(e, q) })
		slices.SortStableFunc(filtered, cmpFn)
		return filtered
	})
	return slices.Clone(out), nil
}

// Kinds returns the listing kinds List accepts.
func Kinds() []string {
	return []string{
		KindAugments, KindComplexForms, KindDroneMods, KindDrones, KindGear, KindGrades,
		KindLifestyles, KindMetatypes, KindPowers, KindPresets, KindQualities,
		KindSkillGroups, KindSkills, KindSpells, KindTraditions,
	}
}

func matches(e Entry, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.ID), q) ||
		strings.Contains(strings.ToLower(e.Name), q) ||
		strings.Contains(strings.ToLower(e.Category), q)
}

var sorters = map[string]func(a, b Entry) int{
	SortName: func(a, b Entry) int { return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID)) },
	SortID:   func(a, b Entry) int { return cmp.Compare(a.ID, b.ID) },
	SortCost: func(a, b Entry) int { return cmp.Or(cmp.Compare(a.Cost, b.Cost), cmp.Compare(a.ID, b.ID)) },
	SortCostDesc: func(a, b Entry) int {
		return cmp.Or(cmp.Compare(b.Cost, a.Cost), cmp.Compare(a.ID, b.ID))
	},
}
