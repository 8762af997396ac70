package chargen

// Range is an inclusive [Min, Max] rating bound.
type Range struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// SkillGrant is the skill priority row.
type SkillGrant struct {
	Skills int `yaml:"skills" json:"skills"`
	Groups int `yaml:"groups" json:"groups"`
}

// MagicGrant is the base rating a magic priority letter gives one awakening.
type MagicGrant struct {
	Magic     int `yaml:"magic" json:"magic"`
	Resonance int `yaml:"resonance" json:"resonance"`
}

// PriorityTable maps each category's letter to its point pool.
type PriorityTable struct {
	Metatype   map[Letter]map[string]int           `yaml:"metatype" json:"metatype"`
	Attributes map[Letter]int                      `yaml:"attributes" json:"attributes"`
	Magic      map[Letter]map[Awakening]MagicGrant `yaml:"magic" json:"magic"`
	Skills     map[Letter]SkillGrant               `yaml:"skills" json:"skills"`
	Resources  map[Letter]int64                    `yaml:"resources" json:"resources"`
}

type Metatype struct {
	Name       string           `yaml:"name" json:"name"`
	Attributes map[string]Range `yaml:"attributes" json:"attributes"`
	Special    map[string]Range `yaml:"special" json:"special"`
}

type SkillDef struct {
	Name      string `yaml:"name" json:"name"`
	Group     string `yaml:"group" json:"group"`
	MaxRating int    `yaml:"max_rating" json:"max_rating"`
}

type SpellDef struct {
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category" json:"category"`
}

type PowerDef struct {
	Name     string  `yaml:"name" json:"name"`
	PPCost   float64 `yaml:"pp_cost" json:"pp_cost"`
	MaxLevel int     `yaml:"max_level" json:"max_level"`
}

type AugmentDef struct {
	Name        string  `yaml:"name" json:"name"`
	Cost        int64   `yaml:"cost" json:"cost"`
	EssenceCost float64 `yaml:"essence_cost" json:"essence_cost"`
	// MaxRating > 0 marks a rated augment whose cost and essence scale per rating.
	MaxRating int `yaml:"max_rating" json:"max_rating"`
}

type Grade struct {
	Name              string  `yaml:"name" json:"name"`
	EssenceMultiplier float64 `yaml:"essence_multiplier" json:"essence_multiplier"`
	CostMultiplier    float64 `yaml:"cost_multiplier" json:"cost_multiplier"`
}

type GearDef struct {
	Name        string `yaml:"name" json:"name"`
	Cost        int64  `yaml:"cost" json:"cost"`
	Stackable   bool   `yaml:"stackable" json:"stackable"`
	MaxQuantity int    `yaml:"max_quantity" json:"max_quantity"`
}

type DroneDef struct {
	Name     string `yaml:"name" json:"name"`
	Cost     int64  `yaml:"cost" json:"cost"`
	Category string `yaml:"category" json:"category"`
}

type DroneModDef struct {
	Name              string   `yaml:"name" json:"name"`
	Cost              int64    `yaml:"cost" json:"cost"`
	AllowedCategories []string `yaml:"allowed_categories" json:"allowed_categories"`
	MaxPerDrone       int      `yaml:"max_per_drone" json:"max_per_drone"`
}

// Allows reports whether the mod fits a drone of the given category.
// An empty allow list fits every category.
func (m DroneModDef) Allows(category string) bool {
	if len(m.AllowedCategories) == 0 {
		return true
	}
	for _, c := range m.AllowedCategories {
		if c == category {
			return true
		}
	}
	return false
}

type LifestyleDef struct {
	Name string `yaml:"name" json:"name"`
	Cost int64  `yaml:"cost" json:"cost"`
}

type NamedDef struct {
	Name string `yaml:"name" json:"name"`
}

// Catalog is the read-only rule and item metadata the engine computes against.
type Catalog struct {
	Rules        Rules                   `yaml:"-" json:"-"`
	Priorities   PriorityTable           `yaml:"priorities" json:"priorities"`
	AttributeIDs []string                `yaml:"attribute_ids" json:"attribute_ids"`
	Metatypes    map[string]Metatype     `yaml:"metatypes" json:"metatypes"`
	Skills       map[string]SkillDef     `yaml:"skills" json:"skills"`
	SkillGroups  map[string]NamedDef     `yaml:"skill_groups" json:"skill_groups"`
	Spells       map[string]SpellDef     `yaml:"spells" json:"spells"`
	Powers       map[string]PowerDef     `yaml:"powers" json:"powers"`
	ComplexForms map[string]NamedDef     `yaml:"complex_forms" json:"complex_forms"`
	Traditions   map[string]NamedDef     `yaml:"traditions" json:"traditions"`
	Qualities    map[string]NamedDef     `yaml:"qualities" json:"qualities"`
	Augments     map[string]AugmentDef   `yaml:"augments" json:"augments"`
	Grades       map[string]Grade        `yaml:"grades" json:"grades"`
	Gear         map[string]GearDef      `yaml:"gear" json:"gear"`
	Drones       map[string]DroneDef     `yaml:"drones" json:"drones"`
	DroneMods    map[string]DroneModDef  `yaml:"drone_mods" json:"drone_mods"`
	Lifestyles   map[string]LifestyleDef `yaml:"lifestyles" json:"lifestyles"`
	Presets      map[string]Preset       `yaml:"presets" json:"presets"`
}

// Metatype and the lookups below return the zero value and false for an unknown id.
func (c *Catalog) Metatype(id string) (Metatype, bool) {
	m, ok := c.Metatypes[id]
	return m, ok
}

func (c *Catalog) Skill(id string) (SkillDef, bool) {
	s, ok := c.Skills[id]
	return s, ok
}

func (c *Catalog) SkillGroup(id string) (NamedDef, bool) {
	g, ok := c.SkillGroups[id]
	return g, ok
}

func (c *Catalog) Spell(id string) (SpellDef, bool) {
	s, ok := c.Spells[id]
	return s, ok
}

func (c *Catalog) Power(id string) (PowerDef, bool) {
	p, ok := c.Powers[id]
	return p, ok
}

func (c *Catalog) ComplexForm(id string) (NamedDef, bool) {
	f, ok := c.ComplexForms[id]
	return f, ok
}

func (c *Catalog) Tradition(id string) (NamedDef, bool) {
	t, ok := c.Traditions[id]
	return t, ok
}

func (c *Catalog) Augment(id string) (AugmentDef, bool) {
	a, ok := c.Augments[id]
	return a, ok
}

func (c *Catalog) Grade(id string) (Grade, bool) {
	g, ok := c.Grades[id]
	return g, ok
}

func (c *Catalog) GearItem(id string) (GearDef, bool) {
	g, ok := c.Gear[id]
	return g, ok
}

func (c *Catalog) Drone(id string) (DroneDef, bool) {
	d, ok := c.Drones[id]
	return d, ok
}

func (c *Catalog) DroneMod(id string) (DroneModDef, bool) {
	m, ok := c.DroneMods[id]
	return m, ok
}

func (c *Catalog) Lifestyle(id string) (LifestyleDef, bool) {
	l, ok := c.Lifestyles[id]
	return l, ok
}

func (c *Catalog) Preset(id string) (Preset, bool) {
	p, ok := c.Presets[id]
	return p, ok
}

// AttributeRange returns the metatype bound for an attribute, or (zero, false).
func (c *Catalog) AttributeRange(metatype, attr string) (Range, bool) {
	m, ok := c.Metatypes[metatype]
	if !ok {
		return Range{}, false
	}
	r, ok := m.Attributes[attr]
	return r, ok
}

// SpecialRange returns the metatype bound for a special attribute, or (zero, false).
func (c *Catalog) SpecialRange(metatype, key string) (Range, bool) {
	m, ok := c.Metatypes[metatype]
	if !ok {
		return Range{}, false
	}
	r, ok := m.Special[key]
	return r, ok
}

// ---- priority pools ----

// SpecialPoints is the special attribute pool the metatype letter grants the species.
func (c *Catalog) SpecialPoints(p Priorities, metatype string) int {
	row, ok := c.Priorities.Metatype[p[CategoryMetatype]]
	if !ok {
		return 0
	}
	return row[metatype]
}

func (c *Catalog) AttributePoints(p Priorities) int {
	return c.Priorities.Attributes[p[CategoryAttributes]]
}

func (c *Catalog) SkillPoints(p Priorities) SkillGrant {
	return c.Priorities.Skills[p[CategorySkills]]
}

func (c *Catalog) Resources(p Priorities) int64 {
	return c.Priorities.Resources[p[CategoryResources]]
}

func (c *Catalog) MagicGrant(p Priorities, a Awakening) MagicGrant {
	row, ok := c.Priorities.Magic[p[CategoryMagic]]
	if !ok {
		return MagicGrant{}
	}
	return row[a]
}
