package chargen

// Category is one of the five build categories ranked by a priority letter.
type Category string

const (
	CategoryMetatype   Category = "metatype"
	CategoryAttributes Category = "attributes"
	CategoryMagic      Category = "magic"
	CategorySkills     Category = "skills"
	CategoryResources  Category = "resources"
)

// Letter is a priority rank. A is the richest allocation.
type Letter string

const (
	LetterA Letter = "A"
	LetterB Letter = "B"
	LetterC Letter = "C"
	LetterD Letter = "D"
	LetterE Letter = "E"
)

// Awakening gates which magical sub-allocations apply to a build.
type Awakening string

const (
	Mundane      Awakening = "mundane"
	Mage         Awakening = "mage"
	Adept        Awakening = "adept"
	MysticAdept  Awakening = "mystic_adept"
	Technomancer Awakening = "technomancer"
)

// Special attribute keys.
const (
	SpecialEdge      = "edge"
	SpecialMagic     = "magic"
	SpecialResonance = "resonance"
)

// CastsSpells reports whether the awakening draws on the spell pool.
func (a Awakening) CastsSpells() bool { return a == Mage || a == MysticAdept }

// UsesPowers reports whether the awakening draws on the power point pool.
func (a Awakening) UsesPowers() bool { return a == Adept || a == MysticAdept }

// Threads reports whether the awakening draws on the complex form pool.
func (a Awakening) Threads() bool { return a == Technomancer }

// Valid reports whether a is a known awakening.
func (a Awakening) Valid() bool {
	switch a {
	case Mundane, Mage, Adept, MysticAdept, Technomancer:
		return true
	}
	return false
}

// Rules is the versioned table of numeric constants the engine runs on.
// It is loaded from configuration and carried by the Catalog.
type Rules struct {
	Version                string
	BaseEssence            float64
	Letters                []Letter
	Categories             []Category
	EssenceWarning         float64
	UnspentNuyen           int64
	BiocompatibilityFactor float64
	Biocompatibility       Condition
	TraditionRequired      []Awakening
	MaxSkillRating         int
	SpellsPerMagic         int
	FormsPerResonance      int
	KnowledgePerPoint      int
}

// DefaultRules returns the stock rule table.
func DefaultRules() Rules {
	return Rules{
		Version:                "sr5-core",
		BaseEssence:            6.0,
		Letters:                []Letter{LetterA, LetterB, LetterC, LetterD, LetterE},
		Categories:             []Category{CategoryMetatype, CategoryAttributes, CategoryMagic, CategorySkills, CategoryResources},
		EssenceWarning:         1.0,
		UnspentNuyen:           5000,
		BiocompatibilityFactor: 0.9,
		Biocompatibility:       AnyOf{Qualities: []string{"biocompatibility"}},
		TraditionRequired:      []Awakening{Mage, MysticAdept},
		MaxSkillRating:         6,
		SpellsPerMagic:         2,
		FormsPerResonance:      2,
		KnowledgePerPoint:      2,
	}
}

func (r Rules) validLetter(l Letter) bool {
	for _, x := range r.Letters {
		if x == l {
			return true
		}
	}
	return false
}

func (r Rules) validCategory(c Category) bool {
	for _, x := range r.Categories {
		if x == c {
			return true
		}
	}
	return false
}

func (r Rules) requiresTradition(a Awakening) bool {
	for _, x := range r.TraditionRequired {
		if x == a {
			return true
		}
	}
	return false
}
