package chargen

import "slices"

// Mutation is a lock-checked, copy-on-write edit of a build. It returns the
// input and false when the build is locked or the edit does not apply.
type Mutation func(s *CharacterState, c *Catalog) (*CharacterState, bool)

// Locked reports whether the state refuses every mutation.
func Locked(s *CharacterState) bool { return s == nil || s.Saved }

func SetPriorityOf(s *CharacterState, c *Catalog, cat Category, letter Letter) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	if !c.Rules.validCategory(cat) || !c.Rules.validLetter(letter) || s.Priorities[cat] == letter {
		return s, false
	}
	next := s.Clone()
	next.Priorities = SetPriority(cat, letter, s.Priorities)
	return next, true
}

// SetMetatype switches species and clamps attributes into the new bounds.
func SetMetatype(s *CharacterState, c *Catalog, id string) (*CharacterState, bool) {
	if Locked(s) || s.Metatype == id {
		return s, false
	}
	meta, ok := c.Metatype(id)
	if !ok {
		return s, false
	}
	next := s.Clone()
	next.Metatype = id
	for attr, v := range next.Attributes {
		r, ok := meta.Attributes[attr]
		if !ok {
			delete(next.Attributes, attr)
			continue
		}
		next.Attributes[attr] = min(max(v, r.Min), r.Max)
	}
	if r, ok := meta.Special[SpecialEdge]; ok {
		if bonus := next.Special[SpecialEdge]; bonus > r.Max-r.Min {
			next.Special[SpecialEdge] = r.Max - r.Min
		}
	}
	return next, true
}

// SetAwakening changes the awakening and drops selections it no longer gates in.
func SetAwakening(s *CharacterState, c *Catalog, a Awakening) (*CharacterState, bool) {
	if Locked(s) || !a.Valid() || s.Awakening == a {
		return s, false
	}
	next := s.Clone()
	next.Awakening = a
	if !a.CastsSpells() {
		next.Spells = map[string]bool{}
		next.Tradition = ""
	}
	if !a.UsesPowers() {
		next.Powers = map[string]int{}
	}
	if !a.Threads() {
		next.ComplexForms = map[string]bool{}
		delete(next.Special, SpecialResonance)
	}
	if a == Mundane || a == Technomancer {
		delete(next.Special, SpecialMagic)
	}
	return next, true
}

// SetTradition selects a magical tradition; an empty id clears it.
func SetTradition(s *CharacterState, c *Catalog, id string) (*CharacterState, bool) {
	if Locked(s) || s.Tradition == id {
		return s, false
	}
	if id != "" {
		if !s.Awakening.CastsSpells() {
			return s, false
		}
		if _, ok := c.Tradition(id); !ok {
			return s, false
		}
	}
	next := s.Clone()
	next.Tradition = id
	return next, true
}

func AddQuality(s *CharacterState, c *Catalog, id string) (*CharacterState, bool) {
	if Locked(s) || s.HasQuality(id) {
		return s, false
	}
	if _, ok := c.Qualities[id]; !ok {
		return s, false
	}
	next := s.Clone()
	next.Qualities = append(next.Qualities, id)
	return next, true
}

func RemoveQuality(s *CharacterState, _ *Catalog, id string) (*CharacterState, bool) {
	if Locked(s) || !s.HasQuality(id) {
		return s, false
	}
	next := s.Clone()
	next.Qualities = slices.DeleteFunc(next.Qualities, func(q string) bool { return q == id })
	return next, true
}

// SetLifestyle picks a lifestyle; an empty id clears it.
func SetLifestyle(s *CharacterState, c *Catalog, id string) (*CharacterState, bool) {
	if Locked(s) || s.Lifestyle == id {
		return s, false
	}
	if id != "" {
		if _, ok := c.Lifestyle(id); !ok {
			return s, false
		}
	}
	next := s.Clone()
	next.Lifestyle = id
	return next, true
}

func AddContact(s *CharacterState, _ *Catalog, contact Contact) (*CharacterState, bool) {
	if Locked(s) || contact.Name == "" {
		return s, false
	}
	for _, existing := range s.Contacts {
		if existing.Name == contact.Name {
			return s, false
		}
	}
	next := s.Clone()
	next.Contacts = append(next.Contacts, contact)
	return next, true
}

func RemoveContact(s *CharacterState, _ *Catalog, name string) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	idx := slices.IndexFunc(s.Contacts, func(ct Contact) bool { return ct.Name == name })
	if idx < 0 {
		return s, false
	}
	next := s.Clone()
	next.Contacts = slices.Delete(next.Contacts, idx, idx+1)
	return next, true
}

// LoadPreset replaces the build with a preset's fragment, keeping the name.
func LoadPreset(s *CharacterState, c *Catalog, id string) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	p, ok := c.Preset(id)
	if !ok {
		return s, false
	}
	next := ApplyPreset(p)
	next.Name = s.Name
	return next, true
}

// MarkSaved locks the build. It only succeeds when validation allows saving.
func MarkSaved(s *CharacterState, c *Catalog) (*CharacterState, bool) {
	if Locked(s) {
		return s, false
	}
	if _, res := Check(s, c); !res.CanSave {
		return s, false
	}
	next := s.Clone()
	next.Saved = true
	return next, true
}
