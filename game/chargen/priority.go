package chargen

// SetPriority gives cat the letter. Whichever other category held that letter
// receives cat's previous letter, so a complete assignment stays a bijection.
// The input is not modified.
func SetPriority(cat Category, letter Letter, current Priorities) Priorities {
	next := cloneMap(current)
	old := next[cat]
	for other, l := range current {
		if other != cat && l == letter {
			if old == "" {
				delete(next, other)
			} else {
				next[other] = old
			}
		}
	}
	next[cat] = letter
	return next
}

// Complete reports whether every category in rules holds a letter.
func (p Priorities) Complete(rules Rules) bool {
	for _, c := range rules.Categories {
		if p[c] == "" {
			return false
		}
	}
	return true
}

// Duplicates returns the letters held by more than one category, in rule order.
func (p Priorities) Duplicates(rules Rules) []Letter {
	count := make(map[Letter]int, len(p))
	for _, l := range p {
		if l != "" {
			count[l]++
		}
	}
	var dup []Letter
	for _, l := range rules.Letters {
		if count[l] > 1 {
			dup = append(dup, l)
		}
	}
	return dup
}
