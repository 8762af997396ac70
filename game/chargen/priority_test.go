package chargen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetPriority_TrueSwap(t *testing.T) {
	cur := Priorities{CategoryMetatype: LetterA, CategoryAttributes: LetterB}
	got := SetPriority(CategoryMetatype, LetterB, cur)
	assert.Equal(t, Priorities{CategoryMetatype: LetterB, CategoryAttributes: LetterA}, got)
	assert.Equal(t, Priorities{CategoryMetatype: LetterA, CategoryAttributes: LetterB}, cur, "input untouched")
}

func TestSetPriority_UnheldLetterIsTaken(t *testing.T) {
	got := SetPriority(CategoryMagic, LetterC, Priorities{CategoryMetatype: LetterA})
	assert.Equal(t, Priorities{CategoryMetatype: LetterA, CategoryMagic: LetterC}, got)
}

func TestSetPriority_HolderLosesLetterWhenCategoryWasUnassigned(t *testing.T) {
	got := SetPriority(CategoryAttributes, LetterA, Priorities{CategoryMetatype: LetterA})
	assert.Equal(t, Priorities{CategoryAttributes: LetterA}, got)
}

func TestSetPriority_KeepsBijection(t *testing.T) {
	rules := DefaultRules()
	p := Priorities{
		CategoryMetatype:   LetterA,
		CategoryAttributes: LetterB,
		CategoryMagic:      LetterC,
		CategorySkills:     LetterD,
		CategoryResources:  LetterE,
	}
	for i := 0; i < 50; i++ {
		cat := rules.Categories[i%len(rules.Categories)]
		letter := rules.Letters[(i*3)%len(rules.Letters)]
		p = SetPriority(cat, letter, p)
		assert.True(t, p.Complete(rules))
		assert.Empty(t, p.Duplicates(rules))
		assert.Equal(t, letter, p[cat])
	}
}

func TestPriorities_Duplicates(t *testing.T) {
	p := Priorities{CategoryMetatype: LetterA, CategoryAttributes: LetterA, CategoryMagic: LetterC}
	assert.Equal(t, []Letter{LetterA}, p.Duplicates(DefaultRules()))
	assert.False(t, p.Complete(DefaultRules()))
}
