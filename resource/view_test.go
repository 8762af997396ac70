package resource

import (
	"testing"

	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testViews(t *testing.T) *Views {
	t.Helper()
	c, err := LoadCatalog("", chargen.DefaultRules())
	require.NoError(t, err)
	return NewViews(c, 16)
}

func TestViews_FilterAndSort(t *testing.T) {
	v := testViews(t)

	got, err := v.List(KindSpells, "BOLT", SortID)
	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, e := range got {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"manabolt", "powerbolt", "stunbolt"}, ids)

	byCategory, err := v.List(KindSpells, "health", "")
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)
}

func TestViews_CostOrder(t *testing.T) {
	v := testViews(t)

	asc, err := v.List(KindLifestyles, "", SortCost)
	require.NoError(t, err)
	require.NotEmpty(t, asc)
	assert.Equal(t, "street", asc[0].ID)

	desc, err := v.List(KindLifestyles, "", SortCostDesc)
	require.NoError(t, err)
	assert.Equal(t, "luxury", desc[0].ID)
}

func TestViews_Memoised(t *testing.T) {
	v := testViews(t)

	_, err := v.List(KindGear, "ares", SortName)
	require.NoError(t, err)
	_, err = v.List(KindGear, " Ares ", SortName)
	require.NoError(t, err)
	hits, misses := v.cache.Stats()
	assert.Equal(t, uint64(1), hits, "normalised query is the same dependency")
	assert.Equal(t, uint64(1), misses)

	_, err = v.List(KindGear, "katana", SortName)
	require.NoError(t, err)
	_, misses = v.cache.Stats()
	assert.Equal(t, uint64(2), misses)
}

func TestViews_ResultIsACopy(t *testing.T) {
	v := testViews(t)
	first, err := v.List(KindGrades, "", SortID)
	require.NoError(t, err)
	first[0].Name = "mutated"

	again, err := v.List(KindGrades, "", SortID)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again[0].Name)
}

func TestViews_Errors(t *testing.T) {
	v := testViews(t)
	_, err := v.List("weapons", "", "")
	assert.ErrorIs(t, err, ErrUnknownKind)
	_, err = v.List(KindGear, "", "price")
	assert.ErrorIs(t, err, ErrUnknownSort)
}

func TestKinds_AllListable(t *testing.T) {
	v := testViews(t)
	for _, k := range Kinds() {
		got, err := v.List(k, "", "")
		require.NoError(t, err, k)
		assert.NotEmpty(t, got, k)
	}
}
