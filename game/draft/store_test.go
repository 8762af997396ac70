package draft

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/kasuganosora/chargen/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newStore(t *testing.T) (*Store, *clock) {
	c, _ := testutil.SetupTestCache(t)
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewStore(c, testutil.Logger(), WithClock(clk.Now)), clk
}

func sample() *chargen.CharacterState {
	s := chargen.NewCharacterState()
	s.Name = "Razor"
	s.Priorities = chargen.Priorities{chargen.CategoryResources: chargen.LetterA}
	return s
}

func TestSaveAndLoad(t *testing.T) {
	st, clk := newStore(t)
	ctx := context.Background()

	saved, err := st.Save(ctx, Draft{Owner: 1, Slot: "main", CharacterID: 9, BaseVersion: 3, State: sample()})
	require.NoError(t, err)
	assert.Equal(t, clk.Now(), saved.SavedAt)

	got, err := st.Load(ctx, 1, "main")
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.CharacterID)
	assert.Equal(t, int64(3), got.BaseVersion)
	assert.True(t, got.SavedAt.Equal(saved.SavedAt))
	assert.True(t, got.State.Equal(sample()))

	_, err = st.Load(ctx, 2, "main")
	assert.ErrorIs(t, err, ErrNotFound, "slots are per owner")
}

func TestSaveCopiesState(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()
	s := sample()
	_, err := st.Save(ctx, Draft{Owner: 1, Slot: "main", State: s})
	require.NoError(t, err)
	s.Name = "changed"

	got, err := st.Load(ctx, 1, "main")
	require.NoError(t, err)
	assert.Equal(t, "Razor", got.State.Name)
}

func TestSaveRejectsBadInput(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()

	_, err := st.Save(ctx, Draft{Owner: 1, Slot: "bad:slot", State: sample()})
	assert.ErrorIs(t, err, ErrInvalidSlot)
	_, err = st.Save(ctx, Draft{Owner: 1, Slot: "", State: sample()})
	assert.ErrorIs(t, err, ErrInvalidSlot)
	_, err = st.Save(ctx, Draft{Owner: 1, Slot: "main"})
	assert.ErrorIs(t, err, ErrEmptyState)
	_, err = st.Load(ctx, 1, "../etc")
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestExpiryBoundary(t *testing.T) {
	st, clk := newStore(t)
	ctx := context.Background()
	_, err := st.Save(ctx, Draft{Owner: 1, Slot: "main", State: sample()})
	require.NoError(t, err)

	clk.Advance(DefaultTTL)
	_, err = st.Load(ctx, 1, "main")
	assert.NoError(t, err, "exactly seven days old is still restorable")

	clk.Advance(time.Millisecond)
	d, err := st.Load(ctx, 1, "main")
	assert.ErrorIs(t, err, ErrExpired)
	assert.Equal(t, "main", d.Slot, "the expired draft is still described")

	_, _, err = st.Restore(ctx, 1, "main", sample())
	assert.ErrorIs(t, err, ErrExpired, "expired drafts are never offered")
}

func TestCustomTTL(t *testing.T) {
	c, _ := testutil.SetupTestCache(t)
	clk := &clock{now: time.Now().UTC()}
	st := NewStore(c, testutil.Logger(), WithClock(clk.Now), WithTTL(time.Hour), WithTTL(0))
	assert.Equal(t, time.Hour, st.TTL())

	_, err := st.Save(context.Background(), Draft{Owner: 1, Slot: "a", State: sample()})
	require.NoError(t, err)
	clk.Advance(61 * time.Minute)
	_, err = st.Load(context.Background(), 1, "a")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestRestoreConflicts(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()
	_, err := st.Save(ctx, Draft{Owner: 1, Slot: "main", State: sample()})
	require.NoError(t, err)

	same := sample()
	same.Skills["pistols"] = 3 // not a salient field
	_, conflicts, err := st.Restore(ctx, 1, "main", same)
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	auth := sample()
	auth.Priorities[chargen.CategoryResources] = chargen.LetterB
	auth.Metatype = "ork"
	auth.Awakening = chargen.Adept
	d, conflicts, err := st.Restore(ctx, 1, "main", auth)
	require.NoError(t, err)
	require.Len(t, conflicts, 3)
	assert.Equal(t, chargen.FieldPriorities, conflicts[0].Field)
	assert.Equal(t, chargen.FieldMetatype, conflicts[1].Field)
	assert.Equal(t, "human", conflicts[1].Draft)
	assert.Equal(t, "ork", conflicts[1].Authoritative)
	assert.Equal(t, chargen.FieldMagic, conflicts[2].Field)
	assert.Equal(t, chargen.LetterA, d.State.Priorities[chargen.CategoryResources], "nothing is merged")

	_, conflicts, err = st.Restore(ctx, 1, "main", nil)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestListNewestFirstAndHidesExpired(t *testing.T) {
	st, clk := newStore(t)
	ctx := context.Background()

	_, err := st.Save(ctx, Draft{Owner: 1, Slot: "old", State: sample()})
	require.NoError(t, err)
	clk.Advance(6 * 24 * time.Hour)
	_, err = st.Save(ctx, Draft{Owner: 1, Slot: "new", State: sample()})
	require.NoError(t, err)
	_, err = st.Save(ctx, Draft{Owner: 2, Slot: "other", State: sample()})
	require.NoError(t, err)

	list, err := st.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Slot)
	assert.Equal(t, "old", list[1].Slot)

	clk.Advance(2 * 24 * time.Hour)
	list, err = st.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].Slot)

	empty, err := st.List(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDelete(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()
	_, err := st.Save(ctx, Draft{Owner: 1, Slot: "main", State: sample()})
	require.NoError(t, err)

	require.NoError(t, st.Delete(ctx, 1, "main"))
	_, err = st.Load(ctx, 1, "main")
	assert.ErrorIs(t, err, ErrNotFound)
	list, _ := st.List(ctx, 1)
	assert.Empty(t, list)

	assert.NoError(t, st.Delete(ctx, 1, "main"), "deleting twice is fine")
}

func TestPrune(t *testing.T) {
	st, clk := newStore(t)
	ctx := context.Background()

	_, err := st.Save(ctx, Draft{Owner: 1, Slot: "stale", State: sample()})
	require.NoError(t, err)
	_, err = st.Save(ctx, Draft{Owner: 2, Slot: "stale", State: sample()})
	require.NoError(t, err)
	clk.Advance(5 * 24 * time.Hour)
	_, err = st.Save(ctx, Draft{Owner: 1, Slot: "fresh", State: sample()})
	require.NoError(t, err)

	n, err := st.Prune(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	clk.Advance(3 * 24 * time.Hour)
	n, err = st.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = st.Load(ctx, 1, "stale")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Load(ctx, 1, "fresh")
	assert.NoError(t, err)
}

func TestPruneSkipsWhileLocked(t *testing.T) {
	c, _ := testutil.SetupTestCache(t)
	clk := &clock{now: time.Now().UTC()}
	st := NewStore(c, testutil.Logger(), WithClock(clk.Now))
	ctx := context.Background()

	_, err := st.Save(ctx, Draft{Owner: 1, Slot: "a", State: sample()})
	require.NoError(t, err)
	clk.Advance(8 * 24 * time.Hour)

	ok, err := c.SetNX(ctx, pruneLock, "someone-else", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	n, err := st.Prune(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	held, err := c.Get(ctx, pruneLock)
	require.NoError(t, err)
	assert.Equal(t, "someone-else", held, "another pruner's lock is left alone")
}

func TestValidSlot(t *testing.T) {
	assert.True(t, ValidSlot("street-sam_2"))
	assert.False(t, ValidSlot("has space"))
	assert.False(t, ValidSlot(string(make([]byte, 65))))
}
