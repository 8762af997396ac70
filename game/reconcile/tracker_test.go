package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/kasuganosora/chargen/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	l, _ := zap.NewDevelopment()
	return l
}

// store is an in-memory authoritative store that overlays each submission.
type store struct {
	mu      sync.Mutex
	state   *chargen.CharacterState
	version int64
	calls   int
}

func (s *store) Submit(_ context.Context, sub Submission) (Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.state = chargen.Overlay(s.state, sub.State, sub.FieldKey)
	s.version++
	return Ack{Accepted: true, Version: s.version, State: s.state.Clone()}, nil
}

type call struct {
	sub   Submission
	reply chan result
}

type result struct {
	ack Ack
	err error
}

// manual returns a transport whose calls block until the test answers them.
func manual() (Transport, chan call) {
	calls := make(chan call)
	return TransportFunc(func(ctx context.Context, sub Submission) (Ack, error) {
		c := call{sub: sub, reply: make(chan result, 1)}
		calls <- c
		r := <-c.reply
		return r.ack, r.err
	}), calls
}

func recv(t *testing.T, calls chan call) call {
	t.Helper()
	select {
	case c := <-calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no submission")
		return call{}
	}
}

func rename(name string) chargen.Mutation {
	return func(s *chargen.CharacterState, c *chargen.Catalog) (*chargen.CharacterState, bool) {
		return chargen.SetName(s, c, name)
	}
}

func skill(id string, delta int) chargen.Mutation {
	return func(s *chargen.CharacterState, c *chargen.Catalog) (*chargen.CharacterState, bool) {
		return chargen.AdjustSkill(s, c, id, delta)
	}
}

func TestTracker_Confirm(t *testing.T) {
	c := testutil.Catalog(t)
	srv := &store{state: chargen.NewCharacterState()}
	var settled []Settlement
	tr := NewTracker(nil, c, srv, testLogger(), WithSettleFunc(func(s Settlement) { settled = append(settled, s) }))

	require.True(t, tr.Apply(context.Background(), chargen.FieldName, rename("Razor")))
	assert.Equal(t, "Razor", tr.Displayed().Name, "prediction shown before the ack")
	tr.Wait()

	assert.Equal(t, Idle, tr.Phase(chargen.FieldName))
	assert.Equal(t, int64(1), tr.Version())
	assert.Equal(t, "Razor", tr.Authoritative().Name)
	assert.True(t, tr.Displayed().Equal(tr.Authoritative()))
	require.Len(t, settled, 1)
	assert.Equal(t, Confirmed, settled[0].Phase)
	assert.Equal(t, uint64(1), settled[0].Seq)
}

func TestTracker_RevertWhenAckDiffers(t *testing.T) {
	c := testutil.Catalog(t)
	transport := TransportFunc(func(_ context.Context, sub Submission) (Ack, error) {
		// Accepted, but the store normalised the name.
		st := sub.State.Clone()
		st.Name = "RAZOR"
		return Ack{Accepted: true, Version: 1, State: st}, nil
	})
	tr := NewTracker(nil, c, transport, testLogger())
	require.True(t, tr.Apply(context.Background(), chargen.FieldName, rename("Razor")))
	tr.Wait()

	assert.Equal(t, Reverted, tr.Phase(chargen.FieldName))
	assert.Equal(t, "RAZOR", tr.Displayed().Name, "display follows the store")
}

func TestTracker_RevertOnTransportError(t *testing.T) {
	c := testutil.Catalog(t)
	transport := TransportFunc(func(context.Context, Submission) (Ack, error) {
		return Ack{}, errors.New("connection reset")
	})
	var got Settlement
	tr := NewTracker(nil, c, transport, testLogger(), WithVersion(4), WithSettleFunc(func(s Settlement) { got = s }))
	require.True(t, tr.Apply(context.Background(), chargen.FieldName, rename("Razor")))
	tr.Wait()

	assert.Equal(t, Reverted, tr.Phase(chargen.FieldName))
	assert.Equal(t, "", tr.Displayed().Name)
	assert.Equal(t, int64(4), tr.Version())
	assert.EqualError(t, got.Err, "connection reset")
}

func TestTracker_RevertOnRejection(t *testing.T) {
	c := testutil.Catalog(t)
	current := chargen.NewCharacterState()
	current.Name = "Someone Else"
	transport := TransportFunc(func(_ context.Context, sub Submission) (Ack, error) {
		assert.Equal(t, int64(2), sub.BaseVersion)
		return Ack{Accepted: false, Version: 3, State: current, Reason: "stale"}, nil
	})
	var got Settlement
	tr := NewTracker(nil, c, transport, testLogger(), WithVersion(2), WithSettleFunc(func(s Settlement) { got = s }))
	require.True(t, tr.Apply(context.Background(), chargen.FieldName, rename("Razor")))
	tr.Wait()

	assert.Equal(t, Reverted, got.Phase)
	assert.Equal(t, "stale", got.Ack.Reason)
	assert.Equal(t, "Someone Else", tr.Displayed().Name)
	assert.Equal(t, int64(3), tr.Version())
}

func TestTracker_LockedRefusesEverything(t *testing.T) {
	c := testutil.Catalog(t)
	initial := testutil.PresetState(t, c, "street_samurai")
	initial.Saved = true
	srv := &store{state: initial.Clone()}
	tr := NewTracker(initial, c, srv, testLogger())

	assert.False(t, tr.Apply(context.Background(), chargen.FieldName, rename("Razor")))
	assert.False(t, tr.Apply(context.Background(), chargen.FieldSkills, skill("pistols", 1)))
	tr.Wait()
	assert.Zero(t, srv.calls)
	assert.Equal(t, Idle, tr.Phase(chargen.FieldName))
}

func TestTracker_RefusesMutationThatAddsError(t *testing.T) {
	c := testutil.Catalog(t)
	initial := testutil.PresetState(t, c, "street_samurai")
	srv := &store{state: initial.Clone()}
	tr := NewTracker(initial, c, srv, testLogger())

	wired := func(s *chargen.CharacterState, c *chargen.Catalog) (*chargen.CharacterState, bool) {
		return chargen.AddAugment(s, c, "wired_reflexes_2", "standard", 0)
	}
	assert.False(t, tr.Apply(context.Background(), chargen.FieldAugments, wired), "essence would go negative")

	failing := func(s *chargen.CharacterState, _ *chargen.Catalog) (*chargen.CharacterState, bool) { return s, false }
	assert.False(t, tr.Apply(context.Background(), chargen.FieldAugments, failing))

	tr.Wait()
	assert.Zero(t, srv.calls)
	assert.True(t, tr.Displayed().Equal(initial))
}

func TestTracker_ExistingErrorsDoNotBlock(t *testing.T) {
	c := testutil.Catalog(t)
	srv := &store{state: chargen.NewCharacterState()}
	tr := NewTracker(nil, c, srv, testLogger())

	// An empty build is already incomplete; assigning one priority adds nothing new.
	setPriority := func(s *chargen.CharacterState, c *chargen.Catalog) (*chargen.CharacterState, bool) {
		return chargen.SetPriorityOf(s, c, chargen.CategoryResources, chargen.LetterA)
	}
	require.True(t, tr.Apply(context.Background(), chargen.FieldPriorities, setPriority))
	tr.Wait()
	assert.Equal(t, chargen.LetterA, tr.Displayed().Priorities[chargen.CategoryResources])
	assert.Equal(t, 1, srv.calls)
}

func TestTracker_LastWriteWins(t *testing.T) {
	c := testutil.Catalog(t)
	transport, calls := manual()
	var mu sync.Mutex
	var settled []Settlement
	tr := NewTracker(nil, c, transport, testLogger(), WithSettleFunc(func(s Settlement) {
		mu.Lock()
		settled = append(settled, s)
		mu.Unlock()
	}))
	ctx := context.Background()

	require.True(t, tr.Apply(ctx, chargen.FieldName, rename("Alpha")))
	first := recv(t, calls)
	require.True(t, tr.Apply(ctx, chargen.FieldName, rename("Bravo")))
	require.True(t, tr.Apply(ctx, chargen.FieldName, rename("Charlie")))
	assert.Equal(t, "Charlie", tr.Displayed().Name)
	select {
	case extra := <-calls:
		t.Fatalf("second submission sent while the first is in flight: %q", extra.sub.State.Name)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, "Alpha", first.sub.State.Name)
	assert.Equal(t, int64(0), first.sub.BaseVersion)

	// The ack releases the newest edit at the acked version; Bravo is never sent.
	first.reply <- result{ack: Ack{Accepted: true, Version: 1, State: first.sub.State}}
	second := recv(t, calls)
	assert.Equal(t, "Charlie", second.sub.State.Name)
	assert.Equal(t, int64(1), second.sub.BaseVersion)
	assert.Equal(t, int64(1), tr.Version())
	assert.Equal(t, "Alpha", tr.Authoritative().Name)
	assert.Equal(t, "Charlie", tr.Displayed().Name)
	assert.Equal(t, Predicting, tr.Phase(chargen.FieldName))

	second.reply <- result{ack: Ack{Accepted: true, Version: 2, State: second.sub.State}}
	tr.Wait()
	assert.Equal(t, Idle, tr.Phase(chargen.FieldName))
	assert.Equal(t, "Charlie", tr.Displayed().Name)
	assert.Equal(t, int64(2), tr.Version())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, settled, 1, "superseded predictions do not settle")
	assert.Equal(t, uint64(3), settled[0].Seq)
	assert.Equal(t, Confirmed, settled[0].Phase)
}

func TestTracker_SupersededSentAfterFailure(t *testing.T) {
	c := testutil.Catalog(t)
	transport, calls := manual()
	tr := NewTracker(nil, c, transport, testLogger(), WithVersion(3))
	ctx := context.Background()

	require.True(t, tr.Apply(ctx, chargen.FieldName, rename("Alpha")))
	first := recv(t, calls)
	require.True(t, tr.Apply(ctx, chargen.FieldName, rename("Bravo")))

	first.reply <- result{err: errors.New("connection reset")}
	second := recv(t, calls)
	assert.Equal(t, "Bravo", second.sub.State.Name)
	assert.Equal(t, int64(3), second.sub.BaseVersion, "a failed ack leaves the base unchanged")

	second.reply <- result{ack: Ack{Accepted: true, Version: 4, State: second.sub.State}}
	tr.Wait()
	assert.Equal(t, Idle, tr.Phase(chargen.FieldName))
	assert.Equal(t, "Bravo", tr.Authoritative().Name)
}

func TestTracker_KeepsOtherOutstandingPredictions(t *testing.T) {
	c := testutil.Catalog(t)
	initial := testutil.PresetState(t, c, "street_samurai")
	transport, calls := manual()
	tr := NewTracker(initial, c, transport, testLogger(), WithVersion(1))
	ctx := context.Background()

	require.True(t, tr.Apply(ctx, chargen.FieldName, rename("Razor")))
	nameCall := recv(t, calls)
	require.True(t, tr.Apply(ctx, chargen.FieldSkills, skill("pistols", -1)))
	skillCall := recv(t, calls)

	// The store applies the skill edit to its own copy, which has no rename yet.
	server := chargen.Overlay(initial, skillCall.sub.State, chargen.FieldSkills)
	skillCall.reply <- result{ack: Ack{Accepted: true, Version: 2, State: server}}
	require.Eventually(t, func() bool { return tr.Phase(chargen.FieldSkills) == Idle }, 2*time.Second, 5*time.Millisecond)

	shown := tr.Displayed()
	assert.Equal(t, "Razor", shown.Name, "outstanding rename still displayed")
	assert.Equal(t, 3, shown.Skills["pistols"])
	assert.Equal(t, Predicting, tr.Phase(chargen.FieldName))

	nameCall.reply <- result{err: context.DeadlineExceeded}
	tr.Wait()
	assert.Equal(t, Reverted, tr.Phase(chargen.FieldName))
	shown = tr.Displayed()
	assert.Equal(t, "", shown.Name)
	assert.Equal(t, 3, shown.Skills["pistols"], "confirmed edit survives the revert")
}

func TestTracker_Observe(t *testing.T) {
	c := testutil.Catalog(t)
	transport, calls := manual()
	tr := NewTracker(nil, c, transport, testLogger(), WithVersion(5))

	require.True(t, tr.Apply(context.Background(), chargen.FieldName, rename("Razor")))
	pending := recv(t, calls)

	pushed := chargen.NewCharacterState()
	pushed.Lifestyle = "medium"
	tr.Observe(pushed, 6)
	assert.Equal(t, int64(6), tr.Version())
	shown := tr.Displayed()
	assert.Equal(t, "medium", shown.Lifestyle)
	assert.Equal(t, "Razor", shown.Name)

	older := chargen.NewCharacterState()
	older.Lifestyle = "street"
	tr.Observe(older, 3)
	tr.Observe(nil, 9)
	assert.Equal(t, "medium", tr.Displayed().Lifestyle)
	assert.Equal(t, int64(6), tr.Version())

	pending.reply <- result{err: errors.New("gone")}
	tr.Wait()
}

func TestTracker_Dashboard(t *testing.T) {
	c := testutil.Catalog(t)
	tr := NewTracker(testutil.PresetState(t, c, "street_samurai"), c, &store{state: chargen.NewCharacterState()}, testLogger())
	d, res := tr.Dashboard()
	assert.InDelta(t, 1.9, d.Essence.Remaining, 1e-9)
	assert.True(t, res.CanSave)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "predicting", Predicting.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
