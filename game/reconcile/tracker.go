// Package reconcile keeps a predicted build in step with the authoritative store.
//
// Each field group moves Idle -> Predicting when a local mutation is shown, then
// back to Idle once the store acknowledges the same value (Confirmed) or to
// Reverted when it does not. Predictions are shown at once; submission never
// blocks the caller. A group has at most one submission in flight: edits made
// while it is outstanding collapse into the newest, which is sent at the
// version the pending ack reports.
package reconcile

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/kasuganosora/chargen/game/chargen"
	"go.uber.org/zap"
)

type Phase int

const (
	Idle Phase = iota
	Predicting
	Confirmed
	Reverted
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Predicting:
		return "predicting"
	case Confirmed:
		return "confirmed"
	case Reverted:
		return "reverted"
	}
	return "unknown"
}

// Submission is what the tracker sends for one field group.
type Submission struct {
	FieldKey    string                  `json:"field"`
	BaseVersion int64                   `json:"base_version"`
	State       *chargen.CharacterState `json:"state"`
}

// Ack is the store's answer. State and Version are the authoritative values
// after the submission, whether or not it was accepted.
type Ack struct {
	Accepted bool                    `json:"accepted"`
	Version  int64                   `json:"version"`
	State    *chargen.CharacterState `json:"state,omitempty"`
	Reason   string                  `json:"reason,omitempty"`
	Issues   []chargen.Issue         `json:"issues,omitempty"`
}

// Transport delivers a submission to the authoritative store. Delivery is at
// most once per call; order across field groups is not guaranteed.
type Transport interface {
	Submit(ctx context.Context, sub Submission) (Ack, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, sub Submission) (Ack, error)

func (f TransportFunc) Submit(ctx context.Context, sub Submission) (Ack, error) { return f(ctx, sub) }

// Settlement reports how one prediction ended.
type Settlement struct {
	FieldKey string
	Seq      uint64
	Phase    Phase
	Ack      Ack
	Err      error
}

type pending struct {
	ctx        context.Context
	seq        uint64
	fieldKey   string
	prediction *chargen.CharacterState
}

type group struct {
	phase    Phase
	pend     *pending // newest prediction, shown until settled
	inflight *pending // prediction the transport is carrying
}

type Option func(*Tracker)

// WithVersion sets the authoritative version the initial state was read at.
func WithVersion(v int64) Option { return func(t *Tracker) { t.version = v } }

// WithSettleFunc registers a callback run after every settled prediction.
// It is called without the tracker lock held.
func WithSettleFunc(fn func(Settlement)) Option { return func(t *Tracker) { t.onSettle = fn } }

// Tracker owns the displayed and authoritative snapshots of one build.
type Tracker struct {
	mu            sync.Mutex
	catalog       *chargen.Catalog
	transport     Transport
	logger        *zap.Logger
	onSettle      func(Settlement)
	authoritative *chargen.CharacterState
	displayed     *chargen.CharacterState
	version       int64
	seq           uint64
	groups        map[string]*group
	wg            sync.WaitGroup
}

func NewTracker(initial *chargen.CharacterState, catalog *chargen.Catalog, transport Transport, logger *zap.Logger, opts ...Option) *Tracker {
	if initial == nil {
		initial = chargen.NewCharacterState()
	}
	t := &Tracker{
		catalog:       catalog,
		transport:     transport,
		logger:        logger,
		authoritative: initial.Clone(),
		displayed:     initial.Clone(),
		groups:        make(map[string]*group),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Apply runs m against the displayed state. When the result is allowed it is
// shown immediately and submitted in the background; Apply reports whether the
// prediction was made. Locked builds, failed mutations and mutations that add
// a blocking issue are refused.
func (t *Tracker) Apply(ctx context.Context, fieldKey string, m chargen.Mutation) bool {
	t.mu.Lock()
	if chargen.Locked(t.displayed) {
		t.mu.Unlock()
		return false
	}
	next, ok := m(t.displayed, t.catalog)
	if !ok {
		t.mu.Unlock()
		return false
	}
	_, before := chargen.Check(t.displayed, t.catalog)
	_, after := chargen.Check(next, t.catalog)
	if introduced := chargen.NewErrors(before, after); len(introduced) > 0 {
		t.mu.Unlock()
		t.logger.Debug("prediction refused",
			zap.String("field", fieldKey),
			zap.String("issue", string(introduced[0].Code)))
		return false
	}

	t.seq++
	p := &pending{ctx: ctx, seq: t.seq, fieldKey: fieldKey, prediction: next}
	g := t.group(fieldKey)
	g.phase = Predicting
	g.pend = p
	t.displayed = next
	if g.inflight != nil {
		// Sent once the outstanding ack arrives.
		t.mu.Unlock()
		return true
	}
	sub := t.dispatch(g, p)
	t.mu.Unlock()

	go t.submit(p, sub)
	return true
}

// dispatch marks p as the group's in-flight prediction and builds its
// submission against the current authoritative version. Caller holds t.mu.
func (t *Tracker) dispatch(g *group, p *pending) Submission {
	g.inflight = p
	t.wg.Add(1)
	return Submission{FieldKey: p.fieldKey, BaseVersion: t.version, State: p.prediction.Clone()}
}

func (t *Tracker) submit(p *pending, sub Submission) {
	defer t.wg.Done()
	ack, err := t.transport.Submit(p.ctx, sub)
	t.settle(p, ack, err)
}

func (t *Tracker) settle(p *pending, ack Ack, err error) {
	fieldKey := p.fieldKey
	t.mu.Lock()
	if err == nil && ack.State != nil && ack.Version >= t.version {
		t.authoritative = ack.State.Clone()
		t.version = ack.Version
	}

	g := t.group(fieldKey)
	g.inflight = nil
	if g.pend != nil && g.pend.seq != p.seq {
		// Newer edits arrived meanwhile; send the latest at the acked version.
		next := g.pend
		sub := t.dispatch(g, next)
		t.rebuild()
		t.mu.Unlock()
		t.logger.Debug("prediction superseded",
			zap.String("field", fieldKey),
			zap.Uint64("seq", p.seq),
			zap.Uint64("next", next.seq))
		go t.submit(next, sub)
		return
	}

	st := Settlement{FieldKey: fieldKey, Seq: p.seq, Ack: ack, Err: err}
	g.pend = nil
	if err == nil && ack.Accepted && ack.State != nil && chargen.FieldEqual(ack.State, p.prediction, fieldKey) {
		st.Phase = Confirmed
		g.phase = Idle
	} else {
		st.Phase = Reverted
		g.phase = Reverted
	}
	t.rebuild()
	onSettle := t.onSettle
	t.mu.Unlock()

	if st.Phase == Reverted {
		fields := []zap.Field{zap.String("field", fieldKey), zap.Uint64("seq", p.seq), zap.String("reason", ack.Reason)}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		t.logger.Info("prediction reverted", fields...)
	}
	if onSettle != nil {
		onSettle(st)
	}
}

// rebuild recomputes the displayed state as the authoritative state with the
// owned slices of every outstanding prediction laid over it in submission
// order. Overlaying is idempotent, so a prediction the store has already
// folded in is not applied twice. Caller holds t.mu.
func (t *Tracker) rebuild() {
	var outstanding []*pending
	for _, g := range t.groups {
		if g.pend != nil {
			outstanding = append(outstanding, g.pend)
		}
	}
	slices.SortFunc(outstanding, func(a, b *pending) int { return cmp.Compare(a.seq, b.seq) })

	s := t.authoritative.Clone()
	for _, p := range outstanding {
		s = chargen.Overlay(s, p.prediction, p.fieldKey)
	}
	t.displayed = s
}

// Observe applies an authoritative state pushed by the store outside of any
// acknowledgement. Older versions are ignored.
func (t *Tracker) Observe(state *chargen.CharacterState, version int64) {
	if state == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if version <= t.version {
		return
	}
	t.authoritative = state.Clone()
	t.version = version
	t.rebuild()
}

func (t *Tracker) group(fieldKey string) *group {
	g, ok := t.groups[fieldKey]
	if !ok {
		g = &group{}
		t.groups[fieldKey] = g
	}
	return g
}

// Displayed returns a copy of the state to show.
func (t *Tracker) Displayed() *chargen.CharacterState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.displayed.Clone()
}

// Authoritative returns a copy of the last state the store confirmed.
func (t *Tracker) Authoritative() *chargen.CharacterState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.authoritative.Clone()
}

func (t *Tracker) Version() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}

func (t *Tracker) Phase(fieldKey string) Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	if g, ok := t.groups[fieldKey]; ok {
		return g.phase
	}
	return Idle
}

// Dashboard computes the budget and validation of the displayed state.
func (t *Tracker) Dashboard() (chargen.Dashboard, chargen.Result) {
	return chargen.Check(t.Displayed(), t.catalog)
}

// Wait blocks until every submitted prediction has settled.
func (t *Tracker) Wait() { t.wg.Wait() }
