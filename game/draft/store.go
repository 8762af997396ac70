// Package draft keeps unsaved builds in the cache under an owner and a slot name.
//
// Keys:
//
//	draft:<owner>:<slot>   JSON-encoded Draft
//	drafts:<owner>         hash of slot -> saved-at (unix ms)
//	drafts:expiry          sorted set of <owner>:<slot> scored by saved-at (unix ms)
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kasuganosora/chargen/cache"
	"github.com/kasuganosora/chargen/game/chargen"
	"go.uber.org/zap"
)

// DefaultTTL is how long a draft may be offered for restoration.
const DefaultTTL = 7 * 24 * time.Hour

// grace keeps an expired draft around long enough to report ErrExpired.
const grace = 24 * time.Hour

const (
	expiryKey = "drafts:expiry"
	pruneLock = "lock:drafts:prune"
)

var (
	ErrNotFound    = errors.New("draft: not found")
	ErrExpired     = errors.New("draft: expired")
	ErrInvalidSlot = errors.New("draft: invalid slot name")
	ErrEmptyState  = errors.New("draft: no state to save")
)

// Draft is one stored snapshot.
type Draft struct {
	Owner       int64                   `json:"owner"`
	Slot        string                  `json:"slot"`
	CharacterID int64                   `json:"character_id,omitempty"`
	BaseVersion int64                   `json:"base_version"`
	SavedAt     time.Time               `json:"saved_at"`
	State       *chargen.CharacterState `json:"state"`
}

// Summary is a List entry.
type Summary struct {
	Slot    string    `json:"slot"`
	SavedAt time.Time `json:"saved_at"`
}

// Conflict is a salient difference between a draft and the authoritative build.
type Conflict struct {
	Field         string `json:"field"`
	Draft         any    `json:"draft"`
	Authoritative any    `json:"authoritative"`
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

type Store struct {
	cache  cache.Cache
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time
}

func NewStore(c cache.Cache, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{cache: c, logger: logger, ttl: DefaultTTL, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TTL returns the expiry threshold.
func (s *Store) TTL() time.Duration { return s.ttl }

func draftKey(owner int64, slot string) string { return fmt.Sprintf("draft:%d:%s", owner, slot) }
func indexKey(owner int64) string              { return fmt.Sprintf("drafts:%d", owner) }
func member(owner int64, slot string) string   { return fmt.Sprintf("%d:%s", owner, slot) }

// ValidSlot reports whether name can be used as a slot: 1 to 64 characters
// from [A-Za-z0-9_-].
func ValidSlot(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// Save stores a snapshot of state, replacing whatever the slot held.
func (s *Store) Save(ctx context.Context, d Draft) (Draft, error) {
	if !ValidSlot(d.Slot) {
		return Draft{}, ErrInvalidSlot
	}
	if d.State == nil {
		return Draft{}, ErrEmptyState
	}
	d.State = d.State.Clone()
	d.SavedAt = s.now().UTC().Truncate(time.Millisecond)
	raw, err := json.Marshal(d)
	if err != nil {
		return Draft{}, fmt.Errorf("draft: encode: %w", err)
	}
	at := d.SavedAt.UnixMilli()
	if err := s.cache.Set(ctx, draftKey(d.Owner, d.Slot), string(raw), s.ttl+grace); err != nil {
		return Draft{}, fmt.Errorf("draft: save %s: %w", d.Slot, err)
	}
	if err := s.cache.HSet(ctx, indexKey(d.Owner), d.Slot, strconv.FormatInt(at, 10)); err != nil {
		return Draft{}, fmt.Errorf("draft: index %s: %w", d.Slot, err)
	}
	if err := s.cache.ZAdd(ctx, expiryKey, float64(at), member(d.Owner, d.Slot)); err != nil {
		return Draft{}, fmt.Errorf("draft: index %s: %w", d.Slot, err)
	}
	return d, nil
}

// Load returns the draft in a slot. A draft older than the TTL is reported as
// ErrExpired and must not be restored.
func (s *Store) Load(ctx context.Context, owner int64, slot string) (Draft, error) {
	if !ValidSlot(slot) {
		return Draft{}, ErrInvalidSlot
	}
	raw, err := s.cache.Get(ctx, draftKey(owner, slot))
	if cache.IsNotFound(err) {
		return Draft{}, ErrNotFound
	}
	if err != nil {
		return Draft{}, fmt.Errorf("draft: load %s: %w", slot, err)
	}
	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Draft{}, fmt.Errorf("draft: decode %s: %w", slot, err)
	}
	if s.expired(d.SavedAt) {
		return d, ErrExpired
	}
	return d, nil
}

func (s *Store) expired(savedAt time.Time) bool {
	return s.now().Sub(savedAt) > s.ttl
}

// Restore loads a draft and compares its priorities, metatype and awakening
// with the authoritative build. Differences are returned for the caller to
// resolve; nothing is merged.
func (s *Store) Restore(ctx context.Context, owner int64, slot string, authoritative *chargen.CharacterState) (Draft, []Conflict, error) {
	d, err := s.Load(ctx, owner, slot)
	if err != nil {
		return Draft{}, nil, err
	}
	return d, Conflicts(d.State, authoritative), nil
}

// Conflicts lists the salient differences between a draft and an authoritative state.
func Conflicts(draft, authoritative *chargen.CharacterState) []Conflict {
	if draft == nil || authoritative == nil {
		return nil
	}
	var out []Conflict
	if !chargen.FieldEqual(draft, authoritative, chargen.FieldPriorities) {
		out = append(out, Conflict{Field: chargen.FieldPriorities, Draft: draft.Priorities, Authoritative: authoritative.Priorities})
	}
	if draft.Metatype != authoritative.Metatype {
		out = append(out, Conflict{Field: chargen.FieldMetatype, Draft: draft.Metatype, Authoritative: authoritative.Metatype})
	}
	if draft.Awakening != authoritative.Awakening {
		out = append(out, Conflict{Field: chargen.FieldMagic, Draft: draft.Awakening, Authoritative: authoritative.Awakening})
	}
	return out
}

// List returns the owner's restorable drafts, newest first.
func (s *Store) List(ctx context.Context, owner int64) ([]Summary, error) {
	idx, err := s.cache.HGetAll(ctx, indexKey(owner))
	if err != nil {
		return nil, fmt.Errorf("draft: list: %w", err)
	}
	out := make([]Summary, 0, len(idx))
	for slot, v := range idx {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		at := time.UnixMilli(ms).UTC()
		if s.expired(at) {
			continue
		}
		out = append(out, Summary{Slot: slot, SavedAt: at})
	}
	slices.SortFunc(out, func(a, b Summary) int {
		if c := b.SavedAt.Compare(a.SavedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Slot, b.Slot)
	})
	return out, nil
}

// Delete removes a slot. Deleting a missing slot is not an error.
func (s *Store) Delete(ctx context.Context, owner int64, slot string) error {
	if !ValidSlot(slot) {
		return ErrInvalidSlot
	}
	return s.remove(ctx, owner, slot)
}

func (s *Store) remove(ctx context.Context, owner int64, slot string) error {
	if err := s.cache.Del(ctx, draftKey(owner, slot)); err != nil {
		return fmt.Errorf("draft: delete %s: %w", slot, err)
	}
	if err := s.cache.HDel(ctx, indexKey(owner), slot); err != nil {
		return fmt.Errorf("draft: delete %s: %w", slot, err)
	}
	if err := s.cache.ZRem(ctx, expiryKey, member(owner, slot)); err != nil {
		return fmt.Errorf("draft: delete %s: %w", slot, err)
	}
	return nil
}

// Prune deletes every expired draft and returns how many were removed. Only
// one caller sharing the cache prunes at a time; the others return 0.
func (s *Store) Prune(ctx context.Context) (int, error) {
	token := uuid.NewString()
	ok, err := s.cache.SetNX(ctx, pruneLock, token, time.Minute)
	if err != nil {
		return 0, fmt.Errorf("draft: prune lock: %w", err)
	}
	if !ok {
		return 0, nil
	}
	defer func() {
		if held, err := s.cache.Get(ctx, pruneLock); err == nil && held == token {
			_ = s.cache.Del(ctx, pruneLock)
		}
	}()

	cutoff := s.now().Add(-s.ttl).UnixMilli()
	members, err := s.cache.ZRangeByScore(ctx, expiryKey, math.Inf(-1), float64(cutoff-1))
	if err != nil {
		return 0, fmt.Errorf("draft: prune scan: %w", err)
	}
	n := 0
	for _, m := range members {
		ownerStr, slot, found := strings.Cut(m, ":")
		owner, err := strconv.ParseInt(ownerStr, 10, 64)
		if !found || err != nil {
			_ = s.cache.ZRem(ctx, expiryKey, m)
			continue
		}
		if err := s.remove(ctx, owner, slot); err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		s.logger.Info("drafts pruned", zap.Int("count", n), zap.String("sweep", token))
	}
	return n, nil
}
