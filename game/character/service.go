// Package character is the authoritative store for builds. Edits arrive as
// field-group submissions and are accepted, rejected as stale, or rejected
// because they would add a blocking issue.
package character

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kasuganosora/chargen/audit"
	"github.com/kasuganosora/chargen/cache"
	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/kasuganosora/chargen/game/reconcile"
	"github.com/kasuganosora/chargen/model"
	"github.com/kasuganosora/chargen/plugin/hook"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("character: not found")
	ErrNameTaken     = errors.New("character: name already in use")
	ErrInvalidName   = errors.New("character: invalid name")
	ErrUnknownPreset = errors.New("character: unknown preset")
	ErrNotSavable    = errors.New("character: build has blocking issues")
	ErrLocked        = errors.New("character: build is saved")
	ErrVetoed        = errors.New("character: rejected by hook")
	ErrBusy          = errors.New("character: too many concurrent edits")
)

// Rejection reasons carried in Ack.Reason.
const (
	ReasonLocked       = "locked"
	ReasonStale        = "stale"
	ReasonInvalid      = "invalid"
	ReasonIssues       = "issues"
	ReasonUnknownField = "unknown_field"
	ReasonVetoed       = "vetoed"
	ReasonNameTaken    = "name_taken"
)

const maxNameLen = 64

// Auditor receives audit entries. *audit.Service satisfies it.
type Auditor interface {
	Log(entry audit.AuditEntry)
}

// Record is a stored character with its decoded state.
type Record struct {
	ID        int64                   `json:"id"`
	AccountID int64                   `json:"account_id"`
	Name      string                  `json:"name"`
	Preset    string                  `json:"preset,omitempty"`
	Version   int64                   `json:"version"`
	Saved     bool                    `json:"saved"`
	SavedAt   *time.Time              `json:"saved_at,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
	State     *chargen.CharacterState `json:"state"`

	parts map[string]int64
}

// SubmitEvent is the data passed to BeforeSubmit and AfterSubmit hooks.
type SubmitEvent struct {
	CharacterID int64
	AccountID   int64
	Field       string
	Prev        *chargen.CharacterState
	Next        *chargen.CharacterState
	Version     int64
}

// Update is published on Channel(id) after every accepted change.
type Update struct {
	CharacterID int64                   `json:"character_id"`
	Version     int64                   `json:"version"`
	Field       string                  `json:"field"`
	State       *chargen.CharacterState `json:"state"`
}

// Channel is the pub/sub channel carrying a character's updates.
func Channel(id int64) string { return "character:" + strconv.FormatInt(id, 10) }

type Service struct {
	db      *gorm.DB
	catalog *chargen.Catalog
	audit   Auditor
	hooks   *hook.HookCenter
	pubsub  cache.PubSub
	logger  *zap.Logger
}

// NewService wires the store. audit, hooks and pubsub may be nil.
func NewService(db *gorm.DB, catalog *chargen.Catalog, auditor Auditor, hooks *hook.HookCenter, pubsub cache.PubSub, logger *zap.Logger) *Service {
	return &Service{db: db, catalog: catalog, audit: auditor, hooks: hooks, pubsub: pubsub, logger: logger}
}

func (s *Service) Catalog() *chargen.Catalog { return s.catalog }

func validName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && len(name) <= maxNameLen
}

func decode(row *model.Character) (*Record, error) {
	st := chargen.NewCharacterState()
	if err := json.Unmarshal(row.State, st); err != nil {
		return nil, fmt.Errorf("character: decode %d: %w", row.ID, err)
	}
	st = st.Clone()
	st.Saved = row.Saved
	parts := map[string]int64{}
	if len(row.PartVersions) > 0 {
		if err := json.Unmarshal(row.PartVersions, &parts); err != nil {
			return nil, fmt.Errorf("character: decode part versions %d: %w", row.ID, err)
		}
	}
	return &Record{
		ID: row.ID, AccountID: row.AccountID, Name: row.Name, Preset: row.Preset,
		Version: row.Version, Saved: row.Saved, SavedAt: row.SavedAt,
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
		State: st, parts: parts,
	}, nil
}

// partVersion is the version that last changed part. Parts with no record are
// assumed to have changed at the current version.
func (r *Record) partVersion(part string) int64 {
	if v, ok := r.parts[part]; ok {
		return v
	}
	return r.Version
}

func encode(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func (s *Service) nameTaken(ctx context.Context, accountID int64, name string, except int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Character{}).
		Where("account_id = ? AND name = ? AND id <> ?", accountID, name, except).
		Count(&n).Error
	return n > 0, err
}

// Create starts a new build, optionally from a preset.
func (s *Service) Create(ctx context.Context, accountID int64, name, presetID string) (*Record, error) {
	name = strings.TrimSpace(name)
	if !validName(name) {
		return nil, ErrInvalidName
	}
	st := chargen.NewCharacterState()
	if presetID != "" {
		next, ok := chargen.LoadPreset(st, s.catalog, presetID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, presetID)
		}
		st = next
	}
	st.Name = name

	taken, err := s.nameTaken(ctx, accountID, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrNameTaken
	}

	stateJSON, err := encode(st)
	if err != nil {
		return nil, err
	}
	parts := make(map[string]int64)
	for _, p := range chargen.Parts(chargen.FieldBuild) {
		parts[p] = 1
	}
	partsJSON, err := encode(parts)
	if err != nil {
		return nil, err
	}
	row := &model.Character{
		AccountID:    accountID,
		Name:         name,
		Preset:       presetID,
		State:        stateJSON,
		Version:      1,
		PartVersions: partsJSON,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("character: create: %w", err)
	}
	rec, err := decode(row)
	if err != nil {
		return nil, err
	}

	s.log(ctx, audit.AuditEntry{
		CharID: &rec.ID, AccountID: &accountID, CharName: name,
		Action: audit.ActionCharacterCreate, Version: 1,
		Request: map[string]string{"preset": presetID},
	})
	s.trigger(ctx, hook.OnCharacterCreate, rec)
	s.logger.Info("character created",
		zap.Int64("char_id", rec.ID), zap.Int64("account_id", accountID), zap.String("preset", presetID))
	return rec, nil
}

// Get loads one of the account's characters.
func (s *Service) Get(ctx context.Context, accountID, id int64) (*Record, error) {
	var row model.Character
	err := s.db.WithContext(ctx).Where("id = ? AND account_id = ?", id, accountID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(&row)
}

// List returns the account's characters, most recently updated first.
func (s *Service) List(ctx context.Context, accountID int64) ([]*Record, error) {
	var rows []model.Character
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).
		Order("updated_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*Record, 0, len(rows))
	for i := range rows {
		rec, err := decode(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Delete removes a character.
func (s *Service) Delete(ctx context.Context, accountID, id int64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND account_id = ?", id, accountID).Delete(&model.Character{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.log(ctx, audit.AuditEntry{CharID: &id, AccountID: &accountID, Action: audit.ActionCharacterDelete})
	s.trigger(ctx, hook.OnCharacterDelete, id)
	return nil
}

// Dashboard computes the budget and validation of the stored build.
func (s *Service) Dashboard(ctx context.Context, accountID, id int64) (chargen.Dashboard, chargen.Result, error) {
	rec, err := s.Get(ctx, accountID, id)
	if err != nil {
		return chargen.Dashboard{}, chargen.Result{}, err
	}
	d, res := chargen.Check(rec.State, s.catalog)
	return d, res, nil
}

func (s *Service) log(ctx context.Context, e audit.AuditEntry) {
	if s.audit == nil {
		return
	}
	if e.TraceID == "" {
		e.TraceID = audit.TraceID(ctx)
	}
	s.audit.Log(e)
}

func (s *Service) trigger(ctx context.Context, event string, data any) error {
	if s.hooks == nil {
		return nil
	}
	_, err := s.hooks.Trigger(ctx, event, data)
	if err != nil && !errors.Is(err, hook.ErrInterrupt) {
		s.logger.Warn("hook failed", zap.String("event", event), zap.Error(err))
		return nil
	}
	return err
}

func (s *Service) publish(ctx context.Context, u Update) {
	if s.pubsub == nil {
		return
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := s.pubsub.Publish(ctx, Channel(u.CharacterID), string(raw)); err != nil {
		s.logger.Warn("publish update failed", zap.Int64("char_id", u.CharacterID), zap.Error(err))
	}
}

// Transport returns an in-process reconcile.Transport for one character.
func (s *Service) Transport(accountID, id int64) reconcile.Transport {
	return reconcile.TransportFunc(func(ctx context.Context, sub reconcile.Submission) (reconcile.Ack, error) {
		return s.Submit(ctx, accountID, id, sub)
	})
}
