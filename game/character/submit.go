package character

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kasuganosora/chargen/audit"
	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/kasuganosora/chargen/game/reconcile"
	"github.com/kasuganosora/chargen/model"
	"github.com/kasuganosora/chargen/plugin/hook"
	"go.uber.org/zap"
)

const maxAttempts = 3

// Submit reconciles one field group. The store keeps the value only if no part
// the group owns changed after BaseVersion and the result adds no blocking
// issue; either way the ack carries the authoritative state.
func (s *Service) Submit(ctx context.Context, accountID, id int64, sub reconcile.Submission) (reconcile.Ack, error) {
	start := time.Now()
	for attempt := 0; attempt < maxAttempts; attempt++ {
		ack, retry, err := s.trySubmit(ctx, accountID, id, sub)
		if err != nil {
			return reconcile.Ack{}, err
		}
		if retry {
			s.logger.Debug("submit raced, retrying",
				zap.Int64("char_id", id), zap.String("field", sub.FieldKey), zap.Int("attempt", attempt+1))
			continue
		}
		action := audit.ActionSubmitAccepted
		if !ack.Accepted {
			action = audit.ActionSubmitRejected
		}
		s.log(ctx, audit.AuditEntry{
			CharID: &id, AccountID: &accountID, Action: action,
			Field: sub.FieldKey, Version: ack.Version,
			Request:    map[string]int64{"base_version": sub.BaseVersion},
			Error:      ack.Reason,
			DurationMs: int(time.Since(start).Milliseconds()),
		})
		return ack, nil
	}
	return reconcile.Ack{}, ErrBusy
}

func reject(rec *Record, reason string, issues []chargen.Issue) reconcile.Ack {
	return reconcile.Ack{
		Accepted: false,
		Version:  rec.Version,
		State:    rec.State,
		Reason:   reason,
		Issues:   issues,
	}
}

func (s *Service) trySubmit(ctx context.Context, accountID, id int64, sub reconcile.Submission) (ack reconcile.Ack, retry bool, err error) {
	rec, err := s.Get(ctx, accountID, id)
	if err != nil {
		return ack, false, err
	}
	switch {
	case rec.Saved:
		return reject(rec, ReasonLocked, nil), false, nil
	case !chargen.KnownField(sub.FieldKey):
		return reject(rec, ReasonUnknownField, nil), false, nil
	case sub.State == nil:
		return reject(rec, ReasonInvalid, nil), false, nil
	}

	owned := chargen.Parts(sub.FieldKey)
	for _, p := range owned {
		if rec.partVersion(p) > sub.BaseVersion {
			return reject(rec, ReasonStale, nil), false, nil
		}
	}

	next := chargen.Overlay(rec.State, sub.State, sub.FieldKey)
	next.Saved = false
	if slices.Contains(owned, "name") {
		next.Name = strings.TrimSpace(next.Name)
		if !validName(next.Name) {
			return reject(rec, ReasonInvalid, nil), false, nil
		}
		taken, err := s.nameTaken(ctx, accountID, next.Name, id)
		if err != nil {
			return ack, false, err
		}
		if taken {
			return reject(rec, ReasonNameTaken, nil), false, nil
		}
	}

	_, before := chargen.Check(rec.State, s.catalog)
	_, after := chargen.Check(next, s.catalog)
	if introduced := chargen.NewErrors(before, after); len(introduced) > 0 {
		return reject(rec, ReasonIssues, introduced), false, nil
	}

	changed := chargen.ChangedParts(rec.State, next)
	if len(changed) == 0 {
		return reconcile.Ack{Accepted: true, Version: rec.Version, State: rec.State}, false, nil
	}

	ev := &SubmitEvent{CharacterID: id, AccountID: accountID, Field: sub.FieldKey, Prev: rec.State, Next: next, Version: rec.Version}
	if err := s.trigger(ctx, hook.BeforeSubmit, ev); errors.Is(err, hook.ErrInterrupt) {
		return reject(rec, ReasonVetoed, nil), false, nil
	}

	version := rec.Version + 1
	parts := make(map[string]int64, len(rec.parts)+len(changed))
	for k, v := range rec.parts {
		parts[k] = v
	}
	for _, p := range changed {
		parts[p] = version
	}
	ok, err := s.commit(ctx, rec, next, parts, version, nil)
	if err != nil {
		return ack, false, err
	}
	if !ok {
		return ack, true, nil
	}

	ev.Version = version
	s.trigger(ctx, hook.AfterSubmit, ev)
	s.publish(ctx, Update{CharacterID: id, Version: version, Field: sub.FieldKey, State: next})
	return reconcile.Ack{Accepted: true, Version: version, State: next}, false, nil
}

// commit writes next at version if the row is still at rec.Version. It reports
// false when another writer got there first.
func (s *Service) commit(ctx context.Context, rec *Record, next *chargen.CharacterState, parts map[string]int64, version int64, savedAt *time.Time) (bool, error) {
	stateJSON, err := encode(next)
	if err != nil {
		return false, err
	}
	partsJSON, err := encode(parts)
	if err != nil {
		return false, err
	}
	updates := map[string]any{
		"state":         stateJSON,
		"version":       version,
		"part_versions": partsJSON,
		"name":          next.Name,
		"saved":         next.Saved,
	}
	if savedAt != nil {
		updates["saved_at"] = savedAt
	}
	res := s.db.WithContext(ctx).Model(&model.Character{}).
		Where("id = ? AND version = ?", rec.ID, rec.Version).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("character: update %d: %w", rec.ID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Apply runs a command against the stored build and submits the result at the
// version it was read at.
func (s *Service) Apply(ctx context.Context, accountID, id int64, cmd chargen.Command) (reconcile.Ack, error) {
	field, m, err := cmd.Resolve()
	if err != nil {
		return reconcile.Ack{}, err
	}
	rec, err := s.Get(ctx, accountID, id)
	if err != nil {
		return reconcile.Ack{}, err
	}
	if rec.Saved {
		return reject(rec, ReasonLocked, nil), nil
	}
	next, ok := m(rec.State, s.catalog)
	if !ok {
		return reject(rec, ReasonInvalid, nil), nil
	}
	return s.Submit(ctx, accountID, id, reconcile.Submission{FieldKey: field, BaseVersion: rec.Version, State: next})
}

// Save locks the build. It fails with ErrNotSavable, together with the
// validation result, while any blocking issue remains.
func (s *Service) Save(ctx context.Context, accountID, id int64) (*Record, chargen.Result, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		rec, err := s.Get(ctx, accountID, id)
		if err != nil {
			return nil, chargen.Result{}, err
		}
		if rec.Saved {
			return rec, chargen.Result{}, ErrLocked
		}
		_, res := chargen.Check(rec.State, s.catalog)
		next, ok := chargen.MarkSaved(rec.State, s.catalog)
		if !ok {
			return rec, res, ErrNotSavable
		}
		if err := s.trigger(ctx, hook.BeforeSave, rec); errors.Is(err, hook.ErrInterrupt) {
			return rec, res, ErrVetoed
		}

		now := time.Now().UTC()
		version := rec.Version + 1
		committed, err := s.commit(ctx, rec, next, rec.parts, version, &now)
		if err != nil {
			return nil, res, err
		}
		if !committed {
			continue
		}

		rec.State, rec.Saved, rec.SavedAt, rec.Version = next, true, &now, version
		s.log(ctx, audit.AuditEntry{
			CharID: &id, AccountID: &accountID, CharName: rec.Name,
			Action: audit.ActionCharacterSave, Version: version,
		})
		s.trigger(ctx, hook.AfterSave, rec)
		s.publish(ctx, Update{CharacterID: id, Version: version, Field: chargen.FieldBuild, State: next})
		s.logger.Info("character saved", zap.Int64("char_id", id), zap.Int64("version", version))
		return rec, res, nil
	}
	return nil, chargen.Result{}, ErrBusy
}
