package hook

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrInterrupt signals that a Hook handler wants to stop further processing.
// For Before* events it vetoes the operation.
var ErrInterrupt = errors.New("hook interrupted")

// HookFn is a hook handler function.
// Returns (modified data, nil) to continue, or (data, ErrInterrupt) to stop.
type HookFn func(ctx context.Context, event string, data interface{}) (interface{}, error)

type hookEntry struct {
	priority int
	fn       HookFn
	name     string
}

// HookCenter manages event hook registrations.
type HookCenter struct {
	mu    sync.RWMutex
	hooks map[string][]*hookEntry
}

func NewHookCenter() *HookCenter {
	return &HookCenter{hooks: make(map[string][]*hookEntry)}
}

// Register adds a HookFn for the given event with the given priority (lower runs
// first; equal priorities run in registration order). name is used for Unregister.
func (hc *HookCenter) Register(event string, priority int, name string, fn HookFn) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	entries := append(hc.hooks[event], &hookEntry{priority: priority, fn: fn, name: name})
	slices.SortStableFunc(entries, func(a, b *hookEntry) int { return a.priority - b.priority })
	hc.hooks[event] = entries
}

// Unregister removes all hooks with the given name for the given event.
func (hc *HookCenter) Unregister(event, name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.hooks[event] = dropNamed(hc.hooks[event], name)
}

// UnregisterAll removes all hooks registered with the given name across all events.
func (hc *HookCenter) UnregisterAll(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	for event, entries := range hc.hooks {
		hc.hooks[event] = dropNamed(entries, name)
	}
}

func dropNamed(entries []*hookEntry, name string) []*hookEntry {
	return slices.DeleteFunc(slices.Clone(entries), func(e *hookEntry) bool { return e.name == name })
}

// Trigger executes all registered hooks for event in priority order.
// Data flows through each handler, allowing modification. ErrInterrupt stops
// the chain and is returned; other handler errors are joined and returned
// after the remaining handlers have run.
func (hc *HookCenter) Trigger(ctx context.Context, event string, data interface{}) (interface{}, error) {
	hc.mu.RLock()
	entries := slices.Clone(hc.hooks[event])
	hc.mu.RUnlock()

	var errs []error
	for _, e := range entries {
		out, err := e.fn(ctx, event, data)
		if errors.Is(err, ErrInterrupt) {
			return out, err
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		data = out
	}
	return data, errors.Join(errs...)
}

// Character lifecycle events. Before* handlers receive a pointer they may
// inspect and can veto with ErrInterrupt.
const (
	OnCharacterCreate = "on_character_create"
	BeforeSubmit      = "before_submit"
	AfterSubmit       = "after_submit"
	BeforeSave        = "before_save"
	AfterSave         = "after_save"
	OnCharacterDelete = "on_character_delete"
	OnDraftRestore    = "on_draft_restore"
	OnAccountLogin    = "on_account_login"
)
