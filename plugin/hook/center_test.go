package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pass(_ context.Context, _ string, d interface{}) (interface{}, error) { return d, nil }

func TestTrigger_NoHandlers(t *testing.T) {
	hc := NewHookCenter()
	out, err := hc.Trigger(context.Background(), "noop", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}

func TestTrigger_DataPassThrough(t *testing.T) {
	hc := NewHookCenter()
	hc.Register(BeforeSubmit, 0, "double", func(_ context.Context, event string, data interface{}) (interface{}, error) {
		assert.Equal(t, BeforeSubmit, event)
		return data.(int) * 2, nil
	})
	hc.Register(BeforeSubmit, 1, "addTen", func(_ context.Context, _ string, data interface{}) (interface{}, error) {
		return data.(int) + 10, nil
	})
	out, err := hc.Trigger(context.Background(), BeforeSubmit, 5)
	require.NoError(t, err)
	assert.Equal(t, 20, out) // (5*2)+10
}

func TestTrigger_PriorityThenRegistrationOrder(t *testing.T) {
	hc := NewHookCenter()
	var order []string
	add := func(prio int, name string) {
		hc.Register("ev", prio, name, func(_ context.Context, _ string, d interface{}) (interface{}, error) {
			order = append(order, name)
			return d, nil
		})
	}
	add(10, "late")
	add(1, "first")
	add(5, "mid-a")
	add(5, "mid-b")
	_, err := hc.Trigger(context.Background(), "ev", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "mid-a", "mid-b", "late"}, order)
}

func TestTrigger_ErrInterrupt(t *testing.T) {
	hc := NewHookCenter()
	var secondCalled bool
	hc.Register(BeforeSave, 0, "veto", func(_ context.Context, _ string, d interface{}) (interface{}, error) {
		return d, ErrInterrupt
	})
	hc.Register(BeforeSave, 1, "should_not_run", func(_ context.Context, _ string, d interface{}) (interface{}, error) {
		secondCalled = true
		return d, nil
	})
	_, err := hc.Trigger(context.Background(), BeforeSave, nil)
	assert.ErrorIs(t, err, ErrInterrupt)
	assert.False(t, secondCalled)
}

func TestTrigger_OtherErrorsAreJoined(t *testing.T) {
	hc := NewHookCenter()
	var secondCalled bool
	boom := errors.New("notify failed")
	hc.Register(AfterSubmit, 0, "err", func(_ context.Context, _ string, d interface{}) (interface{}, error) {
		return "discarded", boom
	})
	hc.Register(AfterSubmit, 1, "second", func(_ context.Context, _ string, d interface{}) (interface{}, error) {
		secondCalled = true
		return d, nil
	})
	out, err := hc.Trigger(context.Background(), AfterSubmit, "in")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInterrupt)
	assert.True(t, secondCalled)
	assert.Equal(t, "in", out, "a failing handler's data is discarded")
}

func TestUnregister(t *testing.T) {
	hc := NewHookCenter()
	var c1, c2 bool
	hc.Register("ev", 0, "h1", func(_ context.Context, _ string, d interface{}) (interface{}, error) { c1 = true; return d, nil })
	hc.Register("ev", 1, "h2", func(_ context.Context, _ string, d interface{}) (interface{}, error) { c2 = true; return d, nil })
	hc.Unregister("ev", "h1")
	_, _ = hc.Trigger(context.Background(), "ev", nil)
	assert.False(t, c1)
	assert.True(t, c2)
}

func TestUnregisterAll(t *testing.T) {
	hc := NewHookCenter()
	var called, other bool
	hc.Register(OnCharacterCreate, 0, "plugin", func(_ context.Context, _ string, d interface{}) (interface{}, error) { called = true; return d, nil })
	hc.Register(OnCharacterDelete, 0, "plugin", func(_ context.Context, _ string, d interface{}) (interface{}, error) { called = true; return d, nil })
	hc.Register(OnCharacterDelete, 1, "other", func(_ context.Context, _ string, d interface{}) (interface{}, error) { other = true; return d, nil })
	hc.Register(OnCharacterDelete, 2, "noop", pass)
	hc.UnregisterAll("plugin")
	_, _ = hc.Trigger(context.Background(), OnCharacterCreate, nil)
	_, _ = hc.Trigger(context.Background(), OnCharacterDelete, nil)
	assert.False(t, called)
	assert.True(t, other)
}
