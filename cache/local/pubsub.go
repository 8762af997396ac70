package local

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
)

// LocalMessage is an in-process pub/sub message.
type LocalMessage struct {
	Channel string
	Payload string
}

type subscription struct {
	ch       chan *LocalMessage
	stop     chan struct{}
	channels []string
	once     sync.Once
}

// LocalPubSub fans messages out to in-process subscribers. A subscriber whose
// buffer is full misses the message rather than blocking the publisher.
type LocalPubSub struct {
	mu      sync.RWMutex
	subs    map[string][]*subscription
	bufSize int
	dropped atomic.Int64
}

func NewPubSub(bufSize int) *LocalPubSub {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &LocalPubSub{
		subs:    make(map[string][]*subscription),
		bufSize: bufSize,
	}
}

func (ps *LocalPubSub) Publish(_ context.Context, channel, message string) error {
	msg := &LocalMessage{Channel: channel, Payload: message}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for _, s := range ps.subs[channel] {
		select {
		case s.ch <- msg:
		default:
			ps.dropped.Add(1)
		}
	}
	return nil
}

// Dropped reports how many deliveries were skipped because a buffer was full.
func (ps *LocalPubSub) Dropped() int64 { return ps.dropped.Load() }

// Subscribe listens on channels until cancel is called or ctx is done. The
// returned channel is closed when the subscription ends.
func (ps *LocalPubSub) Subscribe(ctx context.Context, channels ...string) (<-chan *LocalMessage, func(), error) {
	s := &subscription{
		ch:       make(chan *LocalMessage, ps.bufSize),
		stop:     make(chan struct{}),
		channels: slices.Clone(channels),
	}

	ps.mu.Lock()
	for _, c := range s.channels {
		ps.subs[c] = append(ps.subs[c], s)
	}
	ps.mu.Unlock()

	cancel := func() { ps.unsubscribe(s) }
	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				cancel()
			case <-s.stop:
			}
		}()
	}
	return s.ch, cancel, nil
}

func (ps *LocalPubSub) unsubscribe(s *subscription) {
	s.once.Do(func() {
		ps.mu.Lock()
		defer ps.mu.Unlock()
		for _, c := range s.channels {
			ps.subs[c] = slices.DeleteFunc(ps.subs[c], func(x *subscription) bool { return x == s })
			if len(ps.subs[c]) == 0 {
				delete(ps.subs, c)
			}
		}
		close(s.stop)
		close(s.ch)
	})
}
