// Package session gives read-only access to the session cookie issued by the
// external login flow. The cookie value is a bearer token; it is never
// copied into long-lived state and never written by this module.
package session

import (
	"context"
	"sync"
)

const (
	DefaultOrigin = "http://localhost:5173"
	DefaultName   = "ext_auth"
)

// Cookie is the session cookie as seen in the store.
type Cookie struct {
	Origin string
	Name   string
	Value  string
}

// Store reads the session cookie. A missing cookie is reported as (nil, nil).
type Store interface {
	Get(ctx context.Context) (*Cookie, error)
}

// Watcher is implemented by stores that can notify about cookie changes.
type Watcher interface {
	Watch() (*Subscription, error)
}

// Subscription delivers cookie change notifications until Close is called.
// The owner of the subscription is responsible for closing it.
type Subscription struct {
	events chan struct{}
	stop   func() error

	once sync.Once
	err  error
}

func newSubscription(stop func() error) *Subscription {
	return &Subscription{
		events: make(chan struct{}, 1),
		stop:   stop,
	}
}

// Changes returns a channel that receives a value after every change.
// Bursts of changes are coalesced. The channel is closed by Close.
func (s *Subscription) Changes() <-chan struct{} {
	return s.events
}

func (s *Subscription) notify() {
	select {
	case s.events <- struct{}{}:
	default:
	}
}

// Close releases the underlying watch. It is safe to call more than once.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		if s.stop != nil {
			s.err = s.stop()
		}
	})
	return s.err
}

// Static is an in-memory store. A zero Static holds no cookie.
type Static struct {
	mu     sync.RWMutex
	cookie *Cookie
	subs   []*Subscription
}

// NewStatic returns a store holding value, or no cookie when value is empty.
func NewStatic(value string) *Static {
	s := &Static{}
	s.Set(value)
	return s
}

func (s *Static) Get(_ context.Context) (*Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cookie == nil {
		return nil, nil
	}
	c := *s.cookie
	return &c, nil
}

// Set replaces the cookie value and notifies subscribers. An empty value
// removes the cookie.
func (s *Static) Set(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value == "" {
		s.cookie = nil
	} else {
		s.cookie = &Cookie{Origin: DefaultOrigin, Name: DefaultName, Value: value}
	}

	// notify never blocks, and Close removes a subscription under the same lock
	// before closing its channel.
	for _, sub := range s.subs {
		sub.notify()
	}
}

func (s *Static) Watch() (*Subscription, error) {
	var sub *Subscription
	sub = newSubscription(func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, existing := range s.subs {
			if existing == sub {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
		close(sub.events)
		return nil
	})

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return sub, nil
}
