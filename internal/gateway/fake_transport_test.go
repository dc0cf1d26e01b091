package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

type published struct {
	topic   string
	payload []byte
}

type fakeSession struct {
	msgs       chan Message
	errs       chan error
	publishErr error

	mu         sync.Mutex
	subscribed []string
	published  []published
	closed     atomic.Bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		msgs: make(chan Message),
		errs: make(chan error, 1),
	}
}

func (s *fakeSession) Subscribe(ctx context.Context, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = append(s.subscribed, topic)
	return nil
}

func (s *fakeSession) Publish(ctx context.Context, topic string, payload []byte) error {
	if s.publishErr != nil {
		return s.publishErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, published{topic: topic, payload: payload})
	return nil
}

func (s *fakeSession) Receive(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case err := <-s.errs:
		return Message{}, err
	case msg := <-s.msgs:
		return msg, nil
	}
}

func (s *fakeSession) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *fakeSession) Published() []published {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]published(nil), s.published...)
}

func (s *fakeSession) Subscribed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.subscribed...)
}

// fakeDialer hands out queued sessions or errors in order.
type fakeDialer struct {
	mu      sync.Mutex
	results []dialResult
	dials   int
}

type dialResult struct {
	session *fakeSession
	err     error
}

func (d *fakeDialer) queue(results ...dialResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, results...)
}

func (d *fakeDialer) Dial(ctx context.Context) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if len(d.results) == 0 {
		return nil, errors.New("no session queued")
	}
	next := d.results[0]
	d.results = d.results[1:]
	if next.err != nil {
		return nil, next.err
	}
	return next.session, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}
