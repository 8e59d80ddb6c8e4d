package events

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Publisher delivers one event to some sink.
type Publisher[T any] interface {
	Publish(ctx context.Context, evt T) error
}

type Handler[T any] func(ctx context.Context, evt T)

// Bus is an in-process fan-out. Handlers run synchronously on the
// publishing goroutine in subscription order.
type Bus[T any] struct {
	mu       sync.RWMutex
	handlers map[uint64]Handler[T]
	seq      uint64
}

func NewBus[T any]() *Bus[T] {
	return &Bus[T]{handlers: make(map[uint64]Handler[T])}
}

// Subscribe registers h and returns a func that removes it.
func (b *Bus[T]) Subscribe(h Handler[T]) func() {
	b.mu.Lock()
	b.seq++
	id := b.seq
	b.handlers[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

func (b *Bus[T]) Publish(ctx context.Context, evt T) error {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	ids := make([]uint64, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]Handler[T], 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, evt)
	}
	return nil
}

// Fanout publishes to every target and joins their errors.
type Fanout[T any] []Publisher[T]

func (f Fanout[T]) Publish(ctx context.Context, evt T) error {
	var errs []error
	for _, target := range f {
		if target == nil {
			continue
		}
		if err := target.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
