// Package events carries table change notifications from whoever observes a
// change (the HTTP service, the remote change feed) to registered handlers.
package events

import (
	"log"
	"sync"

	"boss-timer-api/internal/models"
)

type Handler func(models.ChangeEvent)

type Bus struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
	order    []int
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers fn and returns a function that removes it again.
func (b *Bus) Subscribe(fn Handler) (cancel func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish calls every handler in registration order on the caller's goroutine.
func (b *Bus) Publish(ev models.ChangeEvent) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		deliver(h, ev)
	}
}

// Len reports the number of registered handlers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

func deliver(h Handler, ev models.ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("events: handler panic on %s/%s: %v", ev.Table, ev.Event, r)
		}
	}()
	h(ev)
}
