package pubsub

import (
	"context"
	"sync"
	"time"
)

// LocalPublisher delivers packs to in-process handlers. It is used when kafka is disabled, every
// handler runs synchronously in the caller goroutine.
type LocalPublisher struct {
	mutex    sync.RWMutex
	handlers map[string][]SubscribeHandler
}

func NewLocalPublisher() *LocalPublisher {
	return &LocalPublisher{handlers: map[string][]SubscribeHandler{}}
}

func (p *LocalPublisher) Register(topic string, handler SubscribeHandler) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.handlers[topic] = append(p.handlers[topic], handler)
}

func (p *LocalPublisher) Publish(ctx context.Context, topic string, pack *Pack) error {
	p.mutex.RLock()
	handlers := p.handlers[topic]
	p.mutex.RUnlock()

	for _, handler := range handlers {
		handler(ctx, pack, time.Now())
	}

	return nil
}
