package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rakannimer/talk/internal/domain"
	"github.com/rakannimer/talk/internal/loaders"
)

// Listener is one outbound sink implementation. Dispatch is invoked once per
// emitted event the listener declared interest in; any error it returns is
// contained at the publisher boundary and never reaches the caller.
type Listener interface {
	Name() string
	Kinds() []Kind
	Dispatch(ctx context.Context, scope *Scope, ev Event) error
}

// Scope is the per-request tenant binding: a read-only configuration
// snapshot plus the entity loaders for one dispatch cycle.
type Scope struct {
	Tenant    *domain.Tenant
	Endpoints []domain.WebhookEndpoint
	Loaders   *loaders.Set
	Logger    *slog.Logger
}

// Broker holds the process-wide listener registry. Listeners register once
// at startup; duplicate registration is a configuration error.
type Broker struct {
	logger    *slog.Logger
	names     map[string]struct{}
	listeners map[Kind][]Listener
}

func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{
		logger:    logger.With("component", "events"),
		names:     make(map[string]struct{}),
		listeners: make(map[Kind][]Listener),
	}
}

func (b *Broker) Register(l Listener) error {
	if _, ok := b.names[l.Name()]; ok {
		return fmt.Errorf("listener %q already registered", l.Name())
	}
	b.names[l.Name()] = struct{}{}

	for _, kind := range l.Kinds() {
		b.listeners[kind] = append(b.listeners[kind], l)
	}

	return nil
}

// Bind produces a publisher bound to one tenant scope. The scope carries the
// configuration snapshot loaded once for the request, so repeated emissions
// do not re-read tenant settings.
func (b *Broker) Bind(scope *Scope) *Publisher {
	scope.Logger = b.logger.With("tenant_id", scope.Tenant.ID)
	return &Publisher{broker: b, scope: scope}
}

// Publisher is a short-lived, tenant-bound emitter.
type Publisher struct {
	broker *Broker
	scope  *Scope
	wg     sync.WaitGroup
}

// Emit fans the event out to every listener registered for its kind, one
// goroutine per listener. It returns as soon as dispatch is scheduled; the
// originating operation never waits on, or observes, delivery outcomes.
func (p *Publisher) Emit(ctx context.Context, ev Event) {
	for _, l := range p.broker.listeners[ev.Kind] {
		p.wg.Add(1)
		go func(l Listener) {
			defer p.wg.Done()
			p.dispatch(ctx, l, ev)
		}(l)
	}
}

func (p *Publisher) dispatch(ctx context.Context, l Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			p.scope.Logger.Error("listener panicked",
				slog.String("listener", l.Name()),
				slog.String("event", string(ev.Kind)),
				slog.Any("panic", r),
			)
		}
	}()

	if err := l.Dispatch(ctx, p.scope, ev); err != nil {
		p.scope.Logger.Error("listener dispatch failed",
			slog.String("listener", l.Name()),
			slog.String("event", string(ev.Kind)),
			slog.Any("error", err),
		)
	}
}

// Wait blocks until every in-flight dispatch has completed. Used for
// graceful shutdown and for synchronous assertions in tests.
func (p *Publisher) Wait() {
	p.wg.Wait()
}
