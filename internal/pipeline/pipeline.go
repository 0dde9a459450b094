package pipeline

import (
	"context"

	"retroboard/internal/event"
	"retroboard/internal/model"
	"retroboard/internal/permission"

	log "github.com/sirupsen/logrus"
)

// Gate is the authorization check consulted before any mutation commits.
type Gate interface {
	Allowed(ctx context.Context, user *model.User, identifier string, target permission.Target) (bool, error)
}

// Sink receives the domain event of a committed mutation.
type Sink interface {
	Publish(ctx context.Context, ev event.DomainEvent)
}

// Action describes one state-changing operation. Validate, StateCheck and
// Event are optional; Commit is not.
type Action struct {
	// Identifier names the permission required for this action.
	Identifier string
	// Target is the entity the permission check runs against.
	Target permission.Target
	// Validate performs structural input checks.
	Validate func() *ValidationError
	// StateCheck validates a status transition before commit.
	StateCheck func() error
	// Commit applies the change through storage and returns the committed
	// entity. It must be all-or-nothing.
	Commit func(ctx context.Context) (any, error)
	// Event builds the domain event for the committed entity.
	Event func(entity any) (event.DomainEvent, error)
}

// Pipeline is the single entry point for every mutation: validate input,
// authorize, check the state transition, commit, then publish. Each step is
// a hard gate; a failed step returns its error with no side effects, and a
// failed commit never publishes.
type Pipeline struct {
	gate Gate
	sink Sink
}

func New(gate Gate, sink Sink) *Pipeline {
	return &Pipeline{gate: gate, sink: sink}
}

// Publish forwards an already-built event to the sink, for mutations that
// bypass the gate.
func (p *Pipeline) Publish(ctx context.Context, ev event.DomainEvent) {
	if p.sink == nil {
		return
	}
	p.sink.Publish(ctx, ev)
}

// PublishDestroyed broadcasts a destroyed event outside the normal commit
// path, for mutations that touch a second topic (a move removes the entity
// from its origin board while the mutation's own event announces the
// arrival on the target board).
func (p *Pipeline) PublishDestroyed(ctx context.Context, topic, kind string, payload any) {
	if p.sink == nil {
		return
	}
	ev, err := event.New(topic, event.ActionDestroyed, kind, payload)
	if err != nil {
		log.WithError(err).WithField("topic", topic).Error("build destroyed event")
		return
	}
	p.sink.Publish(ctx, ev)
}

// Mutate runs the action through the pipeline on behalf of the user.
func (p *Pipeline) Mutate(ctx context.Context, user *model.User, action Action) (any, error) {
	if action.Validate != nil {
		if verr := action.Validate(); verr != nil && !verr.Empty() {
			return nil, verr
		}
	}

	allowed, err := p.gate.Allowed(ctx, user, action.Identifier, action.Target)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, &AuthorizationError{}
	}

	if action.StateCheck != nil {
		if err := action.StateCheck(); err != nil {
			return nil, err
		}
	}

	entity, err := action.Commit(ctx)
	if err != nil {
		return nil, err
	}

	// Mutation success is independent of broadcast delivery: event
	// construction or publish problems are logged, never surfaced.
	if action.Event != nil && p.sink != nil {
		ev, err := action.Event(entity)
		if err != nil {
			log.WithError(err).WithField("identifier", action.Identifier).
				Error("build domain event")
			return entity, nil
		}
		p.sink.Publish(ctx, ev)
	}
	return entity, nil
}
