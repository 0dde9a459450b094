package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"retroboard/internal/event"
	"retroboard/internal/model"
	"retroboard/internal/permission"
	"retroboard/internal/pipeline"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type stubGate struct {
	allowed bool
	err     error
	calls   int
}

func (g *stubGate) Allowed(_ context.Context, _ *model.User, _ string, _ permission.Target) (bool, error) {
	g.calls++
	return g.allowed, g.err
}

type recordingSink struct {
	events []event.DomainEvent
}

func (s *recordingSink) Publish(_ context.Context, ev event.DomainEvent) {
	s.events = append(s.events, ev)
}

func testUser() *model.User {
	return &model.User{ID: uuid.New()}
}

func boardTarget() permission.Target {
	return permission.BoardTarget{Board: &model.Board{ID: uuid.New()}}
}

func TestPipeline_HappyPathCommitsAndPublishes(t *testing.T) {
	sink := &recordingSink{}
	p := pipeline.New(&stubGate{allowed: true}, sink)

	card := &model.Card{ID: uuid.New(), Body: "speak up more"}
	entity, err := p.Mutate(context.Background(), testUser(), pipeline.Action{
		Identifier: permission.CreateCards,
		Target:     boardTarget(),
		Commit: func(context.Context) (any, error) {
			return card, nil
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return event.New("sprint-7", event.ActionAdded, event.KindCard, entity)
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, card, entity)
	assert.Len(t, sink.events, 1)
	assert.Equal(t, "sprint-7", sink.events[0].Topic)
	assert.Equal(t, event.ActionAdded, sink.events[0].Action)
}

func TestPipeline_ValidationFailureShortCircuits(t *testing.T) {
	gate := &stubGate{allowed: true}
	sink := &recordingSink{}
	p := pipeline.New(gate, sink)

	committed := false
	_, err := p.Mutate(context.Background(), testUser(), pipeline.Action{
		Identifier: permission.CreateCards,
		Target:     boardTarget(),
		Validate: func() *pipeline.ValidationError {
			return pipeline.NewValidationError().Add("body", "can't be blank")
		},
		Commit: func(context.Context) (any, error) {
			committed = true
			return nil, nil
		},
	})

	var verr *pipeline.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"body can't be blank"}, verr.Messages())
	assert.False(t, committed, "validation failure must not reach commit")
	assert.Zero(t, gate.calls, "validation failure must not reach the gate")
	assert.Empty(t, sink.events)
}

func TestPipeline_AuthorizationFailure(t *testing.T) {
	sink := &recordingSink{}
	p := pipeline.New(&stubGate{allowed: false}, sink)

	committed := false
	_, err := p.Mutate(context.Background(), testUser(), pipeline.Action{
		Identifier: permission.MoveActionItems,
		Target:     boardTarget(),
		Commit: func(context.Context) (any, error) {
			committed = true
			return nil, nil
		},
	})

	var aerr *pipeline.AuthorizationError
	assert.True(t, errors.As(err, &aerr))
	assert.Equal(t, pipeline.AuthorizationMessage, aerr.Error())
	assert.False(t, committed, "unauthorized mutation must not commit")
	assert.Empty(t, sink.events)
}

func TestPipeline_StateCheckBlocksCommit(t *testing.T) {
	sink := &recordingSink{}
	p := pipeline.New(&stubGate{allowed: true}, sink)

	committed := false
	_, err := p.Mutate(context.Background(), testUser(), pipeline.Action{
		Identifier: permission.CompleteActionItems,
		Target:     boardTarget(),
		StateCheck: func() error {
			return pipeline.CheckTransition(model.StatusDone, model.StatusClosed)
		},
		Commit: func(context.Context) (any, error) {
			committed = true
			return nil, nil
		},
	})

	var stateErr *pipeline.InvalidStateError
	assert.True(t, errors.As(err, &stateErr))
	assert.False(t, committed)
	assert.Empty(t, sink.events)
}

func TestPipeline_CommitFailureNeverPublishes(t *testing.T) {
	sink := &recordingSink{}
	p := pipeline.New(&stubGate{allowed: true}, sink)

	commitErr := errors.New("constraint violated")
	_, err := p.Mutate(context.Background(), testUser(), pipeline.Action{
		Identifier: permission.UpdateCards,
		Target:     boardTarget(),
		Commit: func(context.Context) (any, error) {
			return nil, commitErr
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return event.New("sprint-7", event.ActionUpdated, event.KindCard, entity)
		},
	})

	assert.ErrorIs(t, err, commitErr)
	assert.Empty(t, sink.events)
}

func TestPipeline_PublishOrderFollowsMutationOrder(t *testing.T) {
	sink := &recordingSink{}
	p := pipeline.New(&stubGate{allowed: true}, sink)
	user := testUser()
	target := boardTarget()

	item := &model.ActionItem{ID: uuid.New(), Status: model.StatusPending}
	for _, action := range []string{event.ActionUpdated, event.ActionUpdated} {
		action := action
		_, err := p.Mutate(context.Background(), user, pipeline.Action{
			Identifier: permission.CloseActionItems,
			Target:     target,
			Commit: func(context.Context) (any, error) {
				return item, nil
			},
			Event: func(entity any) (event.DomainEvent, error) {
				return event.New("sprint-7", action, event.KindActionItem, entity)
			},
		})
		assert.NoError(t, err)
	}

	assert.Len(t, sink.events, 2)
}
