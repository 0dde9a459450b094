package pipeline_test

import (
	"errors"
	"testing"

	"retroboard/internal/model"
	"retroboard/internal/pipeline"

	"github.com/stretchr/testify/assert"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		ok   bool
	}{
		{model.StatusPending, model.StatusDone, true},
		{model.StatusPending, model.StatusClosed, true},
		{model.StatusDone, model.StatusPending, true},
		{model.StatusClosed, model.StatusPending, true},
		{model.StatusDone, model.StatusClosed, false},
		{model.StatusClosed, model.StatusDone, false},
		{model.StatusPending, model.StatusPending, false},
		{model.StatusDone, model.StatusDone, false},
		{model.StatusClosed, model.StatusClosed, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"_to_"+tt.to, func(t *testing.T) {
			err := pipeline.CheckTransition(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var stateErr *pipeline.InvalidStateError
			assert.True(t, errors.As(err, &stateErr))
			assert.Equal(t, tt.from, stateErr.From)
			assert.Equal(t, tt.to, stateErr.To)
		})
	}
}
