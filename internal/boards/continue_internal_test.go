package boards

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContinuedTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Sprint 7", "Sprint 7 #2"},
		{"Sprint 7 #2", "Sprint 7 #3"},
		{"Sprint 7 #9", "Sprint 7 #10"},
		{"Retro #notanumber", "Retro #notanumber #2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, continuedTitle(tt.title))
	}
}

func TestNewSlug(t *testing.T) {
	slug := NewSlug("Sprint 7 #2")
	assert.True(t, strings.HasPrefix(slug, "sprint-7-2-"), slug)

	// Same title twice must not collide.
	assert.NotEqual(t, NewSlug("Sprint 7"), NewSlug("Sprint 7"))

	// A title with no usable characters still yields a slug.
	assert.NotEmpty(t, NewSlug("###"))
}
