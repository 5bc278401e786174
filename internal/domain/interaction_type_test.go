package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInteractionType(t *testing.T) {
	for _, in := range []string{"love", "LOVE", " Love "} {
		got, err := ParseInteractionType(in)
		require.NoError(t, err, in)
		assert.Equal(t, InteractionLove, got)
	}

	_, err := ParseInteractionType("like")
	assert.Error(t, err)
	_, err = ParseInteractionType("")
	assert.Error(t, err)
}

func TestInteractionType_EnumName(t *testing.T) {
	assert.Equal(t, "THUMBS_UP", InteractionThumbsUp.EnumName())
	assert.True(t, InteractionAngry.Valid())
	assert.False(t, InteractionType("dislike").Valid())
}

func TestNewID_IsTimeOrdered(t *testing.T) {
	prev := NewID()
	for i := 0; i < 100; i++ {
		next := NewID()
		require.Greater(t, next, prev)
		prev = next
	}
}
