package levenshtein

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance_Identical(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Distance("click", "click"))
}

func TestDistance_Empty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5, Distance("click", ""))
	assert.Equal(t, 5, Distance("", "click"))
}

func TestDistance_SingleEdit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, Distance("click", "clicks"))
	assert.Equal(t, 1, Distance("click", "clack"))
	assert.Equal(t, 1, Distance("click", "lick"))
}

func TestClosest_FindsNearMiss(t *testing.T) {
	t.Parallel()

	got, ok := Closest("clck", []string{"focus", "click", "blur"})
	assert.True(t, ok)
	assert.Equal(t, "click", got)
}

func TestClosest_RejectsFarCandidates(t *testing.T) {
	t.Parallel()

	_, ok := Closest("dragAndDrop", []string{"focus", "blur"})
	assert.False(t, ok)
}

func TestClosest_EmptyCandidates(t *testing.T) {
	t.Parallel()

	_, ok := Closest("anything", nil)
	assert.False(t, ok)
}
