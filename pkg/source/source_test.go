package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosition_FirstByte(t *testing.T) {
	t.Parallel()

	src := New("test.utam.json", "{\n  \"root\": true\n}\n")

	line, col := src.Position(0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)
}

func TestPosition_SecondLine(t *testing.T) {
	t.Parallel()

	src := New("test.utam.json", "{\n  \"root\": true\n}\n")

	line, col := src.Position(4)
	assert.Equal(t, 2, line)
	assert.Equal(t, 3, col)
}

func TestPosition_OffsetPastEnd(t *testing.T) {
	t.Parallel()

	src := New("x", "ab")

	line, col := src.Position(99)
	assert.Equal(t, 1, line)
	assert.Equal(t, 3, col)
}

func TestLine_ReturnsTextWithoutNewline(t *testing.T) {
	t.Parallel()

	src := New("x", "first\nsecond\nthird")

	assert.Equal(t, "first", src.Line(1))
	assert.Equal(t, "second", src.Line(2))
	assert.Equal(t, "third", src.Line(3))
	assert.Equal(t, "", src.Line(4))
	assert.Equal(t, "", src.Line(0))
}

func TestLine_StripsCarriageReturn(t *testing.T) {
	t.Parallel()

	src := New("x", "first\r\nsecond")

	assert.Equal(t, "first", src.Line(1))
}

func TestSlice_ClampsToBounds(t *testing.T) {
	t.Parallel()

	src := New("x", "hello")

	assert.Equal(t, "ell", src.Slice(NewSpan(1, 4)))
	assert.Equal(t, "hello", src.Slice(NewSpan(-2, 99)))
	assert.Equal(t, "", src.Slice(NewSpan(3, 2)))
}

func TestSpan_Union(t *testing.T) {
	t.Parallel()

	a := NewSpan(5, 10)
	b := NewSpan(2, 7)

	assert.Equal(t, NewSpan(2, 10), a.Union(b))
	assert.Equal(t, a, a.Union(Span{}))
	assert.Equal(t, a, Span{}.Union(a))
}

func TestSpan_Contains(t *testing.T) {
	t.Parallel()

	sp := NewSpan(2, 5)

	assert.False(t, sp.Contains(1))
	assert.True(t, sp.Contains(2))
	assert.True(t, sp.Contains(4))
	assert.False(t, sp.Contains(5))
}

func TestSpan_Len(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, NewSpan(2, 5).Len())
	assert.Equal(t, 0, NewSpan(5, 2).Len())
}
