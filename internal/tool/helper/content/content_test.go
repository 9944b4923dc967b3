package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBinary(t *testing.T) {
	assert.False(t, IsBinary([]byte("plain text\n")))
	assert.True(t, IsBinary([]byte{'a', 0, 'b'}))
	assert.False(t, IsBinary([]byte{0xFF, 0xFE, 'a', 0}))
	assert.False(t, IsBinary(nil))

	late := make([]byte, sampleSize+10)
	for i := range late {
		late[i] = 'x'
	}
	late[sampleSize+5] = 0
	assert.False(t, IsBinary(late))
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single line", "line1", []string{"line1"}},
		{"multiple lines", "a\nb\nc", []string{"a", "b", "c"}},
		{"trailing newline", "a\n", []string{"a"}},
		{"empty", "", nil},
		{"only newline", "\n", []string{""}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"blank middle line", "a\n\nb", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLines(tt.input))
		})
	}
}

func TestSlice(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}

	w := Slice(lines, 0, 0)
	assert.Equal(t, lines, w.Lines)
	assert.False(t, w.Partial())

	w = Slice(lines, 2, 2)
	assert.Equal(t, []string{"b", "c"}, w.Lines)
	assert.Equal(t, 2, w.First)
	assert.Equal(t, 3, w.Last)
	assert.True(t, w.Partial())
	assert.Equal(t, "2\tb\n3\tc\n", w.Numbered())

	w = Slice(lines, 4, 10)
	assert.Equal(t, []string{"d", "e"}, w.Lines)

	w = Slice(lines, 9, 1)
	assert.Empty(t, w.Lines)
	assert.Equal(t, 5, w.Total)
}

func TestNumberedAlignsWidth(t *testing.T) {
	lines := make([]string, 12)
	for i := range lines {
		lines[i] = "x"
	}
	out := Slice(lines, 8, 3).Numbered()
	assert.Equal(t, " 8\tx\n 9\tx\n10\tx\n", out)
}
