package tool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_ToModelOutput(t *testing.T) {
	assert.Equal(t, "done", SuccessResult("done").ToModelOutput())
	assert.Equal(t, "Error: boom", ErrorResult("boom").ToModelOutput())
	assert.Equal(t, "Error: exit 1\n\nOutput:\npartial", ErrorResult("exit %d", 1).WithOutput("partial").ToModelOutput())
}

func TestResult_WithMetadataDoesNotShareMap(t *testing.T) {
	a := SuccessResult("x").WithMetadata("k", 1)
	b := a.WithMetadata("k", 2)

	assert.Equal(t, 1, a.Metadata["k"])
	assert.Equal(t, 2, b.Metadata["k"])
}

func TestFileDiff_Unified(t *testing.T) {
	d := FileDiff{Path: "main.go", OldContent: "a\nb\nc\n", NewContent: "a\nB\nc"}
	out := d.Unified()

	assert.True(t, strings.HasPrefix(out, "--- main.go\n+++ main.go\n"))
	assert.Contains(t, out, "-b\n")
	assert.Contains(t, out, "+B\n")

	added, removed := d.Stats()
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)
}

func TestFileDiff_NewFile(t *testing.T) {
	d := FileDiff{Path: "new.txt", NewContent: "one\ntwo\n", IsNewFile: true}
	out := d.Unified()

	assert.Contains(t, out, "--- /dev/null")
	assert.Contains(t, out, "+++ new.txt")
	added, removed := d.Stats()
	assert.Equal(t, 2, added)
	assert.Equal(t, 0, removed)
}
