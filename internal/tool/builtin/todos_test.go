package builtin

import (
	"context"
	"strings"
	"testing"

	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTodos(t *testing.T, tt *TodosTool, params map[string]any) tool.Result {
	t.Helper()
	res, err := tt.Execute(context.Background(), invocation(t.TempDir(), params))
	require.NoError(t, err)
	return res
}

func TestTodos_Lifecycle(t *testing.T) {
	list := &TodoList{}
	td := NewTodosTool(list)

	res := runTodos(t, td, map[string]any{"action": "list"})
	assert.Equal(t, "No todos", res.Output)

	res = runTodos(t, td, map[string]any{"action": "add", "content": "write tests"})
	require.True(t, res.Success)
	id := res.Metadata["id"].(string)
	assert.Len(t, id, 8)
	assert.Equal(t, "Added todo ["+id+"]: write tests", res.Output)

	runTodos(t, td, map[string]any{"action": "add", "content": "fix bug"})
	res = runTodos(t, td, map[string]any{"action": "start", "id": id})
	assert.True(t, res.Success)

	res = runTodos(t, td, map[string]any{"action": "list"})
	lines := strings.Split(res.Output, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "  ["+id+"] write tests (in progress)", lines[1])
	assert.True(t, strings.HasSuffix(lines[2], "] fix bug"))

	res = runTodos(t, td, map[string]any{"action": "complete", "id": id})
	assert.Equal(t, "Completed todo ["+id+"]: write tests", res.Output)
	assert.Len(t, list.List(), 1)

	res = runTodos(t, td, map[string]any{"action": "clear"})
	assert.Equal(t, "Cleared 1 todos", res.Output)
	assert.Empty(t, list.List())
}

func TestTodos_Errors(t *testing.T) {
	td := NewTodosTool(nil)

	tests := []struct {
		params map[string]any
		want   string
	}{
		{map[string]any{"action": "add"}, "`content` required for 'add' action"},
		{map[string]any{"action": "complete"}, "`id` required for 'complete' action"},
		{map[string]any{"action": "complete", "id": "deadbeef"}, "Todo not found: deadbeef"},
		{map[string]any{"action": "start", "id": "deadbeef"}, "Todo not found: deadbeef"},
	}
	for _, tt := range tests {
		res := runTodos(t, td, tt.params)
		assert.False(t, res.Success)
		assert.Equal(t, tt.want, res.Error)
	}

	assert.NotEmpty(t, td.ValidateParams(map[string]any{"action": "explode"}))
}

func TestTodos_Identity(t *testing.T) {
	td := NewTodosTool(nil)
	assert.Equal(t, tool.KindMemory, td.Kind())
	assert.False(t, td.IsMutating(map[string]any{"action": "list"}))
	assert.True(t, td.IsMutating(map[string]any{"action": "add"}))
	assert.Nil(t, td.GetConfirmation(context.Background(), tool.Invocation{}))
}
