package builtin

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Cyclone1070/drift/internal/tool"
	"github.com/google/uuid"
)

type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
)

// Todo is one tracked task.
type Todo struct {
	ID      string     `json:"id"`
	Content string     `json:"content"`
	Status  TodoStatus `json:"status"`
}

// TodoList is an in-memory, insertion-ordered task list shared by the
// session.
type TodoList struct {
	mu    sync.Mutex
	todos []Todo
}

func (l *TodoList) add(content string) Todo {
	l.mu.Lock()
	defer l.mu.Unlock()
	td := Todo{ID: uuid.NewString()[:8], Content: content, Status: TodoPending}
	l.todos = append(l.todos, td)
	return td
}

func (l *TodoList) start(id string) (Todo, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.todos {
		if l.todos[i].ID == id {
			l.todos[i].Status = TodoInProgress
			return l.todos[i], true
		}
	}
	return Todo{}, false
}

func (l *TodoList) complete(id string) (Todo, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, td := range l.todos {
		if td.ID == id {
			l.todos = append(l.todos[:i], l.todos[i+1:]...)
			return td, true
		}
	}
	return Todo{}, false
}

// List returns a copy of the open todos.
func (l *TodoList) List() []Todo {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Todo, len(l.todos))
	copy(out, l.todos)
	return out
}

func (l *TodoList) clear() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.todos)
	l.todos = nil
	return n
}

type TodosParams struct {
	Action  string `mapstructure:"action"`
	ID      string `mapstructure:"id"`
	Content string `mapstructure:"content"`
}

type TodosTool struct {
	tool.Base[TodosParams]
	list *TodoList
}

func NewTodosTool(list *TodoList) *TodosTool {
	if list == nil {
		list = &TodoList{}
	}
	return &TodosTool{
		Base: tool.NewBase[TodosParams](
			"todos",
			"Manage a task list for the current session. Use this to track progress on multi-step tasks.",
			tool.KindMemory,
			&tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"action":  {Type: tool.TypeString, Description: "Action to perform", Enum: []string{"add", "start", "complete", "list", "clear"}},
					"id":      {Type: tool.TypeString, Description: "Todo ID (for start and complete)"},
					"content": {Type: tool.TypeString, Description: "Todo content (for add)"},
				},
				Required: []string{"action"},
			},
		),
		list: list,
	}
}

// IsMutating is false for list.
func (t *TodosTool) IsMutating(params map[string]any) bool {
	action, _ := params["action"].(string)
	return !strings.EqualFold(action, "list")
}

// GetConfirmation returns nil: the list lives only in memory.
func (t *TodosTool) GetConfirmation(ctx context.Context, inv tool.Invocation) *tool.Confirmation {
	return nil
}

func (t *TodosTool) Execute(ctx context.Context, inv tool.Invocation) (tool.Result, error) {
	p, err := t.Decode(inv.Params)
	if err != nil {
		return tool.Result{}, err
	}

	switch strings.ToLower(p.Action) {
	case "add":
		if p.Content == "" {
			return tool.ErrorResult("`content` required for 'add' action"), nil
		}
		td := t.list.add(p.Content)
		return tool.SuccessResult(fmt.Sprintf("Added todo [%s]: %s", td.ID, td.Content)).WithMetadata("id", td.ID), nil
	case "start":
		if p.ID == "" {
			return tool.ErrorResult("`id` required for 'start' action"), nil
		}
		td, ok := t.list.start(p.ID)
		if !ok {
			return tool.ErrorResult("Todo not found: %s", p.ID), nil
		}
		return tool.SuccessResult(fmt.Sprintf("Started todo [%s]: %s", td.ID, td.Content)), nil
	case "complete":
		if p.ID == "" {
			return tool.ErrorResult("`id` required for 'complete' action"), nil
		}
		td, ok := t.list.complete(p.ID)
		if !ok {
			return tool.ErrorResult("Todo not found: %s", p.ID), nil
		}
		return tool.SuccessResult(fmt.Sprintf("Completed todo [%s]: %s", td.ID, td.Content)), nil
	case "list":
		todos := t.list.List()
		if len(todos) == 0 {
			return tool.SuccessResult("No todos"), nil
		}
		lines := []string{"Todos:"}
		for _, td := range todos {
			line := fmt.Sprintf("  [%s] %s", td.ID, td.Content)
			if td.Status == TodoInProgress {
				line += " (in progress)"
			}
			lines = append(lines, line)
		}
		return tool.SuccessResult(strings.Join(lines, "\n")).WithMetadata("count", len(todos)), nil
	case "clear":
		return tool.SuccessResult(fmt.Sprintf("Cleared %d todos", t.list.clear())), nil
	default:
		return tool.ErrorResult("Unknown action: %s", p.Action), nil
	}
}
