package hook

import (
	"encoding/json"
	"os"
)

// EnvPrefix prefixes every variable passed to a hook.
const EnvPrefix = "DRIFT_"

// Event is the context a hook runs with; empty fields are omitted from the
// environment.
type Event struct {
	Trigger       Trigger
	ToolName      string
	ToolParams    map[string]any
	ToolResult    string
	UserMessage   string
	AgentResponse string
	Err           error
}

// buildEnvironment returns the parent environment plus the DRIFT_ variables.
func buildEnvironment(cwd string, ev Event) []string {
	env := os.Environ()
	set := func(key, value string) {
		env = append(env, EnvPrefix+key+"="+value)
	}

	set("TRIGGER", string(ev.Trigger))
	set("CWD", cwd)
	if ev.ToolName != "" {
		set("TOOL_NAME", ev.ToolName)
	}
	if len(ev.ToolParams) > 0 {
		if b, err := json.Marshal(ev.ToolParams); err == nil {
			set("TOOL_PARAMS", string(b))
		}
	}
	if ev.ToolResult != "" {
		set("TOOL_RESULT", ev.ToolResult)
	}
	if ev.UserMessage != "" {
		set("USER_MESSAGE", ev.UserMessage)
	}
	if ev.AgentResponse != "" {
		set("AGENT_RESPONSE", ev.AgentResponse)
	}
	if ev.Err != nil {
		set("ERROR", ev.Err.Error())
	}
	return env
}
