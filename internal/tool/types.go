package tool

// Type represents JSON Schema types.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Schema represents a JSON Schema for tool parameters.
type Schema struct {
	Type        Type               `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// Declaration declares a tool's function signature for the LLM.
type Declaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Kind classifies what a tool touches.
type Kind string

const (
	KindRead    Kind = "read"
	KindWrite   Kind = "write"
	KindShell   Kind = "shell"
	KindNetwork Kind = "network"
	KindMemory  Kind = "memory"
	KindMCP     Kind = "mcp"
)

// Mutating reports whether tools of this kind change state by default.
func (k Kind) Mutating() bool {
	switch k {
	case KindWrite, KindShell, KindNetwork, KindMemory:
		return true
	default:
		return false
	}
}
