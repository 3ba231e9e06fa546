package voice

// Tool represents a function that the reasoning model can invoke during
// conversation. Tools let the agent reach outside the conversation, for
// example to check unit availability or register a booking.
type Tool struct {
	// Name is the unique identifier for the tool (e.g., "check_availability").
	Name string `json:"name"`

	// Description explains what the tool does, helping the model decide when
	// to use it.
	Description string `json:"description"`

	// Parameters defines the JSON schema properties for the tool's arguments.
	// Example:
	//   map[string]any{
	//       "location": map[string]any{
	//           "type":        "string",
	//           "description": "The location to check",
	//       },
	//   }
	Parameters map[string]any `json:"parameters"`

	// Required lists the parameter names the model must supply.
	Required []string `json:"required,omitempty"`

	// Handler is called when the model invokes this tool. It receives the
	// parsed arguments and returns a result string or error. The result is
	// sent back to the model to continue the conversation.
	Handler func(args map[string]any) (string, error) `json:"-"`
}

// ToolCall represents an invocation of a tool by the model.
type ToolCall struct {
	// ID is the unique identifier for this tool call. Used to match results
	// back to the correct call.
	ID string

	// Name is the tool being invoked.
	Name string

	// Arguments contains the parsed arguments from the model.
	Arguments map[string]any
}

// ToolResult represents the result of a tool invocation.
type ToolResult struct {
	// CallID matches the ToolCall.ID this result corresponds to.
	CallID string

	// Result is the string result to send back to the model.
	Result string

	// Error is set if the tool execution failed.
	Error error
}
