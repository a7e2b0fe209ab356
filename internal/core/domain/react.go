package domain

// ResolutionRequest is the input to the profile resolver.
type ResolutionRequest struct {
	SubjectName string `json:"subject_name"`
}

// ActionInvocation is a tool call requested by the model
type ActionInvocation struct {
	ToolName  string `json:"tool_name"`
	ToolInput string `json:"tool_input"`
}

// ActionStep represents one step in the ReAct reasoning chain.
// Exactly one of Action or FinalAnswer is populated; IsFinal implies FinalAnswer.
type ActionStep struct {
	Thought     string            `json:"thought"`
	Action      *ActionInvocation `json:"action,omitempty"`
	Observation string            `json:"observation,omitempty"` // Tool result
	IsFinal     bool              `json:"is_final"`
	FinalAnswer string            `json:"final_answer,omitempty"`
}

// Snippet is a single search hit.
type Snippet struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// SearchResult holds the bounded set of snippets returned for one query.
type SearchResult struct {
	Snippets []Snippet `json:"snippets"`
}
