package agents

// RunStatus is the lifecycle status of an agent run, owned by the backend.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
	RunStatusCancelled  RunStatus = "cancelled"
	RunStatusExpired    RunStatus = "expired"
)

// Active reports whether the run is still being processed by the backend.
func (s RunStatus) Active() bool {
	return s == RunStatusQueued || s == RunStatusInProgress
}

// Message roles as the backend names them.
const (
	RoleUser  = "user"
	RoleAgent = "assistant"
)

// Connection is a named resource connected to the project, e.g. a Bing
// grounding resource.
type Connection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ToolDefinition describes a tool attached to an agent.
type ToolDefinition struct {
	Type         string               `json:"type"`
	DeepResearch *DeepResearchDetails `json:"deep_research,omitempty"`
}

// DeepResearchDetails binds the deep research tool to a reasoning model
// deployment and one or more grounding connections.
type DeepResearchDetails struct {
	Model         string                `json:"deep_research_model"`
	BingGrounding []GroundingConnection `json:"deep_research_bing_grounding_connections"`
}

// GroundingConnection references a search-grounding connection by ID.
type GroundingConnection struct {
	ConnectionID string `json:"connection_id"`
}

// DeepResearchTool builds the tool definition for an agent that performs
// deep research through the given model deployment and grounding connection.
func DeepResearchTool(model, connectionID string) ToolDefinition {
	return ToolDefinition{
		Type: "deep_research",
		DeepResearch: &DeepResearchDetails{
			Model:         model,
			BingGrounding: []GroundingConnection{{ConnectionID: connectionID}},
		},
	}
}

// AgentSpec is the payload for creating an agent.
type AgentSpec struct {
	Name         string           `json:"name"`
	Model        string           `json:"model"`
	Instructions string           `json:"instructions"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// Agent is a configured persona/tool binding owned by the backend.
type Agent struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Model        string           `json:"model"`
	Instructions string           `json:"instructions"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// Thread is an ordered conversation container.
type Thread struct {
	ID string `json:"id"`
}

// RunError carries the backend's description of a failed run.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Run is a server-tracked execution of an agent's response generation.
type Run struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Status    RunStatus `json:"status"`
	LastError *RunError `json:"last_error,omitempty"`
}

// Message is a single thread message. Content is an ordered list of parts;
// only text parts matter for report assembly.
type Message struct {
	ID      string        `json:"id"`
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart is one segment of a message.
type ContentPart struct {
	Type string       `json:"type"`
	Text *TextContent `json:"text,omitempty"`
}

// TextContent is the text payload of a content part, with optional
// citation annotations.
type TextContent struct {
	Value       string       `json:"value"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Annotation is a reference attached to generated text.
type Annotation struct {
	Type        string       `json:"type"`
	URLCitation *URLCitation `json:"url_citation,omitempty"`
}

// URLCitation points at a source URL and its title.
type URLCitation struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// TextSegments returns the values of all text parts in message order.
func (m *Message) TextSegments() []string {
	var segs []string
	for _, part := range m.Content {
		if part.Text != nil {
			segs = append(segs, part.Text.Value)
		}
	}
	return segs
}

// URLCitations returns all URL citation annotations in message order,
// duplicates included.
func (m *Message) URLCitations() []URLCitation {
	var cits []URLCitation
	for _, part := range m.Content {
		if part.Text == nil {
			continue
		}
		for _, ann := range part.Text.Annotations {
			if ann.URLCitation != nil {
				cits = append(cits, *ann.URLCitation)
			}
		}
	}
	return cits
}
