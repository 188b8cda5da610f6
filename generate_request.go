package grokit

// GenerateRequest builds one conversation turn.
type GenerateRequest struct {
	prompt           string
	attachments      []string
	editAttachment   bool
	history          *History
	conversationID   string
	systemPromptName string
	model            Model
}

// NewGenerateRequest creates a turn that sends prompt.
func NewGenerateRequest(prompt string) *GenerateRequest {
	return &GenerateRequest{prompt: prompt}
}

// WithAttachments adds image URLs to fetch, upload and attach to the prompt.
func (r *GenerateRequest) WithAttachments(sourceURLs ...string) *GenerateRequest {
	r.attachments = append(r.attachments, sourceURLs...)
	return r
}

// WithImageEdit makes the turn edit the first attachment instead of
// generating from scratch. Attachments are resized for the edit endpoint.
func (r *GenerateRequest) WithImageEdit(edit bool) *GenerateRequest {
	r.editAttachment = edit
	return r
}

// WithHistory continues an existing conversation history. The turn appends
// to h in place and the result refers to the same History.
func (r *GenerateRequest) WithHistory(h *History) *GenerateRequest {
	r.history = h
	return r
}

// WithConversationID continues an existing conversation. Without it a new
// conversation is created.
func (r *GenerateRequest) WithConversationID(id string) *GenerateRequest {
	r.conversationID = id
	return r
}

// WithSystemPromptName selects a server-side system prompt by name.
func (r *GenerateRequest) WithSystemPromptName(name string) *GenerateRequest {
	r.systemPromptName = name
	return r
}

// WithModel sets the model to use.
func (r *GenerateRequest) WithModel(m Model) *GenerateRequest {
	r.model = m
	return r
}

// Prompt returns the prompt text.
func (r *GenerateRequest) Prompt() string {
	return r.prompt
}
