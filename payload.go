package grokit

// imageGenerationCount is how many candidate images the service renders per
// image request.
const imageGenerationCount = 4

// PromptSource tells the service how the prompt should be interpreted.
type PromptSource string

const (
	// PromptSourceNatural is a normal chat prompt.
	PromptSourceNatural PromptSource = "NATURAL"
	// PromptSourceImageEdit edits the image at promptMetadata.imageEditUri.
	PromptSourceImageEdit PromptSource = "IMAGE_EDIT"
)

type promptMetadata struct {
	PromptSource PromptSource `json:"promptSource"`
	ImageEditURI string       `json:"imageEditUri,omitempty"`
}

// addResponsePayload is the body of a turn submission.
type addResponsePayload struct {
	Responses            []Message      `json:"responses"`
	SystemPromptName     string         `json:"systemPromptName"`
	GrokModelOptionID    string         `json:"grokModelOptionId"`
	ConversationID       string         `json:"conversationId"`
	ImageGenerationCount int            `json:"imageGenerationCount"`
	PromptMetadata       promptMetadata `json:"promptMetadata"`
}

// buildPayload turns conversation state into a turn submission body. It does
// not validate its input and does not copy the history.
func buildPayload(conversationID string, history *History, imageEditURL, systemPromptName string, model Model) addResponsePayload {
	meta := promptMetadata{PromptSource: PromptSourceNatural}
	if imageEditURL != "" {
		meta = promptMetadata{PromptSource: PromptSourceImageEdit, ImageEditURI: imageEditURL}
	}
	responses := history.Messages
	if responses == nil {
		responses = []Message{}
	}
	return addResponsePayload{
		Responses:            responses,
		SystemPromptName:     systemPromptName,
		GrokModelOptionID:    model.String(),
		ConversationID:       conversationID,
		ImageGenerationCount: imageGenerationCount,
		PromptMetadata:       meta,
	}
}
