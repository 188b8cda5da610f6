package grokit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHistory() *History {
	h := NewHistory()
	h.Append(Message{Message: "draw a cat", Sender: SenderUser})
	h.Append(Message{Message: "here", Sender: SenderGrok, FileAttachments: []FileAttachment{
		{FileName: "a.png", MimeType: "image/png", MediaID: "1869", ImageURL: "https://x/1869"},
	}})
	h.Append(Message{Message: "now a dog", Sender: SenderUser})
	return h
}

func TestBuildPayload(t *testing.T) {
	models := []Model{ModelGrok2, ModelGrok2A, ModelGrok2Mini, OtherModel("grok-3-preview")}
	for _, m := range models {
		t.Run(m.String(), func(t *testing.T) {
			h := sampleHistory()
			before := h.Clone()

			p := buildPayload("conv-1", h, "", "fun", m)

			assert.Equal(t, before.Messages, p.Responses)
			assert.Equal(t, before.Messages, h.Messages, "history must not be mutated")
			assert.Equal(t, m.String(), p.GrokModelOptionID)
			assert.Equal(t, "conv-1", p.ConversationID)
			assert.Equal(t, "fun", p.SystemPromptName)
			assert.Equal(t, 4, p.ImageGenerationCount)
			assert.Equal(t, PromptSourceNatural, p.PromptMetadata.PromptSource)
			assert.Empty(t, p.PromptMetadata.ImageEditURI)
		})
	}
}

func TestBuildPayloadImageEdit(t *testing.T) {
	p := buildPayload("conv-1", sampleHistory(), "https://ton.x.com/up/1.png", "", ModelGrok2)
	assert.Equal(t, PromptSourceImageEdit, p.PromptMetadata.PromptSource)
	assert.Equal(t, "https://ton.x.com/up/1.png", p.PromptMetadata.ImageEditURI)
}

func TestBuildPayloadWire(t *testing.T) {
	b, err := json.Marshal(buildPayload("c", sampleHistory(), "", "", ModelGrok2Mini))
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(b, &wire))

	assert.Equal(t, "grok-2-mini", wire["grokModelOptionId"])
	assert.Equal(t, float64(4), wire["imageGenerationCount"])
	assert.Equal(t, "c", wire["conversationId"])
	assert.Equal(t, map[string]any{"promptSource": "NATURAL"}, wire["promptMetadata"])

	responses := wire["responses"].([]any)
	require.Len(t, responses, 3)
	first := responses[0].(map[string]any)
	assert.Equal(t, "draw a cat", first["message"])
	assert.Equal(t, float64(1), first["sender"])
	assert.Equal(t, []any{}, first["fileAttachments"])

	att := responses[1].(map[string]any)["fileAttachments"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(1869), att["mediaId"])
	assert.Equal(t, "https://x/1869", att["imageUrl"])
}

func TestBuildPayloadEmptyHistory(t *testing.T) {
	b, err := json.Marshal(buildPayload("c", &History{}, "", "", ModelGrok2))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"responses":[]`)
}
