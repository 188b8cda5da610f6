package grokit

import (
	"encoding/json"
	"strconv"

	"github.com/jinzhu/copier"
)

// Sender identifies who authored a history entry.
type Sender int

const (
	// SenderUser marks a prompt.
	SenderUser Sender = 1
	// SenderGrok marks a model reply.
	SenderGrok Sender = 2
)

// MediaID is a server media id. The service sends it as a JSON number that may
// exceed 2^53, so it is kept as its decimal text.
type MediaID string

// UnmarshalJSON accepts a number or a string.
func (m *MediaID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*m = MediaID(s)
		return nil
	}
	if string(b) == "null" {
		*m = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*m = MediaID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers and anything else as a string.
func (m MediaID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseUint(string(m), 10, 64); err == nil {
		return []byte(m), nil
	}
	return json.Marshal(string(m))
}

// FileAttachment is an attachment reference inside a history entry. Uploaded
// images carry URL; generated images carry MediaID and ImageURL.
type FileAttachment struct {
	FileName string  `json:"fileName,omitempty"`
	MimeType string  `json:"mimeType,omitempty"`
	URL      string  `json:"url,omitempty"`
	MediaID  MediaID `json:"mediaId,omitempty"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

// Message is one entry of a conversation history.
type Message struct {
	Message         string           `json:"message"`
	Sender          Sender           `json:"sender"`
	FileAttachments []FileAttachment `json:"fileAttachments"`
}

// History is the ordered, oldest-first list of entries resent with every turn.
// The service keeps no context between requests, so the caller threads one
// History through the turns of a conversation. A History is not safe for
// concurrent use.
type History struct {
	Messages []Message
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{Messages: []Message{}}
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.Messages)
}

// Append adds an entry to the end of the history.
func (h *History) Append(m Message) {
	if m.FileAttachments == nil {
		m.FileAttachments = []FileAttachment{}
	}
	h.Messages = append(h.Messages, m)
}

// Last returns the newest entry.
func (h *History) Last() (Message, bool) {
	if len(h.Messages) == 0 {
		return Message{}, false
	}
	return h.Messages[len(h.Messages)-1], true
}

// Clone returns a deep copy that shares no slices with h.
func (h *History) Clone() *History {
	out := NewHistory()
	if h == nil {
		return out
	}
	// copier only fails when source and destination kinds differ; both are
	// []Message here.
	_ = copier.CopyWithOption(&out.Messages, &h.Messages, copier.Option{DeepCopy: true})
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	for i := range out.Messages {
		if out.Messages[i].FileAttachments == nil {
			out.Messages[i].FileAttachments = []FileAttachment{}
		}
	}
	return out
}

// MarshalJSON encodes the history as the wire array.
func (h *History) MarshalJSON() ([]byte, error) {
	if h.Messages == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h.Messages)
}

// UnmarshalJSON decodes a wire array, so saved histories can be resumed.
func (h *History) UnmarshalJSON(b []byte) error {
	var msgs []Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		return err
	}
	h.Messages = make([]Message, 0, len(msgs))
	for _, m := range msgs {
		h.Append(m)
	}
	return nil
}
