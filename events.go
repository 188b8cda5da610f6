package grokit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"iter"
)

// EventKind is the type of a stream event.
type EventKind int

const (
	// EventImage carries a generated image in Event.Image.
	EventImage EventKind = iota + 1
	// EventContent carries a text fragment in Event.Content.
	EventContent
	// EventResponseType carries a response tag in Event.ResponseType.
	EventResponseType
)

// String returns the kind name.
func (k EventKind) String() string {
	switch k {
	case EventImage:
		return "image"
	case EventContent:
		return "content"
	case EventResponseType:
		return "response_type"
	default:
		return "unknown"
	}
}

// ResponseType is the tag of a responseType event.
type ResponseType string

const (
	// ResponseTypeLimiter signals the account hit a rate limit.
	ResponseTypeLimiter ResponseType = "limiter"
	// ResponseTypeError signals a quota or server-side refusal.
	ResponseTypeError ResponseType = "error"
)

// Limited reports whether the tag means the turn was rate or quota limited.
func (r ResponseType) Limited() bool {
	return r == ResponseTypeLimiter || r == ResponseTypeError
}

// ImageAttachment is an image the service generated during a turn.
type ImageAttachment struct {
	MediaID    MediaID `json:"mediaId"`
	MediaIDStr string  `json:"mediaIdStr"`
	FileName   string  `json:"fileName"`
	MimeType   string  `json:"mimeType"`
	ImageURL   string  `json:"imageUrl"`
}

func (a ImageAttachment) fileAttachment() FileAttachment {
	id := a.MediaID
	if id == "" {
		id = MediaID(a.MediaIDStr)
	}
	return FileAttachment{
		FileName: a.FileName,
		MimeType: a.MimeType,
		MediaID:  id,
		ImageURL: a.ImageURL,
	}
}

// Event is one typed item of a turn's response stream. Exactly one of
// Image, Content or ResponseType is meaningful, selected by Kind.
type Event struct {
	Kind         EventKind
	Image        *ImageAttachment
	Content      string
	ResponseType ResponseType
}

// parseLine decodes one response line into its events, in the order image,
// content, response type. ok is false when the line is not valid JSON. Each
// recognised field is decoded on its own, so one field of an unexpected type
// does not drop the others.
func parseLine(line []byte) (events []Event, ok bool) {
	if !json.Valid(line) {
		return nil, false
	}
	var top struct {
		Result json.RawMessage `json:"result"`
	}
	var result map[string]json.RawMessage
	if json.Unmarshal(line, &top) != nil || json.Unmarshal(top.Result, &result) != nil {
		return nil, true
	}

	var img ImageAttachment
	if decodeField(result, "imageAttachment", &img) {
		events = append(events, Event{Kind: EventImage, Image: &img})
	}
	var msg string
	if decodeField(result, "message", &msg) {
		events = append(events, Event{Kind: EventContent, Content: msg})
	}
	var tag string
	if decodeField(result, "responseType", &tag) {
		events = append(events, Event{Kind: EventResponseType, ResponseType: ResponseType(tag)})
	}
	return events, true
}

// decodeField unmarshals result[key] into dst. It reports false when the key
// is absent, null or of the wrong type.
func decodeField(result map[string]json.RawMessage, key string, dst any) bool {
	raw, ok := result[key]
	if !ok || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// EventReader decodes a newline-delimited JSON response into events. Blank
// lines and lines that are not valid JSON are skipped: the service pads the
// stream with keep-alives and occasionally emits truncated fragments.
//
// An EventReader is single-pass; read the stream again to replay it.
type EventReader struct {
	r       *bufio.Reader
	pending []Event
	err     error
	onLine  func([]byte)
}

// NewEventReader returns a reader over r. If onLine is non-nil it is called
// with every line that parsed as JSON, before that line's events are returned.
func NewEventReader(r io.Reader, onLine func([]byte)) *EventReader {
	return &EventReader{r: bufio.NewReader(r), onLine: onLine}
}

// Next returns the next event, or io.EOF when the stream is exhausted.
// Any error other than io.EOF is a read failure of the underlying stream.
func (e *EventReader) Next() (Event, error) {
	for len(e.pending) == 0 {
		if e.err != nil {
			return Event{}, e.err
		}
		line, err := e.r.ReadBytes('\n')
		if err != nil {
			e.err = err
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		events, ok := parseLine(line)
		if !ok {
			continue
		}
		if e.onLine != nil {
			e.onLine(line)
		}
		e.pending = events
	}
	ev := e.pending[0]
	e.pending = e.pending[1:]
	return ev, nil
}

// All returns an iterator over the remaining events. Iteration stops after
// the first error, which is yielded; io.EOF is not.
func (e *EventReader) All() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			ev, err := e.Next()
			if err == io.EOF {
				return
			}
			if !yield(ev, err) || err != nil {
				return
			}
		}
	}
}
