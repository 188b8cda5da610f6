package grokit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TurnResult is the outcome of one conversation turn.
type TurnResult struct {
	// ConversationID is the conversation the turn belongs to. Pass it to the
	// next turn together with History.
	ConversationID string
	// History is the conversation history including this turn's prompt and
	// reply. It is the History given to the request, if any.
	History *History
	// ResponseText is the reply text.
	ResponseText string
	// Attachments are download URLs for the generated images, in arrival order.
	Attachments []string
	// Images are the generated image descriptors, in arrival order.
	Images []ImageAttachment
	// Limited is true when the service signalled a rate or quota limit.
	Limited bool
}

// TurnStream is an iterator over the events of a submitted turn.
// The history gets the reply entry once the stream reaches io.EOF.
type TurnStream struct {
	client         *Client
	events         *EventReader
	body           io.ReadCloser
	cancel         context.CancelFunc
	span           trace.Span
	logger         zerolog.Logger
	conversationID string
	history        *History

	text    strings.Builder
	images  []ImageAttachment
	limited bool

	result *TurnResult
	err    error
	closed bool
}

// Next returns the next event, or io.EOF when the reply is complete.
// Any error other than io.EOF indicates a failure.
func (s *TurnStream) Next() (Event, error) {
	if s.err != nil {
		return Event{}, s.err
	}
	ev, err := s.events.Next()
	if err == io.EOF {
		s.finish()
		s.err = io.EOF
		return Event{}, io.EOF
	}
	if err != nil {
		s.err = fromRequestError(err, "reading turn response")
		s.span.RecordError(s.err)
		s.span.SetStatus(otelcodes.Error, s.err.Error())
		s.Close()
		return Event{}, s.err
	}

	switch ev.Kind {
	case EventImage:
		s.images = append(s.images, *ev.Image)
	case EventContent:
		s.text.WriteString(ev.Content)
	case EventResponseType:
		if ev.ResponseType.Limited() {
			s.limited = true
			s.logger.Warn().Str("response_type", string(ev.ResponseType)).Msg("turn limited")
		}
	}
	return ev, nil
}

// finish appends the reply entry and builds the result.
func (s *TurnStream) finish() {
	fileAttachments := make([]FileAttachment, 0, len(s.images))
	urls := make([]string, 0, len(s.images))
	for _, img := range s.images {
		fileAttachments = append(fileAttachments, img.fileAttachment())
		urls = append(urls, s.client.MediaURL(img.MediaIDStr))
	}
	s.history.Append(Message{
		Message:         s.text.String(),
		Sender:          SenderGrok,
		FileAttachments: fileAttachments,
	})
	s.result = &TurnResult{
		ConversationID: s.conversationID,
		History:        s.history,
		ResponseText:   s.text.String(),
		Attachments:    urls,
		Images:         s.images,
		Limited:        s.limited,
	}
	s.span.SetAttributes(
		attribute.Int("response.images", len(s.images)),
		attribute.Bool("response.limited", s.limited),
	)
	s.logger.Debug().Int("images", len(s.images)).Bool("limited", s.limited).Msg("turn complete")
	s.Close()
}

// Result returns the turn result. It is nil until Next has returned io.EOF.
func (s *TurnStream) Result() *TurnResult {
	return s.result
}

// Close releases the response. Closing before io.EOF abandons the reply: the
// history keeps the prompt entry but gets no reply entry. Safe to call
// multiple times.
func (s *TurnStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.body.Close()
	s.cancel()
	s.span.End()
	return err
}

// StreamTurn submits a turn and returns its events as they arrive.
//
// Before submission it creates a conversation when none is given, uploads the
// request's attachments and appends the prompt entry to the history. That
// entry stays in the history if anything later fails.
func (c *Client) StreamTurn(ctx context.Context, req *GenerateRequest) (*TurnStream, error) {
	ctx, cancel := c.withTimeout(ctx)
	ctx, span := tracer.Start(ctx, "grok turn")
	fail := func(err error) (*TurnStream, error) {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		span.End()
		cancel()
		return nil, err
	}

	turnID := uuid.NewString()
	logger := c.logger.With().Str("turn_id", turnID).Logger()

	history := req.history
	if history == nil {
		history = NewHistory()
	}
	model := req.model
	if model == "" {
		model = c.config.DefaultModel
	}
	span.SetAttributes(
		attribute.String("request.model", model.String()),
		attribute.Int("request.attachments", len(req.attachments)),
		attribute.Bool("request.image_edit", req.editAttachment),
	)

	conversationID := req.conversationID
	if conversationID == "" {
		id, err := c.createConversation(ctx)
		if err != nil {
			return fail(err)
		}
		conversationID = id
	}
	span.SetAttributes(attribute.String("conversation.id", conversationID))
	logger = logger.With().Str("conversation_id", conversationID).Logger()

	uploaded := make([]FileAttachment, 0, len(req.attachments))
	var editURL string
	for _, src := range req.attachments {
		att, err := c.upload(ctx, src, req.editAttachment)
		if err != nil {
			return fail(err)
		}
		uploaded = append(uploaded, att.fileAttachment())
		if req.editAttachment && editURL == "" {
			editURL = att.URL
		}
	}

	history.Append(Message{Message: req.prompt, Sender: SenderUser, FileAttachments: uploaded})

	payload := buildPayload(conversationID, history, editURL, req.systemPromptName, model)
	body, err := json.Marshal(payload)
	if err != nil {
		return fail(&Error{Code: ErrUnknown, Message: "encoding turn payload", Cause: err})
	}
	httpReq, err := c.newRequest(ctx, http.MethodPost, c.config.Endpoints.AddResponse, bytes.NewReader(body), true)
	if err != nil {
		return fail(err)
	}
	logger.Debug().Str("model", model.String()).Int("history", history.Len()).Msg("submitting turn")

	resp, err := c.do(httpReq, "submitting turn")
	if err != nil {
		return fail(err)
	}
	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if !isSuccess(resp.StatusCode) {
		raw := readAndClose(resp)
		logger.Warn().Int("status", resp.StatusCode).Msg("turn rejected")
		return fail(newStatusError(ErrTurn, "adding response", resp.StatusCode, raw))
	}

	return &TurnStream{
		client:         c,
		events:         NewEventReader(resp.Body, c.lineHook(logger)),
		body:           resp.Body,
		cancel:         cancel,
		span:           span,
		logger:         logger,
		conversationID: conversationID,
		history:        history,
	}, nil
}

// lineHook returns the per-line observer for a turn, or nil when neither
// debug logging nor a LineHook is configured.
func (c *Client) lineHook(logger zerolog.Logger) func([]byte) {
	debug, hook := c.config.Debug, c.config.LineHook
	if !debug && hook == nil {
		return nil
	}
	return func(line []byte) {
		if debug {
			logger.Debug().RawJSON("line", line).Msg("stream line")
		}
		if hook != nil {
			hook(line)
		}
	}
}

// Generate runs one conversation turn and returns the complete reply. The
// response stream is always read to the end before Generate returns.
//
// On failure the prompt entry already appended to the request's history is
// not removed; discard the history if that matters.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*TurnResult, error) {
	stream, err := c.StreamTurn(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	for {
		_, err := stream.Next()
		if err == io.EOF {
			return stream.Result(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
