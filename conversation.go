package grokit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	otelcodes "go.opentelemetry.io/otel/codes"
)

type createConversationRequest struct {
	Variables struct{} `json:"variables"`
	QueryID   string   `json:"queryId"`
}

type createConversationResponse struct {
	Data *struct {
		CreateGrokConversation *struct {
			ConversationID string `json:"conversation_id"`
		} `json:"create_grok_conversation"`
	} `json:"data"`
}

// CreateConversation opens a new conversation and returns its id.
func (c *Client) CreateConversation(ctx context.Context) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	ctx, span := tracer.Start(ctx, "create conversation")
	defer span.End()

	id, err := c.createConversation(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return "", err
	}
	return id, nil
}

func (c *Client) createConversation(ctx context.Context) (string, error) {
	body, err := json.Marshal(createConversationRequest{QueryID: createConversationQueryID})
	if err != nil {
		return "", &Error{Code: ErrUnknown, Message: "encoding conversation request", Cause: err}
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.config.Endpoints.CreateConversation, bytes.NewReader(body), true)
	if err != nil {
		return "", err
	}
	resp, err := c.do(req, "creating conversation")
	if err != nil {
		return "", err
	}
	raw := readAndClose(resp)
	if !isSuccess(resp.StatusCode) {
		return "", newStatusError(ErrConversationCreation, "creating conversation", resp.StatusCode, raw)
	}

	var out createConversationResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &Error{Code: ErrConversationCreation, Message: "decoding conversation response", Cause: err, Body: string(raw)}
	}
	if out.Data == nil || out.Data.CreateGrokConversation == nil || out.Data.CreateGrokConversation.ConversationID == "" {
		return "", &Error{Code: ErrConversationCreation, Message: "server returned no conversation id", Body: string(raw)}
	}
	id := out.Data.CreateGrokConversation.ConversationID
	c.logger.Debug().Str("conversation_id", id).Msg("created conversation")
	return id, nil
}
