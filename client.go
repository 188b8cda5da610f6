package grokit

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/roelfdiedericks/grokit-go"

var tracer = otel.Tracer(scopeName)

const (
	// DefaultResponseHeaderTimeout bounds how long the default transport waits
	// for response headers. It does not limit reading a streamed reply.
	DefaultResponseHeaderTimeout = 120 * time.Second
	// DefaultModel is the model used when a request does not name one.
	DefaultModel = ModelGrok2Mini

	// DefaultCreateConversationURL is the GraphQL mutation that opens a conversation.
	DefaultCreateConversationURL = "https://x.com/i/api/graphql/" + createConversationQueryID + "/CreateGrokConversation"
	// DefaultAddResponseURL receives conversation turns and streams the reply.
	DefaultAddResponseURL = "https://api.x.com/2/grok/add_response.json"
	// DefaultAttachmentURL accepts multipart image uploads.
	DefaultAttachmentURL = "https://x.com/i/api/2/grok/attachment.json"
	// DefaultMediaBaseURL is prefixed to a generated image's media id to download it.
	DefaultMediaBaseURL = "https://ton.x.com/i/ton/data/grok-attachment/"

	createConversationQueryID = "UBIjqHqsA5aixuibXTBheQ"
)

// HTTPClient is the transport the client sends requests through.
// *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Endpoints overrides the service URLs. Empty fields use the defaults.
type Endpoints struct {
	CreateConversation string
	AddResponse        string
	Attachment         string
	MediaBase          string
}

func (e *Endpoints) setDefaults() {
	if e.CreateConversation == "" {
		e.CreateConversation = DefaultCreateConversationURL
	}
	if e.AddResponse == "" {
		e.AddResponse = DefaultAddResponseURL
	}
	if e.Attachment == "" {
		e.Attachment = DefaultAttachmentURL
	}
	if e.MediaBase == "" {
		e.MediaBase = DefaultMediaBaseURL
	}
}

// Config holds the configuration for a client.
type Config struct {
	// Credentials are the session cookies (required).
	Credentials Credentials
	// Endpoints overrides the service URLs, mainly for tests and proxies.
	Endpoints Endpoints
	// Timeout, if positive, is a deadline applied to calls whose context has
	// none, covering the whole turn including the streamed reply. Zero or
	// negative leaves timeouts to the context and the HTTPClient (default: 0).
	Timeout time.Duration
	// DefaultModel is the model to use when not specified (default: grok-2-mini).
	DefaultModel Model
	// HTTPClient is the transport. Defaults to an otelhttp-instrumented client.
	HTTPClient HTTPClient
	// ImageCodec resizes uploads requested with resize. Defaults to DefaultImageCodec.
	ImageCodec ImageCodec
	// Logger receives client logs. Defaults to a disabled logger.
	Logger *zerolog.Logger
	// Debug logs every parsed stream line at debug level.
	Debug bool
	// LineHook, if set, is called with every parsed stream line.
	LineHook func(line []byte)
}

// validate checks the config and sets defaults.
func (c *Config) validate() error {
	if err := c.Credentials.validate(); err != nil {
		return err
	}
	c.Endpoints.setDefaults()
	if c.Timeout < 0 {
		c.Timeout = 0
	}
	if c.DefaultModel == "" {
		c.DefaultModel = DefaultModel
	}
	if c.HTTPClient == nil {
		c.HTTPClient = newInstrumentedHTTPClient()
	}
	if c.ImageCodec == nil {
		c.ImageCodec = DefaultImageCodec{}
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	return nil
}

func newInstrumentedHTTPClient() *http.Client {
	var base http.RoundTripper = http.DefaultTransport
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		t = t.Clone()
		t.ResponseHeaderTimeout = DefaultResponseHeaderTimeout
		base = t
	}
	return &http.Client{Transport: otelhttp.NewTransport(base,
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return operation + " " + r.URL.Path
		}),
	)}
}

// Client talks to the Grok web API on behalf of one session.
// A Client holds no per-conversation state.
type Client struct {
	config Config
	logger zerolog.Logger
}

// New creates a new client with the given configuration.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: cfg,
		logger: cfg.Logger.With().Str("component", "grokit").Logger(),
	}, nil
}

// FromEnv creates a client from X_AUTH_TOKEN and X_CSRF_TOKEN plus the
// optional GROKIT_* settings. See LoadConfig.
func FromEnv() (*Client, error) {
	cfg, err := LoadConfig(nil)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// Close clears the session secrets from memory.
func (c *Client) Close() error {
	c.config.Credentials.Close()
	return nil
}

// DefaultModel returns the default model configured for this client.
func (c *Client) DefaultModel() Model {
	return c.config.DefaultModel
}

// Timeout returns the per-call deadline configured for this client, or 0 when
// the client sets none.
func (c *Client) Timeout() time.Duration {
	return c.config.Timeout
}

// MediaURL returns the download URL for a generated image.
func (c *Client) MediaURL(mediaIDStr string) string {
	return c.config.Endpoints.MediaBase + mediaIDStr
}

// withTimeout returns a cancelable context carrying the client's Timeout if
// one is configured and the provided context doesn't already have a deadline.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || c.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.config.Timeout)
}

// newRequest builds an authenticated request against the service.
func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader, jsonBody bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &Error{Code: ErrTransport, Message: "building request for " + url, Cause: err}
	}
	c.config.Credentials.setHeaders(req, jsonBody)
	return req, nil
}

// do sends req. Only failures without a response are errors here; status
// handling is up to the caller.
func (c *Client) do(req *http.Request, what string) (*http.Response, error) {
	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fromRequestError(err, what)
	}
	return resp, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// readAndClose drains a response body. Read errors are ignored since the body
// is only used for diagnostics.
func readAndClose(resp *http.Response) []byte {
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return b
}
