package grokit

import (
	"net/http"

	"github.com/google/uuid"
)

// BearerToken is the public web-client bearer token the platform's own web
// app sends with every request. It identifies the client, not the user.
const BearerToken = "AAAAAAAAAAAAAAAAAAAAANRILgAAAAAAnNwIzUejRCOuH5E6I8xnZz4puTs" +
	"%3D1Zv7ttfk8LF81IUq16cHjhLTvJu4FA33AGWWjCpTnA"

// transactionHeader carries a fresh id per request so server-side failures can
// be correlated with client logs.
const transactionHeader = "X-Client-Transaction-Id"

// Credentials are the two session cookies the service authenticates with.
type Credentials struct {
	// AuthToken is the auth_token cookie.
	AuthToken *SecureString
	// CSRFToken is the ct0 cookie, echoed in the X-Csrf-Token header.
	CSRFToken *SecureString
}

func (c Credentials) validate() error {
	if c.AuthToken.IsZero() || c.CSRFToken.IsZero() {
		return &Error{
			Code:    ErrMissingCredentials,
			Message: EnvAuthToken + " and " + EnvCSRFToken + " must be provided",
		}
	}
	return nil
}

// Cookie returns the Cookie header value.
func (c Credentials) Cookie() string {
	return "auth_token=" + c.AuthToken.Value() + "; ct0=" + c.CSRFToken.Value() + ";"
}

// Close zeroes both secrets.
func (c Credentials) Close() {
	c.AuthToken.Close()
	c.CSRFToken.Close()
}

// setHeaders applies the authentication headers to req. JSON requests also
// get a JSON content type; multipart requests set their own.
func (c Credentials) setHeaders(req *http.Request, jsonBody bool) {
	req.Header.Set("X-Csrf-Token", c.CSRFToken.Value())
	req.Header.Set("authorization", "Bearer "+BearerToken)
	req.Header.Set("Cookie", c.Cookie())
	if jsonBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(transactionHeader, uuid.NewString())
}
