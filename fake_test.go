package grokit_test

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	grokit "github.com/roelfdiedericks/grokit-go"
)

// fakeGrok stands in for the Grok web endpoints.
type fakeGrok struct {
	t   *testing.T
	srv *httptest.Server

	mu sync.Mutex

	conversationID string
	createStatus   int
	creates        int

	turnStatus int
	turnLines  []string
	turns      []map[string]any
	turnHeader http.Header

	sourceType string
	sourceBody []byte

	uploadStatus int
	uploads      []fakeUpload
	uploadHeader http.Header

	media map[string][]byte
}

type fakeUpload struct {
	fieldName   string
	fileName    string
	contentType string
	data        []byte
}

func newFakeGrok(t *testing.T) *fakeGrok {
	t.Helper()
	f := &fakeGrok{
		t:              t,
		conversationID: "conv-1",
		createStatus:   http.StatusOK,
		turnStatus:     http.StatusOK,
		uploadStatus:   http.StatusOK,
		media:          map[string][]byte{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /graphql/CreateGrokConversation", f.handleCreate)
	mux.HandleFunc("POST /2/grok/add_response.json", f.handleTurn)
	mux.HandleFunc("POST /2/grok/attachment.json", f.handleUpload)
	mux.HandleFunc("GET /source/", f.handleSource)
	mux.HandleFunc("GET /media/", f.handleMedia)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGrok) client(t *testing.T, mutate ...func(*grokit.Config)) *grokit.Client {
	t.Helper()
	cfg := grokit.Config{
		Credentials: grokit.Credentials{
			AuthToken: grokit.NewSecureString("auth"),
			CSRFToken: grokit.NewSecureString("csrf"),
		},
		Endpoints: grokit.Endpoints{
			CreateConversation: f.srv.URL + "/graphql/CreateGrokConversation",
			AddResponse:        f.srv.URL + "/2/grok/add_response.json",
			Attachment:         f.srv.URL + "/2/grok/attachment.json",
			MediaBase:          f.srv.URL + "/media/",
		},
		HTTPClient: f.srv.Client(),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := grokit.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func (f *fakeGrok) sourceURL(name string) string {
	return f.srv.URL + "/source/" + name
}

func (f *fakeGrok) handleCreate(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createStatus != http.StatusOK {
		http.Error(w, `{"errors":[{"message":"nope"}]}`, f.createStatus)
		return
	}
	if f.conversationID == "" {
		_, _ = io.WriteString(w, `{"data":{}}`)
		return
	}
	_, _ = io.WriteString(w, `{"data":{"create_grok_conversation":{"conversation_id":"`+f.conversationID+`"}}}`)
}

func (f *fakeGrok) handleTurn(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		f.t.Errorf("turn payload: %v", err)
	}
	f.turns = append(f.turns, payload)
	f.turnHeader = r.Header.Clone()
	if f.turnStatus != http.StatusOK {
		http.Error(w, `{"errors":[{"message":"Rate limit exceeded"}]}`, f.turnStatus)
		return
	}
	_, _ = io.WriteString(w, strings.Join(f.turnLines, "\n")+"\n")
}

func (f *fakeGrok) handleUpload(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadHeader = r.Header.Clone()
	if f.uploadStatus != http.StatusOK {
		http.Error(w, "upload refused", f.uploadStatus)
		return
	}
	mt, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mt != "multipart/form-data" {
		f.t.Errorf("upload content type %q: %v", r.Header.Get("Content-Type"), err)
		http.Error(w, "bad", http.StatusBadRequest)
		return
	}
	mr := multipart.NewReader(r.Body, params["boundary"])
	part, err := mr.NextPart()
	if err != nil {
		f.t.Errorf("upload part: %v", err)
		http.Error(w, "bad", http.StatusBadRequest)
		return
	}
	data, _ := io.ReadAll(part)
	up := fakeUpload{
		fieldName:   part.FormName(),
		fileName:    part.FileName(),
		contentType: part.Header.Get("Content-Type"),
		data:        data,
	}
	f.uploads = append(f.uploads, up)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"fileName": up.fileName,
		"mimeType": up.contentType,
		"url":      "https://ton.x.com/i/ton/data/grok-attachment/" + up.fileName,
	})
}

func (f *fakeGrok) handleSource(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/missing") {
		http.NotFound(w, r)
		return
	}
	if f.sourceType != "" {
		w.Header().Set("Content-Type", f.sourceType)
	}
	_, _ = w.Write(f.sourceBody)
}

func (f *fakeGrok) handleMedia(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/media/")
	data, ok := f.media[id]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("Cookie") == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(data)
}

func (f *fakeGrok) lastTurn() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(f.t, f.turns)
	return f.turns[len(f.turns)-1]
}
