package grokit

import (
	"bytes"
	"context"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
)

// UploadedAttachment describes an image stored by the attachment endpoint.
// Reference it from a later turn, or use its URL as an image-edit source.
type UploadedAttachment struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	URL      string `json:"url"`
}

func (a UploadedAttachment) fileAttachment() FileAttachment {
	return FileAttachment{FileName: a.FileName, MimeType: a.MimeType, URL: a.URL}
}

// Upload fetches the image at sourceURL and stores it as an attachment. With
// resize the image is first fitted onto the 1024x768 canvas the image-edit
// endpoint requires (see ImageCodec).
func (c *Client) Upload(ctx context.Context, sourceURL string, resize bool) (*UploadedAttachment, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	ctx, span := tracer.Start(ctx, "upload attachment")
	defer span.End()
	span.SetAttributes(attribute.String("source.url", sourceURL), attribute.Bool("resize", resize))

	att, err := c.upload(ctx, sourceURL, resize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return att, nil
}

func (c *Client) upload(ctx context.Context, sourceURL string, resize bool) (*UploadedAttachment, error) {
	data, mimeType, err := c.fetchImage(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	if resize {
		data, mimeType, err = c.config.ImageCodec.Fit(data, mimeType)
		if err != nil {
			return nil, WrapError(err, "resizing "+sourceURL)
		}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": uploadFileName(sourceURL, mimeType),
	}))
	h.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(h)
	if err == nil {
		_, err = part.Write(data)
	}
	if err == nil {
		err = mw.Close()
	}
	if err != nil {
		return nil, &Error{Code: ErrUnknown, Message: "building multipart body", Cause: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.config.Endpoints.Attachment, &body, false)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req, "uploading attachment")
	if err != nil {
		return nil, err
	}
	raw := readAndClose(resp)
	if !isSuccess(resp.StatusCode) {
		return nil, newStatusError(ErrTransport, "uploading attachment", resp.StatusCode, raw)
	}

	var att UploadedAttachment
	if err := json.Unmarshal(raw, &att); err != nil {
		return nil, &Error{Code: ErrDecode, Message: "decoding attachment descriptor", Cause: err, Body: string(raw)}
	}
	c.logger.Debug().Str("source", sourceURL).Str("url", att.URL).Str("mime_type", att.MimeType).Msg("uploaded attachment")
	return &att, nil
}

// fetchImage downloads sourceURL and returns its bytes and image MIME type.
// Session headers are not sent: the source is usually a third-party host.
func (c *Client) fetchImage(ctx context.Context, sourceURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", &Error{Code: ErrTransport, Message: "building request for " + sourceURL, Cause: err}
	}
	resp, err := c.do(req, "fetching "+sourceURL)
	if err != nil {
		return nil, "", err
	}
	data := readAndClose(resp)
	if !isSuccess(resp.StatusCode) {
		return nil, "", newStatusError(ErrTransport, "fetching "+sourceURL, resp.StatusCode, data)
	}

	mimeType := imageMIMEType(resp.Header.Get("Content-Type"), data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", &Error{
			Code:    ErrUnsupportedMedia,
			Message: sourceURL + " is " + mimeType + ", not an image",
		}
	}
	return data, mimeType, nil
}

// imageMIMEType returns the declared media type, sniffing data when the
// declaration is missing or generic.
func imageMIMEType(declared string, data []byte) string {
	mt, _, err := mime.ParseMediaType(declared)
	if err == nil && mt != "application/octet-stream" && mt != "binary/octet-stream" {
		return strings.ToLower(mt)
	}
	mt, _, _ = mime.ParseMediaType(mimetype.Detect(data).String())
	return mt
}

// uploadFileName derives the multipart file name from the source URL, with
// an extension matching mimeType. Sources without a usable name get a random one.
func uploadFileName(sourceURL, mimeType string) string {
	ext := ".jpg"
	if m := mimetype.Lookup(mimeType); m != nil && m.Extension() != "" {
		ext = m.Extension()
	}
	base := ""
	if u, err := url.Parse(sourceURL); err == nil {
		base = path.Base(u.Path)
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = uuid.NewString()
	}
	return base + ext
}
