package grokit_test

import (
	"bytes"
	"context"
	"image"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	grokit "github.com/roelfdiedericks/grokit-go"
)

func TestUploadPNGResize(t *testing.T) {
	f := newFakeGrok(t)
	f.sourceType = "image/png"
	f.sourceBody = encodePNG(t, 640, 640)
	c := f.client(t)

	att, err := c.Upload(context.Background(), f.sourceURL("cat.png?size=large"), true)
	require.NoError(t, err)

	require.Len(t, f.uploads, 1)
	up := f.uploads[0]
	assert.Equal(t, "file", up.fieldName)
	assert.Equal(t, "cat.png", up.fileName)
	assert.Equal(t, "image/png", up.contentType)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(up.data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 1024, cfg.Width)
	assert.Equal(t, 768, cfg.Height)

	assert.Equal(t, "cat.png", att.FileName)
	assert.Equal(t, "image/png", att.MimeType)
	assert.Equal(t, "https://ton.x.com/i/ton/data/grok-attachment/cat.png", att.URL)

	// multipart uploads carry the session headers but not the JSON content type
	assert.Equal(t, "csrf", f.uploadHeader.Get("X-Csrf-Token"))
	assert.Equal(t, "auth_token=auth; ct0=csrf;", f.uploadHeader.Get("Cookie"))
	assert.Equal(t, "Bearer "+grokit.BearerToken, f.uploadHeader.Get("Authorization"))
	assert.Contains(t, f.uploadHeader.Get("Content-Type"), "multipart/form-data")
}

func TestUploadWithoutResize(t *testing.T) {
	f := newFakeGrok(t)
	f.sourceType = "image/jpeg"
	f.sourceBody = encodeJPEG(t, 50, 40)
	c := f.client(t)

	_, err := c.Upload(context.Background(), f.sourceURL("photo"), false)
	require.NoError(t, err)

	require.Len(t, f.uploads, 1)
	assert.Equal(t, f.sourceBody, f.uploads[0].data)
	assert.Equal(t, "photo.jpg", f.uploads[0].fileName)
}

func TestUploadJPEGResizeStaysJPEG(t *testing.T) {
	f := newFakeGrok(t)
	f.sourceType = "image/webp; charset=binary"
	f.sourceBody = encodePNG(t, 30, 20)
	c := f.client(t)

	att, err := c.Upload(context.Background(), f.sourceURL("pic.webp"), true)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", att.MimeType)
	assert.Equal(t, "pic.jpg", f.uploads[0].fileName)
}

func TestUploadSniffsGenericContentType(t *testing.T) {
	f := newFakeGrok(t)
	f.sourceType = "application/octet-stream"
	f.sourceBody = encodePNG(t, 8, 8)
	c := f.client(t)

	att, err := c.Upload(context.Background(), f.sourceURL("blob"), false)
	require.NoError(t, err)
	assert.Equal(t, "image/png", att.MimeType)
}

func TestUploadRejectsNonImage(t *testing.T) {
	f := newFakeGrok(t)
	f.sourceType = "text/html; charset=utf-8"
	f.sourceBody = []byte("<html></html>")
	c := f.client(t)

	_, err := c.Upload(context.Background(), f.sourceURL("page"), true)
	assert.ErrorIs(t, err, grokit.ErrUnsupportedMediaSentinel)
	assert.Empty(t, f.uploads)
}

func TestUploadFetchFailure(t *testing.T) {
	f := newFakeGrok(t)
	c := f.client(t)

	_, err := c.Upload(context.Background(), f.sourceURL("missing"), false)
	var gErr *grokit.Error
	require.ErrorAs(t, err, &gErr)
	assert.Equal(t, grokit.ErrTransport, gErr.Code)
	assert.Equal(t, http.StatusNotFound, gErr.StatusCode)
}

func TestUploadRejected(t *testing.T) {
	f := newFakeGrok(t)
	f.sourceType = "image/png"
	f.sourceBody = encodePNG(t, 8, 8)
	f.uploadStatus = http.StatusRequestEntityTooLarge
	c := f.client(t)

	_, err := c.Upload(context.Background(), f.sourceURL("big.png"), false)
	var gErr *grokit.Error
	require.ErrorAs(t, err, &gErr)
	assert.Equal(t, grokit.ErrTransport, gErr.Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, gErr.StatusCode)
	assert.Contains(t, gErr.Body, "upload refused")
}
