package grokit

import (
	"context"
	"io"
	"net/http"

	otelcodes "go.opentelemetry.io/otel/codes"
)

// ImageURL generates an image for prompt in a fresh conversation and returns
// the URL of the first image the service produces. The rest of the reply is
// not read.
func (c *Client) ImageURL(ctx context.Context, prompt string) (string, error) {
	img, err := c.firstImage(ctx, prompt)
	if err != nil {
		return "", err
	}
	return img.ImageURL, nil
}

// Image generates an image for prompt and downloads it.
func (c *Client) Image(ctx context.Context, prompt string) ([]byte, error) {
	img, err := c.firstImage(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if img.MediaIDStr != "" {
		return c.DownloadAttachment(ctx, img.MediaIDStr)
	}
	return c.download(ctx, img.ImageURL)
}

func (c *Client) firstImage(ctx context.Context, prompt string) (*ImageAttachment, error) {
	req := NewGenerateRequest(`Generate an image of "` + prompt + `"`)
	stream, err := c.StreamTurn(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	for {
		ev, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if ev.Kind == EventImage {
			return ev.Image, nil
		}
	}
	if res := stream.Result(); res != nil && res.Limited {
		return nil, &Error{Code: ErrTurn, Message: "image generation was rate limited"}
	}
	return nil, &Error{Code: ErrTurn, Message: "no image was generated"}
}

// DownloadAttachment fetches the bytes of a generated image by its media id.
func (c *Client) DownloadAttachment(ctx context.Context, mediaIDStr string) ([]byte, error) {
	return c.download(ctx, c.MediaURL(mediaIDStr))
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	ctx, span := tracer.Start(ctx, "download image")
	defer span.End()

	req, err := c.newRequest(ctx, http.MethodGet, url, nil, false)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req, "downloading "+url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	data := readAndClose(resp)
	if !isSuccess(resp.StatusCode) {
		err := newStatusError(ErrTransport, "downloading "+url, resp.StatusCode, data)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return data, nil
}
