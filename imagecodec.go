package grokit

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif" // decoder registration
	"image/jpeg"
	"image/png"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // decoder registration
)

// The image-edit endpoint only accepts sources of this size.
const (
	EditCanvasWidth  = 1024
	EditCanvasHeight = 768
)

// ImageCodec prepares a source image for the image-edit endpoint.
type ImageCodec interface {
	// Fit decodes data and re-encodes it on an EditCanvasWidth x
	// EditCanvasHeight canvas. It returns the encoded bytes and their MIME
	// type: image/png when mimeType is image/png, image/jpeg otherwise.
	Fit(data []byte, mimeType string) ([]byte, string, error)
}

// DefaultImageCodec scales the image to fit the canvas, keeping its aspect
// ratio, and centers it. PNG output pads with transparency, JPEG with black.
// JPEG sources are straightened according to their EXIF orientation first.
type DefaultImageCodec struct {
	// JPEGQuality is the encoder quality, 1-100 (default: 90).
	JPEGQuality int
}

// Fit implements ImageCodec.
func (d DefaultImageCodec) Fit(data []byte, mimeType string) ([]byte, string, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &Error{Code: ErrUnsupportedMedia, Message: "decoding " + mimeType + " image", Cause: err}
	}
	if format == "jpeg" {
		src = applyOrientation(src, exifOrientation(data))
	}

	canvas := image.NewRGBA(image.Rect(0, 0, EditCanvasWidth, EditCanvasHeight))
	isPNG := mimeType == "image/png"
	if !isPNG {
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	}
	draw.CatmullRom.Scale(canvas, letterbox(src.Bounds(), canvas.Bounds()), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if isPNG {
		err = png.Encode(&buf, canvas)
	} else {
		q := d.JPEGQuality
		if q <= 0 || q > 100 {
			q = 90
		}
		err = jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: q})
	}
	if err != nil {
		return nil, "", &Error{Code: ErrUnknown, Message: "encoding resized image", Cause: err}
	}
	if isPNG {
		return buf.Bytes(), "image/png", nil
	}
	return buf.Bytes(), "image/jpeg", nil
}

// letterbox returns the largest rectangle with src's aspect ratio that fits
// in dst, centered.
func letterbox(src, dst image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	dw, dh := dst.Dx(), dst.Dy()
	if sw == 0 || sh == 0 {
		return dst
	}
	w, h := dw, sh*dw/sw
	if h > dh {
		w, h = sw*dh/sh, dh
	}
	x := dst.Min.X + (dw-w)/2
	y := dst.Min.Y + (dh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// exifOrientation returns the EXIF orientation tag, or 1 when absent.
func exifOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return o
}

// applyOrientation undoes the rotations cameras record in EXIF. Mirrored
// orientations (2, 4, 5, 7) are rare in practice and left alone.
func applyOrientation(src image.Image, orientation int) image.Image {
	b := src.Bounds()
	var dst *image.RGBA
	var at func(x, y int) (int, int)
	switch orientation {
	case 3:
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		at = func(x, y int) (int, int) { return b.Dx() - 1 - x, b.Dy() - 1 - y }
	case 6:
		dst = image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
		at = func(x, y int) (int, int) { return b.Dy() - 1 - y, x }
	case 8:
		dst = image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
		at = func(x, y int) (int, int) { return y, b.Dx() - 1 - x }
	default:
		return src
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dx, dy := at(x, y)
			dst.Set(dx, dy, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
