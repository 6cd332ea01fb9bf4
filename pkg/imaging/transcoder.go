package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder

	"github.com/modulbox/leadform-backend/internal/budget"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

// MaxPixels caps the decoded size of an upload. A small compressed file can
// declare a bitmap far larger than the bytes it occupies.
const MaxPixels = 40_000_000

// ErrTooManyPixels rejects images whose header exceeds MaxPixels.
var ErrTooManyPixels = errors.New("image dimensions too large to decode")

// Transcoder re-encodes uploads as JPEG within the requested bounds.
type Transcoder struct {
	scaler draw.Scaler
}

// NewTranscoder creates a Transcoder using CatmullRom resampling
func NewTranscoder() *Transcoder {
	return &Transcoder{scaler: draw.CatmullRom}
}

// Transcode decodes data, fits it inside opts bounds and encodes it as JPEG.
// Images already inside the bounds keep their size and are only re-compressed.
func (t *Transcoder) Transcode(ctx context.Context, data []byte, opts budget.TranscodeOptions) (*budget.TranscodeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := src.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), opts.MaxWidth, opts.MaxHeight)

	// JPEG has no alpha: paint onto white first
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	t.scaler.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality(opts.Quality)}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	return &budget.TranscodeResult{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       w,
		Height:      h,
	}, nil
}

// FitWithin scales width x height down so both sides fit the bounds, keeping
// the aspect ratio. It never scales up. Non-positive bounds are ignored.
func FitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}
	scale := 1.0
	if maxWidth > 0 && width > maxWidth {
		scale = float64(maxWidth) / float64(width)
	}
	if maxHeight > 0 && float64(height)*scale > float64(maxHeight) {
		scale = float64(maxHeight) / float64(height)
	}
	if scale >= 1 {
		return width, height
	}
	w := int(float64(width)*scale + 0.5)
	h := int(float64(height)*scale + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func jpegQuality(q float64) int {
	n := int(q*100 + 0.5)
	if n < 1 {
		return 1
	}
	if n > 100 {
		return 100
	}
	return n
}
