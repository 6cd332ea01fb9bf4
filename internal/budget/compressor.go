package budget

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	pkglogger "github.com/modulbox/leadform-backend/pkg/logger"
)

// Stage is a step an upload attempt passed through.
type Stage string

const (
	StageSelected          Stage = "selected"
	StageTypeChecked       Stage = "type_checked"
	StageFileSizeChecked   Stage = "file_size_checked"
	StageAggregateChecked  Stage = "aggregate_checked"
	StageReencodeAttempted Stage = "reencode_attempted"
	StageAccepted          Stage = "accepted"
)

var acceptedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// TranscodeOptions bounds a re-encode.
type TranscodeOptions struct {
	MaxWidth  int
	MaxHeight int
	Quality   float64 // 0..1
}

// TranscodeResult is the output of a successful re-encode.
type TranscodeResult struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Transcoder decodes, downsizes and re-encodes image bytes.
type Transcoder interface {
	Transcode(ctx context.Context, data []byte, opts TranscodeOptions) (*TranscodeResult, error)
}

// IncomingFile is an image as received from the client.
type IncomingFile struct {
	Name        string
	ContentType string
	Data        []byte
	// Truncated is set when reading stopped before the end of the file, so
	// Data holds only its first bytes.
	Truncated bool
}

// Size returns the byte length of the file.
func (f IncomingFile) Size() int64 { return int64(len(f.Data)) }

// AcceptedFile is what callers store in the slot.
type AcceptedFile struct {
	Name         string  `json:"name"`
	ContentType  string  `json:"content_type"`
	Data         []byte  `json:"-"`
	Size         int64   `json:"size"`
	OriginalSize int64   `json:"original_size"`
	Reencoded    bool    `json:"reencoded"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	Policy       Policy  `json:"policy"`
	Stages       []Stage `json:"stages"`
}

// Compressor gatekeeps incoming images and shrinks accepted ones.
type Compressor struct {
	transcoder Transcoder
}

// NewCompressor creates a Compressor. A nil transcoder accepts files without re-encoding.
func NewCompressor(t Transcoder) *Compressor {
	return &Compressor{transcoder: t}
}

// NormalizeContentType strips parameters and lower-cases a MIME type. An empty
// type is sniffed from the data.
func NormalizeContentType(contentType string, data []byte) string {
	ct := strings.TrimSpace(contentType)
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	return strings.ToLower(ct)
}

func checkType(contentType string) error {
	if !acceptedTypes[contentType] {
		return &UnsupportedTypeError{ContentType: contentType}
	}
	return nil
}

func checkFileSize(size int64) error {
	if size > MaxFileBytes {
		return &FileTooLargeError{Size: size, Limit: MaxFileBytes}
	}
	return nil
}

func checkAggregate(size int64, current Snapshot) error {
	if current.TotalBytes+size > MaxAggregateBytes {
		return &PayloadBudgetExceededError{
			Size:      size,
			Current:   current.TotalBytes,
			Remaining: current.Remaining(),
			Limit:     MaxAggregateBytes,
		}
	}
	return nil
}

// ProcessIncomingImage validates file against the current snapshot and returns the
// version to store. Re-encode problems fall back to the original bytes.
func (c *Compressor) ProcessIncomingImage(ctx context.Context, file IncomingFile, current Snapshot) (*AcceptedFile, error) {
	stages := []Stage{StageSelected}
	size := file.Size()
	ct := NormalizeContentType(file.ContentType, file.Data)

	if err := checkType(ct); err != nil {
		return nil, err
	}
	stages = append(stages, StageTypeChecked)

	if file.Truncated {
		return nil, &FileTooLargeError{Size: size, Limit: MaxFileBytes, Partial: true}
	}
	if err := checkFileSize(size); err != nil {
		return nil, err
	}
	stages = append(stages, StageFileSizeChecked)

	if err := checkAggregate(size, current); err != nil {
		return nil, err
	}
	stages = append(stages, StageAggregateChecked)

	policy := ChoosePolicy(current, size)
	accepted := &AcceptedFile{
		Name:         file.Name,
		ContentType:  ct,
		Data:         file.Data,
		Size:         size,
		OriginalSize: size,
		Policy:       policy,
	}

	if c.transcoder != nil {
		stages = append(stages, StageReencodeAttempted)
		out, err := c.reencode(ctx, file.Data, policy)
		if err != nil {
			pkglogger.GetLogger().Warn().
				Err(err).
				Str("file", file.Name).
				Int64("size", size).
				Str("rule", policy.Rule).
				Msg("keeping original image")
		} else {
			accepted.Data = out.Data
			accepted.Size = int64(len(out.Data))
			accepted.ContentType = out.ContentType
			accepted.Name = replaceExt(file.Name, out.ContentType)
			accepted.Width = out.Width
			accepted.Height = out.Height
			accepted.Reencoded = true
		}
	}

	accepted.Stages = append(stages, StageAccepted)
	return accepted, nil
}

func (c *Compressor) reencode(ctx context.Context, data []byte, p Policy) (*TranscodeResult, error) {
	out, err := c.transcoder.Transcode(ctx, data, TranscodeOptions{
		MaxWidth:  p.MaxWidth,
		MaxHeight: p.MaxHeight,
		Quality:   p.Quality,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReencode, err)
	}
	if out == nil || len(out.Data) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrReencode)
	}
	if len(out.Data) >= len(data) {
		return nil, fmt.Errorf("%w: output %d bytes is not smaller than input %d", ErrReencode, len(out.Data), len(data))
	}
	return out, nil
}

func replaceExt(name, contentType string) string {
	if name == "" {
		return name
	}
	ext := ".jpg"
	switch contentType {
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	case "image/gif":
		ext = ".gif"
	}
	return strings.TrimSuffix(name, path.Ext(name)) + ext
}
