package budget

import (
	"errors"
	"fmt"
)

var (
	// ErrRejected is wrapped by every per-file rejection.
	ErrRejected = errors.New("attachment rejected")

	// ErrReencode marks a failed or useless re-encode. It is logged, never returned to users.
	ErrReencode = errors.New("re-encode failed")
)

// Rejection codes reported to clients.
const (
	CodeUnsupportedType       = "unsupported_type"
	CodeFileTooLarge          = "file_too_large"
	CodePayloadBudgetExceeded = "payload_budget_exceeded"
)

// UnsupportedTypeError rejects a file whose MIME type is not an accepted image type.
type UnsupportedTypeError struct {
	ContentType string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q: use a JPEG, PNG, GIF or WebP image", e.ContentType)
}

func (e *UnsupportedTypeError) Unwrap() error { return ErrRejected }

// Code returns the client-facing rejection code.
func (e *UnsupportedTypeError) Code() string { return CodeUnsupportedType }

// FileTooLargeError rejects a single file above MaxFileBytes.
type FileTooLargeError struct {
	Size  int64
	Limit int64
	// Partial means the file was not read to the end and Size is only how much arrived.
	Partial bool
}

func (e *FileTooLargeError) Error() string {
	if e.Partial {
		return fmt.Sprintf("file is larger than the %s limit per image", FormatBytes(e.Limit))
	}
	return fmt.Sprintf("file is %s, the limit per image is %s", FormatBytes(e.Size), FormatBytes(e.Limit))
}

func (e *FileTooLargeError) Unwrap() error { return ErrRejected }

// Code returns the client-facing rejection code.
func (e *FileTooLargeError) Code() string { return CodeFileTooLarge }

// PayloadBudgetExceededError rejects a file that would push the total past MaxAggregateBytes.
type PayloadBudgetExceededError struct {
	Size      int64
	Current   int64
	Remaining int64
	Limit     int64
}

func (e *PayloadBudgetExceededError) Error() string {
	return fmt.Sprintf(
		"adding this %s image would exceed the %s upload limit; only %s remains. "+
			"Delete some images, choose a smaller file, or continue without this image",
		FormatBytes(e.Size), FormatBytes(e.Limit), FormatBytes(e.Remaining))
}

func (e *PayloadBudgetExceededError) Unwrap() error { return ErrRejected }

// Code returns the client-facing rejection code.
func (e *PayloadBudgetExceededError) Code() string { return CodePayloadBudgetExceeded }

// FormatBytes renders a byte count the way the form displays it.
func FormatBytes(n int64) string {
	switch {
	case n >= MiB:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(MiB))
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
