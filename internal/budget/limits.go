package budget

// MiB is one mebibyte in bytes.
const MiB int64 = 1024 * 1024

// Byte limits for attachments of a single lead form.
const (
	MaxFileBytes      int64 = 10 * MiB // per-file cap
	MaxAggregateBytes int64 = 45 * MiB // multipart payload cap

	InfoThreshold    int64 = 10 * MiB
	WarningThreshold int64 = 30 * MiB
	DangerThreshold  int64 = 40 * MiB

	// LowHeadroom switches every upload to the most aggressive tier
	LowHeadroom int64 = 10 * MiB
)

// Re-encode canvas bounds in pixels.
const (
	CanvasMaxWidth  = 1200
	CanvasMaxHeight = 1200

	// BaseWidth is multiplied by a tier's scale before clamping to the canvas
	BaseWidth = 800
)

// Limits is the read-only view of the constants above, handed to clients so
// they can render the same thresholds.
type Limits struct {
	MaxFileBytes      int64 `json:"max_file_bytes"`
	MaxAggregateBytes int64 `json:"max_aggregate_bytes"`
	InfoThreshold     int64 `json:"info_threshold"`
	WarningThreshold  int64 `json:"warning_threshold"`
	DangerThreshold   int64 `json:"danger_threshold"`
	CanvasMaxWidth    int   `json:"canvas_max_width"`
	CanvasMaxHeight   int   `json:"canvas_max_height"`
}

// DefaultLimits returns the fixed limits.
func DefaultLimits() Limits {
	return Limits{
		MaxFileBytes:      MaxFileBytes,
		MaxAggregateBytes: MaxAggregateBytes,
		InfoThreshold:     InfoThreshold,
		WarningThreshold:  WarningThreshold,
		DangerThreshold:   DangerThreshold,
		CanvasMaxWidth:    CanvasMaxWidth,
		CanvasMaxHeight:   CanvasMaxHeight,
	}
}
