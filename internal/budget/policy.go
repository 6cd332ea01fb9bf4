package budget

import "math"

// Policy is the resize/quality target chosen for one upload.
type Policy struct {
	Rule      string  `json:"rule"`
	Scale     float64 `json:"scale"`
	Quality   float64 `json:"quality"`
	MaxWidth  int     `json:"max_width"`
	MaxHeight int     `json:"max_height"`
}

type tierRule struct {
	name    string
	match   func(headroom, size int64) bool
	scale   float64
	quality float64
}

// Evaluated top to bottom; the last rule always matches.
var tierRules = []tierRule{
	{"low_headroom", func(headroom, _ int64) bool { return headroom < LowHeadroom }, 1.0, 0.4},
	{"over_2mib", func(_, size int64) bool { return size > 2*MiB }, 1.2, 0.6},
	{"over_1mib", func(_, size int64) bool { return size > MiB }, 1.4, 0.7},
	{"default", func(_, _ int64) bool { return true }, 1.5, 0.8},
}

// ChoosePolicy picks the re-encode tier from the headroom left before this file
// and the file's own size.
func ChoosePolicy(current Snapshot, size int64) Policy {
	headroom := MaxAggregateBytes - current.TotalBytes
	for _, r := range tierRules {
		if r.match(headroom, size) {
			return newPolicy(r)
		}
	}
	return newPolicy(tierRules[len(tierRules)-1])
}

func newPolicy(r tierRule) Policy {
	w := int(math.Round(BaseWidth * r.scale))
	if w > CanvasMaxWidth {
		w = CanvasMaxWidth
	}
	h := w
	if h > CanvasMaxHeight {
		h = CanvasMaxHeight
	}
	return Policy{
		Rule:      r.name,
		Scale:     r.scale,
		Quality:   r.quality,
		MaxWidth:  w,
		MaxHeight: h,
	}
}
