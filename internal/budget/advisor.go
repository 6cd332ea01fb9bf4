package budget

// Tier is a feedback level for the current attachment total. It never gates uploads.
type Tier string

const (
	TierNone    Tier = ""
	TierInfo    Tier = "info"
	TierWarning Tier = "warning"
	TierDanger  Tier = "danger"
)

// Classify maps an attachment total to a Tier.
// Exactly InfoThreshold bytes is still TierNone.
func Classify(totalBytes int64) Tier {
	switch {
	case totalBytes >= DangerThreshold:
		return TierDanger
	case totalBytes >= WarningThreshold:
		return TierWarning
	case totalBytes > InfoThreshold:
		return TierInfo
	default:
		return TierNone
	}
}
