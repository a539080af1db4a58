package analytics

import "strings"

// Confidence ordinals. Unknown labels map to 0 and are left out of
// summaries.
const (
	ConfidenceUnknown = 0
	ConfidenceLow     = 1
	ConfidenceMedium  = 2
	ConfidenceHigh    = 3
)

var confidenceLabels = map[string]int{
	"low":            ConfidenceLow,
	"very low":       ConfidenceLow,
	"unsure":         ConfidenceLow,
	"not sure":       ConfidenceLow,
	"not confident":  ConfidenceLow,
	"medium":         ConfidenceMedium,
	"moderate":       ConfidenceMedium,
	"somewhat sure":  ConfidenceMedium,
	"high":           ConfidenceHigh,
	"very high":      ConfidenceHigh,
	"sure":           ConfidenceHigh,
	"very sure":      ConfidenceHigh,
	"confident":      ConfidenceHigh,
	"very confident": ConfidenceHigh,
}

// ConfidenceOrdinal maps a confidence label to its ordinal. Labels are
// matched case-insensitively; numeric labels 1-3 are accepted as is.
func ConfidenceOrdinal(label string) int {
	l := strings.ToLower(strings.TrimSpace(label))
	if n, ok := confidenceLabels[l]; ok {
		return n
	}
	switch l {
	case "1":
		return ConfidenceLow
	case "2":
		return ConfidenceMedium
	case "3":
		return ConfidenceHigh
	}
	return ConfidenceUnknown
}
