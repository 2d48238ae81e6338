package intent

import "strings"

// Tokens distinguishing the fast video model variant from the standard one,
// e.g. veo-3.1-generate-preview vs veo-3.1-fast-generate-preview.
const (
	standardToken = "-generate-"
	fastToken     = "-fast-generate-"
)

// NormalizeDuration snaps a requested duration in seconds onto the discrete
// values the video models accept (4, 6 or 8), rounding ties toward the lower
// bucket.
func NormalizeDuration(seconds int) int {
	switch {
	case seconds <= 5:
		return 4
	case seconds <= 7:
		return 6
	default:
		return 8
	}
}

// FastVariant rewrites a base video model identifier to its fast variant.
// Identifiers without the expected token are returned unchanged rather than
// risking a malformed name.
func FastVariant(model string) string {
	if strings.Contains(model, fastToken) || !strings.Contains(model, standardToken) {
		return model
	}
	return strings.Replace(model, standardToken, fastToken, 1)
}

// StandardVariant rewrites a fast video model identifier back to the
// standard variant, leaving other names untouched.
func StandardVariant(model string) string {
	if !strings.Contains(model, fastToken) {
		return model
	}
	return strings.Replace(model, fastToken, standardToken, 1)
}
