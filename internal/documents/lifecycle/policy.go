package lifecycle

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultMarkers are used when no markers are configured. Each is a
// completed verb; the bare noun "ONAY" opens pending notes and retractions
// such as "Onay bekleniyor" as often as approvals.
var DefaultMarkers = []string{"APPROVED", "ONAYLANDI"}

// ApprovalPolicy decides whether a remark counts as its role's approval.
type ApprovalPolicy interface {
	IsApproval(content string) bool
}

// ApprovalFunc adapts a plain function to ApprovalPolicy.
type ApprovalFunc func(content string) bool

func (f ApprovalFunc) IsApproval(content string) bool { return f(content) }

// MarkerPolicy treats a remark as an approval when its text opens with one of
// the configured markers as a whole word, e.g. "Onaylandı, rev B uygundur".
// A marker followed by a question mark is a question, not an approval.
type MarkerPolicy struct {
	markers []string
}

func NewMarkerPolicy(markers ...string) *MarkerPolicy {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	p := &MarkerPolicy{}
	for _, m := range markers {
		if m = Fold(m); m != "" {
			p.markers = append(p.markers, m)
		}
	}
	return p
}

func (p *MarkerPolicy) IsApproval(content string) bool {
	text := Fold(content)
	for _, m := range p.markers {
		if !strings.HasPrefix(text, m) {
			continue
		}
		next, _ := utf8.DecodeRuneInString(text[len(m):])
		if next == utf8.RuneError {
			return true
		}
		if !unicode.IsLetter(next) && !unicode.IsDigit(next) && next != '?' {
			return true
		}
	}
	return false
}

// Fold upper-cases s with Turkish rules and collapses dotted capital I, so
// "onaylandi", "onaylandı" and "ONAYLANDI" compare equal.
func Fold(s string) string {
	// a Caser is stateful and must not be shared across goroutines
	up := cases.Upper(language.Turkish).String(strings.TrimSpace(s))
	return strings.ReplaceAll(up, "İ", "I")
}
