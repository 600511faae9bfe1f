package reports

import (
	"encoding/json"
	"strings"
)

// ChangeKind enum for longitudinal comparison entries
type ChangeKind string

const (
	ChangeImprovement   ChangeKind = "improvement"
	ChangeDeterioration ChangeKind = "deterioration"
	ChangeNewFinding    ChangeKind = "new_finding"
	ChangeStable        ChangeKind = "stable"
)

// Change is one classified difference between the baseline and current scan.
type Change struct {
	Kind        ChangeKind `json:"type"`
	Description string     `json:"description"`
}

// ComparisonResult is derived on demand from two reports of the same owner
// and never persisted.
type ComparisonResult struct {
	Summary        string   `json:"summary"`
	Changes        []Change `json:"changes"`
	KeyDifferences []string `json:"key_differences"`
	Recommendation string   `json:"recommendation"`
}

// NormalizeComparison parses raw oracle text into a ComparisonResult.
// Unknown or malformed change kinds are coerced to stable instead of
// rejecting the whole comparison; the classification is advisory.
func NormalizeComparison(raw string) (*ComparisonResult, error) {
	cleaned := StripCodeFences(raw)

	var c ComparisonResult
	if err := json.Unmarshal([]byte(cleaned), &c); err != nil {
		return nil, ErrUnparseable
	}
	if strings.TrimSpace(c.Summary) == "" {
		return nil, ErrUnparseable
	}
	for i := range c.Changes {
		switch c.Changes[i].Kind {
		case ChangeImprovement, ChangeDeterioration, ChangeNewFinding, ChangeStable:
		default:
			c.Changes[i].Kind = ChangeStable
		}
	}
	if c.Changes == nil {
		c.Changes = []Change{}
	}
	if c.KeyDifferences == nil {
		c.KeyDifferences = []string{}
	}
	return &c, nil
}

// Chronological orders two reports by CreatedAt ascending. The earlier scan
// is the baseline, the later is current; the directional narrative
// (improved/worsened) is meaningless if this is reversed.
func Chronological(a, b *Report) (baseline, current *Report) {
	if b.CreatedAt.Before(a.CreatedAt) {
		return b, a
	}
	return a, b
}
