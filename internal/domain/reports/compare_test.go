package reports

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeComparison(t *testing.T) {
	raw := "```json\n{\"summary\":\"Overall improvement.\",\"changes\":[{\"type\":\"improvement\",\"description\":\"Nodule shrank\"},{\"type\":\"resolved\",\"description\":\"Effusion gone\"}],\"key_differences\":[\"Smaller nodule\"],\"recommendation\":\"Continue monitoring\"}\n```"

	c, err := NormalizeComparison(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Summary != "Overall improvement." {
		t.Errorf("summary = %q", c.Summary)
	}
	if c.Changes[0].Kind != ChangeImprovement {
		t.Errorf("first kind = %q, want improvement", c.Changes[0].Kind)
	}
	if c.Changes[1].Kind != ChangeStable {
		t.Errorf("unknown kind must coerce to stable, got %q", c.Changes[1].Kind)
	}
	if len(c.KeyDifferences) != 1 || c.Recommendation != "Continue monitoring" {
		t.Errorf("key_differences=%v recommendation=%q", c.KeyDifferences, c.Recommendation)
	}
}

func TestNormalizeComparisonUnparseable(t *testing.T) {
	for _, raw := range []string{"The scans look similar.", "", "{\"changes\":[]}"} {
		if _, err := NormalizeComparison(raw); !errors.Is(err, ErrUnparseable) {
			t.Errorf("input %q: err = %v, want ErrUnparseable", raw, err)
		}
	}
}

func TestNormalizeComparisonNilSlices(t *testing.T) {
	c, err := NormalizeComparison(`{"summary":"No change.","recommendation":"Routine follow-up"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Changes == nil || c.KeyDifferences == nil {
		t.Errorf("absent lists must decode to empty, got %v / %v", c.Changes, c.KeyDifferences)
	}
}

func TestChronologicalOrdersByCreatedAt(t *testing.T) {
	older := &Report{ID: "a", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := &Report{ID: "b", CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}

	for _, pair := range [][2]*Report{{older, newer}, {newer, older}} {
		baseline, current := Chronological(pair[0], pair[1])
		if baseline != older || current != newer {
			t.Errorf("Chronological(%s, %s): baseline=%s current=%s, want a/b",
				pair[0].ID, pair[1].ID, baseline.ID, current.ID)
		}
	}
}
