package editor

import (
	"fmt"
	"time"

	"github.com/volcani/experimenthub/internal/app/system/limits"
	"github.com/volcani/experimenthub/internal/domain/models"
)

// ClampTreatments bounds a requested count to [0, limits.MaxTreatments].
func ClampTreatments(n int) int {
	if n < 0 {
		return 0
	}
	if n > limits.MaxTreatments {
		return limits.MaxTreatments
	}
	return n
}

// ResizeTreatments returns exactly n entries: those already at indexes
// below n are kept, the rest are dropped, and the tail is padded with
// empty treatments. n is clamped with ClampTreatments. The input is not
// modified.
func ResizeTreatments(current []models.Treatment, n int) []models.Treatment {
	n = ClampTreatments(n)
	out := make([]models.Treatment, n)
	copy(out, current)
	return out
}

// SetTreatmentsCount changes the count control and regenerates the list.
func (f *Form) SetTreatmentsCount(n int) {
	n = ClampTreatments(n)
	f.TreatmentsCount = Count(n)
	f.Treatments = ResizeTreatments(f.Treatments, n)
	if f.ActiveTab >= n {
		f.ActiveTab = 0
	}
}

// Tab is one button in the treatment strip.
type Tab struct {
	Index  int    `json:"index"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// TabLabel is the treatment name, or "טיפול N", with " - pesticide" when a
// pesticide is set.
func TabLabel(i int, t models.Treatment) string {
	label := t.Name
	if label == "" {
		label = fmt.Sprintf("טיפול %d", i+1)
	}
	if t.Pesticide != "" {
		label += " - " + t.Pesticide
	}
	return label
}

// Tabs lists one tab per treatment index, highest index first, so the
// strip reads 1, 2, 3 from right to left.
func (f *Form) Tabs() []Tab {
	n := ClampTreatments(int(f.TreatmentsCount))
	tabs := make([]Tab, 0, n)
	for i := n - 1; i >= 0; i-- {
		var t models.Treatment
		if i < len(f.Treatments) {
			t = f.Treatments[i]
		}
		tabs = append(tabs, Tab{Index: i, Label: TabLabel(i, t), Active: i == f.ActiveTab})
	}
	return tabs
}

// SelectTab moves the highlight. It does not change which fields are
// shown; every treatment edits the same detail sections.
func (f *Form) SelectTab(i int) {
	if i < 0 || i >= int(f.TreatmentsCount) {
		return
	}
	f.ActiveTab = i
}

// YearOptions are the choices of the year selector: five years either
// side of now.
func YearOptions(now time.Time) []int {
	y := now.Year()
	out := make([]int, 0, 11)
	for year := y - 5; year <= y+5; year++ {
		out = append(out, year)
	}
	return out
}
