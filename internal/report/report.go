// Package report renders plain-text session status output.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/verte-zerg/bpsim/internal/model"
)

const sparkChars = " .:-=+*#%@"

const terminalWidthBackup = 80

// Category is a blood-pressure classification label.
type Category string

// Classification follows the usual adult guideline bands. With the
// configured generation limits only Normal through Stage 2 can occur, but
// the full ladder is kept so restored out-of-band data still labels sanely.
const (
	CategoryNormal   Category = "Normal"
	CategoryElevated Category = "Elevated"
	CategoryStage1   Category = "Hypertension Stage 1"
	CategoryStage2   Category = "Hypertension Stage 2"
	CategoryCrisis   Category = "Hypertensive Crisis"
)

// Categories lists all labels in severity order.
var Categories = []Category{
	CategoryNormal,
	CategoryElevated,
	CategoryStage1,
	CategoryStage2,
	CategoryCrisis,
}

// Categorize labels a reading. The most severe band that matches wins.
func Categorize(r model.Reading) Category {
	switch {
	case r.Systolic > 180 || r.Diastolic > 120:
		return CategoryCrisis
	case r.Systolic >= 140 || r.Diastolic >= 90:
		return CategoryStage2
	case r.Systolic >= 130 || r.Diastolic >= 80:
		return CategoryStage1
	case r.Systolic >= 120:
		return CategoryElevated
	default:
		return CategoryNormal
	}
}

// Distribution counts readings per category, in severity order.
func Distribution(readings []model.Reading) []int {
	counts := make([]int, len(Categories))
	index := make(map[Category]int, len(Categories))
	for i, c := range Categories {
		index[c] = i
	}
	for _, r := range readings {
		counts[index[Categorize(r)]]++
	}
	return counts
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Status summarizes the persisted session for the status command.
type Status struct {
	Initialized bool
	Size        int
	Index       int
	GeneratedAt time.Time
	Readings    []model.Reading
}

// TerminalWidth returns the stdout terminal width, or a fixed fallback when
// stdout is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// Write renders the status report to w.
func Write(w io.Writer, st Status, width int) error {
	if !st.Initialized {
		_, err := fmt.Fprintln(w, "No stored session. Run bpsim to start one.")
		return err
	}
	if width <= 0 {
		width = terminalWidthBackup
	}
	rule := strings.Repeat("-", width)

	lines := []string{
		rule,
		fmt.Sprintf("Session started: %s", st.GeneratedAt.Local().Format(time.RFC1123)),
		fmt.Sprintf("Readings shown:  %d of %d", st.Index+1, st.Size),
		rule,
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	counts := Distribution(st.Readings)
	for i, category := range Categories {
		if counts[i] == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-22s %5d  %s\n", category, counts[i], bar(counts[i], maxCount(counts), width-30)); err != nil {
			return err
		}
	}

	spark := Sparkline(systolicSeries(st.Readings, width-10))
	if spark != "" {
		if _, err := fmt.Fprintf(w, "Systolic %s\n", spark); err != nil {
			return err
		}
	}
	return nil
}

// systolicSeries samples systolic values in dataset order, capped to limit.
func systolicSeries(readings []model.Reading, limit int) []float64 {
	if limit <= 0 {
		limit = terminalWidthBackup
	}
	if limit > len(readings) {
		limit = len(readings)
	}
	values := make([]float64, 0, limit)
	for _, r := range readings[:limit] {
		values = append(values, float64(r.Systolic))
	}
	return values
}

func maxCount(counts []int) int {
	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	return max
}

func bar(count, max, width int) string {
	if max <= 0 || width <= 0 {
		return ""
	}
	n := int(math.Round(float64(count) / float64(max) * float64(width)))
	if n < 1 {
		n = 1
	}
	return strings.Repeat("#", n)
}
