// Package dataset generates the shuffled blood-pressure combination space.
package dataset

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/verte-zerg/bpsim/internal/apperr"
	"github.com/verte-zerg/bpsim/internal/model"
)

// defaultLimits is the process-wide combination space. Not user-editable.
var defaultLimits = model.Limits{
	SystolicMin:  90,
	SystolicMax:  140,
	DiastolicMin: 60,
	DiastolicMax: 90,
	PulseMin:     20,
	PulseMax:     60,
}

// timestampStepMs spaces synthetic reading timestamps so they are unique
// and strictly increasing in enumeration order.
const timestampStepMs = int64(1000)

// Limits returns a copy of the configured combination-space bounds.
func Limits() model.Limits {
	return defaultLimits
}

// Engine produces shuffled datasets.
type Engine struct {
	rnd *rand.Rand
}

// New returns an Engine seeded with the current time.
func New() *Engine {
	return &Engine{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Generate enumerates every admissible (systolic, diastolic) pair, assigns
// synthetic timestamps, verifies the count against an independent recount,
// and returns an unbiased shuffle of the full space.
func (e *Engine) Generate() ([]model.Reading, error) {
	return e.generate(defaultLimits, time.Now().UnixMilli())
}

func (e *Engine) generate(limits model.Limits, baseMs int64) ([]model.Reading, error) {
	enumerated := enumerate(limits, baseMs)
	expected := countAdmissible(limits)
	if len(enumerated) != expected {
		return nil, apperr.Generation(
			"combination count mismatch",
			fmt.Sprintf("enumerated %d, expected %d", len(enumerated), expected),
		)
	}
	if len(enumerated) == 0 {
		return nil, apperr.Generation("no admissible combinations for configured limits", "")
	}
	return e.shuffle(enumerated), nil
}

// enumerate walks the combination space in systolic-major order. The
// returned slice is the stable pre-shuffle sequence.
func enumerate(limits model.Limits, baseMs int64) []model.Reading {
	var readings []model.Reading
	ordinal := int64(0)
	for s := limits.SystolicMin; s <= limits.SystolicMax; s++ {
		for d := limits.DiastolicMin; d <= limits.DiastolicMax; d++ {
			if !admissible(limits, s, d) {
				continue
			}
			readings = append(readings, model.Reading{
				Systolic:  s,
				Diastolic: d,
				Timestamp: baseMs + ordinal*timestampStepMs,
			})
			ordinal++
		}
	}
	return readings
}

// countAdmissible recounts the space with the same predicate, independently
// of enumerate, to catch silent enumeration bugs.
func countAdmissible(limits model.Limits) int {
	count := 0
	for s := limits.SystolicMin; s <= limits.SystolicMax; s++ {
		for d := limits.DiastolicMin; d <= limits.DiastolicMax; d++ {
			if admissible(limits, s, d) {
				count++
			}
		}
	}
	return count
}

func admissible(limits model.Limits, systolic, diastolic int) bool {
	pulse := systolic - diastolic
	return systolic >= limits.SystolicMin && systolic <= limits.SystolicMax &&
		diastolic >= limits.DiastolicMin && diastolic <= limits.DiastolicMax &&
		pulse >= limits.PulseMin && pulse <= limits.PulseMax
}

// shuffle returns a Fisher-Yates permutation of readings without mutating
// the input slice.
func (e *Engine) shuffle(readings []model.Reading) []model.Reading {
	out := make([]model.Reading, len(readings))
	copy(out, readings)
	for i := len(out) - 1; i >= 1; i-- {
		j := e.rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// ReadingAt returns the reading at index modulo the dataset length, false
// when the dataset is empty. Negative indexes wrap the same way positive
// ones do.
func ReadingAt(readings []model.Reading, index int) (model.Reading, bool) {
	if len(readings) == 0 {
		return model.Reading{}, false
	}
	i := index % len(readings)
	if i < 0 {
		i += len(readings)
	}
	return readings[i], true
}

// Validate reports whether the reading satisfies every range invariant of
// the configured limits.
func Validate(r model.Reading) bool {
	return admissible(defaultLimits, r.Systolic, r.Diastolic)
}
