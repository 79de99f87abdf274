// Package dice implements server-side dice rolling for session events.
package dice

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidNotation indicates a dice expression could not be parsed.
var ErrInvalidNotation = errors.New("invalid dice notation")

// ErrInvalidSpec indicates a parsed spec has out-of-range fields.
var ErrInvalidSpec = errors.New("dice must have positive sides and count")

const (
	maxCount = 100
	maxSides = 1000
)

var notationPattern = regexp.MustCompile(`^(\d*)[dD](\d+)([+-]\d+)?$`)

// Spec describes a dice expression of the form NdS+M.
type Spec struct {
	Count    int
	Sides    int
	Modifier int
}

// Roll captures the results of rolling a Spec.
type Roll struct {
	Notation string
	Results  []int
	Modifier int
	Total    int
}

// Parse parses standard dice notation ("2d6", "d20", "3d8+2", "1d4-1").
func Parse(notation string) (Spec, error) {
	trimmed := strings.TrimSpace(notation)
	m := notationPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}

	count := 1
	if m[1] != "" {
		parsed, err := strconv.Atoi(m[1])
		if err != nil {
			return Spec{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
		}
		count = parsed
	}

	sides, err := strconv.Atoi(m[2])
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}

	modifier := 0
	if m[3] != "" {
		parsed, err := strconv.Atoi(m[3])
		if err != nil {
			return Spec{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
		}
		modifier = parsed
	}

	if count <= 0 || count > maxCount || sides <= 0 || sides > maxSides {
		return Spec{}, ErrInvalidSpec
	}

	return Spec{Count: count, Sides: sides, Modifier: modifier}, nil
}

// Notation renders the spec back in canonical NdS+M form.
func (s Spec) Notation() string {
	base := fmt.Sprintf("%dd%d", s.Count, s.Sides)
	switch {
	case s.Modifier > 0:
		return fmt.Sprintf("%s+%d", base, s.Modifier)
	case s.Modifier < 0:
		return fmt.Sprintf("%s%d", base, s.Modifier)
	}
	return base
}

// RollSeeded rolls the spec deterministically with respect to seed: the
// same seed and spec always produce the same Roll.
func RollSeeded(spec Spec, seed int64) (Roll, error) {
	if spec.Count <= 0 || spec.Sides <= 0 {
		return Roll{}, ErrInvalidSpec
	}

	rng := rand.New(rand.NewSource(seed))
	results := make([]int, spec.Count)
	total := spec.Modifier
	for i := 0; i < spec.Count; i++ {
		value := rng.Intn(spec.Sides) + 1
		results[i] = value
		total += value
	}

	return Roll{
		Notation: spec.Notation(),
		Results:  results,
		Modifier: spec.Modifier,
		Total:    total,
	}, nil
}
