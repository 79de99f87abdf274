package dice

import (
	"errors"
	"math/rand"
	"testing"
)

func TestParseNotation(t *testing.T) {
	cases := []struct {
		notation string
		want     Spec
	}{
		{"2d6", Spec{Count: 2, Sides: 6}},
		{"d20", Spec{Count: 1, Sides: 20}},
		{"3d8+2", Spec{Count: 3, Sides: 8, Modifier: 2}},
		{"1d4-1", Spec{Count: 1, Sides: 4, Modifier: -1}},
		{" 1D12 ", Spec{Count: 1, Sides: 12}},
	}

	for _, tc := range cases {
		got, err := Parse(tc.notation)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", tc.notation, err)
		}
		if got != tc.want {
			t.Fatalf("Parse(%q) = %+v, want %+v", tc.notation, got, tc.want)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, notation := range []string{"", "banana", "2x6", "d", "6+2", "2d6+"} {
		if _, err := Parse(notation); !errors.Is(err, ErrInvalidNotation) {
			t.Fatalf("Parse(%q) error = %v, want ErrInvalidNotation", notation, err)
		}
	}
}

func TestParseRejectsOutOfRange(t *testing.T) {
	for _, notation := range []string{"0d6", "101d6", "2d0", "1d1001"} {
		if _, err := Parse(notation); !errors.Is(err, ErrInvalidSpec) {
			t.Fatalf("Parse(%q) error = %v, want ErrInvalidSpec", notation, err)
		}
	}
}

func TestRollSeededDeterministic(t *testing.T) {
	spec := Spec{Count: 2, Sides: 6, Modifier: 1}

	first, err := RollSeeded(spec, 42)
	if err != nil {
		t.Fatalf("RollSeeded returned error: %v", err)
	}
	second, err := RollSeeded(spec, 42)
	if err != nil {
		t.Fatalf("RollSeeded returned error: %v", err)
	}

	if first.Total != second.Total {
		t.Fatalf("same seed produced different totals: %d vs %d", first.Total, second.Total)
	}
	if len(first.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(first.Results))
	}

	rng := rand.New(rand.NewSource(42))
	want := rng.Intn(6) + 1 + rng.Intn(6) + 1 + 1
	if first.Total != want {
		t.Fatalf("expected total %d, got %d", want, first.Total)
	}
}

func TestRollResultsWithinRange(t *testing.T) {
	spec := Spec{Count: 10, Sides: 4}
	roll, err := RollSeeded(spec, 7)
	if err != nil {
		t.Fatalf("RollSeeded returned error: %v", err)
	}
	for _, value := range roll.Results {
		if value < 1 || value > 4 {
			t.Fatalf("result %d outside 1..4", value)
		}
	}
	if roll.Notation != "10d4" {
		t.Fatalf("expected canonical notation 10d4, got %q", roll.Notation)
	}
}
