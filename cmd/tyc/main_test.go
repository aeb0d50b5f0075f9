package main

import (
	"testing"

	"tycoon/internal/game"
)

func TestParseAllocation(t *testing.T) {
	got, err := parseAllocation("40, 20,20,10,10")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := game.Allocation{Backend: 40, Frontend: 20, Infra: 20, AI: 10, DB: 10}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
	for _, bad := range []string{"", "50,50", "50,50,0,0,1", "a,b,c,d,e", "-10,60,20,20,10"} {
		if _, err := parseAllocation(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestStepSpeed(t *testing.T) {
	tests := []struct{ current, dir, want int }{
		{1, 1, 2},
		{2, 1, 4},
		{4, 1, 4},
		{4, -1, 2},
		{1, -1, 1},
	}
	for _, tt := range tests {
		if got := stepSpeed(tt.current, tt.dir); got != tt.want {
			t.Fatalf("stepSpeed(%d,%d)=%d want %d", tt.current, tt.dir, got, tt.want)
		}
	}
}

func TestFormatCents(t *testing.T) {
	tests := map[int64]string{
		0:          "$0.00",
		5:          "$0.05",
		123456789:  "$1,234,567.89",
		-250000050: "-$2,500,000.50",
	}
	for in, want := range tests {
		if got := formatCents(in); got != want {
			t.Fatalf("formatCents(%d)=%q want %q", in, got, want)
		}
	}
}
