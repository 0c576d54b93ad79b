package tui

import (
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
)

func TestFormatAge(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"same instant", now, "just now"},
		{"seconds", now.Add(-30 * time.Second), "just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-50 * time.Hour), "2d ago"},
		{"weeks", now.Add(-10 * 24 * time.Hour), "1w ago"},
		{"years", now.Add(-400 * 24 * time.Hour), "1y ago"},
		{"future clock skew", now.Add(time.Minute), "just now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatAge(tt.t, now); got != tt.want {
				t.Errorf("formatAge() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{-5 * time.Second, "0s"},
		{32 * time.Second, "32s"},
		{90 * time.Second, "1m"},
		{4 * time.Minute, "4m"},
		{2 * time.Hour, "2h"},
		{26 * time.Hour, "1d"},
	}

	for _, tt := range tests {
		if got := formatCompact(tt.d); got != tt.want {
			t.Errorf("formatCompact(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short, 10) = %q, want unchanged", got)
	}
	if got := truncate("exactly10!", 10); got != "exactly10!" {
		t.Errorf("truncate(exact) = %q, want unchanged", got)
	}

	got := truncate("a very long issue title that will not fit", 12)
	if runewidth.StringWidth(got) > 12 {
		t.Errorf("truncate() width = %d, want <= 12", runewidth.StringWidth(got))
	}
	if got[len(got)-len("…"):] != "…" {
		t.Errorf("truncate() = %q, want ellipsis suffix", got)
	}

	wide := truncate("日本語のタイトル", 7)
	if runewidth.StringWidth(wide) > 7 {
		t.Errorf("truncate(wide) width = %d, want <= 7", runewidth.StringWidth(wide))
	}

	if got := truncate("anything", 0); got != "" {
		t.Errorf("truncate(_, 0) = %q, want empty", got)
	}
}
