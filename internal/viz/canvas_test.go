package viz

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/san-kum/velcmd/internal/batch"
	"github.com/san-kum/velcmd/internal/spatial"
)

func TestField_Project(t *testing.T) {
	f := NewField(20, 10, 5)
	tests := []struct {
		name   string
		x, y   float64
		px, py int
	}{
		{"centre", 0, 0, 20, 20},
		{"left edge", -5, 0, 0, 20},
		{"top", 0, 4.999, 20, 0},
		{"wraps right to left", 5, 0, 0, 20},
		{"wraps far negative", -15, 0, 0, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			px, py := f.Project(tt.x, tt.y)
			if px != tt.px || py != tt.py {
				t.Errorf("expected (%d, %d), got (%d, %d)", tt.px, tt.py, px, py)
			}
		})
	}
}

func TestField_DrawMarker(t *testing.T) {
	f := NewField(20, 10, 5)
	f.DrawMarker(Marker{Orientation: spatial.FromYaw(0), Scale: batch.Vec3{X: 2}})

	lit := 0
	for _, row := range f.Grid {
		for _, r := range row {
			if r != blank {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Fatal("expected marker to light cells")
	}

	f.Clear()
	if strings.ContainsFunc(f.String(), func(r rune) bool { return r != blank && r != '\n' }) {
		t.Error("expected blank canvas after Clear")
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil, 4); got != "────" {
		t.Errorf("expected flat line, got %q", got)
	}
	got := Sparkline([]float64{9, 9, 0, 1, 2, 3}, 4)
	if utf8.RuneCountInString(got) != 4 {
		t.Fatalf("expected 4 runes, got %q", got)
	}
	if !strings.HasPrefix(got, "▁") || !strings.HasSuffix(got, "█") {
		t.Errorf("expected rising sparkline, got %q", got)
	}
}
