package viz

import (
	"strings"
	"testing"

	"github.com/san-kum/rbsim/internal/config"
	"github.com/san-kum/rbsim/internal/scenario"
)

func blank(s string) bool {
	for _, r := range s {
		if r != 0x2800 && r != '\n' {
			return false
		}
	}
	return true
}

func TestCanvasDot(t *testing.T) {
	c := NewCanvas(10, 5)
	if !blank(c.String()) {
		t.Fatal("fresh canvas not blank")
	}
	c.Dot(0, 0)
	out := c.String()
	if blank(out) {
		t.Fatal("dot did not mark the canvas")
	}
	if got := []rune(strings.SplitN(out, "\n", 2)[0])[0]; got != 0x2801 {
		t.Errorf("top-left cell = %U, want U+2801", got)
	}
	// Out-of-range dots are ignored.
	c.Dot(-1, 3)
	c.Dot(100, 100)
}

func TestCanvasLine(t *testing.T) {
	c := NewCanvas(20, 10)
	c.Line(0, 0, 39, 39)
	marked := 0
	for _, r := range c.String() {
		if r != 0x2800 && r != '\n' {
			marked++
		}
	}
	if marked < 10 {
		t.Errorf("diagonal marked only %d cells", marked)
	}
}

func TestViewportOrientation(t *testing.T) {
	c := NewCanvas(10, 10)
	vp := NewViewport(c, 0, 1, 0, 1)

	// High y lands in the top row, low y in the bottom row.
	vp.Point(0.5, 1)
	top := []rune(strings.SplitN(c.String(), "\n", 2)[0])
	found := false
	for _, r := range top {
		if r != 0x2800 {
			found = true
		}
	}
	if !found {
		t.Error("y=max did not map to the top row")
	}
}

func TestSceneDraw(t *testing.T) {
	cfg := config.DefaultConfig()
	sys, err := scenario.Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	sc := NewScene(sys)
	c := NewCanvas(40, 12)
	sc.Draw(c, sys.Q)
	if blank(c.String()) {
		t.Error("scene rendered a blank canvas")
	}
	sc.ResetTrail()
}
