package main

import (
	"errors"
	"fmt"
	"testing"

	"golog/internal/golerr"
)

func TestExitCodeFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"user error", golerr.NewUserError(golerr.TypeError, "x", "bad type"), 1},
		{"engine error", golerr.NewEngineError(golerr.LostTransition, "lost"), 2},
		{"bug", golerr.NewBug("unreachable"), 3},
		{"terminate", golerr.Terminate, 0},
		{"wrapped terminate", fmt.Errorf("run: %w", golerr.Terminate), 0},
		{"plain error", errors.New("boom"), 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := exitCodeFor(c.err); got != c.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", c.err, got, c.want)
			}
		})
	}
}
