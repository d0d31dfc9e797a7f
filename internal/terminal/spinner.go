package terminal

import (
	"context"
	"fmt"
	"os"
	"time"
)

const spinnerInterval = 200 * time.Millisecond

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// PhaseSpinner displays a simple spinner for a single phase.
type PhaseSpinner struct {
	isTTY bool
	label string
}

// NewPhaseSpinner creates a new phase spinner.
func NewPhaseSpinner(label string) *PhaseSpinner {
	return &PhaseSpinner{
		isTTY: IsStderrTTY(),
		label: label,
	}
}

// Run runs the phase spinner until the context is cancelled.
func (s *PhaseSpinner) Run(ctx context.Context) {
	if !s.isTTY {
		<-ctx.Done()
		return
	}

	idx := 0
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final state
			tag := fmt.Sprintf("%s[%s%sace%s%s]%s",
				Color(Dim), Color(Reset), Color(Green), Color(Reset), Color(Dim), Color(Reset))
			final := fmt.Sprintf("\r%s %s✓%s %s",
				tag, Color(Green), Color(Reset), s.label)
			fmt.Fprint(os.Stderr, final+"          \n")
			return

		case <-ticker.C:
			frame := string(spinnerFrames[idx%len(spinnerFrames)])
			tag := fmt.Sprintf("%s[%s%sace%s%s]%s",
				Color(Dim), Color(Reset), Color(Cyan), Color(Reset), Color(Dim), Color(Reset))
			line := fmt.Sprintf("\r%s %s%s%s %s",
				tag, Color(Cyan), frame, Color(Reset), s.label)
			fmt.Fprint(os.Stderr, line+"          ")
			idx++
		}
	}
}
