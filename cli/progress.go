package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mobile-next/idbtap/calibration"
)

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

// newProgressPrinter reports calibration progress as one line per step.
func newProgressPrinter(w io.Writer) calibration.Observer {
	return func(p calibration.Progress) {
		switch p.Kind {
		case calibration.ProgressTapping:
			fmt.Fprintf(w, "[%d/%d] Tapping %s at (%g, %g)\n", p.Index, p.Total, bold("%s", p.Target.Label), p.Target.X, p.Target.Y)
		case calibration.ProgressTapped:
			fmt.Fprintf(w, "[%d/%d] %s\n", p.Index, p.Total, color.New(color.Bold, color.FgGreen).Sprint("✔ tapped"))
		case calibration.ProgressFrame:
			fmt.Fprintf(w, "      frame %d saved to %s\n", p.Index, color.New(color.FgCyan).Sprint(p.Path))
		case calibration.ProgressWaiting:
			fmt.Fprintf(w, "      waiting %s\n", p.Wait)
		}
	}
}
