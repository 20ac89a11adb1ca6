// Package diag provides the diagnostic sink injected into the fixpoint
// iterator and the abstract domains: the single place "record a warning,
// apply a sound coarse transfer, continue" policies (bitwise and division
// transfers tainted by the term domain, powerset budget overflow,
// narrowing cap) report through, instead of a package-global handler.
package diag

import (
	"fmt"
	"log"

	"github.com/fatih/color"
)

// Sink receives diagnostics produced while an analysis runs. Callers never
// treat a Sink error as fatal; every call site that reaches for one has
// already decided on a sound fallback and is only reporting that it did.
type Sink interface {
	Warn(format string, args ...any)
	Info(format string, args ...any)
}

// canColorize degrades col to plain fmt.Sprint when colorization is
// disabled, mirroring utils.CanColorize's role in the wider codebase.
func canColorize(disabled bool, col func(...any) string) func(...any) string {
	if disabled {
		return func(is ...any) string { return fmt.Sprint(is...) }
	}
	return col
}

// LogSink is the default Sink: log.Println output, colorized via
// fatih/color unless NoColorize is set.
type LogSink struct {
	// NoColorize disables the yellow/blue colorization of Warn/Info output.
	NoColorize bool
}

var warnColor = color.New(color.FgHiYellow).SprintFunc()
var infoColor = color.New(color.FgHiBlue).SprintFunc()

func (s LogSink) Warn(format string, args ...any) {
	msg := canColorize(s.NoColorize, warnColor)("warning: " + fmt.Sprintf(format, args...))
	log.Println(msg)
}

func (s LogSink) Info(format string, args ...any) {
	msg := canColorize(s.NoColorize, infoColor)(fmt.Sprintf(format, args...))
	log.Println(msg)
}

// Discard silently drops every diagnostic. Useful for tests that don't
// want fixpoint/normalize log noise.
type Discard struct{}

func (Discard) Warn(string, ...any) {}
func (Discard) Info(string, ...any) {}
