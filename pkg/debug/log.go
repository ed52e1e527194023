// Package debug wires the library debug hooks to the standard logger
package debug

import (
	"fmt"
	"io"
	"log"

	"github.com/recera/flowkit/pkg/flowchart"
	"github.com/recera/flowkit/pkg/live"
	"github.com/recera/flowkit/pkg/reactive"
	"github.com/recera/flowkit/pkg/render"
)

var logger = log.Default()

// EnableLogging enables debug logging for the reactive, flowchart, render
// and live packages
func EnableLogging() {
	setAll(Log)
}

// EnableLoggingTo enables debug logging into w, for hosts whose stdout is
// taken (the terminal UI)
func EnableLoggingTo(w io.Writer) {
	logger = log.New(w, "flowkit ", log.LstdFlags|log.Lmicroseconds)
	setAll(Log)
}

// DisableLogging removes all debug hooks
func DisableLogging() {
	setAll(nil)
}

func setAll(fn func(args ...interface{})) {
	reactive.SetDebugLog(fn)
	flowchart.SetDebugLog(fn)
	render.SetDebugLog(fn)
	live.SetDebugLog(fn)
}

// Log logs a message
func Log(args ...interface{}) {
	logger.Println(args...)
}

// Logf logs a formatted message
func Logf(format string, args ...interface{}) {
	logger.Output(2, fmt.Sprintf(format, args...))
}
