// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — cold-path logging for index growth and driver runs
//
// Purpose:
//   - Logs infrequent events: rehashes, directory doublings, splits, run results.
//   - Routes through a single leveled go-logging backend on stderr.
//
// Notes:
//   - DropTrace is DEBUG-level and checks the level before building a message,
//     so growth paths pay one branch when tracing is off.
//   - Level defaults to INFO; SetLevel reconfigures it at runtime.
//
// ⚠️ Never invoke in per-key loops — growth events and run summaries only.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import (
	"io"
	"os"
	"strings"

	"hashidx/utils"

	"github.com/op/go-logging"
)

const module = "hashidx"

var (
	log = logging.MustGetLogger(module)

	logFormat = logging.MustStringFormatter(
		`%{time:15:04:05.000} [%{module}] [%{level}] %{message}`,
	)

	leveled logging.LeveledBackend
)

func init() {
	setOutput(os.Stderr)
}

// setOutput rebuilds the leveled backend on w, keeping the current level.
func setOutput(w io.Writer) {
	lvl := logging.INFO
	if leveled != nil {
		lvl = leveled.GetLevel(module)
	}
	backend := logging.NewLogBackend(w, "", 0)
	leveled = logging.AddModuleLevel(logging.NewBackendFormatter(backend, logFormat))
	leveled.SetLevel(lvl, module)
	log.SetBackend(leveled)
}

// SetLevel switches the logger to one of debug, info, notice, warning, error, critical.
func SetLevel(level string) error {
	lvl, err := logging.LogLevel(strings.ToUpper(level))
	if err != nil {
		return err
	}
	leveled.SetLevel(lvl, module)
	return nil
}

// Tracing reports whether DropTrace output is currently enabled.
//
//go:inline
func Tracing() bool {
	return leveled.IsEnabledFor(logging.DEBUG, module)
}

// DropError logs an error with its prefix at WARNING level.
// A nil error logs just the prefix (tagged warnings).
func DropError(prefix string, err error) {
	if err != nil {
		log.Warning(prefix + ": " + err.Error())
		return
	}
	log.Warning(prefix)
}

// DropMessage logs an informational event.
func DropMessage(prefix, message string) {
	log.Info(prefix + ": " + message)
}

// DropTrace logs a DEBUG-level growth event. Callers building expensive
// messages should check Tracing first.
func DropTrace(prefix, message string) {
	if !Tracing() {
		return
	}
	log.Debug(prefix + ": " + message)
}

// Fatal reports a message on raw stderr, bypassing the logger, then exits.
func Fatal(prefix string, err error) {
	if err != nil {
		utils.PrintWarning(prefix + ": " + err.Error() + "\n")
	} else {
		utils.PrintWarning(prefix + "\n")
	}
	os.Exit(1)
}
