package jinjac

import (
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

// logger traces compile-phase boundaries (compile start, parse complete,
// lower complete). Its debug output is off by default: loggo.GetLogger
// returns a logger at loggo.UNSPECIFIED, which inherits the root logger's
// WARNING level, until a config/CLI flag sets a level. Logging is ambient
// observability; it never affects compiled output.
var logger = loggo.GetLogger("jinjac.compiler")

// SetLogLevel raises or lowers the package logger's verbosity, e.g. from
// cmd/jinjac's --debug flag or a loaded Config.LogLevel.
func SetLogLevel(level string) error {
	lvl, ok := loggo.ParseLevel(level)
	if !ok {
		return errors.Errorf("unrecognized log level %q", level)
	}
	logger.SetLogLevel(lvl)
	return nil
}
