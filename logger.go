package sliqsim

import (
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix:          "sliqsim",
	ReportTimestamp: true,
})

// SetLogLevel changes the package logger's level, e.g. "debug" or "warn".
func SetLogLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)
	return nil
}
