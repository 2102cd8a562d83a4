package logger

import corelogger "github.com/kilianp07/fleetplan/core/logger"

type Logger = corelogger.Logger

// New returns the zerolog logger for component, tagged with a "component"
// field. APP_ENV=dev switches to console output; LOG_LEVEL sets the level.
func New(component string) Logger {
	return NewZerologLogger(component)
}
