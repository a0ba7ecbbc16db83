package gps

import "errors"

// Common errors returned by the GPS simulator
var (
	ErrSimulatorAlreadyRunning = errors.New("simulator is already running")
	ErrSimulatorNotRunning     = errors.New("simulator is not running")
)
