package neopixel

import "errors"

var errNoLine = errors.New("neopixel: strip has no queue")

// ConfigurationError reports a line configuration that cannot be represented
// in hardware. It is returned before any output starts.
type ConfigurationError struct {
	Param  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	s := "neopixel: invalid " + e.Param
	if e.Reason != "" {
		s += ": " + e.Reason
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
