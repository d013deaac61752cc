package mugshot

import (
	"errors"
	"fmt"
)

// ConfigError reports an unusable configuration: missing model assets,
// a detector that cannot be built or a malformed output buffer.
// It is always raised before the first frame is read.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("mugshot: invalid %s configuration: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is, or wraps, a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func asConfigError(op string, err error) error {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return err
	}
	return &ConfigError{Op: op, Err: err}
}
