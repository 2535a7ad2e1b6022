package errors

import "errors"

// Is and As re-export the standard helpers so callers importing this package
// under the errors name keep access to them.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
