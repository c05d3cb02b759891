package utils

import "errors"

type PermError string

func (e PermError) Error() string {
	return string(e)
}

func (e PermError) IsPermanent() bool {
	return true
}

// IsPermanent reports whether any error in err's chain declares itself permanent.
// Permanent errors describe a structural problem and must not be retried.
func IsPermanent(err error) bool {
	var pe interface{ IsPermanent() bool }
	if errors.As(err, &pe) {
		return pe.IsPermanent()
	}
	return false
}
