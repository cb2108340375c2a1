package common

import "os"

// Remove deletes the file at path ignoring errors.
func Remove(path string) {
	_ = os.Remove(path)
}
