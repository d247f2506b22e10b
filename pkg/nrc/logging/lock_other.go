//go:build !unix

package logging

import "os"

// Advisory locking is unix only; the mutex in RotatingWriter still
// serializes writers within one process.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) {}
