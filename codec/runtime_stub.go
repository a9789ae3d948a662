//go:build !govips || !cgo

package codec

// Startup is a no-op for the pure-Go backend.
func Startup() error {
	return nil
}

func Shutdown() {}
