//go:build !linux

package connectivity

// PlatformNotifier has no change source on this platform; the monitor falls
// back to interval polling.
func PlatformNotifier() Notifier {
	return noopNotifier{}
}
