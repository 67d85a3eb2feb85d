//go:build windows

package osfacade

// preloadSupported reports whether LD_PRELOAD-based feature overrides
// (spec.md §4.6 "library preload hooks") can be honored on this platform.
// Windows has no LD_PRELOAD equivalent wired up here.
func preloadSupported() bool {
	return false
}
