//go:build !windows

package osfacade

import "runtime"

// preloadSupported reports whether LD_PRELOAD-based feature overrides
// (spec.md §4.6 "library preload hooks") can be honored on this platform.
// Darwin uses DYLD_INSERT_LIBRARIES instead and is not wired up here.
func preloadSupported() bool {
	return runtime.GOOS != "darwin"
}
