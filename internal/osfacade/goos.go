package osfacade

import "runtime"

func goos() string {
	return runtime.GOOS
}
