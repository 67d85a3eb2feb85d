package subprocess

import (
	"fmt"
	"os"
	"strings"

	"github.com/nihtest-go/nihtest/internal/osfacade"
)

// ResolveProgram implements spec.md §4.5 "Program resolution".
func ResolveProgram(osi osfacade.OS, program string, searchPath []string) (string, error) {
	if osi.IsAbs(program) {
		if osi.Exists(program) {
			return program, nil
		}
		return "", fmt.Errorf("can't find program '%s'", program)
	}
	for _, dir := range searchPath {
		candidate := osi.Join(dir, program)
		if osi.Exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("can't find program '%s'", program)
}

// ResolvePreload implements spec.md §4.5 "Preload resolution": a canonical
// libtool-style layout relative to the current working directory's parent.
func ResolvePreload(osi osfacade.OS, library string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("can't get current directory: %w", err)
	}
	dir := osi.Join(cwd, "..")

	preloadDir, preloadName := osi.Split(library)
	preloadDir = strings.TrimSuffix(preloadDir, "/")
	if preloadDir != "" && preloadDir != "." {
		dir = osi.Join(dir, preloadDir)
	}

	candidate := osi.Join(dir, ".libs", preloadName)
	if osi.Exists(candidate) {
		return candidate, nil
	}
	candidate = osi.Join(dir, "lib"+preloadName)
	if osi.Exists(candidate) {
		return candidate, nil
	}
	return "", fmt.Errorf("preload library '%s' doesn't exist", library)
}
