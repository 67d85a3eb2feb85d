// Package sandbox implements the isolated working-directory lifecycle of
// spec.md §4.4 steps 2/3/7 and the file-search algorithm of §4.6. There is
// no teacher analogue for an on-disk test fixture directory; the shape
// (create, chdir, guaranteed restore) follows spec.md §5's "Scoped
// resources" requirement directly, using github.com/google/uuid for the
// random suffix in place of the original's mkdtemp(3).
package sandbox

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/nihtest-go/nihtest/internal/nihtesterr"
	"github.com/nihtest-go/nihtest/internal/osfacade"
)

// Sandbox is an entered, isolated working directory. The zero value is not
// usable; obtain one from Enter.
type Sandbox struct {
	osi       osfacade.OS
	Dir       string
	parent    string
	sourceDir string
}

// Enter creates a unique directory "sandbox_<name>.<suffix>" under root and
// changes the process's working directory into it (spec.md §4.4 step 2).
// Callers must call Leave on every exit path.
func Enter(osi osfacade.OS, root, name, sourceDir string) (*Sandbox, error) {
	parent, err := os.Getwd()
	if err != nil {
		return nil, &nihtesterr.SetupError{Op: "enter sandbox", Err: err}
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	dirName := fmt.Sprintf("sandbox_%s.%s", name, suffix)
	dir := dirName
	if root != "" {
		dir = osi.Join(root, dirName)
	}

	if err := osi.Mkdir(dir); err != nil {
		return nil, &nihtesterr.SetupError{Op: "create sandbox", Err: err}
	}
	if err := os.Chdir(dir); err != nil {
		return nil, &nihtesterr.SetupError{Op: "enter sandbox", Err: err}
	}

	return &Sandbox{osi: osi, Dir: dir, parent: parent, sourceDir: sourceDir}, nil
}

// Stage copies src (resolved via Find) into the sandbox under name
// (spec.md §4.4 step 3).
func (s *Sandbox) Stage(name, src string) error {
	resolved, err := s.Find(src)
	if err != nil {
		return &nihtesterr.SetupError{Op: "stage " + name, Err: err}
	}
	if err := s.osi.Copy(resolved, name); err != nil {
		return &nihtesterr.SetupError{Op: "stage " + name, Err: err}
	}
	return nil
}

// Find implements spec.md §4.6 file search: absolute paths pass through;
// otherwise the sandbox's parent directory ("../<name>"), then
// "<source_directory>/../<name>" (or
// "<source_directory>/<name>" if that is already absolute), are tried in
// order.
func (s *Sandbox) Find(name string) (string, error) {
	if s.osi.IsAbs(name) {
		return name, nil
	}

	local := s.osi.Join("..", name)
	if s.osi.Exists(local) {
		return local, nil
	}

	if s.sourceDir != "" {
		var candidate string
		if s.osi.IsAbs(s.sourceDir) {
			candidate = s.osi.Join(s.sourceDir, name)
		} else {
			candidate = s.osi.Join(s.sourceDir, "..", name)
		}
		if s.osi.Exists(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("can't find input file '%s'", name)
}

// RetentionPolicy decides whether Leave should keep the sandbox directory
// on disk: Never, OnFailure (kept only when the run failed or errored),
// or Always.
type RetentionPolicy int

const (
	RetentionNever RetentionPolicy = iota
	RetentionOnFailure
	RetentionAlways
)

// Leave changes back to the parent directory and removes the sandbox
// unless policy dictates retention (spec.md §4.4 step 7). failed reports
// whether the test run produced mismatches or an error.
func (s *Sandbox) Leave(policy RetentionPolicy, failed bool) error {
	if err := os.Chdir(s.parent); err != nil {
		return &nihtesterr.SystemError{Op: "leave sandbox", Err: err}
	}

	keep := policy == RetentionAlways || (policy == RetentionOnFailure && failed)
	if keep {
		return nil
	}
	if err := s.osi.RemoveAll(s.Dir); err != nil {
		return &nihtesterr.SystemError{Op: "remove sandbox", Err: err}
	}
	return nil
}
