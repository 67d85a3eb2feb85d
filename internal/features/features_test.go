package features

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasFindsDeclaredFeature(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.h")
	content := "#define PACKAGE \"nihtest\"\n#define HAVE_ZLIB\n#define HAVE_LIBCURL\n// not a define\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tbl := New(path)
	assert.True(t, tbl.Has("ZLIB"))
	assert.True(t, tbl.Has("LIBCURL"))
	assert.False(t, tbl.Has("BZIP2"))
}

func TestHasMissingConfigIsNotFatal(t *testing.T) {
	tbl := New(filepath.Join(t.TempDir(), "does-not-exist.h"))
	assert.False(t, tbl.Has("ANYTHING"))
}

func TestHasLoadsOnlyOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.h")
	require.NoError(t, os.WriteFile(path, []byte("#define HAVE_A\n"), 0o644))

	tbl := New(path)
	assert.True(t, tbl.Has("A"))

	require.NoError(t, os.WriteFile(path, []byte("#define HAVE_B\n"), 0o644))
	assert.False(t, tbl.Has("B"), "table should not re-scan after first load")
}
