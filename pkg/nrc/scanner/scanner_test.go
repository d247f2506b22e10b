package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nappgui/nrc/pkg/nrc/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestDir creates a resource tree for testing:
//
//	root/
//	  zeta.txt
//	  alpha.txt
//	  .hidden
//	  img/
//	    logo.png
//	    icons/
//	      close.svg
//	  strings/
//	    en.msg
func createTestDir(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		"zeta.txt":              "zeta",
		"alpha.txt":             "alpha",
		".hidden":               "secret",
		"img/logo.png":          "\x89PNG",
		"img/icons/close.svg":   "<svg/>",
		"strings/en.msg":        "HELLO=Hello",
		"strings/backup.msg~":   "stale",
		"strings/.DS_Store":     "junk",
		"img/icons/.keep/empty": "",
	}
	for name, content := range files {
		writeFile(t, root, name, content)
	}
	return root
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func scan(t *testing.T, opts Options) (*types.ScanResult, error) {
	t.Helper()
	s, err := New(opts)
	require.NoError(t, err)
	return s.Scan(context.Background())
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, ".", opts.Root)
	assert.False(t, opts.SkipHidden)
	assert.True(t, opts.FollowSymlinks)
	assert.Empty(t, opts.Exclude)
}

func TestOptionsValidate(t *testing.T) {
	opts := Options{Exclude: []string{"*.tmp", "", "build/**"}}
	globs, err := opts.Validate()
	require.NoError(t, err)
	assert.Len(t, globs, 2)
	assert.Equal(t, ".", opts.Root)

	bad := Options{Exclude: []string{"[unterminated"}}
	_, err = bad.Validate()
	assert.Error(t, err)

	_, err = New(bad)
	assert.Error(t, err)
}

func TestScanBasic(t *testing.T) {
	root := createTestDir(t)

	opts := Options{Root: root, SkipHidden: true, Exclude: []string{"*~"}, FollowSymlinks: true}
	result, err := scan(t, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"alpha.txt",
		"img/icons/close.svg",
		"img/logo.png",
		"strings/en.msg",
		"zeta.txt",
	}, result.Set.Names())
	assert.True(t, result.Set.IsSorted())
	assert.Empty(t, result.Diagnostics)
	assert.Equal(t, int64(5), result.FilesScanned)
	assert.GreaterOrEqual(t, result.DirsScanned, int64(4))

	e, ok := result.Set.Lookup("img/logo.png")
	require.True(t, ok)
	assert.Equal(t, []byte("\x89PNG"), e.Data)
	assert.False(t, e.ModTime.IsZero())
}

func TestScanDefaultsKeepEveryFile(t *testing.T) {
	root := createTestDir(t)

	result, err := scan(t, DefaultOptions().withRoot(root))
	require.NoError(t, err)

	assert.Contains(t, result.Set.Names(), ".hidden")
	assert.Contains(t, result.Set.Names(), "strings/.DS_Store")
	assert.Contains(t, result.Set.Names(), "img/icons/.keep/empty")
	assert.Contains(t, result.Set.Names(), "strings/backup.msg~")
	assert.Len(t, result.Set, 9)
	assert.Empty(t, result.Diagnostics)
}

func TestScanWithExclusions(t *testing.T) {
	root := createTestDir(t)

	tests := []struct {
		name    string
		exclude []string
		absent  []string
	}{
		{name: "base name glob", exclude: []string{"*.txt"}, absent: []string{"alpha.txt", "zeta.txt"}},
		{name: "directory", exclude: []string{"img"}, absent: []string{"img/logo.png", "img/icons/close.svg"}},
		{name: "recursive glob", exclude: []string{"img/**/*.svg"}, absent: []string{"img/icons/close.svg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := scan(t, Options{Root: root, SkipHidden: true, Exclude: tt.exclude})
			require.NoError(t, err)
			for _, name := range tt.absent {
				assert.NotContains(t, result.Set.Names(), name)
			}
			assert.Contains(t, result.Set.Names(), "strings/en.msg")
		})
	}
}

func TestScanEmptyDirectory(t *testing.T) {
	result, err := scan(t, Options{Root: t.TempDir()})
	require.NoError(t, err)

	assert.NotNil(t, result.Set)
	assert.Empty(t, result.Set)
	assert.Empty(t, result.Diagnostics)
}

func TestScanNonExistentPath(t *testing.T) {
	_, err := scan(t, Options{Root: filepath.Join(t.TempDir(), "missing")})

	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestScanFileNotDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "file.txt", "x")

	_, err := scan(t, Options{Root: filepath.Join(root, "file.txt")})

	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrIO))
}

func TestScanContextCancellation(t *testing.T) {
	root := createTestDir(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(Options{Root: root})
	require.NoError(t, err)

	_, err = s.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b/2", "a/10", "a/9", "B", "a.b", "a/1"} {
		writeFile(t, root, name, name)
	}

	first, err := scan(t, Options{Root: root, Workers: 4})
	require.NoError(t, err)
	second, err := scan(t, Options{Root: root, Workers: 1})
	require.NoError(t, err)

	want := []string{"B", "a.b", "a/1", "a/10", "a/9", "b/2"}
	assert.Equal(t, want, first.Set.Names())
	assert.Equal(t, want, second.Set.Names())
}

func TestScanUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")
	writeFile(t, root, "b.txt", "b")
	writeFile(t, root, "c.txt", "c")
	require.NoError(t, os.Chmod(filepath.Join(root, "b.txt"), 0o000))
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(root, "b.txt"), 0o644) })

	result, err := scan(t, Options{Root: root})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "c.txt"}, result.Set.Names())
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, types.SeverityError, result.Diagnostics[0].Severity)
	assert.Contains(t, result.Diagnostics[0].Message, "b.txt")
}

func TestScanUnreadableRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Mkdir(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	_, err := scan(t, Options{Root: locked})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrIO))
}

func TestIsAncestorOrSelf(t *testing.T) {
	sep := string(filepath.Separator)
	a := sep + filepath.Join("res", "a")

	assert.True(t, isAncestorOrSelf(a, a))
	assert.True(t, isAncestorOrSelf(a, filepath.Join(a, "b")))
	assert.False(t, isAncestorOrSelf(a, a+"b"))
	assert.False(t, isAncestorOrSelf(filepath.Join(a, "b"), a))
}

func (o Options) withRoot(root string) Options {
	o.Root = root
	return o
}
