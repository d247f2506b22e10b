package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nappgui/nrc/pkg/nrc/csource"
	"github.com/nappgui/nrc/pkg/nrc/pack"
	"github.com/nappgui/nrc/pkg/nrc/state"
	"github.com/nappgui/nrc/pkg/nrc/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func sampleTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"strings/en.msg":  "hello",
		"img/logo.png":    "\x89PNG\x00\x01",
		"img/icons/a.svg": "<svg/>",
		"empty.bin":       "",
	})
	return root
}

type memoryRecorder struct {
	mu   sync.Mutex
	recs []state.Record
	err  error
}

func (m *memoryRecorder) Add(rec state.Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.recs = append(m.recs, rec)
	return "id", nil
}

func TestCompileSource(t *testing.T) {
	src := sampleTree(t)
	dest := filepath.Join(t.TempDir(), "gen", "res.c")

	res := Compile(context.Background(), Request{Src: src, Dest: dest, Mode: types.ModeSource})
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.True(t, res.Regenerated)
	assert.Equal(t, types.Success, res.ExitCode())
	assert.Equal(t, 4, res.Entries)
	assert.NotEmpty(t, res.Fingerprint)

	out, err := os.ReadFile(dest)
	require.NoError(t, err, "output directory is created")
	assert.Equal(t, int64(len(out)), res.Bytes)

	f, err := csource.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"empty.bin", "img/icons/a.svg", "img/logo.png", "strings/en.msg"}, f.Set().Names())
	assert.Equal(t, res.Fingerprint, f.Fingerprint.String())
}

func TestCompilePackedRoundTrip(t *testing.T) {
	src := sampleTree(t)
	dest := filepath.Join(t.TempDir(), "res.pak")

	res := Compile(context.Background(), Request{Src: src, Dest: dest, Mode: types.ModePacked})
	require.Equal(t, types.Success, res.ExitCode(), "errors: %v", res.Errors)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	c, err := pack.Open(data)
	require.NoError(t, err)

	got, ok := c.Lookup("img/logo.png")
	require.True(t, ok)
	assert.Equal(t, []byte("\x89PNG\x00\x01"), got)
	assert.Equal(t, 4, c.Len())
}

func TestCompileIdempotent(t *testing.T) {
	for _, mode := range []types.Mode{types.ModeSource, types.ModePacked} {
		t.Run(mode.String(), func(t *testing.T) {
			src := sampleTree(t)
			dest := filepath.Join(t.TempDir(), "out")
			req := Request{Src: src, Dest: dest, Mode: mode}

			first := Compile(context.Background(), req)
			require.Equal(t, types.Success, first.ExitCode())
			before, err := os.ReadFile(dest)
			require.NoError(t, err)

			second := Compile(context.Background(), req)
			assert.False(t, second.Regenerated)
			assert.Equal(t, types.SuccessUpToDate, second.ExitCode())
			assert.Equal(t, first.Fingerprint, second.Fingerprint)

			after, err := os.ReadFile(dest)
			require.NoError(t, err)
			assert.Equal(t, before, after)

			forced := Compile(context.Background(), Request{Src: src, Dest: dest, Mode: mode, Force: true})
			assert.True(t, forced.Regenerated)
		})
	}
}

func TestCompileDeterministic(t *testing.T) {
	src := sampleTree(t)
	dir := t.TempDir()

	a := filepath.Join(dir, "a.c")
	b := filepath.Join(dir, "b.c")
	Compile(context.Background(), Request{Src: src, Dest: a, Mode: types.ModeSource})
	Compile(context.Background(), Request{Src: src, Dest: b, Mode: types.ModeSource})

	outA, err := os.ReadFile(a)
	require.NoError(t, err)
	outB, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, outA, outB)
}

func TestCompileChangeTriggersRebuild(t *testing.T) {
	src := sampleTree(t)
	dest := filepath.Join(t.TempDir(), "res.pak")
	req := Request{Src: src, Dest: dest, Mode: types.ModePacked}

	require.True(t, Compile(context.Background(), req).Regenerated)

	writeTree(t, src, map[string]string{"strings/en.msg": "hello, world"})
	res := Compile(context.Background(), req)
	assert.True(t, res.Regenerated)

	writeTree(t, src, map[string]string{"strings/fr.msg": "bonjour"})
	res = Compile(context.Background(), req)
	assert.True(t, res.Regenerated)
	assert.Equal(t, 5, res.Entries)

	require.NoError(t, os.Remove(filepath.Join(src, "empty.bin")))
	res = Compile(context.Background(), req)
	assert.True(t, res.Regenerated)
	assert.Equal(t, 4, res.Entries)
}

func TestCompileModeSwitchRebuilds(t *testing.T) {
	src := sampleTree(t)
	dest := filepath.Join(t.TempDir(), "res.out")

	require.True(t, Compile(context.Background(), Request{Src: src, Dest: dest, Mode: types.ModeSource}).Regenerated)
	assert.True(t, Compile(context.Background(), Request{Src: src, Dest: dest, Mode: types.ModePacked}).Regenerated)
}

func TestCompileMissingSource(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "res.c")

	res := Compile(context.Background(), Request{Src: filepath.Join(t.TempDir(), "nope"), Dest: dest})
	assert.Equal(t, types.WithErrors, res.ExitCode())
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "not found")
	assert.False(t, res.Regenerated)

	_, err := os.Stat(dest)
	assert.True(t, os.IsNotExist(err), "no artifact for a fatal error")
}

func TestCompileDuplicateIdentifiers(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"a-b.txt": "dash",
		"a_b.txt": "underscore",
	})
	dest := filepath.Join(t.TempDir(), "res.c")

	res := Compile(context.Background(), Request{Src: src, Dest: dest, Mode: types.ModeSource})
	assert.Equal(t, types.WithWarnings, res.ExitCode())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "a_b_txt")
	assert.Equal(t, 1, res.Entries)

	out, err := os.ReadFile(dest)
	require.NoError(t, err)
	f, err := csource.Decode(out)
	require.NoError(t, err)
	require.Len(t, f.Resources, 1)
	assert.Equal(t, "a_b.txt", f.Resources[0].Name)

	// Warnings do not prevent the up-to-date short circuit, and the
	// collision is reported again.
	again := Compile(context.Background(), Request{Src: src, Dest: dest, Mode: types.ModeSource})
	assert.False(t, again.Regenerated)
	assert.Equal(t, types.WithWarnings, again.ExitCode())
	assert.Equal(t, res.Warnings, again.Warnings)
	assert.Equal(t, 1, again.Entries)
}

func TestCompilePartialFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read any file")
	}
	src := sampleTree(t)
	locked := filepath.Join(src, "locked.bin")
	writeTree(t, src, map[string]string{"locked.bin": "secret"})
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	dest := filepath.Join(t.TempDir(), "res.pak")
	req := Request{Src: src, Dest: dest, Mode: types.ModePacked}

	res := Compile(context.Background(), req)
	assert.Equal(t, types.WithErrors, res.ExitCode())
	assert.True(t, res.Regenerated, "readable resources are still packed")
	assert.Empty(t, res.Fingerprint)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	c, err := pack.Open(data)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())
	assert.True(t, c.Fingerprint().IsZero())

	// Once fixed, the incomplete artifact is rebuilt.
	require.NoError(t, os.Chmod(locked, 0o644))
	res = Compile(context.Background(), req)
	assert.True(t, res.Regenerated)
	assert.Equal(t, types.Success, res.ExitCode())
}

func TestCompileTooLarge(t *testing.T) {
	src := sampleTree(t)
	dest := filepath.Join(t.TempDir(), "res.pak")

	c := New(Options{Scan: DefaultOptions().Scan, PackLimit: 4})
	res := c.Compile(context.Background(), Request{Src: src, Dest: dest, Mode: types.ModePacked})
	assert.Equal(t, types.WithErrors, res.ExitCode())
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "resource too large")

	_, err := os.Stat(dest)
	assert.True(t, os.IsNotExist(err))
}

func TestCompileOutputInsideSource(t *testing.T) {
	src := sampleTree(t)
	dest := filepath.Join(src, "res.pak")
	req := Request{Src: src, Dest: dest, Mode: types.ModePacked}

	require.True(t, Compile(context.Background(), req).Regenerated)
	res := Compile(context.Background(), req)
	assert.False(t, res.Regenerated, "the artifact is not one of its own inputs")
	assert.Equal(t, 4, res.Entries)
}

func TestCompileRecordsHistory(t *testing.T) {
	src := sampleTree(t)
	dest := filepath.Join(t.TempDir(), "res.c")
	rec := &memoryRecorder{}

	c := New(Options{Scan: DefaultOptions().Scan, History: rec})
	c.Compile(context.Background(), Request{Src: src, Dest: dest, Mode: types.ModeSource})
	c.Compile(context.Background(), Request{Src: src, Dest: dest, Mode: types.ModeSource})

	require.Len(t, rec.recs, 2)
	assert.True(t, rec.recs[0].Regenerated)
	assert.False(t, rec.recs[1].Regenerated)
	assert.Equal(t, int(types.SuccessUpToDate), rec.recs[1].ExitCode)
	assert.Equal(t, "source", rec.recs[0].Mode)
	assert.True(t, filepath.IsAbs(rec.recs[0].Dest))

	failing := &memoryRecorder{err: errors.New("disk full")}
	res := New(Options{Scan: DefaultOptions().Scan, History: failing}).
		Compile(context.Background(), Request{Src: src, Dest: dest, Mode: types.ModeSource, Force: true})
	assert.Equal(t, types.Success, res.ExitCode(), "history failures do not affect the result")
}

func TestCompileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Compile(ctx, Request{Src: sampleTree(t), Dest: filepath.Join(t.TempDir(), "x.c")})
	assert.Equal(t, types.WithErrors, res.ExitCode())
	require.NotEmpty(t, res.Errors)
	assert.True(t, strings.Contains(res.Errors[0], "canceled"))
}
