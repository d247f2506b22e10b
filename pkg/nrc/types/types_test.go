package types

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceSet_SortAndLookup(t *testing.T) {
	set := ResourceSet{
		{Name: "z.txt", Data: []byte("z")},
		{Name: "a/b.png", Data: []byte("bb")},
		{Name: "a.txt", Data: []byte("aaa")},
	}
	assert.False(t, set.IsSorted())

	set.Sort()
	assert.True(t, set.IsSorted())
	assert.Equal(t, []string{"a.txt", "a/b.png", "z.txt"}, set.Names())
	assert.Equal(t, int64(6), set.TotalSize())

	e, ok := set.Lookup("a/b.png")
	assert.True(t, ok)
	assert.Equal(t, []byte("bb"), e.Data)

	_, ok = set.Lookup("missing")
	assert.False(t, ok)
}

func TestCompileResult_ExitCode(t *testing.T) {
	tests := []struct {
		name   string
		result CompileResult
		want   ExitCode
	}{
		{name: "regenerated clean", result: CompileResult{Regenerated: true}, want: Success},
		{name: "up to date", result: CompileResult{Regenerated: false}, want: SuccessUpToDate},
		{name: "warnings", result: CompileResult{Regenerated: true, Warnings: []string{"w"}}, want: WithWarnings},
		{name: "errors", result: CompileResult{Errors: []string{"e"}}, want: WithErrors},
		{
			name:   "errors win over warnings",
			result: CompileResult{Regenerated: true, Warnings: []string{"w"}, Errors: []string{"e"}},
			want:   WithErrors,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.ExitCode())
		})
	}
}

func TestExitCode_String(t *testing.T) {
	assert.Equal(t, "SUCCESS", Success.String())
	assert.Equal(t, "SUCCESS_UPTODATE", SuccessUpToDate.String())
	assert.Equal(t, "ERROR_COMMAND_LINE", ErrorCommandLine.String())
	assert.Equal(t, "UNKNOWN", ExitCode(99).String())
}

func TestPathError(t *testing.T) {
	err := NewPathError("read", "/res/a.txt", ErrIO, fs.ErrPermission)

	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "/res/a.txt")

	var pe *PathError
	assert.True(t, errors.As(error(err), &pe))
	assert.Equal(t, "read", pe.Op)

	bare := NewPathError("scan", "/res", ErrCycle, nil)
	assert.True(t, errors.Is(bare, ErrCycle))
	assert.Equal(t, "scan /res: symlink cycle", bare.Error())
}

func TestDiagnostic_String(t *testing.T) {
	assert.Equal(t, "[WARNING] dup", Warningf("%s", "dup").String())
	assert.Equal(t, "[ERROR] boom", ErrorOf(errors.New("boom")).String())
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatSize(0))
	assert.Equal(t, "1.0 KiB", FormatSize(1024))
	assert.Equal(t, "0 B", FormatSize(-5))
}

func TestMode(t *testing.T) {
	assert.Equal(t, "-dc", ModeSource.Flag())
	assert.Equal(t, "-dp", ModePacked.Flag())
	assert.Equal(t, "packed", ModePacked.String())
}

func TestFingerprint(t *testing.T) {
	var zero Fingerprint
	assert.True(t, zero.IsZero())
	assert.Equal(t, strings.Repeat("0", 64), zero.String())

	f := Fingerprint{0xde, 0xad, 0xbe, 0xef}
	assert.False(t, f.IsZero())

	parsed, err := ParseFingerprint(f.String())
	require.NoError(t, err)
	assert.Equal(t, f, parsed)

	_, err = ParseFingerprint("abc")
	assert.Error(t, err)
	_, err = ParseFingerprint(strings.Repeat("zz", 32))
	assert.Error(t, err)
}
