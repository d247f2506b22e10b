package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nappgui/nrc/pkg/nrc/csource"
	"github.com/nappgui/nrc/pkg/nrc/pack"
	"github.com/nappgui/nrc/pkg/nrc/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleSet() types.ResourceSet {
	set := types.ResourceSet{
		{Name: "img/logo.png", Data: bytes.Repeat([]byte{1}, 2048)},
		{Name: "strings/en.msg", Data: []byte("hello")},
	}
	set.Sort()
	return set
}

func sampleInventory() *Inventory {
	return NewInventory("/out/res.pak", types.ModePacked, 2200, types.Fingerprint{0xab}, sampleSet())
}

func TestNewInventory(t *testing.T) {
	inv := sampleInventory()
	assert.Equal(t, "packed", inv.Mode)
	assert.Equal(t, int64(2053), inv.TotalSize())
	require.Len(t, inv.Resources, 2)
	assert.Equal(t, "2.0 KiB", inv.Resources[0].SizeHuman)
	assert.True(t, strings.HasPrefix(inv.Fingerprint, "ab00"))

	data, err := inv.Extract("strings/en.msg")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = inv.Extract("nope")
	assert.ErrorIs(t, err, types.ErrNotFound)

	zero := NewInventory("x", types.ModeSource, 0, types.Fingerprint{}, nil)
	assert.Empty(t, zero.Fingerprint)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	set := sampleSet()

	packed, err := pack.Encode(set, types.Fingerprint{1})
	require.NoError(t, err)
	packPath := filepath.Join(dir, "res.pak")
	require.NoError(t, os.WriteFile(packPath, packed, 0o644))

	src, _ := csource.Encode(set, types.Fingerprint{2})
	srcPath := filepath.Join(dir, "res.c")
	require.NoError(t, os.WriteFile(srcPath, src, 0o644))

	for path, mode := range map[string]string{packPath: "packed", srcPath: "source"} {
		inv, err := Load(path)
		require.NoError(t, err, path)
		assert.Equal(t, mode, inv.Mode)
		assert.Equal(t, set.Names(), []string{inv.Resources[0].Name, inv.Resources[1].Name})
		data, err := inv.Extract("img/logo.png")
		require.NoError(t, err)
		assert.Len(t, data, 2048)
	}

	_, err = Load(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(garbage, []byte("hello"), 0o644))
	_, err = Load(garbage)
	assert.ErrorIs(t, err, csource.ErrMalformed)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"csv", "json", "names", "plain", "pretty", "yaml"}, Available())

	_, err := Get("xml")
	assert.Error(t, err)

	r := NewRegistry()
	r.Register("x", func() Formatter { return &NamesFormatter{} })
	f, err := r.Get("x")
	require.NoError(t, err)
	assert.IsType(t, &NamesFormatter{}, f)
}

func format(t *testing.T, name string, inv *Inventory) string {
	t.Helper()
	f, err := Get(name)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, inv))
	return buf.String()
}

func TestPlainFormatter(t *testing.T) {
	out := format(t, "plain", sampleInventory())
	lines := strings.Split(out, "\n")
	assert.Equal(t, "SIZE  NAME", lines[0])
	assert.Equal(t, "2048  img/logo.png", lines[1])
	assert.Equal(t, "5     strings/en.msg", lines[2])
	assert.Contains(t, out, "/out/res.pak: packed, 2 resources, 2053 bytes")

	empty := format(t, "plain", NewInventory("e", types.ModeSource, 0, types.Fingerprint{}, nil))
	assert.Contains(t, empty, "fingerprint: none")
}

func TestPrettyFormatter(t *testing.T) {
	out := format(t, "pretty", sampleInventory())
	assert.Contains(t, out, "/out/res.pak")
	assert.Contains(t, out, "img/logo.png")
	assert.Contains(t, out, "2.0 KiB")

	empty := format(t, "pretty", NewInventory("e", types.ModeSource, 0, types.Fingerprint{}, nil))
	assert.Contains(t, empty, "No resources")
	assert.Contains(t, empty, "regenerated")
}

func TestJSONFormatter(t *testing.T) {
	out := format(t, "json", sampleInventory())

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "packed", decoded["mode"])
	assert.Equal(t, float64(2053), decoded["total_size"])
	assert.Len(t, decoded["resources"], 2)

	empty := format(t, "json", NewInventory("e", types.ModeSource, 0, types.Fingerprint{}, nil))
	assert.Contains(t, empty, `"resources": []`)
	assert.NotContains(t, empty, "fingerprint")
}

func TestYAMLFormatter(t *testing.T) {
	out := format(t, "yaml", sampleInventory())

	var decoded struct {
		Mode      string     `yaml:"mode"`
		TotalSize int64      `yaml:"total_size"`
		Resources []Resource `yaml:"resources"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "packed", decoded.Mode)
	assert.Equal(t, int64(2053), decoded.TotalSize)
	require.Len(t, decoded.Resources, 2)
	assert.Equal(t, "strings/en.msg", decoded.Resources[1].Name)
}

func TestCSVAndNamesFormatters(t *testing.T) {
	inv := NewInventory("x", types.ModeSource, 0, types.Fingerprint{}, types.ResourceSet{
		{Name: "a,b.txt", Data: []byte("12")},
		{Name: "c.txt", Data: nil},
	})

	assert.Equal(t, "name,size\n\"a,b.txt\",2\nc.txt,0\n", format(t, "csv", inv))
	assert.Equal(t, "a,b.txt\nc.txt\n", format(t, "names", inv))
}
