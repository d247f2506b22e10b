package diag

import (
	"errors"
	"testing"

	"github.com/nappgui/nrc/pkg/nrc/types"
	"github.com/stretchr/testify/assert"
)

func TestCollector_KeepsOrderAndDuplicates(t *testing.T) {
	c := New()
	c.Warn("duplicate name %q", "a_txt")
	c.Warn("duplicate name %q", "a_txt")
	c.Error(errors.New("read b.txt: permission denied"))
	c.Add(types.Warningf("unsupported file type: %s", "fifo"))

	assert.Equal(t, []string{
		`duplicate name "a_txt"`,
		`duplicate name "a_txt"`,
		"unsupported file type: fifo",
	}, c.Warnings())
	assert.Equal(t, []string{"read b.txt: permission denied"}, c.Errors())
	assert.True(t, c.HasErrors())
}

func TestCollector_Result(t *testing.T) {
	c := New()
	res := c.Result(true)
	assert.True(t, res.Regenerated)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Errors)
	assert.Equal(t, types.Success, res.ExitCode())

	c.AddAll([]types.Diagnostic{
		types.Warningf("w1"),
		types.ErrorOf(errors.New("e1")),
	})
	res = c.Result(false)
	assert.Equal(t, types.WithErrors, res.ExitCode())
}

func TestCollector_ReturnsCopies(t *testing.T) {
	c := New()
	c.Warn("one")
	w := c.Warnings()
	w[0] = "changed"
	assert.Equal(t, []string{"one"}, c.Warnings())
}
