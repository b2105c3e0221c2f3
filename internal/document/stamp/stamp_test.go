package stamp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termo/internal/document/layout"
	"termo/internal/document/render"
	"termo/pkg/testutil"
)

func generated(t *testing.T, pages int) []byte {
	t.Helper()
	doc := &layout.Document{Size: layout.A4}
	for i := 0; i < pages; i++ {
		doc.NewPage().Text(50, 70, "Declaro que li e compreendi todos os termos acima.", layout.Font{Family: "Helvetica", Size: 11})
	}
	out, err := render.Render(doc, render.Metadata{Title: "Termo"})
	require.NoError(t, err)
	return out
}

func TestPlacementOps(t *testing.T) {
	ops := DefaultPlacement().Ops(Overlay{PNG: []byte{1}, Caption: "Assinatura do responsável: Ana Souza"})
	require.Len(t, ops, 2)

	img, ok := ops[0].(layout.ImageOp)
	require.True(t, ok)
	assert.Equal(t, layout.ImageOp{X: 50, Y: 640, W: 300, H: 60, Name: "signature", PNG: []byte{1}}, img)

	caption, ok := ops[1].(layout.TextOp)
	require.True(t, ok)
	assert.Equal(t, 720.0, caption.Y)
	assert.Equal(t, "B", caption.Font.Style)

	assert.Len(t, DefaultPlacement().Ops(Overlay{PNG: []byte{1}}), 1)
}

func TestApply(t *testing.T) {
	c := NewCompositor(DefaultPlacement())

	for _, pages := range []int{1, 3} {
		src := generated(t, pages)
		require.False(t, IsStamped(src))

		out, err := c.Apply(src, Overlay{
			PNG:     testutil.SignaturePNG(t),
			Caption: "Assinatura do responsável: Ana Souza",
			Meta:    render.Metadata{Title: "Termo"},
		})
		require.NoError(t, err)

		n, err := c.PageCount(out)
		require.NoError(t, err)
		assert.Equal(t, pages, n, "page count is preserved")
		assert.Greater(t, len(out), len(src), "overlay adds content")
		assert.True(t, IsStamped(out))
	}
}

func TestApply_Restamp(t *testing.T) {
	c := NewCompositor(DefaultPlacement())
	ov := Overlay{PNG: testutil.SignaturePNG(t), Caption: "x"}

	once, err := c.Apply(generated(t, 1), ov)
	require.NoError(t, err)
	twice, err := c.Apply(once, ov)
	require.NoError(t, err)

	n, err := c.PageCount(twice)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, IsStamped(twice))
}

func TestApply_Errors(t *testing.T) {
	c := NewCompositor(DefaultPlacement())

	_, err := c.Apply([]byte("not a pdf"), Overlay{PNG: testutil.SignaturePNG(t)})
	assert.ErrorIs(t, err, ErrUnreadable)

	_, err = c.Apply(nil, Overlay{PNG: testutil.SignaturePNG(t)})
	assert.ErrorIs(t, err, ErrUnreadable)

	_, err = c.Apply(generated(t, 1), Overlay{})
	assert.Error(t, err)
}
