package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func TestBuiltins(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{Go, GoMono}, r.List())

	face, err := r.Face(Go, 32, Style{Bold: true})
	require.NoError(t, err)
	assert.Greater(t, face.Metrics().Height.Ceil(), 0)

	again, err := r.Face(Go, 32, Style{Bold: true})
	require.NoError(t, err)
	assert.Same(t, face, again, "faces are cached by family, size and style")
}

func TestUnknownFamilyFallsBack(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	face, err := r.Face("Comic Sans", 20, Style{})
	require.NoError(t, err)
	goFace, err := r.Face(Go, 20, Style{})
	require.NoError(t, err)
	assert.Same(t, goFace, face)
}

func TestRegisterCustomFamily(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	require.NoError(t, r.Register("Custom", Style{}, goregular.TTF))
	_, err = r.Face("Custom", 12, Style{Italic: true})
	assert.NoError(t, err, "missing style falls back to regular")

	assert.Error(t, r.Register("Broken", Style{}, []byte("not a font")))
}

func TestInvalidSize(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	_, err = r.Face(Go, 0, Style{})
	assert.Error(t, err)
}
