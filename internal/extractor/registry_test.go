package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/acrofind/internal/domain"
)

type stubExtractor struct {
	name string
	exts []string
}

func (s stubExtractor) Name() string         { return s.name }
func (s stubExtractor) Extensions() []string { return s.exts }
func (s stubExtractor) Extract(ctx context.Context, path string) ([]domain.Slide, error) {
	return nil, nil
}

func TestRegistry_ForPath_CaseInsensitive(t *testing.T) {
	reg, err := NewRegistry(stubExtractor{name: "pptx", exts: []string{".pptx", "potx"}})
	require.NoError(t, err)

	x, err := reg.ForPath("/tmp/Deck.PPTX")
	require.NoError(t, err)
	assert.Equal(t, "pptx", x.Name())

	_, err = reg.ForPath("/tmp/template.potx")
	require.NoError(t, err)
	assert.Equal(t, []string{".potx", ".pptx"}, reg.Extensions())
}

func TestRegistry_ForPath_Unsupported(t *testing.T) {
	reg, err := NewRegistry(stubExtractor{name: "pptx", exts: []string{".pptx"}})
	require.NoError(t, err)

	_, err = reg.ForPath("/tmp/old.ppt")
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeUnsupportedFormat, domain.ErrorCode(err))
}

func TestNewRegistry_RejectsDuplicateExtension(t *testing.T) {
	_, err := NewRegistry(
		stubExtractor{name: "a", exts: []string{".pptx"}},
		stubExtractor{name: "b", exts: []string{".PPTX"}},
	)
	assert.Error(t, err)
}

func TestNewRegistry_RejectsNil(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.Error(t, err)
}
