package plaintext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driven"
)

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".txt", ".text"}, New().Extensions())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		URI:     "/notes/biology.txt",
		Content: []byte("Photosynthesis converts light energy.\nChlorophyll absorbs light."),
	}

	text, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis converts light energy.\nChlorophyll absorbs light.", text)
}

func TestNormalise_NilDocument(t *testing.T) {
	text, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, text)
}

func TestNormalise_EmptyContent(t *testing.T) {
	text, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "/empty.txt"})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestNormalise_Cleanup(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"byte order mark dropped", []byte("\xEF\xBB\xBFhello"), "hello"},
		{"windows line endings", []byte("a\r\nb\r\n"), "a\nb\n"},
		{"invalid utf8 replaced", []byte("caf\xff"), "caf�"},
		{"unicode preserved", []byte("Größe 日本語 🎉"), "Größe 日本語 🎉"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text, err := New().Normalise(context.Background(), &domain.RawDocument{Content: tc.input})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, text)
		})
	}
}

func TestNormalise_LargeContent(t *testing.T) {
	content := strings.Repeat("word ", 100000)

	text, err := New().Normalise(context.Background(), &domain.RawDocument{Content: []byte(content)})
	require.NoError(t, err)
	assert.Len(t, strings.Fields(text), 100000)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = New()
}
