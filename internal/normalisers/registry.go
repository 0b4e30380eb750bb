package normalisers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driven"
	"github.com/abhinay-x/studymate-sub000/internal/normalisers/html"
	"github.com/abhinay-x/studymate-sub000/internal/normalisers/markdown"
	"github.com/abhinay-x/studymate-sub000/internal/normalisers/plaintext"
)

// MaxFileSize bounds the files ReadFile accepts.
const MaxFileSize = 32 << 20

// Registry selects a normaliser by file extension.
type Registry struct {
	byExt map[string]driven.Normaliser
}

// NewRegistry creates a registry. A later normaliser replaces an earlier
// one claiming the same extension.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{byExt: make(map[string]driven.Normaliser)}
	for _, n := range normalisers {
		for _, ext := range n.Extensions() {
			r.byExt[strings.ToLower(ext)] = n
		}
	}
	return r
}

// Default returns a registry with the plaintext, markdown and HTML normalisers.
func Default() *Registry {
	return NewRegistry(plaintext.New(), markdown.New(), html.New())
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Normalise extracts text using the normaliser registered for raw.URI.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (string, error) {
	if raw == nil {
		return "", domain.ErrInvalidInput
	}
	ext := strings.ToLower(filepath.Ext(raw.URI))
	n, ok := r.byExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q files (supported: %s)",
			domain.ErrUnsupportedType, ext, strings.Join(r.Extensions(), ", "))
	}
	return n.Normalise(ctx, raw)
}

// ReadFile reads and normalises a file. The document ID is derived from the
// absolute path, so reading the same file again yields the same ID, and the
// name is the file's base name.
func (r *Registry) ReadFile(ctx context.Context, path string) (*domain.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if !r.Supports(abs) {
		return nil, fmt.Errorf("%s: %w: supported extensions are %s",
			path, domain.ErrUnsupportedType, strings.Join(r.Extensions(), ", "))
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w: is a directory", path, domain.ErrInvalidInput)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%s: %w: %d bytes exceeds the %d byte limit",
			path, domain.ErrInvalidInput, info.Size(), MaxFileSize)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text, err := r.Normalise(ctx, &domain.RawDocument{URI: abs, Content: content})
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", path, err)
	}

	return &domain.Document{
		ID:      DocumentIDForPath(abs),
		Name:    filepath.Base(abs),
		Content: text,
	}, nil
}

// DocumentIDForPath returns the stable document ID of a file.
func DocumentIDForPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(path))).String()
}

// IsHidden reports whether a file or directory name starts with a dot.
func IsHidden(name string) bool {
	base := filepath.Base(name)
	return base != "." && base != ".." && strings.HasPrefix(base, ".")
}
