package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
)

// ContentConverter turns one uploaded file format into markdown
type ContentConverter interface {
	Convert(ctx context.Context, input []byte) (string, error)
	SupportedExtensions() []string
	Name() string
}

// ConverterRegistry routes files to converters by extension.
//
// Thread-safe for concurrent access.
type ConverterRegistry struct {
	mu         sync.RWMutex
	converters map[string]ContentConverter // key: ".html", ".md", ...
}

// NewConverterRegistry creates a registry with the markdown, text and HTML converters
func NewConverterRegistry() *ConverterRegistry {
	r := &ConverterRegistry{converters: make(map[string]ContentConverter)}
	r.Register(NewMarkdownConverter())
	r.Register(NewTextConverter())
	r.Register(NewHTMLConverter())
	return r
}

// Register associates a converter with its extensions, normalized to
// lowercase with a leading dot
func (r *ConverterRegistry) Register(c ContentConverter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range c.SupportedExtensions() {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		r.converters[ext] = c
	}
}

// Get returns the converter for an extension, or nil
func (r *ConverterRegistry) Get(ext string) ContentConverter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.converters[strings.ToLower(ext)]
}

// Convert picks a converter from the filename extension
func (r *ConverterRegistry) Convert(ctx context.Context, filename string, content []byte) (string, error) {
	ext := filepath.Ext(filename)
	c := r.Get(ext)
	if c == nil {
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}
	return c.Convert(ctx, content)
}

// SupportedExtensions returns every registered extension, sorted
func (r *ConverterRegistry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.converters))
	for ext := range r.converters {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// passthrough covers formats that are already markdown
type passthrough struct {
	name string
	exts []string
}

// NewMarkdownConverter returns markdown unchanged
func NewMarkdownConverter() ContentConverter {
	return passthrough{name: "markdown", exts: []string{".md", ".markdown"}}
}

// NewTextConverter returns plain text unchanged; plain text is valid markdown
func NewTextConverter() ContentConverter {
	return passthrough{name: "plaintext", exts: []string{".txt", ".text"}}
}

func (p passthrough) Convert(_ context.Context, input []byte) (string, error) {
	return string(input), nil
}

func (p passthrough) SupportedExtensions() []string { return p.exts }
func (p passthrough) Name() string                  { return p.name }

// htmlConverter sanitizes HTML, then converts what is left to markdown
type htmlConverter struct {
	policy    *bluemonday.Policy
	converter *md.Converter
}

// NewHTMLConverter strips scripts, event handlers and javascript: URLs with a
// UGC policy before conversion. Inline data URI images survive so the book
// service can move them to object storage.
func NewHTMLConverter() ContentConverter {
	policy := bluemonday.UGCPolicy()
	policy.AllowDataURIImages()
	return &htmlConverter{
		policy:    policy,
		converter: md.NewConverter("", true, nil),
	}
}

func (c *htmlConverter) Convert(_ context.Context, input []byte) (string, error) {
	sanitized := c.policy.SanitizeBytes(input)
	markdown, err := c.converter.ConvertBytes(sanitized)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return string(markdown), nil
}

func (c *htmlConverter) SupportedExtensions() []string {
	return []string{".html", ".htm"}
}

func (c *htmlConverter) Name() string {
	return "html"
}
