package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"bookora/internal/domain/models"
)

// FileProcessor turns one uploaded file into a draft book
type FileProcessor interface {
	CanProcess(filename string) bool
	Process(ctx context.Context, file io.Reader, filename string) (*Draft, error)
	Name() string
}

// ProcessorRegistry picks the processor for an upload. First match wins,
// in registration order.
type ProcessorRegistry struct {
	mu         sync.RWMutex
	processors []FileProcessor
}

// NewProcessorRegistry creates an empty registry
func NewProcessorRegistry() *ProcessorRegistry {
	return &ProcessorRegistry{processors: make([]FileProcessor, 0)}
}

// DefaultProcessors registers zip, pdf and single-document processors
func DefaultProcessors(converters *ConverterRegistry, logger *slog.Logger) *ProcessorRegistry {
	r := NewProcessorRegistry()
	r.Register(NewZipProcessor(converters, logger))
	r.Register(NewPDFProcessor())
	r.Register(NewDocumentProcessor(converters))
	return r
}

// Register appends a processor
func (r *ProcessorRegistry) Register(p FileProcessor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors = append(r.processors, p)
}

// Get returns the first processor that accepts filename, or nil
func (r *ProcessorRegistry) Get(filename string) FileProcessor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.processors {
		if p.CanProcess(filename) {
			return p
		}
	}
	return nil
}

// documentProcessor handles a single markdown, text or HTML file
type documentProcessor struct {
	converters *ConverterRegistry
}

// NewDocumentProcessor handles any extension the converter registry knows
func NewDocumentProcessor(converters *ConverterRegistry) FileProcessor {
	return &documentProcessor{converters: converters}
}

func (p *documentProcessor) CanProcess(filename string) bool {
	return p.converters.Get(filepath.Ext(filename)) != nil
}

func (p *documentProcessor) Process(ctx context.Context, file io.Reader, filename string) (*Draft, error) {
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	markdown, err := p.converters.Convert(ctx, filename, content)
	if err != nil {
		return nil, err
	}
	draft := ParseMarkdown(markdown)
	return &draft, nil
}

func (p *documentProcessor) Name() string {
	return "DocumentProcessor"
}

// zipProcessor turns every supported entry of an archive into one page
type zipProcessor struct {
	converters *ConverterRegistry
	logger     *slog.Logger
}

// NewZipProcessor creates the archive processor. Entries are read in name
// order; the first entry carrying front matter supplies the book fields.
func NewZipProcessor(converters *ConverterRegistry, logger *slog.Logger) FileProcessor {
	return &zipProcessor{converters: converters, logger: logger}
}

func (p *zipProcessor) CanProcess(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".zip"
}

func (p *zipProcessor) Process(ctx context.Context, file io.Reader, filename string) (*Draft, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip file: %w", err)
	}
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip file: %w", err)
	}

	entries := make([]*zip.File, 0, len(archive.File))
	for _, f := range archive.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(path.Base(f.Name), ".") {
			continue
		}
		entries = append(entries, f)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	draft := &Draft{Pages: []models.Page{}}
	skipped := 0
	for _, entry := range entries {
		if p.converters.Get(filepath.Ext(entry.Name)) == nil {
			p.logger.Debug("skipping unsupported zip entry", "file", entry.Name)
			skipped++
			continue
		}
		part, err := p.readEntry(ctx, entry)
		if err != nil {
			p.logger.Warn("skipping unreadable zip entry", "file", entry.Name, "error", err)
			skipped++
			continue
		}
		if draft.empty() {
			draft.Title, draft.Author = part.Title, part.Author
			draft.Genre, draft.Description = part.Genre, part.Description
		}

		var blocks []models.Block
		for _, page := range part.Pages {
			blocks = append(blocks, page.Content...)
		}
		if len(blocks) == 0 {
			skipped++
			continue
		}
		draft.Pages = append(draft.Pages, models.Page{
			PageNumber: len(draft.Pages) + 1,
			Content:    blocks,
		})
	}

	p.logger.Info("zip file processed",
		"filename", filename,
		"pages", len(draft.Pages),
		"skipped", skipped,
	)
	return draft, nil
}

func (p *zipProcessor) readEntry(ctx context.Context, entry *zip.File) (Draft, error) {
	r, err := entry.Open()
	if err != nil {
		return Draft{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer r.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to read file: %w", err)
	}
	markdown, err := p.converters.Convert(ctx, entry.Name, content)
	if err != nil {
		return Draft{}, err
	}
	return ParseMarkdown(markdown), nil
}

func (p *zipProcessor) Name() string {
	return "ZipProcessor"
}

// PDFPageCount is how many placeholder pages the PDF importer produces
const PDFPageCount = 5

// pdfProcessor produces placeholder pages; no text is extracted from the PDF
type pdfProcessor struct{}

// NewPDFProcessor creates the placeholder PDF importer
func NewPDFProcessor() FileProcessor {
	return pdfProcessor{}
}

func (pdfProcessor) CanProcess(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".pdf"
}

func (pdfProcessor) Process(_ context.Context, file io.Reader, filename string) (*Draft, error) {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	draft := &Draft{Pages: make([]models.Page, 0, PDFPageCount)}
	for i := 1; i <= PDFPageCount; i++ {
		draft.Pages = append(draft.Pages, models.Page{
			PageNumber: i,
			Content: []models.Block{
				newBlock(models.BlockHeading, fmt.Sprintf("Page %d Title", i)),
				newBlock(models.BlockParagraph, fmt.Sprintf(
					"This is the mock content extracted from page %d of the PDF named %q. "+
						"In a real implementation, we would extract the actual text and images using a PDF parsing library.",
					i, filename)),
			},
		})
	}
	return draft, nil
}

func (pdfProcessor) Name() string {
	return "PDFProcessor"
}
