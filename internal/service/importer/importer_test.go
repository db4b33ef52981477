package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookora/internal/domain"
	"bookora/internal/domain/models"
	"bookora/internal/domain/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func blockTypes(page models.Page) []models.BlockType {
	out := make([]models.BlockType, len(page.Content))
	for i, b := range page.Content {
		out[i] = b.Type
	}
	return out
}

func TestParseMarkdown(t *testing.T) {
	src := strings.Join([]string{
		"---",
		"title: The Long Road",
		"author: Ada",
		"genre: Fantasy",
		"description: A journey.",
		"---",
		"# Chapter One",
		"",
		"It was a dark",
		"and stormy night.",
		"",
		"![](https://cdn.test/map.png)",
		"---",
		"## Chapter Two",
		"Morning came.",
		"---",
		"",
	}, "\n")

	draft := ParseMarkdown(src)

	assert.Equal(t, "The Long Road", draft.Title)
	assert.Equal(t, "Ada", draft.Author)
	assert.Equal(t, "Fantasy", draft.Genre)
	assert.Equal(t, "A journey.", draft.Description)
	require.Len(t, draft.Pages, 2, "trailing page break does not create an empty page")

	first := draft.Pages[0]
	assert.Equal(t, 1, first.PageNumber)
	assert.Equal(t, []models.BlockType{models.BlockHeading, models.BlockParagraph, models.BlockImage}, blockTypes(first))
	assert.Equal(t, "Chapter One", first.Content[0].Content)
	assert.Equal(t, "It was a dark and stormy night.", first.Content[1].Content)
	assert.Equal(t, "https://cdn.test/map.png", first.Content[2].Content)

	assert.Equal(t, 2, draft.Pages[1].PageNumber)
	assert.Equal(t, "Chapter Two", draft.Pages[1].Content[0].Content)
	assert.NotEqual(t, first.Content[0].ID, first.Content[1].ID)
}

func TestParseMarkdownWithoutFrontMatter(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		pages int
	}{
		{"plain text", "hello\nworld", 1},
		{"leading page break", "---\nfirst page\n---\nsecond page", 2},
		{"empty", "", 0},
		{"only breaks", "---\n---\n* * *", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := ParseMarkdown(tt.src)
			assert.Empty(t, draft.Title)
			assert.Len(t, draft.Pages, tt.pages)
		})
	}
}

func TestHTMLConverterSanitizes(t *testing.T) {
	c := NewHTMLConverter()
	out, err := c.Convert(context.Background(), []byte(
		`<h1>Title</h1><p onclick="steal()">Safe <strong>text</strong></p><script>alert(1)</script>`))
	require.NoError(t, err)

	assert.Contains(t, out, "# Title")
	assert.Contains(t, out, "**text**")
	assert.NotContains(t, out, "alert")
	assert.NotContains(t, out, "steal")
}

func TestConverterRegistry(t *testing.T) {
	r := NewConverterRegistry()
	assert.Equal(t, []string{".htm", ".html", ".markdown", ".md", ".text", ".txt"}, r.SupportedExtensions())
	assert.NotNil(t, r.Get(".MD"))

	_, err := r.Convert(context.Background(), "book.docx", nil)
	assert.ErrorContains(t, err, "unsupported file type")
}

func TestProcessorRouting(t *testing.T) {
	r := DefaultProcessors(NewConverterRegistry(), testLogger())

	tests := map[string]string{
		"novel.pdf":    "PDFProcessor",
		"chapters.ZIP": "ZipProcessor",
		"story.md":     "DocumentProcessor",
		"page.html":    "DocumentProcessor",
	}
	for filename, want := range tests {
		p := r.Get(filename)
		require.NotNil(t, p, filename)
		assert.Equal(t, want, p.Name(), filename)
	}
	assert.Nil(t, r.Get("slides.pptx"))
}

func TestPDFProcessorProducesPlaceholderPages(t *testing.T) {
	draft, err := NewPDFProcessor().Process(context.Background(), strings.NewReader("%PDF-1.4"), "novel.pdf")
	require.NoError(t, err)
	require.Len(t, draft.Pages, PDFPageCount)

	for i, page := range draft.Pages {
		assert.Equal(t, i+1, page.PageNumber)
		require.Len(t, page.Content, 2)
		assert.Equal(t, models.BlockHeading, page.Content[0].Type)
		assert.Equal(t, models.BlockParagraph, page.Content[1].Type)
	}
	assert.Equal(t, "Page 3 Title", draft.Pages[2].Content[0].Content)
	assert.Contains(t, draft.Pages[0].Content[1].Content, `page 1 of the PDF named "novel.pdf"`)
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestZipProcessorOnePagePerEntry(t *testing.T) {
	data := buildZip(t, map[string]string{
		"02-middle.html": "<h2>Middle</h2><p>Second</p>",
		"01-start.md":    "---\ntitle: Zipped\n---\n# Start\nFirst\n---\nstill first",
		"03-end.txt":     "Third",
		"notes.docx":     "ignored",
		".DS_Store":      "ignored",
		"art/cover.png":  "ignored",
		"04-blank.md":    "   \n",
	})

	draft, err := NewZipProcessor(NewConverterRegistry(), testLogger()).
		Process(context.Background(), bytes.NewReader(data), "book.zip")
	require.NoError(t, err)

	assert.Equal(t, "Zipped", draft.Title)
	require.Len(t, draft.Pages, 3)
	assert.Equal(t, "Start", draft.Pages[0].Content[0].Content)
	assert.Len(t, draft.Pages[0].Content, 3, "page breaks inside an entry are folded into one page")
	assert.Equal(t, "Middle", draft.Pages[1].Content[0].Content)
	assert.Equal(t, "Third", draft.Pages[2].Content[0].Content)
	assert.Equal(t, 3, draft.Pages[2].PageNumber)
}

func TestZipProcessorRejectsCorruptArchive(t *testing.T) {
	_, err := NewZipProcessor(NewConverterRegistry(), testLogger()).
		Process(context.Background(), strings.NewReader("not a zip"), "book.zip")
	assert.Error(t, err)
}

// recordingBooks captures the book service Add call
type recordingBooks struct {
	services.BookService
	owner string
	req   *services.CreateBookRequest
}

func (r *recordingBooks) Add(_ context.Context, owner string, req *services.CreateBookRequest) (*models.Book, error) {
	r.owner, r.req = owner, req
	return &models.Book{ID: "1", Title: req.Title, Author: req.Author, Pages: req.Pages}, nil
}

func TestImportServiceFillsFields(t *testing.T) {
	books := &recordingBooks{}
	svc := NewImportService(books, testLogger())

	book, err := svc.Import(context.Background(), "ada@bookora.dev", "My Novel.pdf",
		strings.NewReader("%PDF"), services.CreateBookRequest{Genre: "Mystery"})
	require.NoError(t, err)

	assert.Equal(t, "ada@bookora.dev", books.owner)
	assert.Equal(t, "My Novel", book.Title)
	assert.Equal(t, UnknownAuthor, book.Author)
	assert.Equal(t, "Mystery", books.req.Genre)
	assert.Len(t, book.Pages, PDFPageCount)
}

func TestImportServiceFormWinsOverFrontMatter(t *testing.T) {
	books := &recordingBooks{}
	svc := NewImportService(books, testLogger())

	_, err := svc.Import(context.Background(), "ada@bookora.dev", "story.md",
		strings.NewReader("---\ntitle: From File\nauthor: File Author\n---\nBody"),
		services.CreateBookRequest{Title: "From Form"})
	require.NoError(t, err)

	assert.Equal(t, "From Form", books.req.Title)
	assert.Equal(t, "File Author", books.req.Author)
}

func TestImportServiceErrors(t *testing.T) {
	svc := NewImportService(&recordingBooks{}, testLogger())
	ctx := context.Background()

	_, err := svc.Import(ctx, "", "a.md", strings.NewReader("x"), services.CreateBookRequest{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Import(ctx, "ada@bookora.dev", "a.exe", strings.NewReader("x"), services.CreateBookRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Import(ctx, "ada@bookora.dev", "a.md", strings.NewReader("\n\n"), services.CreateBookRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Contains(t, svc.SupportedExtensions(), ".pdf")
	assert.Contains(t, svc.SupportedExtensions(), ".html")
}
