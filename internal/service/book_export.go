package service

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"

	"bookora/internal/domain/models"
)

const (
	pdfMargin      = 20.0
	videoOmitted   = "[Video content not included in PDF]"
	paragraphGapMM = 5.0
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// DownloadFilename replaces each whitespace run in title with '_' and adds ext
func DownloadFilename(title, ext string) string {
	return whitespaceRun.ReplaceAllString(title, "_") + "." + ext
}

// RenderPDF lays a book out on A4: a title page with the description, then
// one new page per book page. Long text wraps and flows onto extra pages.
func RenderPDF(book *models.Book) ([]byte, error) {
	return renderPDF(book, true)
}

func renderPDF(book *models.Book, compress bool) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(book.Title, true)
	pdf.SetAuthor(book.Author, true)
	pdf.SetCreator("bookora", false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 24)
	pdf.CellFormat(0, 12, tr(book.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, tr("by "+book.Author), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 8, tr(book.Genre), "", 1, "C", false, 0, "")
	if book.Description != "" {
		pdf.Ln(12)
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(0, 7, tr(book.Description), "", "L", false)
	}

	for _, page := range book.Pages {
		pdf.AddPage()
		for _, block := range page.Content {
			switch block.Type {
			case models.BlockHeading:
				pdf.SetFont("Helvetica", "B", 16)
				pdf.MultiCell(0, 10, tr(block.Content), "", "L", false)
			case models.BlockParagraph:
				pdf.SetFont("Helvetica", "", 12)
				pdf.MultiCell(0, 7, tr(block.Content), "", "L", false)
				pdf.Ln(paragraphGapMM)
			case models.BlockVideo:
				pdf.SetFont("Helvetica", "", 10)
				pdf.SetTextColor(128, 128, 128)
				pdf.CellFormat(0, 10, videoOmitted, "", 1, "L", false, 0, "")
				pdf.SetTextColor(0, 0, 0)
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderMarkdown exports a book: title page, description, then one section per page
func RenderMarkdown(book *models.Book) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", book.Title)
	fmt.Fprintf(&sb, "*by %s*\n\n", book.Author)
	if book.Genre != "" {
		fmt.Fprintf(&sb, "%s\n\n", book.Genre)
	}
	if book.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", book.Description)
	}

	for _, page := range book.Pages {
		sb.WriteString("---\n\n")
		for _, block := range page.Content {
			switch block.Type {
			case models.BlockHeading:
				fmt.Fprintf(&sb, "## %s\n\n", block.Content)
			case models.BlockParagraph:
				fmt.Fprintf(&sb, "%s\n\n", block.Content)
			case models.BlockImage:
				fmt.Fprintf(&sb, "![](%s)\n\n", block.Content)
			case models.BlockVideo:
				sb.WriteString("*[Video content not included]*\n\n")
			}
		}
	}
	return []byte(sb.String())
}
