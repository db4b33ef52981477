package models

import (
	"time"
)

// BlockType enumerates the kinds of content a page block can hold
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockHeading   BlockType = "heading"
	BlockImage     BlockType = "image"
	BlockVideo     BlockType = "video"
)

// Valid reports whether t is a known block type
func (t BlockType) Valid() bool {
	switch t {
	case BlockParagraph, BlockHeading, BlockImage, BlockVideo:
		return true
	}
	return false
}

// Block is one unit of page content: text, or a URL / data URL for media
type Block struct {
	ID      string    `json:"id"`
	Type    BlockType `json:"type"`
	Content string    `json:"content"`
}

// Page is an ordered list of blocks. PageNumber is 1-based and matches position.
type Page struct {
	ID         string  `json:"id"`
	PageNumber int     `json:"pageNumber"`
	Content    []Block `json:"content"`
}

// Book is the full per-book document stored at books/<id>.json
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Genre         string    `json:"genre"`
	Description   string    `json:"description"`
	CoverImage    string    `json:"coverImage"`
	Pages         []Page    `json:"pages"`
	PageCount     int       `json:"pageCount"`
	ViewCount     int       `json:"viewCount"`
	DownloadCount int       `json:"downloadCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Normalize repairs documents written by older clients: nil slices become empty,
// page numbers are renumbered to match position, and pageCount follows len(pages)
// whenever pages are present.
func (b *Book) Normalize() {
	if b.Pages == nil {
		b.Pages = []Page{}
	}
	for i := range b.Pages {
		if b.Pages[i].Content == nil {
			b.Pages[i].Content = []Block{}
		}
	}
	b.RenumberPages()
	if len(b.Pages) > 0 {
		b.PageCount = len(b.Pages)
	}
}

// RenumberPages assigns pageNumber = position+1 to every page
func (b *Book) RenumberPages() {
	for i := range b.Pages {
		b.Pages[i].PageNumber = i + 1
	}
}

// IndexEntry is the lightweight projection kept in books.json: the book with
// pages stripped to an empty list.
func (b Book) IndexEntry() Book {
	b.Pages = []Page{}
	return b
}

// Clone deep-copies the book so mirrors never share page slices with callers
func (b Book) Clone() Book {
	pages := make([]Page, len(b.Pages))
	for i, p := range b.Pages {
		p.Content = append([]Block{}, p.Content...)
		pages[i] = p
	}
	b.Pages = pages
	return b
}
