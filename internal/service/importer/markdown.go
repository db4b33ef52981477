package importer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"bookora/internal/domain/models"
)

// Draft is an imported book before it is handed to the book service
type Draft struct {
	Title       string        `yaml:"title"`
	Author      string        `yaml:"author"`
	Genre       string        `yaml:"genre"`
	Description string        `yaml:"description"`
	Pages       []models.Page `yaml:"-"`
}

var (
	imageLine = regexp.MustCompile(`^!\[[^\]]*\]\(\s*(\S+?)(?:\s+"[^"]*")?\s*\)$`)
	headingRe = regexp.MustCompile(`^#{1,6}\s+`)
)

// isPageBreak matches "---" lines and the "* * *" rule html-to-markdown emits for <hr>
func isPageBreak(line string) bool {
	switch strings.TrimSpace(line) {
	case "---", "***", "* * *", "___":
		return true
	}
	return false
}

func (d Draft) empty() bool {
	return d.Title == "" && d.Author == "" && d.Genre == "" && d.Description == ""
}

// splitFrontMatter separates a leading YAML block delimited by "---" lines.
// Input without a well-formed block is returned unchanged.
func splitFrontMatter(markdown string) (Draft, string) {
	var meta Draft
	normalized := strings.ReplaceAll(markdown, "\r\n", "\n")
	if !strings.HasPrefix(normalized, "---\n") {
		return meta, normalized
	}
	rest := normalized[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return meta, normalized
	}
	block := rest[:end]
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil || meta.empty() {
		return Draft{}, normalized
	}
	body := rest[end+len("\n---"):]
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}
	return meta, body
}

// ParseMarkdown builds a draft from markdown: front matter fills the book
// fields, page-break lines split pages, "#" lines become headings, image-only
// lines become image blocks and the remaining runs of lines become paragraphs.
// Pages with no blocks are dropped.
func ParseMarkdown(markdown string) Draft {
	draft, body := splitFrontMatter(markdown)
	draft.Pages = []models.Page{}

	var blocks []models.Block
	var para []string

	flushPara := func() {
		if len(para) > 0 {
			blocks = append(blocks, newBlock(models.BlockParagraph, strings.Join(para, " ")))
			para = nil
		}
	}
	flushPage := func() {
		flushPara()
		if len(blocks) > 0 {
			draft.Pages = append(draft.Pages, models.Page{
				PageNumber: len(draft.Pages) + 1,
				Content:    blocks,
			})
			blocks = nil
		}
	}

	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			flushPara()
		case isPageBreak(line):
			flushPage()
		case headingRe.MatchString(line):
			flushPara()
			blocks = append(blocks, newBlock(models.BlockHeading, strings.TrimSpace(headingRe.ReplaceAllString(line, ""))))
		case imageLine.MatchString(line):
			flushPara()
			blocks = append(blocks, newBlock(models.BlockImage, imageLine.FindStringSubmatch(line)[1]))
		default:
			para = append(para, line)
		}
	}
	flushPage()
	return draft
}

func newBlock(t models.BlockType, content string) models.Block {
	return models.Block{
		ID:      fmt.Sprintf("block_%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:12]),
		Type:    t,
		Content: content,
	}
}
