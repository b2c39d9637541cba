// Package convert implements the bidirectional Markdown ↔ Block
// Converter (spec §4.3). The push direction (ToBlocks) is grounded on
// the teacher's internal/transformer package (transformer.go,
// richtext.go); the pull direction (ToMarkdown) is grounded on
// internal/transformer/reverse.go. Wiki-link-specific and Obsidian
// callout/dataview handling has been trimmed — the spec's inline model is
// plain CommonMark links, not [[wikilinks]] — while the goldmark
// AST-walk shape and the block-type switches are kept close to the
// teacher's originals.
package convert

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"go.abhg.dev/goldmark/mermaid"
)

// LinkResolver resolves a local relative path (as written in a standard
// Markdown link) to a Notion page ID, so that links between synchronized
// files become Notion page mentions instead of bare URLs. Grounded on the
// teacher's transformer.LinkResolver, generalized from wiki-link targets
// to ordinary relative-path link destinations.
type LinkResolver interface {
	Resolve(relPath string) (pageID string, found bool)
}

// PathLookup is the inverse of LinkResolver, used when rendering remote
// mentions back to local-relative-path links.
type PathLookup interface {
	LookupPath(pageID string) (relPath string, found bool)
}

// codeLanguages maps a file extension to the Notion code-block language
// tag, per spec §4.3.
var codeLanguages = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".sh":   "shell",
	".html": "html",
	".css":  "css",
	".java": "java",
	".cpp":  "c++",
	".c":    "c",
	".go":   "go",
	".rs":   "rust",
	".rb":   "ruby",
	".php":  "php",
	".sql":  "sql",
	".xml":  "xml",
}

// CodeLanguage returns the Notion language tag for ext (including the
// leading dot), and whether ext names a recognized code-file extension.
func CodeLanguage(ext string) (string, bool) {
	lang, ok := codeLanguages[strings.ToLower(ext)]
	return lang, ok
}

// imageExtensions are skipped on push, per spec §6.
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".svg": true, ".webp": true, ".ico": true, ".tiff": true, ".tif": true,
}

// IsImageExtension reports whether ext names a skipped image extension.
func IsImageExtension(ext string) bool {
	return imageExtensions[strings.ToLower(ext)]
}

// chunkSize is the code-block rich-text segment threshold (spec §4.3/§6).
const chunkSize = 1800

// ChunkText splits s into consecutive segments of at most chunkSize
// characters (runes), preserving byte order.
func ChunkText(s string) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return []string{""}
	}
	var chunks []string
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM, &mermaid.Extender{}))

// Converter transforms Markdown source into Notion blocks and back.
type Converter struct {
	resolver LinkResolver
	lookup   PathLookup
}

// New creates a Converter. resolver may be nil, in which case all links
// are emitted verbatim as external URLs.
func New(resolver LinkResolver) *Converter {
	return &Converter{resolver: resolver}
}

// ToBlocks parses Markdown source and returns the Notion blocks it maps
// to (spec §4.3's push direction).
func (c *Converter) ToBlocks(source []byte) ([]notionapi.Block, error) {
	doc := md.Parser().Parse(text.NewReader(source))

	var blocks []notionapi.Block
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, skipChildren := c.transformNode(n, source)
		if block != nil {
			blocks = append(blocks, block)
		}
		if skipChildren {
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// CodeBlock builds a single Notion code block for a code file's raw
// content, chunking into ≤1800-char rich-text segments.
func CodeBlock(content, language string) notionapi.Block {
	chunks := ChunkText(content)
	rt := make([]notionapi.RichText, 0, len(chunks))
	for _, chunk := range chunks {
		rt = append(rt, notionapi.RichText{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: chunk},
		})
	}
	return &notionapi.CodeBlock{
		BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeCode},
		Code: notionapi.Code{
			RichText: rt,
			Language: language,
		},
	}
}

func (c *Converter) transformNode(n ast.Node, source []byte) (notionapi.Block, bool) {
	switch node := n.(type) {
	case *ast.Document:
		return nil, false

	case *ast.Heading:
		level := node.Level
		if level > 3 {
			level = 3 // Notion supports H1-H3 only; flatten deeper headings.
		}
		text := c.inlineContent(node, source)
		switch level {
		case 1:
			return &notionapi.Heading1Block{BasicBlock: basic(notionapi.BlockTypeHeading1), Heading1: notionapi.Heading{RichText: text}}, true
		case 2:
			return &notionapi.Heading2Block{BasicBlock: basic(notionapi.BlockTypeHeading2), Heading2: notionapi.Heading{RichText: text}}, true
		default:
			return &notionapi.Heading3Block{BasicBlock: basic(notionapi.BlockTypeHeading3), Heading3: notionapi.Heading{RichText: text}}, true
		}

	case *ast.Paragraph:
		if img := standaloneImage(node, source); img != nil {
			return c.transformImage(img, source), true
		}
		return &notionapi.ParagraphBlock{
			BasicBlock: basic(notionapi.BlockTypeParagraph),
			Paragraph:  notionapi.Paragraph{RichText: c.inlineContent(node, source), Children: c.blockChildren(node, source)},
		}, true

	case *ast.List:
		return nil, false

	case *ast.ListItem:
		return c.transformListItem(node, source), true

	case *ast.FencedCodeBlock:
		return c.transformCodeBlock(node, source), true

	case *ast.Blockquote:
		return &notionapi.QuoteBlock{
			BasicBlock: basic(notionapi.BlockTypeQuote),
			Quote:      notionapi.Quote{RichText: c.inlineContent(firstParagraph(node), source), Children: c.blockChildren(node, source)},
		}, true

	case *ast.ThematicBreak:
		return &notionapi.DividerBlock{BasicBlock: basic(notionapi.BlockTypeDivider)}, true

	case *extast.Table:
		return c.transformTable(node, source), true

	default:
		return nil, false
	}
}

func firstParagraph(n ast.Node) ast.Node {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			return child
		}
	}
	return n
}

func basic(t notionapi.BlockType) notionapi.BasicBlock {
	return notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: t}
}

func (c *Converter) transformListItem(node *ast.ListItem, source []byte) notionapi.Block {
	para := firstParagraph(node)
	text := c.inlineContent(para, source)
	children := c.nestedListChildren(node, source)

	list, ok := node.Parent().(*ast.List)
	ordered := ok && list.IsOrdered()

	if ordered {
		return &notionapi.NumberedListItemBlock{BasicBlock: basic(notionapi.BlockTypeNumberedListItem), NumberedListItem: notionapi.ListItem{RichText: text, Children: children}}
	}
	return &notionapi.BulletedListItemBlock{BasicBlock: basic(notionapi.BlockTypeBulletedListItem), BulletedListItem: notionapi.ListItem{RichText: text, Children: children}}
}

// nestedListChildren finds a nested *ast.List among node's direct children
// (goldmark attaches a sub-list as a sibling of the item's paragraph, not
// inside it) and recursively converts its items, so indentation-nested
// lists (spec §4.3) survive the push direction.
func (c *Converter) nestedListChildren(node ast.Node, source []byte) []notionapi.Block {
	var children []notionapi.Block
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		nestedList, ok := child.(*ast.List)
		if !ok {
			continue
		}
		for item := nestedList.FirstChild(); item != nil; item = item.NextSibling() {
			if nestedItem, ok := item.(*ast.ListItem); ok {
				children = append(children, c.transformListItem(nestedItem, source))
			}
		}
	}
	return children
}

// blockChildren finds non-paragraph block-level content nested under node
// (currently just sub-lists; spec §4.3 doesn't require deeper nesting under
// plain paragraphs or blockquotes) and converts it, so GetBlockTree's
// fetched subtree (internal/notionclient/blocks.go) has a push-side
// counterpart.
func (c *Converter) blockChildren(node ast.Node, source []byte) []notionapi.Block {
	return c.nestedListChildren(node, source)
}

// standaloneImage reports whether p's only meaningful content is a single
// image, in which case it should become a Notion image block rather than a
// text paragraph (spec §4.3's round-trip promise for remote-hosted images).
// Grounded on the teacher's tryImageBlock (internal/transformer/blocks.go).
func standaloneImage(p *ast.Paragraph, source []byte) *ast.Image {
	var img *ast.Image
	count := 0
	for child := p.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Image:
			img = n
			count++
		case *ast.Text:
			if strings.TrimSpace(string(n.Segment.Value(source))) != "" {
				return nil
			}
		default:
			return nil
		}
	}
	if count != 1 {
		return nil
	}
	return img
}

// transformImage converts a standalone ast.Image to a Notion image block,
// adapted from the teacher's transformImage for the external-image case
// (local-path upload placeholders are out of scope for this pull/push
// model, which only ever deals in remote-hosted URLs).
func (c *Converter) transformImage(img *ast.Image, source []byte) notionapi.Block {
	url := string(img.Destination)
	alt := string(img.Text(source))

	var caption []notionapi.RichText
	if alt != "" {
		caption = []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: alt}}}
	}

	return &notionapi.ImageBlock{
		BasicBlock: basic(notionapi.BlockTypeImage),
		Image: notionapi.Image{
			Type:     "external",
			External: &notionapi.FileObject{URL: url},
			Caption:  caption,
		},
	}
}

func (c *Converter) transformCodeBlock(node *ast.FencedCodeBlock, source []byte) notionapi.Block {
	lang := string(node.Language(source))
	var buf bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return CodeBlock(buf.String(), lang)
}

func (c *Converter) transformTable(node *extast.Table, source []byte) notionapi.Block {
	var rows []notionapi.Block
	hasHeader := false
	width := 0

	for row := node.FirstChild(); row != nil; row = row.NextSibling() {
		var cells [][]notionapi.RichText
		switch r := row.(type) {
		case *extast.TableHeader:
			hasHeader = true
			for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, c.inlineContent(cell, source))
			}
		case *extast.TableRow:
			for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, c.inlineContent(cell, source))
			}
		default:
			continue
		}
		if len(cells) > width {
			width = len(cells)
		}
		rows = append(rows, &notionapi.TableRowBlock{
			BasicBlock: basic(notionapi.BlockTypeTableRowBlock),
			TableRow:   notionapi.TableRow{Cells: cells},
		})
	}

	return &notionapi.TableBlock{
		BasicBlock: basic(notionapi.BlockTypeTableBlock),
		Table: notionapi.Table{
			TableWidth:      width,
			HasColumnHeader: hasHeader,
			Children:        rows,
		},
	}
}

// inlineContent converts all inline children of n to rich text.
func (c *Converter) inlineContent(n ast.Node, source []byte) []notionapi.RichText {
	var result []notionapi.RichText
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		result = append(result, c.inline(child, source, nil)...)
	}
	return result
}

func (c *Converter) inline(n ast.Node, source []byte, inherited *notionapi.Annotations) []notionapi.RichText {
	if inherited == nil {
		inherited = &notionapi.Annotations{}
	}

	switch node := n.(type) {
	case *ast.Text:
		content := string(node.Segment.Value(source))
		if node.SoftLineBreak() {
			content += " "
		}
		if node.HardLineBreak() {
			content += "\n"
		}
		return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: content}, Annotations: copyAnnotations(inherited)}}

	case *ast.String:
		return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: string(node.Value)}, Annotations: copyAnnotations(inherited)}}

	case *ast.Emphasis:
		ann := copyAnnotations(inherited)
		if node.Level == 1 {
			ann.Italic = true
		} else {
			ann.Bold = true
		}
		return c.inlineChildren(node, source, ann)

	case *ast.CodeSpan:
		ann := copyAnnotations(inherited)
		ann.Code = true
		return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: string(node.Text(source))}, Annotations: ann}}

	case *ast.Link:
		var text string
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			if t, ok := child.(*ast.Text); ok {
				text += string(t.Segment.Value(source))
			}
		}
		dest := string(node.Destination)
		if text == "" {
			text = dest
		}
		if c.resolver != nil {
			if pageID, found := c.resolver.Resolve(dest); found {
				return []notionapi.RichText{{
					Type:        "mention",
					Mention:     &notionapi.Mention{Type: "page", Page: &notionapi.PageMention{ID: notionapi.ObjectID(pageID)}},
					Annotations: copyAnnotations(inherited),
					PlainText:   text,
				}}
			}
		}
		return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: text, Link: &notionapi.Link{Url: dest}}, Annotations: copyAnnotations(inherited)}}

	case *ast.AutoLink:
		url := string(node.URL(source))
		return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: url, Link: &notionapi.Link{Url: url}}, Annotations: copyAnnotations(inherited)}}

	case *ast.Image:
		alt := string(node.Text(source))
		if alt == "" {
			alt = string(node.Destination)
		}
		return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: alt, Link: &notionapi.Link{Url: string(node.Destination)}}, Annotations: copyAnnotations(inherited)}}

	case *extast.Strikethrough:
		ann := copyAnnotations(inherited)
		ann.Strikethrough = true
		return c.inlineChildren(node, source, ann)

	default:
		return c.inlineChildren(n, source, inherited)
	}
}

func (c *Converter) inlineChildren(n ast.Node, source []byte, ann *notionapi.Annotations) []notionapi.RichText {
	var result []notionapi.RichText
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		result = append(result, c.inline(child, source, ann)...)
	}
	return result
}

func copyAnnotations(a *notionapi.Annotations) *notionapi.Annotations {
	if a == nil {
		return &notionapi.Annotations{}
	}
	cp := *a
	return &cp
}

// ToMarkdown renders Notion blocks back to Markdown source (spec §4.3's
// pull direction). The output is stable for equal inputs so that
// hash-based change detection doesn't see spurious diffs on round trips.
func (c *Converter) ToMarkdown(blocks []notionapi.Block) string {
	var buf strings.Builder
	for _, b := range blocks {
		buf.WriteString(c.blockToMarkdown(b, 0))
	}
	return buf.String()
}

func (c *Converter) blockToMarkdown(block notionapi.Block, depth int) string {
	indent := strings.Repeat("  ", depth)

	switch b := block.(type) {
	case *notionapi.Heading1Block:
		return "# " + c.richTextToMarkdown(b.Heading1.RichText) + "\n"
	case *notionapi.Heading2Block:
		return "## " + c.richTextToMarkdown(b.Heading2.RichText) + "\n"
	case *notionapi.Heading3Block:
		return "### " + c.richTextToMarkdown(b.Heading3.RichText) + "\n"

	case *notionapi.ParagraphBlock:
		text := c.richTextToMarkdown(b.Paragraph.RichText)
		if text == "" {
			return "\n"
		}
		return indent + text + "\n\n" + c.childrenToMarkdown(b.Paragraph.Children, depth+1)

	case *notionapi.BulletedListItemBlock:
		return indent + "- " + c.richTextToMarkdown(b.BulletedListItem.RichText) + "\n" + c.childrenToMarkdown(b.BulletedListItem.Children, depth+1)

	case *notionapi.NumberedListItemBlock:
		return indent + "1. " + c.richTextToMarkdown(b.NumberedListItem.RichText) + "\n" + c.childrenToMarkdown(b.NumberedListItem.Children, depth+1)

	case *notionapi.ToDoBlock:
		checkbox := "[ ]"
		if b.ToDo.Checked {
			checkbox = "[x]"
		}
		return indent + "- " + checkbox + " " + c.richTextToMarkdown(b.ToDo.RichText) + "\n" + c.childrenToMarkdown(b.ToDo.Children, depth+1)

	case *notionapi.QuoteBlock:
		text := c.richTextToMarkdown(b.Quote.RichText)
		var result strings.Builder
		for _, line := range strings.Split(text, "\n") {
			result.WriteString(indent + "> " + line + "\n")
		}
		result.WriteString("\n")
		result.WriteString(c.childrenToMarkdown(b.Quote.Children, depth))
		return result.String()

	case *notionapi.CodeBlock:
		lang := string(b.Code.Language)
		if lang == "plain text" {
			lang = ""
		}
		return fmt.Sprintf("%s```%s\n%s\n```\n\n", indent, lang, c.richTextToPlainText(b.Code.RichText))

	case *notionapi.DividerBlock:
		return indent + "---\n\n"

	case *notionapi.EquationBlock:
		return fmt.Sprintf("%s$$\n%s\n$$\n\n", indent, b.Equation.Expression)

	case *notionapi.ImageBlock:
		url := ""
		if b.Image.File != nil {
			url = b.Image.File.URL
		} else if b.Image.External != nil {
			url = b.Image.External.URL
		}
		caption := c.richTextToMarkdown(b.Image.Caption)
		return fmt.Sprintf("%s![%s](%s)\n\n", indent, caption, url)

	case *notionapi.TableBlock:
		return c.tableToMarkdown(b, depth)

	case *notionapi.TableRowBlock:
		return ""

	default:
		return ""
	}
}

// childrenToMarkdown renders a block's nested subtree (as fetched by
// notionclient.GetBlockTree) at depth, the pull-side counterpart to push's
// nestedListChildren/blockChildren.
func (c *Converter) childrenToMarkdown(children []notionapi.Block, depth int) string {
	var buf strings.Builder
	for _, child := range children {
		buf.WriteString(c.blockToMarkdown(child, depth))
	}
	return buf.String()
}

func (c *Converter) tableToMarkdown(table *notionapi.TableBlock, depth int) string {
	indent := strings.Repeat("  ", depth)
	var result strings.Builder
	if len(table.Table.Children) == 0 {
		return ""
	}
	for i, child := range table.Table.Children {
		row, ok := child.(*notionapi.TableRowBlock)
		if !ok {
			continue
		}
		result.WriteString(indent + "|")
		for _, cell := range row.TableRow.Cells {
			content := strings.ReplaceAll(c.richTextToMarkdown(cell), "|", "\\|")
			result.WriteString(" " + content + " |")
		}
		result.WriteString("\n")
		if i == 0 && table.Table.HasColumnHeader {
			result.WriteString(indent + "|")
			for range row.TableRow.Cells {
				result.WriteString(" --- |")
			}
			result.WriteString("\n")
		}
	}
	result.WriteString("\n")
	return result.String()
}

func (c *Converter) richTextToPlainText(rt []notionapi.RichText) string {
	var b strings.Builder
	for _, r := range rt {
		b.WriteString(r.PlainText)
		if r.Text != nil && r.PlainText == "" {
			b.WriteString(r.Text.Content)
		}
	}
	return b.String()
}

func (c *Converter) richTextToMarkdown(rt []notionapi.RichText) string {
	var result strings.Builder
	for _, r := range rt {
		text := r.PlainText
		if text == "" && r.Text != nil {
			text = r.Text.Content
		}

		if r.Type == "equation" && r.Equation != nil {
			result.WriteString("$" + r.Equation.Expression + "$")
			continue
		}

		if r.Type == "mention" && r.Mention != nil && r.Mention.Type == "page" && r.Mention.Page != nil {
			pageID := string(r.Mention.Page.ID)
			if c.pathLookup() != nil {
				if path, found := c.pathLookup().LookupPath(pageID); found {
					result.WriteString("[" + text + "](" + path + ")")
					continue
				}
			}
			result.WriteString(text)
			continue
		}

		if r.Annotations != nil {
			if r.Annotations.Code {
				text = "`" + text + "`"
			}
			if r.Annotations.Strikethrough {
				text = "~~" + text + "~~"
			}
			if r.Annotations.Italic {
				text = "*" + text + "*"
			}
			if r.Annotations.Bold {
				text = "**" + text + "**"
			}
		}

		if r.Text != nil && r.Text.Link != nil {
			text = "[" + text + "](" + r.Text.Link.Url + ")"
		}

		result.WriteString(text)
	}
	return result.String()
}

// pathLookup lazily exposes the converter's PathLookup, set via
// SetPathLookup, kept separate from the constructor because the pull
// direction's resolver is only known once the Index Store is loaded.
func (c *Converter) pathLookup() PathLookup {
	return c.lookup
}

// SetPathLookup wires the PathLookup used when rendering mentions back to
// relative-path links on pull.
func (c *Converter) SetPathLookup(lookup PathLookup) {
	c.lookup = lookup
}
