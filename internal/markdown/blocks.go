package markdown

import "strings"

// BlockKind identifies a block-level element.
type BlockKind string

const (
	BlockParagraph BlockKind = "paragraph"
	BlockHeading   BlockKind = "heading"
	BlockCode      BlockKind = "code"
	BlockList      BlockKind = "list"
)

// Block is one block-level element. Code blocks keep their lines verbatim;
// list blocks hold one item per line with the marker removed.
type Block struct {
	Kind  BlockKind
	Level int
	Lang  string
	Lines []string
}

// ParseBlocks splits text into fenced code blocks, headings, list runs and
// paragraphs. An unterminated fence runs to the end of the text.
func ParseBlocks(text string) []Block {
	var blocks []Block
	var para []string
	var list []string
	flushPara := func() {
		if len(para) > 0 {
			blocks = append(blocks, Block{Kind: BlockParagraph, Lines: para})
			para = nil
		}
	}
	flushList := func() {
		if len(list) > 0 {
			blocks = append(blocks, Block{Kind: BlockList, Lines: list})
			list = nil
		}
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "```"):
			flushPara()
			flushList()
			code := Block{Kind: BlockCode, Lang: strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))}
			for i++; i < len(lines); i++ {
				if strings.TrimSpace(lines[i]) == "```" {
					break
				}
				code.Lines = append(code.Lines, lines[i])
			}
			blocks = append(blocks, code)
		case trimmed == "":
			flushPara()
			flushList()
		case strings.HasPrefix(trimmed, "#"):
			level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			title := strings.TrimSpace(trimmed[level:])
			if level > 6 || (title != "" && trimmed[level] != ' ') {
				para = append(para, trimmed)
				continue
			}
			flushPara()
			flushList()
			blocks = append(blocks, Block{Kind: BlockHeading, Level: level, Lines: []string{title}})
		case listItem(trimmed) != "":
			flushPara()
			list = append(list, listItem(trimmed))
		default:
			flushList()
			para = append(para, trimmed)
		}
	}
	flushPara()
	flushList()
	return blocks
}

func listItem(line string) string {
	for _, marker := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):])
		}
	}
	digits := 0
	for digits < len(line) && line[digits] >= '0' && line[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits+1 < len(line) && line[digits] == '.' && line[digits+1] == ' ' {
		return line
	}
	return ""
}
