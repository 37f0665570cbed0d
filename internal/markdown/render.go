package markdown

import "strings"

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiItalic = "\x1b[3m"
	ansiCode   = "\x1b[36m"
	ansiDim    = "\x1b[2m"
)

// Render formats markdown text for a terminal. With color disabled the
// markers are removed and structure is kept with plain text decorations.
func Render(text string, color bool) string {
	var out []string
	for _, block := range ParseBlocks(text) {
		if len(out) > 0 {
			out = append(out, "")
		}
		switch block.Kind {
		case BlockCode:
			label := block.Lang
			if label == "" {
				label = "text"
			}
			out = append(out, style("--- "+label+" ---", ansiDim, color))
			for _, line := range block.Lines {
				out = append(out, "  "+line)
			}
			out = append(out, style("---", ansiDim, color))
		case BlockHeading:
			title := renderInline(block.Lines[0], color)
			if color {
				out = append(out, ansiBold+title+ansiReset)
			} else {
				out = append(out, strings.ToUpper(title))
			}
		case BlockList:
			for _, item := range block.Lines {
				if listItem(item) == item {
					out = append(out, "  "+renderInline(item, color))
					continue
				}
				out = append(out, "  • "+renderInline(item, color))
			}
		default:
			out = append(out, renderInline(strings.Join(block.Lines, " "), color))
		}
	}
	return strings.Join(out, "\n")
}

func renderInline(line string, color bool) string {
	spans := ParseInline(line)
	if !color {
		return Plain(spans)
	}
	var b strings.Builder
	for _, span := range spans {
		var codes string
		if span.Bold {
			codes += ansiBold
		}
		if span.Italic {
			codes += ansiItalic
		}
		if span.Code {
			codes += ansiCode
		}
		if codes == "" {
			b.WriteString(span.Text)
			continue
		}
		b.WriteString(codes + span.Text + ansiReset)
	}
	return b.String()
}

func style(text, code string, color bool) string {
	if !color {
		return text
	}
	return code + text + ansiReset
}
