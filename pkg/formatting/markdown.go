package formatting

import (
	"regexp"
	"strings"
)

var (
	fenceRegex    = regexp.MustCompile("^\\s*```")
	headingRegex  = regexp.MustCompile(`^\s{0,3}#{1,6}\s+`)
	bulletRegex   = regexp.MustCompile(`^(\s*)[-*+]\s+`)
	emphasisRegex = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	italicRegex   = regexp.MustCompile(`(^|[^*])\*([^*\s][^*]*)\*`)
	codeRegex     = regexp.MustCompile("`([^`]*)`")
	linkRegex     = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	ruleRegex     = regexp.MustCompile(`^\s*([-*_]\s*){3,}$`)
)

// PlainText reduces markdown to readable plain text. Headings, emphasis,
// inline code and links lose their markup; bullets become "• "; fenced
// code keeps its content without the fence lines; horizontal rules are dropped.
func PlainText(md string) string {
	md = strings.ReplaceAll(md, "\r\n", "\n")
	lines := strings.Split(md, "\n")
	out := make([]string, 0, len(lines))

	inFence := false
	for _, line := range lines {
		if fenceRegex.MatchString(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}
		if ruleRegex.MatchString(line) {
			continue
		}

		line = headingRegex.ReplaceAllString(line, "")
		line = bulletRegex.ReplaceAllString(line, "$1• ")
		line = linkRegex.ReplaceAllString(line, "$1")
		line = emphasisRegex.ReplaceAllString(line, "$2")
		line = italicRegex.ReplaceAllString(line, "$1$2")
		line = codeRegex.ReplaceAllString(line, "$1")

		out = append(out, strings.TrimRight(line, " \t"))
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
