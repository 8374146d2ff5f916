// internal/dashboard/report.go
package dashboard

import (
	"regexp"
	"strings"
)

// Report line kinds
const (
	LineH1       = "h1"
	LineH2       = "h2"
	LineH3       = "h3"
	LineBullet   = "bullet"
	LineSubItem  = "subitem"
	LineNumbered = "numbered"
	LineBreak    = "break"
	LineText     = "text"
)

var numberedRe = regexp.MustCompile(`^\d+\.`)

// ReportLine is one formatted line of the narrative report
type ReportLine struct {
	Kind string
	Text string
}

// FormatReport turns the markdown-like report into typed lines. Only a
// handful of line prefixes are recognised; everything else is a paragraph.
func FormatReport(markdown string) []ReportLine {
	lines := strings.Split(markdown, "\n")
	out := make([]ReportLine, 0, len(lines))

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "# "):
			out = append(out, ReportLine{LineH1, strings.TrimPrefix(line, "# ")})
		case strings.HasPrefix(line, "## "):
			out = append(out, ReportLine{LineH2, strings.TrimPrefix(line, "## ")})
		case strings.HasPrefix(line, "### "):
			out = append(out, ReportLine{LineH3, strings.TrimPrefix(line, "### ")})
		case strings.HasPrefix(line, "- "):
			out = append(out, ReportLine{LineBullet, strings.TrimPrefix(line, "- ")})
		case strings.HasPrefix(line, "  - "):
			out = append(out, ReportLine{LineSubItem, strings.TrimPrefix(line, "  - ")})
		case numberedRe.MatchString(line):
			out = append(out, ReportLine{LineNumbered, line})
		case strings.TrimSpace(line) == "":
			out = append(out, ReportLine{Kind: LineBreak})
		default:
			out = append(out, ReportLine{LineText, line})
		}
	}
	return out
}
