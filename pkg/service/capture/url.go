package capture

import "regexp"

// Pattern extraction over OCR text is the fallback URL source when the
// structured inspection path returns nothing. Patterns are tried in order
// of confidence; within a pattern the longest match wins because OCR
// tends to fragment URLs and the longest fragment is the most complete.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`),
	regexp.MustCompile(`www\.[^\s<>"{}|\\^` + "`" + `\[\]]+`),
	regexp.MustCompile(`[a-zA-Z0-9][a-zA-Z0-9-]*\.[a-zA-Z]{2,}[^\s<>"{}|\\^` + "`" + `\[\]]*`),
}

// ExtractURL returns the best URL-looking substring of the OCR text, or
// empty when nothing matches
func ExtractURL(ocrText string) string {
	if ocrText == "" {
		return ""
	}
	for _, pattern := range urlPatterns {
		matches := pattern.FindAllString(ocrText, -1)
		if len(matches) == 0 {
			continue
		}
		best := matches[0]
		for _, m := range matches[1:] {
			if len(m) > len(best) {
				best = m
			}
		}
		return best
	}
	return ""
}
