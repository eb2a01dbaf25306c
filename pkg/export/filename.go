package export

import (
	"regexp"
	"strings"

	"github.com/matzehuels/dancespec/pkg/texts"
)

var unsafeFilename = regexp.MustCompile(`[\\/:*?"<>|\n\r]`)

// Sanitize replaces characters that are invalid in file names with "_" and
// trims surrounding whitespace.
func Sanitize(s string) string {
	return strings.TrimSpace(unsafeFilename.ReplaceAllString(s, "_"))
}

// FileBaseName joins the sanitized project and schedule with the document
// suffix, dropping empty parts: "Tokyo_Day 1_2_ダンスファイル指示書".
func FileBaseName(project, schedule string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{Sanitize(project), Sanitize(schedule), texts.DocumentSuffix} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "_")
}
