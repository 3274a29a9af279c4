package knowledge

import (
	"strings"
	"unicode"
)

const outlineLimit = 30

// Curriculum documents from different regions use different heading
// vocabulary; both German and English markers are recognized.
var outlineKeywords = []string{
	"kompetenz", "competenc", "lernbereich", "lernziel", "unit",
	"thema", "topic", "inhalt", "goal", "ziel", "modul", "kapitel",
}

// topicOutline derives a lightweight table of contents heuristically,
// without a model call: numbered lines, short all-caps lines, and short
// heading-like lines containing a curriculum keyword.
func topicOutline(text string) []string {
	var outline []string

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if isNumberedHeading(line) || isAllCapsHeading(line) || isKeywordHeading(line) {
			outline = append(outline, line)
			if len(outline) >= outlineLimit {
				break
			}
		}
	}

	return outline
}

// isNumberedHeading matches lines like "1. Photosynthese" or "2.3 Optik"
func isNumberedHeading(line string) bool {
	if len(line) > 120 {
		return false
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) {
		return false
	}
	return line[i] == '.' || line[i] == ')'
}

// isAllCapsHeading matches short lines written entirely in capitals
func isAllCapsHeading(line string) bool {
	if len(line) > 80 {
		return false
	}
	hasLetter := false
	for _, r := range line {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// isKeywordHeading matches short lines containing curriculum vocabulary
func isKeywordHeading(line string) bool {
	if len(line) > 60 {
		return false
	}
	lower := strings.ToLower(line)
	for _, kw := range outlineKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
