package domain

import (
	"strings"
	"unicode"
)

// FallbackDocName is used when a URL yields no usable characters.
const FallbackDocName = "document"

const pdfExtension = ".pdf"

// DeriveDocName derives the document identifier from a source URL.
// The last path segment is stripped of its query string and .pdf extension,
// then filtered down to letters, digits, '-', '_' and '.'.
// The same URL always yields the same name.
func DeriveDocName(pdfURL string) string {
	name := pdfURL
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "?"); i >= 0 {
		name = name[:i]
	}
	if strings.HasSuffix(strings.ToLower(name), pdfExtension) {
		name = name[:len(name)-len(pdfExtension)]
	}
	return SanitizeDocName(name)
}

// SanitizeDocName filters a caller-supplied name to the doc name charset.
// Returns FallbackDocName if nothing survives.
func SanitizeDocName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isDocNameRune(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return FallbackDocName
	}
	return b.String()
}

// IsValidDocName reports whether name is non-empty and contains only
// doc name characters.
func IsValidDocName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !isDocNameRune(r) {
			return false
		}
	}
	return true
}

func isDocNameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.'
}
