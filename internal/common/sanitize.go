// File: internal/common/sanitize.go
package common

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all markup from user-supplied free text and trims it.
// Entities escaped by the policy are decoded so plain text such as "Tom & Jerry"
// round-trips unchanged; markup smuggled in as entities is stripped on a second pass.
func SanitizeText(s string) string {
	out := html.UnescapeString(strictPolicy.Sanitize(s))
	if strings.ContainsAny(out, "<>") {
		out = html.UnescapeString(strictPolicy.Sanitize(out))
	}
	return strings.TrimSpace(out)
}

// SanitizeOptional applies SanitizeText to an optional field, mapping blank results to nil.
func SanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := SanitizeText(*s)
	if clean == "" {
		return nil
	}
	return &clean
}
