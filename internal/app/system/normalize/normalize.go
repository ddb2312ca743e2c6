// internal/app/system/normalize/normalize.go
//
// Package normalize trims and canonicalizes user-supplied values before
// they are stored or used in queries.
package normalize

import "strings"

// Email trims and lower-cases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses runs of whitespace. Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Username trims surrounding whitespace. Case is preserved for display;
// lookups use the folded username_ci field.
func Username(s string) string {
	return strings.TrimSpace(s)
}

// Role trims and lower-cases a role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a free-text query value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Filter trims and lower-cases a select-box filter value; "all" means no
// filter and becomes "".
func Filter(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "all" {
		return ""
	}
	return s
}
