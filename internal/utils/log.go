package utils

import "strings"

// BodyPreview flattens a reply body onto one line and cuts it to limit runes,
// so HTML and pretty printed JSON stay readable in console logs.
func BodyPreview(body string, limit int) string {
	if limit <= 0 {
		return ""
	}

	flat := strings.Join(strings.Fields(body), " ")
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat
	}
	return string(runes[:limit]) + "..."
}

// MaskToken keeps the first and last four characters of a credential so it
// can be told apart in logs without being disclosed.
func MaskToken(token string) string {
	token = strings.TrimSpace(token)
	if len(token) <= 12 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + "..." + token[len(token)-4:]
}
