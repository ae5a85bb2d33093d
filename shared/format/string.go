package format

// Preview shortens s to at most length runes, marking the cut with "...".
func Preview(s string, length int) string {
	r := []rune(s)
	if length <= 0 || len(r) <= length {
		return s
	}
	return string(r[:length]) + "..."
}
