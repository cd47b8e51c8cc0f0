package stringutils

import "strings"

// FirstLine returns str up to the first line break.
// Carriage returns of CRLF line endings are removed.
func FirstLine(str string) string {
	line, _, _ := strings.Cut(str, "\n")
	return strings.TrimSuffix(line, "\r")
}
