package shared

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanText trims s and puts it in Unicode NFC form so visually identical
// names compare and index the same way.
func CleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
