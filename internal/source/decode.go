package source

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Decode turns raw document bytes into parser-ready text. A UTF-8 or UTF-16
// byte order mark selects the encoding (UTF-8 otherwise) and is stripped.
// The result is NFC-normalized and uses "\n" line endings.
func Decode(raw []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	t := transform.Chain(dec, norm.NFC)

	out, _, err := transform.Bytes(t, raw)
	if err != nil {
		return "", fmt.Errorf("decode document: %w", err)
	}

	s := string(out)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n"), nil
}
