package app

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// ErrNoDocument is returned when the input snapshot cannot be read or is
// empty.
var ErrNoDocument = errors.New("no document")

// minDetectConfidence is the chardet confidence below which the browser
// default wins.
const minDetectConfidence = 50

// readDocument loads a snapshot and decodes it to UTF-8. Valid UTF-8 input
// is returned byte for byte. Anything else is decoded using a BOM or a
// <meta> declaration within the first 1024 bytes. Undeclared documents are
// guessed statistically, falling back to windows-1252 like a browser would.
func readDocument(path string) (string, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrNoDocument, err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return "", "", fmt.Errorf("%w: %s is empty", ErrNoDocument, path)
	}
	if utf8.Valid(b) {
		return string(b), "utf-8", nil
	}
	enc, name, certain := charset.DetermineEncoding(b, "text/html")
	if !certain && !declaresCharset(b) {
		if e, n, ok := detectEncoding(b); ok {
			enc, name = e, n
		}
	}
	doc, _, err := transform.String(enc.NewDecoder(), string(b))
	if err != nil {
		return "", name, fmt.Errorf("decode %s as %s: %w", path, name, err)
	}
	return doc, name, nil
}

// declaresCharset reports whether the prescan window mentions a charset.
func declaresCharset(b []byte) bool {
	if len(b) > 1024 {
		b = b[:1024]
	}
	return bytes.Contains(bytes.ToLower(b), []byte("charset"))
}

func detectEncoding(b []byte) (encoding.Encoding, string, bool) {
	res, err := chardet.NewHtmlDetector().DetectBest(b)
	if err != nil || res == nil || res.Confidence < minDetectConfidence {
		return nil, "", false
	}
	enc, err := htmlindex.Get(res.Charset)
	if err != nil {
		return nil, "", false
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return nil, "", false
	}
	return enc, name, true
}

// writeDocument writes a rendered document next to the others.
func writeDocument(path, doc string) error {
	return os.WriteFile(path, []byte(doc), 0o644)
}
