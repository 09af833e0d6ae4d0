package fiskal

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// CharsetReader decodifica respuestas XML declaradas en ISO-8859-1/2 o windows-1250
// (se usa como xml.Decoder.CharsetReader y etree.ReadSettings.CharsetReader).
func CharsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.ReplaceAll(charset, "_", "-")) {
	case "", "utf-8", "utf8", "us-ascii":
		return input, nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "iso-8859-2", "iso8859-2", "latin2":
		return transform.NewReader(input, charmap.ISO8859_2.NewDecoder()), nil
	case "windows-1250", "cp1250":
		return transform.NewReader(input, charmap.Windows1250.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("fiskal: charset no soportado %q", charset)
	}
}
