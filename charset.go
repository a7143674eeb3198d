package sheetsql

import (
	"bufio"
	"bytes"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Byte-order marks recognized in delimited input. Spreadsheet tools
// regularly export CSV as UTF-8 with a BOM or as UTF-16.
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeCharset wraps r so the delimited parsers always see UTF-8
// without a byte-order mark. UTF-16 input is detected by its BOM and
// transcoded; everything else passes through unchanged.
func decodeCharset(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, _ := br.Peek(3)

	switch {
	case bytes.HasPrefix(head, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br
	case bytes.HasPrefix(head, bomUTF16LE):
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, decoder)
	case bytes.HasPrefix(head, bomUTF16BE):
		decoder := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, decoder)
	default:
		return br
	}
}
