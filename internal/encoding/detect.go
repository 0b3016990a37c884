// Package encoding decodes supplier text and HTML exports to UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const peekSize = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Names reported by Detect.
const (
	UTF8        = "utf-8"
	UTF16LE     = "utf-16le"
	UTF16BE     = "utf-16be"
	Windows1252 = "windows-1252"
)

// detected maps chardet results to decoders. Windows-1252 stands in for
// Latin-1 since exports labelled ISO-8859-1 routinely use its extra glyphs.
var detected = map[string]struct {
	name string
	enc  encoding.Encoding
}{
	"ISO-8859-1": {Windows1252, charmap.Windows1252},
	"ISO-8859-2": {"iso-8859-2", charmap.ISO8859_2},
	"ISO-8859-9": {"iso-8859-9", charmap.ISO8859_9},
	"UTF-16LE":   {UTF16LE, unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	"UTF-16BE":   {UTF16BE, unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
}

// NewUTF8Reader returns a reader that decodes r to UTF-8.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	rd, _, err := Detect(r)
	return rd, err
}

// Detect works out the encoding of r and returns a UTF-8 reader over it
// together with the name of the encoding it decoded.
//
// Detection order:
//  1. BOM (UTF-8 BOM is stripped; UTF-16 LE/BE is decoded)
//  2. a charset declared by an HTML document
//  3. valid UTF-8 is returned as-is
//  4. chardet heuristics
//  5. Windows-1252
func Detect(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, peekSize)

	buf, err := br.Peek(peekSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, UTF8, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return decode(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)), UTF16LE, nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return decode(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM)), UTF16BE, nil
	}

	if looksLikeHTML(buf) {
		if enc, name, certain := charset.DetermineEncoding(buf, "text/html"); certain {
			return decode(br, enc), name, nil
		}
	}

	if utf8.Valid(buf) {
		return br, UTF8, nil
	}

	if result, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		if result.Charset == "UTF-8" {
			return br, UTF8, nil
		}

		if d, ok := detected[result.Charset]; ok {
			return decode(br, d.enc), d.name, nil
		}
	}

	return decode(br, charmap.Windows1252), Windows1252, nil
}

func decode(r io.Reader, enc encoding.Encoding) io.Reader {
	return transform.NewReader(r, enc.NewDecoder())
}

func looksLikeHTML(buf []byte) bool {
	head := bytes.ToLower(buf[:min(len(buf), 1024)])
	return bytes.Contains(head, []byte("<html")) || bytes.Contains(head, []byte("<meta"))
}
