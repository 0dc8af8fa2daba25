package reader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	EncodingUTF8 = "utf-8"
	EncodingAuto = "auto"

	// How much of the input is sniffed when the encoding is auto-detected.
	detectPeekSize = 4096
)

// Decoders for everything but plain UTF-8, which passes through as is.
var encodings = map[string]encoding.Encoding{
	"utf-8-sig":    unicode.UTF8BOM,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"windows-1251": charmap.Windows1251,
	"cp1251":       charmap.Windows1251,
}

// NormalizeEncoding lowercases name and folds the UTF-8 spellings into
// EncodingUTF8. "utf-8-sig" stays distinct: it drops a leading byte order
// mark. It returns an error for encodings NewDecoder can't handle.
func NormalizeEncoding(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "utf8", "utf-8":
		return EncodingUTF8, nil
	case EncodingAuto:
		return EncodingAuto, nil
	}
	if _, ok := encodings[name]; ok {
		return name, nil
	}
	return "", fmt.Errorf("unsupported encoding %q", name)
}

// NewDecoder wraps r so that it yields UTF-8. With EncodingAuto the charset is
// detected from the start of the input. The returned name is the encoding that
// was actually applied.
func NewDecoder(r io.Reader, name string) (io.Reader, string, error) {
	name, err := NormalizeEncoding(name)
	if err != nil {
		return nil, "", err
	}

	br := bufio.NewReaderSize(r, detectPeekSize)
	if name == EncodingAuto {
		name = detect(br)
	}

	enc, ok := encodings[name]
	if !ok {
		return br, EncodingUTF8, nil
	}
	return transform.NewReader(br, enc.NewDecoder()), name, nil
}

func detect(br *bufio.Reader) string {
	// Peek returns what it could alongside io.EOF on short inputs.
	peek, _ := br.Peek(detectPeekSize)
	if len(peek) == 0 {
		return EncodingUTF8
	}

	res, err := chardet.NewTextDetector().DetectBest(peek)
	if err != nil || res == nil {
		return EncodingUTF8
	}

	detected := strings.ToLower(res.Charset)
	if _, ok := encodings[detected]; ok {
		return detected
	}
	return EncodingUTF8
}

// File is an opened input decoded to UTF-8.
type File struct {
	io.Reader
	f *os.File

	// Encoding is the encoding the input was decoded from.
	Encoding string
}

// Open opens path for reading, decoding it from the named charset.
func Open(path, charset string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r, name, err := NewDecoder(f, charset)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &File{Reader: r, f: f, Encoding: name}, nil
}

func (f *File) Name() string {
	return f.f.Name()
}

func (f *File) Close() error {
	return f.f.Close()
}
