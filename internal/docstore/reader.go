package docstore

// reader.go cleans response bodies as they are read. Hand-exported files
// routinely arrive with a Windows UTF-8 BOM and the occasional stray
// Latin-1 byte; both are repaired here so every consumer sees plain valid
// UTF-8 without buffering the body twice.

import (
	"io"
	"unicode/utf8"
)

// newBodyReader wraps r so the bytes coming out are BOM-free and valid
// UTF-8. Invalid sequences are replaced byte-for-byte with '?' so the
// output is never longer than the input.
func newBodyReader(r io.Reader) io.Reader {
	return &utf8Reader{r: &bomReader{r: r}}
}

// bomReader strips a leading UTF-8 byte order mark (0xEF 0xBB 0xBF). Any
// other first bytes pass through untouched, including a partial BOM.
type bomReader struct {
	r       io.Reader
	checked bool
	eof     bool
	head    [3]byte
	rest    []byte
}

func (b *bomReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		n, err := io.ReadFull(b.r, b.head[:])
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		b.eof = err == io.EOF

		rest := b.head[:n]
		if n == 3 && rest[0] == 0xEF && rest[1] == 0xBB && rest[2] == 0xBF {
			rest = nil
		}
		b.rest = rest
	}

	if len(b.rest) > 0 {
		n := copy(p, b.rest)
		b.rest = b.rest[n:]
		return n, nil
	}
	if b.eof {
		return 0, io.EOF
	}
	return b.r.Read(p)
}

// utf8Reader replaces invalid UTF-8 sequences with '?' on the fly. Up to
// three bytes of a rune split across Read calls are carried to the next
// chunk so multi-byte characters never get mangled at chunk boundaries.
type utf8Reader struct {
	r      io.Reader
	buf    [4096]byte
	out    []byte
	carry  [utf8.UTFMax]byte
	ncarry int
	err    error
}

func (s *utf8Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// fill reads one chunk, prepends any carried rune prefix, holds back a new
// incomplete tail unless the source is exhausted, and sanitizes the rest
// in place.
func (s *utf8Reader) fill() {
	nc := copy(s.buf[:], s.carry[:s.ncarry])
	s.ncarry = 0

	n, err := s.r.Read(s.buf[nc:])
	data := s.buf[:nc+n]

	if err == nil {
		if tail := incompleteTail(data); tail > 0 {
			s.ncarry = copy(s.carry[:], data[len(data)-tail:])
			data = data[:len(data)-tail]
		}
	} else {
		// At EOF any dangling prefix is genuinely invalid; sanitize will
		// turn its bytes into '?'.
		s.err = err
	}

	s.out = sanitizeChunk(data)
}

// sanitizeChunk rewrites data in place, replacing each invalid byte with
// '?'. Valid input is returned unchanged.
func sanitizeChunk(data []byte) []byte {
	if asciiOnly(data) || utf8.Valid(data) {
		return data
	}
	w := 0
	for r := 0; r < len(data); {
		ru, size := utf8.DecodeRune(data[r:])
		if ru == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			r++
			continue
		}
		copy(data[w:], data[r:r+size])
		w += size
		r += size
	}
	return data[:w]
}

// asciiOnly is the fast path: most exported files are pure ASCII.
func asciiOnly(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// incompleteTail reports how many bytes at the end of data form the start
// of a rune whose remaining bytes have not arrived yet. Zero means the
// data ends on a rune boundary or on bytes that are invalid regardless.
func incompleteTail(data []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(data); i++ {
		b := data[len(data)-i]
		if b&0xC0 == 0x80 {
			// Continuation byte, keep scanning for the start byte.
			continue
		}
		if n := seqLen(b); n > i {
			return i
		}
		return 0
	}
	return 0
}

// seqLen returns the declared length of a UTF-8 sequence starting with b,
// or zero for a bare continuation byte.
func seqLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}
