package source

import "unicode/utf8"

// EOT is the sentinel code point Head returns once the reader has consumed
// all of a file's content.
const EOT = rune(0x04)

// Reader walks a File's NFC-normalized content one Unicode code point at a
// time while tracking a byte offset for diagnostics, plus a small
// collect/pop buffer the tokenizer uses to accumulate the text of a lexeme.
//
// File.Content is already NFC-normalized by FileSet.Add (CRLF is folded only
// for files read through FileSet.Load), so Reader only has to decode UTF-8
// and recognize line endings.
type Reader struct {
	file        *File
	off         uint32
	collectFrom uint32
	collecting  bool
}

// NewReader creates a Reader positioned at the start of f.
func NewReader(f *File) *Reader {
	return &Reader{file: f}
}

// Has reports whether there is at least one more code point to read.
func (r *Reader) Has() bool {
	return r.off < uint32(len(r.file.Content))
}

// Head returns the code point at the current position without consuming it,
// or EOT if the reader is at the end of the file.
func (r *Reader) Head() rune {
	if !r.Has() {
		return EOT
	}
	ru, _ := utf8.DecodeRune(r.file.Content[r.off:])
	return ru
}

// Advance consumes and returns the current code point, or EOT at end of
// file (advancing past EOF is a no-op).
func (r *Reader) Advance() rune {
	if !r.Has() {
		return EOT
	}
	ru, size := utf8.DecodeRune(r.file.Content[r.off:])
	r.off += uint32(size)
	return ru
}

// Count returns the current byte offset into the file's content.
func (r *Reader) Count() uint32 {
	return r.off
}

// Seek repositions the reader at a byte offset previously returned by
// Count. Used by the lexer's cursor-snapshot backtracking.
func (r *Reader) Seek(off uint32) {
	r.off = off
}

// Collect begins accumulating a lexeme starting at the current position.
func (r *Reader) Collect() {
	r.collectFrom = r.off
	r.collecting = true
}

// Pop returns the bytes accumulated since the last Collect and stops
// collecting. It panics if Collect was not called first, mirroring the
// internal-assertion policy (invariant violations crash the process).
func (r *Reader) Pop() string {
	if !r.collecting {
		panic("source: Pop called without a matching Collect")
	}
	r.collecting = false
	return string(r.file.Content[r.collectFrom:r.off])
}

// AtNewline reports whether the reader is positioned at the start of a
// newline sequence (LF, CR, or CRLF) and returns its byte length.
func (r *Reader) AtNewline() (isNewline bool, width uint32) {
	if !r.Has() {
		return false, 0
	}
	b := r.file.Content[r.off]
	switch b {
	case '\n':
		return true, 1
	case '\r':
		if r.off+1 < uint32(len(r.file.Content)) && r.file.Content[r.off+1] == '\n' {
			return true, 2
		}
		return true, 1
	default:
		return false, 0
	}
}
