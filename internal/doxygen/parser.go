package doxygen

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseError describes malformed XML in a Doxygen output file.
type ParseError struct {
	// File is the path of the offending file. Empty when parsing a reader.
	File string

	// Line and Column are 1-based.
	Line   int
	Column int

	// SourceLine is the literal text of the failing line, if it could be read.
	SourceLine string

	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s:%d:%d: %v", e.File, e.Line, e.Column, e.Err)
}

// Unwrap returns the underlying decoder error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Caret returns a marker line pointing at the failing column.
func (e *ParseError) Caret() string {
	if e.Column <= 1 {
		return "^"
	}
	return strings.Repeat("=", e.Column-1) + "^"
}

// Report renders the error with the offending source line and caret.
func (e *ParseError) Report() string {
	return fmt.Sprintf("ParseError in %s\n%v\n%s\n%s", e.File, e.Err, e.SourceLine, e.Caret())
}

// CompoundFunc receives each compound as soon as it has been decoded. The
// compound must not be retained after the call returns if memory matters.
// Returning an error stops parsing and the error is returned unchanged.
type CompoundFunc func(c *Compound) error

// Parse streams compounddef elements from r. It returns the number of
// compounds delivered to fn. Malformed XML yields a *ParseError; compounds
// delivered before it are not rolled back.
func Parse(r io.Reader, fn CompoundFunc) (int, error) {
	d := xml.NewDecoder(r)

	delivered := 0
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return delivered, nil
		}
		if err != nil {
			return delivered, locate(d, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "compounddef" {
			continue
		}

		c := &Compound{}
		if err := d.DecodeElement(c, &start); err != nil {
			return delivered, locate(d, err)
		}

		delivered++
		if err := fn(c); err != nil {
			return delivered, err
		}
	}
}

// ParseFile is Parse over the file at path, which may be gzip compressed.
// A *ParseError returned from here has File and SourceLine filled in.
func ParseFile(path string, fn CompoundFunc) (int, error) {
	rc, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	n, err := Parse(rc, fn)

	var perr *ParseError
	if errors.As(err, &perr) {
		perr.File = path
		perr.SourceLine = readLine(path, perr.Line)
	}
	return n, err
}

// locate wraps a decoder error with the decoder's current position.
func locate(d *xml.Decoder, err error) *ParseError {
	line, col := d.InputPos()

	var serr *xml.SyntaxError
	if errors.As(err, &serr) && serr.Line > 0 && serr.Line != line {
		line = serr.Line
		col = 1
	}

	return &ParseError{Line: line, Column: col, Err: err}
}

// readLine returns line n (1-based) of the file, without its newline.
// Failures yield an empty string; the location is still reported.
func readLine(path string, n int) string {
	rc, err := Open(path)
	if err != nil {
		return ""
	}
	defer rc.Close()

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for i := 1; sc.Scan(); i++ {
		if i == n {
			return sc.Text()
		}
	}
	return ""
}
