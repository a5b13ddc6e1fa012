package nml

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/beevik/etree"
)

// ErrNoRoot is returned when the input contains no root element.
var ErrNoRoot = errors.New("nml: document has no root element")

// Document is a parsed collection file.
//
// The XML declaration, comments and all whitespace between elements are
// kept where they were read.
type Document struct {
	*etree.Document
}

// Parse reads a complete document from r.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("nml: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses a document held in memory.
//
// Empty elements are written back the way most of them were read:
// <CUE_V2 .../> or <CUE_V2 ...></CUE_V2>. Attribute values only escape
// what XML requires (&, < and the double quote).
func ParseBytes(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("nml: %w", err)
	}
	if doc.Root() == nil {
		return nil, ErrNoRoot
	}

	doc.WriteSettings.CanonicalEndTags = explicitEndTags(data)
	doc.WriteSettings.CanonicalAttrVal = true
	doc.WriteSettings.CanonicalText = true

	return &Document{Document: doc}, nil
}

// Encode writes the document to w.
func (d *Document) Encode(w io.Writer) error {
	if d.Root() == nil {
		return ErrNoRoot
	}
	if _, err := d.WriteTo(w); err != nil {
		return fmt.Errorf("nml: encode: %w", err)
	}
	return nil
}

// Bytes returns the encoded document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// explicitEndTags reports whether data mostly closes empty elements with an
// end tag (<X a="1"></X>) rather than self-closing them (<X a="1"/>).
func explicitEndTags(data []byte) bool {
	selfClosing := bytes.Count(data, []byte(`"/>`)) + bytes.Count(data, []byte(`" />`))
	explicit := bytes.Count(data, []byte(`"></`))
	return explicit > selfClosing
}
