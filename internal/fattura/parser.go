// Package fattura parses Italian FatturaPA electronic-invoice XML and
// resolves the dot-paths used by extraction templates.
package fattura

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// Default document-root paths for supplier detection. Used when a template
// does not override them.
const (
	DefaultVATNumberPath = "FatturaElettronicaHeader.CedentePrestatore.DatiAnagrafici.IdFiscaleIVA.IdCodice"
)

// Document wraps a parsed FatturaPA XML tree.
type Document struct {
	doc *etree.Document
}

// Parse reads raw invoice bytes into a document tree. A structural XML
// failure here is the only fatal error class in the extraction pipeline.
func Parse(raw []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("malformed XML: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("malformed XML: no root element")
	}
	return &Document{doc: doc}, nil
}

// ParseReader reads an invoice document from a stream.
func ParseReader(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice: %w", err)
	}
	return Parse(raw)
}

// Root returns the document root element.
func (d *Document) Root() *etree.Element {
	return d.doc.Root()
}

// Resolve locates all elements under the document root matching a dot-path.
// A leading segment naming the root element itself is accepted and skipped,
// so templates may write paths with or without the FatturaElettronica root.
func (d *Document) Resolve(path string) []*etree.Element {
	root := d.doc.Root()
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil
	}
	if segments[0] == root.Tag {
		segments = segments[1:]
		if len(segments) == 0 {
			return []*etree.Element{root}
		}
	}
	return resolve(root, segments)
}

// Text returns the trimmed text at the first element matching a dot-path
// under the document root, with ok=false when the path resolves to nothing.
func (d *Document) Text(path string) (string, bool) {
	elements := d.Resolve(path)
	if len(elements) == 0 {
		return "", false
	}
	return strings.TrimSpace(elements[0].Text()), true
}

// SupplierVAT reads the issuing supplier's VAT number, using the default
// FatturaPA header path when none is configured.
func (d *Document) SupplierVAT(path string) string {
	if path == "" {
		path = DefaultVATNumberPath
	}
	vat, _ := d.Text(path)
	return vat
}

// ResolveFrom locates all elements matching a dot-path relative to a
// context element. Matching is by local name, so namespace prefixes in the
// document never have to appear in templates.
func ResolveFrom(context *etree.Element, path string) []*etree.Element {
	return resolve(context, splitPath(path))
}

// TextFrom returns the trimmed text at the first match of a dot-path
// relative to a context element.
func TextFrom(context *etree.Element, path string) (string, bool) {
	elements := resolve(context, splitPath(path))
	if len(elements) == 0 {
		return "", false
	}
	return strings.TrimSpace(elements[0].Text()), true
}

// InnerXML serializes an element subtree for debugging and review.
func InnerXML(el *etree.Element) string {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func splitPath(path string) []string {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	raw := strings.Split(path, ".")
	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

func resolve(context *etree.Element, segments []string) []*etree.Element {
	if context == nil || len(segments) == 0 {
		return nil
	}
	current := []*etree.Element{context}
	for _, segment := range segments {
		var next []*etree.Element
		for _, el := range current {
			for _, child := range el.ChildElements() {
				if child.Tag == segment {
					next = append(next, child)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}
