package nml

import "github.com/beevik/etree"

// NewElement creates an element with the given attributes in order.
// Attributes are given as name/value pairs.
func NewElement(tag string, pairs ...string) *etree.Element {
	e := etree.NewElement(tag)
	for i := 0; i+1 < len(pairs); i += 2 {
		e.CreateAttr(pairs[i], pairs[i+1])
	}
	return e
}

// Attr returns the value of the named attribute. A nil element has no
// attributes.
func Attr(e *etree.Element, name string) (string, bool) {
	if e == nil {
		return "", false
	}
	if a := e.SelectAttr(name); a != nil {
		return a.Value, true
	}
	return "", false
}

// AttrOr returns the value of the named attribute, or def when it is missing.
func AttrOr(e *etree.Element, name, def string) string {
	if v, ok := Attr(e, name); ok {
		return v
	}
	return def
}

// Child returns the first child element with the given tag, or nil.
func Child(e *etree.Element, tag string) *etree.Element {
	if e == nil {
		return nil
	}
	return e.SelectElement(tag)
}

// Children returns all child elements with the given tag, in document order.
func Children(e *etree.Element, tag string) []*etree.Element {
	if e == nil {
		return nil
	}
	return e.SelectElements(tag)
}

// AppendChild adds child after the last child element of parent, indented
// like that element. Whitespace before the closing tag of parent stays
// where it is.
func AppendChild(parent, child *etree.Element) {
	last := -1
	for i, t := range parent.Child {
		if _, ok := t.(*etree.Element); ok {
			last = i
		}
	}
	if last < 0 {
		parent.InsertChildAt(0, child)
		return
	}

	at := last + 1
	parent.InsertChildAt(at, child)
	if last > 0 {
		if ws, ok := parent.Child[last-1].(*etree.CharData); ok && ws.IsWhitespace() {
			parent.InsertChildAt(at, etree.NewCharData(ws.Data))
		}
	}
}

// RemoveChild detaches child from parent together with the whitespace
// before it. It reports whether child was found.
func RemoveChild(parent, child *etree.Element) bool {
	if child.Parent() != parent {
		return false
	}
	i := child.Index()
	if i < 0 {
		return false
	}
	parent.RemoveChildAt(i)
	if i > 0 {
		if ws, ok := parent.Child[i-1].(*etree.CharData); ok && ws.IsWhitespace() {
			parent.RemoveChildAt(i - 1)
		}
	}
	return true
}
