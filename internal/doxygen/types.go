package doxygen

import (
	"encoding/xml"
	"strings"
)

// Compound kinds and protection levels used by the coverage rules.
const (
	KindClass    = "class"
	KindFunction = "function"
	KindVariable = "variable"
	KindTypedef  = "typedef"
	KindFriend   = "friend"
	KindProperty = "property"

	ProtPublic    = "public"
	ProtProtected = "protected"
	ProtPrivate   = "private"
)

// Compound is one compounddef element.
type Compound struct {
	XMLName xml.Name `xml:"compounddef"`

	// ID is the Doxygen reference id, e.g. "classQgsPoint".
	ID string `xml:"id,attr"`

	// Kind is the compound kind: class, struct, namespace, file, ...
	Kind string `xml:"kind,attr"`

	// Prot is the protection level of the compound.
	Prot string `xml:"prot,attr"`

	// Name is the qualified compound name, e.g. "QgsFoo::Bar".
	Name string `xml:"compoundname"`

	Detailed *Node `xml:"detaileddescription"`

	// Members holds every memberdef of every sectiondef, in document order.
	Members []Member `xml:"sectiondef>memberdef"`
}

// Notes returns the text of the admonition paragraphs in the compound's
// detailed description.
func (c *Compound) Notes() []string {
	return c.Detailed.Notes()
}

// Member is one memberdef element.
type Member struct {
	Kind string `xml:"kind,attr"`
	Prot string `xml:"prot,attr"`
	Name string `xml:"name"`

	TypeNode     *Node       `xml:"type"`
	DefinitionEl *string     `xml:"definition"`
	ArgsEl       *string     `xml:"argsstring"`
	ReimplEls    []Reference `xml:"reimplements"`

	Brief    *Node `xml:"briefdescription"`
	Detailed *Node `xml:"detaileddescription"`
	InBody   *Node `xml:"inbodydescription"`
}

// Reference is a cross reference to another documented entity.
type Reference struct {
	RefID string `xml:"refid,attr"`
	Name  string `xml:",chardata"`
}

// ArgsString returns the parameter signature, e.g. "(int a) const".
func (m *Member) ArgsString() (string, bool) {
	if m.ArgsEl == nil {
		return "", false
	}
	return *m.ArgsEl, true
}

// Definition returns the full declaration, e.g. "QgsFoo::QgsFoo".
func (m *Member) Definition() (string, bool) {
	if m.DefinitionEl == nil {
		return "", false
	}
	return *m.DefinitionEl, true
}

// Type returns the declared type text including any macros it carries.
func (m *Member) Type() (string, bool) {
	if m.TypeNode == nil {
		return "", false
	}
	return m.TypeNode.Text, true
}

// Reimplements returns the name of the first member this one reimplements.
func (m *Member) Reimplements() (string, bool) {
	if len(m.ReimplEls) == 0 {
		return "", false
	}
	return strings.TrimSpace(m.ReimplEls[0].Name), true
}

// Notes returns the text of the admonition paragraphs in the member's
// detailed description.
func (m *Member) Notes() []string {
	return m.Detailed.Notes()
}

// Node is a generic element subtree used for descriptions and type text.
// All methods are safe to call on a nil *Node.
type Node struct {
	// Name is the local element name.
	Name string

	// Text is all character data below the node, in document order.
	Text string

	Children []*Node
}

// UnmarshalXML decodes an arbitrary element subtree.
func (n *Node) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	n.Name = start.Name.Local

	var sb strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child := &Node{}
			if err := child.UnmarshalXML(d, t); err != nil {
				return err
			}
			n.Children = append(n.Children, child)
			sb.WriteString(child.Text)
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			n.Text = sb.String()
			return nil
		}
	}
}

// HasContent reports whether the node exists and carries any child element
// or non-blank text.
func (n *Node) HasContent() bool {
	if n == nil {
		return false
	}
	return len(n.Children) > 0 || strings.TrimSpace(n.Text) != ""
}

// Descendants returns n and every element below it named name, in document
// order.
func (n *Node) Descendants(name string) []*Node {
	if n == nil {
		return nil
	}

	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		if cur.Name == name {
			out = append(out, cur)
		}
		for _, c := range cur.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// Notes returns the text of every para nested in a simplesect nested in a
// para. Doxygen renders "@note ..." and similar commands this way.
func (n *Node) Notes() []string {
	seen := make(map[*Node]struct{})
	var notes []string
	for _, p := range n.Descendants("para") {
		for _, s := range p.Descendants("simplesect") {
			for _, ps := range s.Descendants("para") {
				if _, dup := seen[ps]; dup {
					continue
				}
				seen[ps] = struct{}{}
				notes = append(notes, ps.Text)
			}
		}
	}
	return notes
}
