package der

import (
	"bytes"
	"encoding/asn1"
	"encoding/hex"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// MaxDepth is the deepest nesting of constructed nodes Parse accepts.
const MaxDepth = 32

// ErrMalformed is returned for input that is not valid DER,
// or for a node that does not have the expected type.
var ErrMalformed = errors.New("malformed ASN.1")

// String tags not defined by cryptobyte/asn1
const (
	TagNumericString   = cbasn1.Tag(18)
	TagVisibleString   = cbasn1.Tag(26)
	TagUniversalString = cbasn1.Tag(28)
	TagBMPString       = cbasn1.Tag(30)
)

const (
	classMask       = 0xc0
	constructedMask = 0x20
	numberMask      = 0x1f
)

// Class of a tag
type Class uint8

// Tag classes
const (
	ClassUniversal       Class = 0x00
	ClassApplication     Class = 0x40
	ClassContextSpecific Class = 0x80
	ClassPrivate         Class = 0xc0
)

// Node is a single ASN.1 element.
// A constructed node carries Children, a primitive node carries Value.
type Node struct {
	Tag      cbasn1.Tag
	Value    []byte
	Children []*Node
}

// Parse returns the node tree for a single DER element.
// The input must not have trailing data.
func Parse(data []byte) (*Node, error) {
	s := cryptobyte.String(data)
	n, err := parse(&s, 0)
	if err != nil {
		return nil, err
	}
	if !s.Empty() {
		return nil, errors.Wrapf(ErrMalformed, "trailing data: %d bytes", len(s))
	}
	return n, nil
}

func parse(s *cryptobyte.String, depth int) (*Node, error) {
	if depth > MaxDepth {
		return nil, errors.Wrapf(ErrMalformed, "nesting exceeds %d levels", MaxDepth)
	}

	var content cryptobyte.String
	var tag cbasn1.Tag
	if !s.ReadAnyASN1(&content, &tag) {
		return nil, errors.Wrap(ErrMalformed, "invalid element")
	}

	n := &Node{Tag: tag}
	if !n.Constructed() {
		n.Value = append([]byte{}, content...)
		return n, nil
	}

	n.Children = []*Node{}
	for !content.Empty() {
		child, err := parse(&content, depth+1)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

// Marshal returns DER encoding of the node tree
func (n *Node) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	n.build(&b)
	der, err := b.Bytes()
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal ASN.1")
	}
	return der, nil
}

func (n *Node) build(b *cryptobyte.Builder) {
	if n == nil {
		b.SetError(errors.New("nil node"))
		return
	}
	b.AddASN1(n.Tag, func(child *cryptobyte.Builder) {
		if n.Constructed() {
			for _, c := range n.Children {
				c.build(child)
			}
			return
		}
		child.AddBytes(n.Value)
	})
}

// Constructed returns true if the node has constructed encoding
func (n *Node) Constructed() bool {
	return n.Tag&constructedMask != 0
}

// Class returns the tag class
func (n *Node) Class() Class {
	return Class(n.Tag & classMask)
}

// Number returns the tag number without class and constructed bits
func (n *Node) Number() uint8 {
	return uint8(n.Tag & numberMask)
}

// Len returns number of children
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.Children)
}

// IsSequence returns true for a SEQUENCE node
func (n *Node) IsSequence() bool {
	return n != nil && n.Tag == cbasn1.SEQUENCE
}

// IsContext returns true for a constructed context-specific node with the given number
func (n *Node) IsContext(number uint8) bool {
	return n != nil &&
		n.Class() == ClassContextSpecific &&
		n.Constructed() &&
		n.Number() == number
}

// Sequence returns a SEQUENCE node
func Sequence(children ...*Node) *Node {
	return &Node{Tag: cbasn1.SEQUENCE, Children: children}
}

// Set returns a SET node
func Set(children ...*Node) *Node {
	return &Node{Tag: cbasn1.SET, Children: children}
}

// Context returns a constructed context-specific node
func Context(number uint8, children ...*Node) *Node {
	return &Node{
		Tag:      cbasn1.Tag(number).ContextSpecific().Constructed(),
		Children: children,
	}
}

// Integer returns an INTEGER node
func Integer(v int64) *Node {
	var b cryptobyte.Builder
	b.AddASN1Int64(v)
	return mustPrimitive(b.BytesOrPanic())
}

// ObjectIdentifier returns an OBJECT IDENTIFIER node
func ObjectIdentifier(id asn1.ObjectIdentifier) (*Node, error) {
	var b cryptobyte.Builder
	b.AddASN1ObjectIdentifier(id)
	der, err := b.Bytes()
	if err != nil {
		return nil, errors.Wrapf(ErrMalformed, "invalid OID: %v", id)
	}
	return mustPrimitive(der), nil
}

// MustObjectIdentifier returns an OBJECT IDENTIFIER node,
// and panics if the OID is invalid.
func MustObjectIdentifier(id asn1.ObjectIdentifier) *Node {
	n, err := ObjectIdentifier(id)
	if err != nil {
		panic(err)
	}
	return n
}

// BitString returns a BIT STRING node with no unused bits
func BitString(data []byte) *Node {
	return &Node{
		Tag:   cbasn1.BIT_STRING,
		Value: append([]byte{0}, data...),
	}
}

// Text returns a string node with the given tag
func Text(tag cbasn1.Tag, s string) *Node {
	return &Node{Tag: tag, Value: []byte(s)}
}

func mustPrimitive(der []byte) *Node {
	n, err := Parse(der)
	if err != nil {
		panic(err)
	}
	return n
}

// element returns the encoded element after checking its tag
func (n *Node) element(tag cbasn1.Tag) (cryptobyte.String, error) {
	if n == nil {
		return nil, errors.Wrap(ErrMalformed, "missing element")
	}
	if n.Tag != tag {
		return nil, errors.Wrapf(ErrMalformed, "expected tag 0x%02x, got 0x%02x", uint8(tag), uint8(n.Tag))
	}
	der, err := n.Marshal()
	if err != nil {
		return nil, err
	}
	return cryptobyte.String(der), nil
}

// Int64 returns the value of an INTEGER node
func (n *Node) Int64() (int64, error) {
	s, err := n.element(cbasn1.INTEGER)
	if err != nil {
		return 0, err
	}
	var v int64
	if !s.ReadASN1Integer(&v) {
		return 0, errors.Wrap(ErrMalformed, "invalid INTEGER")
	}
	return v, nil
}

// ObjectIdentifier returns the value of an OBJECT IDENTIFIER node
func (n *Node) ObjectIdentifier() (asn1.ObjectIdentifier, error) {
	s, err := n.element(cbasn1.OBJECT_IDENTIFIER)
	if err != nil {
		return nil, err
	}
	var id asn1.ObjectIdentifier
	if !s.ReadASN1ObjectIdentifier(&id) {
		return nil, errors.Wrap(ErrMalformed, "invalid OBJECT IDENTIFIER")
	}
	return id, nil
}

// BitString returns the bytes of a BIT STRING node,
// which must not have unused bits.
func (n *Node) BitString() ([]byte, error) {
	s, err := n.element(cbasn1.BIT_STRING)
	if err != nil {
		return nil, err
	}
	var b []byte
	if !s.ReadASN1BitStringAsBytes(&b) {
		return nil, errors.Wrap(ErrMalformed, "invalid BIT STRING")
	}
	return b, nil
}

// IsText returns true if the node has one of the ASN.1 string types
func (n *Node) IsText() bool {
	if n == nil {
		return false
	}
	switch n.Tag {
	case cbasn1.UTF8String, cbasn1.PrintableString, cbasn1.IA5String, cbasn1.T61String,
		TagNumericString, TagVisibleString, TagUniversalString, TagBMPString:
		return true
	}
	return false
}

// Text returns the value of a string node
func (n *Node) Text() (string, error) {
	if !n.IsText() {
		return "", errors.Wrap(ErrMalformed, "expected string type")
	}
	switch n.Tag {
	case TagBMPString:
		if len(n.Value)%2 != 0 {
			return "", errors.Wrap(ErrMalformed, "invalid BMPString")
		}
		u := make([]uint16, 0, len(n.Value)/2)
		for i := 0; i < len(n.Value); i += 2 {
			u = append(u, uint16(n.Value[i])<<8|uint16(n.Value[i+1]))
		}
		return string(utf16.Decode(u)), nil
	case TagUniversalString:
		if len(n.Value)%4 != 0 {
			return "", errors.Wrap(ErrMalformed, "invalid UniversalString")
		}
		var sb strings.Builder
		for i := 0; i < len(n.Value); i += 4 {
			r := rune(n.Value[i])<<24 | rune(n.Value[i+1])<<16 | rune(n.Value[i+2])<<8 | rune(n.Value[i+3])
			sb.WriteRune(r)
		}
		return sb.String(), nil
	}
	return string(n.Value), nil
}

// Clone returns a deep copy of the node tree
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Tag: n.Tag}
	if n.Value != nil {
		c.Value = append([]byte{}, n.Value...)
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// Equal reports whether two node trees have the same encoding
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag != b.Tag || len(a.Children) != len(b.Children) {
		return false
	}
	if !a.Constructed() {
		return bytes.Equal(a.Value, b.Value)
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// String returns a short human readable form of the node
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	switch {
	case n.Tag == cbasn1.OBJECT_IDENTIFIER:
		if id, err := n.ObjectIdentifier(); err == nil {
			return id.String()
		}
	case n.Tag == cbasn1.INTEGER:
		if v, err := n.Int64(); err == nil {
			return strconv.FormatInt(v, 10)
		}
	case n.Tag == cbasn1.NULL:
		return "NULL"
	case n.IsText():
		if s, err := n.Text(); err == nil {
			return s
		}
	}
	der, err := n.Marshal()
	if err != nil {
		return ""
	}
	return strings.ToUpper(hex.EncodeToString(der))
}
