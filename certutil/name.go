package certutil

import (
	"bytes"
	"encoding/asn1"
	"encoding/hex"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/pkcs10/der"
	"github.com/effective-security/pkcs10/oid"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

type nameAttribute struct {
	name string
	oid  asn1.ObjectIdentifier
	tag  cbasn1.Tag
}

var nameAttributes = []nameAttribute{
	{"CN", oid.NameCN, cbasn1.UTF8String},
	{"SN", oid.NameSurname, cbasn1.UTF8String},
	{"SERIALNUMBER", oid.NameSerial, cbasn1.PrintableString},
	{"C", oid.NameC, cbasn1.PrintableString},
	{"L", oid.NameL, cbasn1.UTF8String},
	{"ST", oid.NameST, cbasn1.UTF8String},
	{"STREET", oid.NameStreet, cbasn1.UTF8String},
	{"O", oid.NameO, cbasn1.UTF8String},
	{"OU", oid.NameOU, cbasn1.UTF8String},
	{"TITLE", oid.NameTitle, cbasn1.UTF8String},
	{"POSTALCODE", oid.NamePostal, cbasn1.UTF8String},
	{"GN", oid.NameGivenName, cbasn1.UTF8String},
	{"UID", oid.NameUID, cbasn1.UTF8String},
	{"DC", oid.NameDC, cbasn1.IA5String},
	{"E", oid.NameEmailAddress, cbasn1.IA5String},
}

// aliases accepted when parsing a name
var nameAliases = map[string]string{
	"COMMONNAME":   "CN",
	"SURNAME":      "SN",
	"COUNTRY":      "C",
	"LOCALITY":     "L",
	"S":            "ST",
	"T":            "TITLE",
	"GIVENNAME":    "GN",
	"EMAIL":        "E",
	"EMAILADDRESS": "E",
}

func attributeByName(name string) (nameAttribute, bool) {
	name = strings.ToUpper(name)
	if alias, ok := nameAliases[name]; ok {
		name = alias
	}
	for _, a := range nameAttributes {
		if a.name == name {
			return a, true
		}
	}
	return nameAttribute{}, false
}

func attributeByOID(id asn1.ObjectIdentifier) (nameAttribute, bool) {
	for _, a := range nameAttributes {
		if a.oid.Equal(id) {
			return a, true
		}
	}
	return nameAttribute{}, false
}

// DecodeSubject returns the string form of a Name node,
// RDNs are joined by comma in the encoded order.
func DecodeSubject(name *der.Node) (string, error) {
	if !name.IsSequence() {
		return "", errors.Wrap(der.ErrMalformed, "name must be a sequence")
	}

	rdns := make([]string, 0, name.Len())
	for _, set := range name.Children {
		if set.Tag != cbasn1.SET || set.Len() == 0 {
			return "", errors.Wrap(der.ErrMalformed, "relative distinguished name must be a non-empty set")
		}
		values := make([]string, 0, set.Len())
		for _, atv := range set.Children {
			s, err := decodeAttributeTypeAndValue(atv)
			if err != nil {
				return "", err
			}
			values = append(values, s)
		}
		rdns = append(rdns, strings.Join(values, "+"))
	}
	return strings.Join(rdns, ","), nil
}

func decodeAttributeTypeAndValue(atv *der.Node) (string, error) {
	if !atv.IsSequence() || atv.Len() != 2 {
		return "", errors.Wrap(der.ErrMalformed, "attribute must be a sequence of type and value")
	}
	id, err := atv.Children[0].ObjectIdentifier()
	if err != nil {
		return "", err
	}

	typ := id.String()
	if a, ok := attributeByOID(id); ok {
		typ = a.name
	}

	val := atv.Children[1]
	if !val.IsText() {
		b, err := val.Marshal()
		if err != nil {
			return "", err
		}
		return typ + "=#" + hex.EncodeToString(b), nil
	}
	s, err := val.Text()
	if err != nil {
		return "", err
	}
	return typ + "=" + escapeValue(s), nil
}

// EncodeSubject returns the Name node for its string form,
// such as "CN=localhost,O=Org,C=US".
// Attribute types are short names or dotted OIDs,
// multi-valued RDNs are joined with '+'.
func EncodeSubject(subject string) (*der.Node, error) {
	name := der.Sequence()
	if strings.TrimSpace(subject) == "" {
		return name, nil
	}

	for _, rdn := range splitEscaped(subject, ',') {
		var atvs []*der.Node
		for _, pair := range splitEscaped(rdn, '+') {
			atv, err := encodeAttributeTypeAndValue(pair)
			if err != nil {
				return nil, err
			}
			atvs = append(atvs, atv)
		}
		set, err := sortedSet(atvs)
		if err != nil {
			return nil, err
		}
		name.Children = append(name.Children, set)
	}
	return name, nil
}

func encodeAttributeTypeAndValue(pair string) (*der.Node, error) {
	typ, val, ok := strings.Cut(pair, "=")
	if !ok {
		return nil, errors.Errorf("invalid name attribute: %q", strings.TrimSpace(pair))
	}
	typ = strings.TrimSpace(typ)
	val = trimUnescaped(val)

	var a nameAttribute
	if known, ok := attributeByName(typ); ok {
		a = known
	} else {
		id, err := oid.Parse(typ)
		if err != nil {
			return nil, errors.Errorf("unknown name attribute type: %q", typ)
		}
		a = nameAttribute{oid: id, tag: cbasn1.UTF8String}
		if known, ok := attributeByOID(id); ok {
			a = known
		}
	}

	typeNode, err := der.ObjectIdentifier(a.oid)
	if err != nil {
		return nil, err
	}

	var valueNode *der.Node
	if strings.HasPrefix(val, "#") {
		b, err := hex.DecodeString(val[1:])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid hex value for %s", typ)
		}
		valueNode, err = der.Parse(b)
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid DER value for %s", typ)
		}
	} else {
		s, err := unescapeValue(val)
		if err != nil {
			return nil, err
		}
		tag := valueTag(a.tag, s)
		if tag == cbasn1.UTF8String && !utf8.ValidString(s) {
			return nil, errors.Errorf("invalid UTF-8 value for %s", typ)
		}
		valueNode = der.Text(tag, s)
	}

	return der.Sequence(typeNode, valueNode), nil
}

func valueTag(tag cbasn1.Tag, s string) cbasn1.Tag {
	switch tag {
	case cbasn1.PrintableString:
		if !isPrintable(s) {
			return cbasn1.UTF8String
		}
	case cbasn1.IA5String:
		for _, r := range s {
			if r > 0x7f {
				return cbasn1.UTF8String
			}
		}
	}
	return tag
}

func isPrintable(s string) bool {
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
		case strings.ContainsRune(" '()+,-./:=?", r):
		default:
			return false
		}
	}
	return true
}

// sortedSet returns SET OF with DER ordering of its elements
func sortedSet(children []*der.Node) (*der.Node, error) {
	type item struct {
		node *der.Node
		der  []byte
	}
	items := make([]item, 0, len(children))
	for _, c := range children {
		b, err := c.Marshal()
		if err != nil {
			return nil, err
		}
		items = append(items, item{node: c, der: b})
	}
	slices.SortStableFunc(items, func(a, b item) int {
		return bytes.Compare(a.der, b.der)
	})

	set := der.Set()
	for _, it := range items {
		set.Children = append(set.Children, it.node)
	}
	return set, nil
}

// splitEscaped splits s by sep, skipping separators escaped with backslash
func splitEscaped(s string, sep byte) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// trimUnescaped removes surrounding spaces, keeping an escaped trailing space
func trimUnescaped(s string) string {
	s = strings.TrimLeft(s, " ")
	for strings.HasSuffix(s, " ") && !strings.HasSuffix(s, `\ `) {
		s = s[:len(s)-1]
	}
	return s
}

const specialChars = `,+"\<>;=`

func escapeValue(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case strings.IndexByte(specialChars, c) >= 0,
			i == 0 && (c == ' ' || c == '#'),
			i == len(s)-1 && c == ' ':
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func unescapeValue(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			sb.WriteByte(s[i])
			continue
		}
		if i+1 >= len(s) {
			return "", errors.Errorf("invalid escape at the end of %q", s)
		}
		if i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b, _ := hex.DecodeString(s[i+1 : i+3])
			sb.Write(b)
			i += 2
			continue
		}
		sb.WriteByte(s[i+1])
		i++
	}
	return sb.String(), nil
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
