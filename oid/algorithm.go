package oid

import (
	"encoding/asn1"
)

// Algorithm identifies an algorithm within a named table
type Algorithm struct {
	Table string
	Name  string
	OID   asn1.ObjectIdentifier
}

// IsZero returns true if the algorithm was not resolved
func (a Algorithm) IsZero() bool {
	return len(a.OID) == 0
}

// Equal reports whether a and other have the same OID
func (a Algorithm) Equal(other Algorithm) bool {
	return a.OID.Equal(other.OID)
}

func (a Algorithm) String() string {
	if a.Name != "" {
		return a.Name
	}
	return a.OID.String()
}

// Table maps OIDs to algorithm names in a single namespace
type Table struct {
	name   string
	byOID  map[string]Algorithm
	byName map[string]Algorithm
}

// NewTable returns a table from name to OID entries
func NewTable(name string, entries map[string]asn1.ObjectIdentifier) *Table {
	t := &Table{
		name:   name,
		byOID:  make(map[string]Algorithm, len(entries)),
		byName: make(map[string]Algorithm, len(entries)),
	}
	for n, id := range entries {
		a := Algorithm{Table: name, Name: n, OID: id}
		t.byOID[id.String()] = a
		t.byName[n] = a
	}
	return t
}

// Name returns the table namespace
func (t *Table) Name() string {
	return t.name
}

// Lookup returns the algorithm by dotted OID string
func (t *Table) Lookup(id string) (Algorithm, bool) {
	a, ok := t.byOID[id]
	return a, ok
}

// ByName returns the algorithm by name
func (t *Table) ByName(name string) (Algorithm, bool) {
	a, ok := t.byName[name]
	return a, ok
}

// Resolver returns the algorithm for a dotted OID string
type Resolver func(id string) (Algorithm, bool)

// Resolve returns the first algorithm found by resolvers, in order.
// If none of resolvers knows the OID, false is returned.
func Resolve(id string, resolvers ...Resolver) (Algorithm, bool) {
	for _, r := range resolvers {
		if a, ok := r(id); ok {
			return a, true
		}
	}
	return Algorithm{}, false
}

// PKCS is the table of PKCS#1 and PKCS#9 identifiers
var PKCS = NewTable("pkcs", map[string]asn1.ObjectIdentifier{
	"rsaEncryption":           PublicKeyRSA,
	"sha1WithRSAEncryption":   SignatureSHA1WithRSA,
	"sha256WithRSAEncryption": SignatureSHA256WithRSA,
	"sha384WithRSAEncryption": SignatureSHA384WithRSA,
	"sha512WithRSAEncryption": SignatureSHA512WithRSA,
	"emailAddress":            NameEmailAddress,
	"challengePassword":       AttributeChallengePassword,
	"extensionRequest":        AttributeExtensionRequest,
})

// X9 is the table of ANSI X9.57 and X9.62 identifiers
var X9 = NewTable("x9", map[string]asn1.ObjectIdentifier{
	"id-dsa":            PublicKeyDSA,
	"id-ecPublicKey":    PublicKeyECDSA,
	"prime256v1":        CurveP256,
	"ecdsa-with-SHA1":   SignatureECDSAWithSHA1,
	"ecdsa-with-SHA256": SignatureECDSAWithSHA256,
	"ecdsa-with-SHA384": SignatureECDSAWithSHA384,
	"ecdsa-with-SHA512": SignatureECDSAWithSHA512,
})

// PublicKeyResolvers lists public key algorithm tables in resolution order
var PublicKeyResolvers = []Resolver{
	PKCS.Lookup,
	X9.Lookup,
}

// IDECPublicKey is the elliptic curve public key algorithm
var IDECPublicKey = Algorithm{Table: "x9", Name: "id-ecPublicKey", OID: PublicKeyECDSA}
