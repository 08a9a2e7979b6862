package csr

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/pkcs10/certutil"
	"github.com/effective-security/pkcs10/der"
	"github.com/effective-security/pkcs10/oid"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/pkcs10", "csr")

// Version of the certification request
type Version int

// Supported versions
const (
	V1 Version = 0
)

func (v Version) String() string {
	if v == V1 {
		return "V1"
	}
	return fmt.Sprintf("Version(%d)", int(v))
}

// Request is a PKCS#10 certification request.
// A request is built with New or Create and signed before encoding,
// or decoded by Parse, ParsePEM and Load; a decoded request is read-only.
//
// Request is not safe for concurrent modification.
type Request struct {
	version             Version
	subject             string
	algorithm           oid.Algorithm
	publicKey           *ecdsa.PublicKey
	signatureAlgorithm  oid.HashAlgorithm
	signatureParameters *der.Node
	signature           []byte
	attributes          *der.Node

	// nodes preserved from a decoded request,
	// so that re-encoding reproduces the signed bytes
	decoded        bool
	subjectNode    *der.Node
	algorithmNode  *der.Node
	omitAttributes bool
}

// New returns an empty request for an EC public key
func New() *Request {
	return &Request{
		version:   V1,
		algorithm: oid.IDECPublicKey,
	}
}

// Version returns the request version
func (r *Request) Version() Version {
	return r.version
}

// Subject returns the subject distinguished name, such as "CN=Test,O=Org"
func (r *Request) Subject() string {
	return r.subject
}

// Algorithm returns the public key algorithm
func (r *Request) Algorithm() oid.Algorithm {
	return r.algorithm
}

// PublicKey returns a copy of the subject public key
func (r *Request) PublicKey() *ecdsa.PublicKey {
	if r.publicKey == nil {
		return nil
	}
	pub, err := copyPublicKey(r.publicKey)
	if err != nil {
		return nil
	}
	return pub
}

// PublicKeyInfo returns details of the subject public key
func (r *Request) PublicKeyInfo() (*certutil.KeyInfo, error) {
	if r.publicKey == nil {
		return nil, errors.New("public key is not set")
	}
	return certutil.NewKeyInfo(r.publicKey)
}

// SignatureAlgorithm returns the signature scheme,
// or HashAlgorithmNone if the request is not signed
func (r *Request) SignatureAlgorithm() oid.HashAlgorithm {
	return r.signatureAlgorithm
}

// SignatureParameters returns the optional signature algorithm parameters
func (r *Request) SignatureParameters() *der.Node {
	return r.signatureParameters.Clone()
}

// Signature returns the DER encoded ECDSA signature
func (r *Request) Signature() []byte {
	if r.signature == nil {
		return nil
	}
	return append([]byte{}, r.signature...)
}

// Attributes returns the optional [0] attributes node
func (r *Request) Attributes() *der.Node {
	return r.attributes.Clone()
}

// IsSigned returns true if the request has a signature
func (r *Request) IsSigned() bool {
	return len(r.signature) > 0
}

// IsDecoded returns true if the request was decoded and verified
func (r *Request) IsDecoded() bool {
	return r.decoded
}

// SetSubject sets the subject distinguished name.
// The value is stored in its canonical string form.
func (r *Request) SetSubject(subject string) error {
	if r.decoded {
		return errors.WithStack(ErrReadOnly)
	}
	name, err := certutil.EncodeSubject(subject)
	if err != nil {
		return formatError(err, "invalid subject")
	}
	canonical, err := certutil.DecodeSubject(name)
	if err != nil {
		return formatError(err, "invalid subject")
	}
	r.subject = canonical
	r.clearSignature()
	return nil
}

// SetPublicKey sets the subject public key,
// the key must be on P-256, P-384 or P-521 curve
func (r *Request) SetPublicKey(pub *ecdsa.PublicKey) error {
	if r.decoded {
		return errors.WithStack(ErrReadOnly)
	}
	key, err := copyPublicKey(pub)
	if err != nil {
		return err
	}
	r.publicKey = key
	r.clearSignature()
	return nil
}

// copyPublicKey returns a copy of the key owned by the request,
// the key must be on a supported curve
func copyPublicKey(pub *ecdsa.PublicKey) (*ecdsa.PublicKey, error) {
	raw, err := certutil.MarshalECPublicKey(pub)
	if err != nil {
		return nil, errors.Mark(errors.WithMessage(err, "invalid public key"), ErrUnsupportedAlgorithm)
	}
	curveOID, err := certutil.CurveOID(pub.Curve)
	if err != nil {
		return nil, errors.Mark(err, ErrUnsupportedAlgorithm)
	}
	key, err := certutil.ParseECPublicKey(curveOID, raw)
	if err != nil {
		return nil, errors.Mark(err, ErrUnsupportedAlgorithm)
	}
	return key, nil
}

// SetAttributes sets the opaque [0] attributes node,
// nil or an empty node removes attributes.
func (r *Request) SetAttributes(attrs *der.Node) error {
	if r.decoded {
		return errors.WithStack(ErrReadOnly)
	}
	if attrs != nil && !attrs.IsContext(0) {
		return errors.Wrap(ErrInvalidFormat, "attributes must be a constructed [0] node")
	}
	if attrs.Len() == 0 {
		attrs = nil
	}
	r.attributes = attrs.Clone()
	r.clearSignature()
	return nil
}

func (r *Request) clearSignature() {
	r.signature = nil
	r.signatureAlgorithm = oid.HashAlgorithmNone
	r.signatureParameters = nil
}

// Equal reports whether both requests have the same fields
func (r *Request) Equal(other *Request) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.version == other.version &&
		r.subject == other.subject &&
		r.algorithm.Equal(other.algorithm) &&
		publicKeyEqual(r.publicKey, other.publicKey) &&
		r.signatureAlgorithm == other.signatureAlgorithm &&
		der.Equal(r.signatureParameters, other.signatureParameters) &&
		bytes.Equal(r.signature, other.signature) &&
		der.Equal(r.attributes, other.attributes)
}

func publicKeyEqual(a, b *ecdsa.PublicKey) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}

// String returns a human readable dump of the request
func (r *Request) String() string {
	var sb strings.Builder
	sb.WriteString("PKCS #10 certificate request:\n")
	fmt.Fprintf(&sb, "Version: %s\n", r.version)
	fmt.Fprintf(&sb, "Subject: %s\n", r.subject)
	fmt.Fprintf(&sb, "Algorithm: %s\n", r.algorithm)
	fmt.Fprintf(&sb, "Public Key: %s\n", publicKeyString(r.publicKey))
	fmt.Fprintf(&sb, "Signature algorithm: %s\n", r.signatureAlgorithm)
	fmt.Fprintf(&sb, "Signature parameters: %s\n", r.signatureParameters)
	fmt.Fprintf(&sb, "Signature: %s\n", strings.ToUpper(hex.EncodeToString(r.signature)))
	return sb.String()
}

func publicKeyString(pub *ecdsa.PublicKey) string {
	if pub == nil {
		return ""
	}
	raw, err := certutil.MarshalECPublicKey(pub)
	if err != nil {
		return ""
	}
	return pub.Curve.Params().Name + " " + strings.ToUpper(hex.EncodeToString(raw))
}
