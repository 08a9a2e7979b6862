package oid

import (
	"crypto"
	"encoding/asn1"
	"strings"

	"github.com/cockroachdb/errors"
)

// HashAlgorithm is a hash and signature scheme
type HashAlgorithm int

// Hash and signature schemes
const (
	HashAlgorithmNone HashAlgorithm = iota
	Sha1WithRsa
	Sha256WithRsa
	Sha384WithRsa
	Sha512WithRsa
	Sha1WithEcdsa
	Sha256WithEcdsa
	Sha384WithEcdsa
	Sha512WithEcdsa
)

type hashAlgorithmInfo struct {
	name    string
	aliases []string
	oid     asn1.ObjectIdentifier
	hash    crypto.Hash
	ecdsa   bool
}

var hashAlgorithms = map[HashAlgorithm]hashAlgorithmInfo{
	Sha1WithRsa:     {"Sha1WithRsa", []string{"sha1-rsa", "sha1WithRSAEncryption"}, SignatureSHA1WithRSA, crypto.SHA1, false},
	Sha256WithRsa:   {"Sha256WithRsa", []string{"sha256-rsa", "sha256WithRSAEncryption"}, SignatureSHA256WithRSA, crypto.SHA256, false},
	Sha384WithRsa:   {"Sha384WithRsa", []string{"sha384-rsa", "sha384WithRSAEncryption"}, SignatureSHA384WithRSA, crypto.SHA384, false},
	Sha512WithRsa:   {"Sha512WithRsa", []string{"sha512-rsa", "sha512WithRSAEncryption"}, SignatureSHA512WithRSA, crypto.SHA512, false},
	Sha1WithEcdsa:   {"Sha1WithEcdsa", []string{"sha1-ecdsa", "ecdsa-with-SHA1"}, SignatureECDSAWithSHA1, crypto.SHA1, true},
	Sha256WithEcdsa: {"Sha256WithEcdsa", []string{"sha256", "sha256-ecdsa", "ecdsa-with-SHA256"}, SignatureECDSAWithSHA256, crypto.SHA256, true},
	Sha384WithEcdsa: {"Sha384WithEcdsa", []string{"sha384", "sha384-ecdsa", "ecdsa-with-SHA384"}, SignatureECDSAWithSHA384, crypto.SHA384, true},
	Sha512WithEcdsa: {"Sha512WithEcdsa", []string{"sha512", "sha512-ecdsa", "ecdsa-with-SHA512"}, SignatureECDSAWithSHA512, crypto.SHA512, true},
}

// HashAlgorithmFromOID returns the scheme for a dotted OID string,
// or HashAlgorithmNone if it is not known.
func HashAlgorithmFromOID(id string) HashAlgorithm {
	for h, info := range hashAlgorithms {
		if info.oid.String() == id {
			return h
		}
	}
	return HashAlgorithmNone
}

// ParseHashAlgorithm returns the scheme by its name or alias, case insensitive
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	for h, info := range hashAlgorithms {
		if strings.EqualFold(info.name, s) {
			return h, nil
		}
		for _, a := range info.aliases {
			if strings.EqualFold(a, s) {
				return h, nil
			}
		}
	}
	return HashAlgorithmNone, errors.Errorf("unsupported hash algorithm: %q", s)
}

func (h HashAlgorithm) String() string {
	if info, ok := hashAlgorithms[h]; ok {
		return info.name
	}
	return "None"
}

// OID returns the signature algorithm identifier
func (h HashAlgorithm) OID() asn1.ObjectIdentifier {
	return hashAlgorithms[h].oid
}

// Hash returns the digest used by the scheme
func (h HashAlgorithm) Hash() crypto.Hash {
	return hashAlgorithms[h].hash
}

// IsECDSA returns true for ECDSA schemes
func (h HashAlgorithm) IsECDSA() bool {
	return hashAlgorithms[h].ecdsa
}

// MarshalText implements encoding.TextMarshaler
func (h HashAlgorithm) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (h *HashAlgorithm) UnmarshalText(text []byte) error {
	v, err := ParseHashAlgorithm(string(text))
	if err != nil {
		return err
	}
	*h = v
	return nil
}
