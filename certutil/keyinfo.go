package certutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"

	"github.com/effective-security/pkcs10/oid"
)

// KeyInfo provides information about the key
type KeyInfo struct {
	KeySize   int
	Type      string
	Curve     string
	IsPrivate bool
	Hash      oid.HashAlgorithm
	Key       any
}

// NewKeyInfo returns *KeyInfo for EC private key, signer or public key
func NewKeyInfo(k any) (*KeyInfo, error) {
	ki := &KeyInfo{Key: k}
	if _, ok := k.(crypto.Signer); ok {
		ki.IsPrivate = true
	}

	pub, err := ECPublicKey(k)
	if err != nil {
		return nil, err
	}
	if _, err = CurveOID(pub.Curve); err != nil {
		return nil, err
	}

	ki.Type = "ECDSA"
	ki.Curve = pub.Curve.Params().Name
	ki.KeySize = pub.Curve.Params().BitSize
	ki.Hash = DefaultHashAlgorithm(pub)
	return ki, nil
}

// DefaultHashAlgorithm returns the CSR signature scheme matching
// the strength of the key: SHA-384 for P-384 and above, SHA-256 otherwise.
func DefaultHashAlgorithm(pub crypto.PublicKey) oid.HashAlgorithm {
	if p, ok := pub.(*ecdsa.PublicKey); ok && p != nil {
		switch p.Curve {
		case elliptic.P384(), elliptic.P521():
			return oid.Sha384WithEcdsa
		}
	}
	return oid.Sha256WithEcdsa
}
