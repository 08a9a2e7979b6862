package certutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/asn1"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/pkcs10/oid"
)

// ErrUnsupportedCurve is returned for a curve or key that is not
// one of P-256, P-384 or P-521
var ErrUnsupportedCurve = errors.New("unsupported curve")

type curveInfo struct {
	curve    elliptic.Curve
	oid      asn1.ObjectIdentifier
	pointLen int
}

var curves = []curveInfo{
	{elliptic.P256(), oid.CurveP256, 65},
	{elliptic.P384(), oid.CurveP384, 97},
	{elliptic.P521(), oid.CurveP521, 133},
}

// CurveOID returns the named curve OID
func CurveOID(curve elliptic.Curve) (asn1.ObjectIdentifier, error) {
	for _, c := range curves {
		if c.curve == curve {
			return c.oid, nil
		}
	}
	if curve == nil {
		return nil, errors.Wrap(ErrUnsupportedCurve, "nil curve")
	}
	return nil, errors.Wrapf(ErrUnsupportedCurve, "curve %s", curve.Params().Name)
}

// CurveByOID returns the curve for a named curve OID
func CurveByOID(id asn1.ObjectIdentifier) (elliptic.Curve, error) {
	for _, c := range curves {
		if c.oid.Equal(id) {
			return c.curve, nil
		}
	}
	return nil, errors.Wrapf(ErrUnsupportedCurve, "OID %s", id)
}

// CurveByName returns the curve by its name, such as P-256
func CurveByName(name string) (elliptic.Curve, error) {
	for _, c := range curves {
		if c.curve.Params().Name == name {
			return c.curve, nil
		}
	}
	return nil, errors.Wrapf(ErrUnsupportedCurve, "name %q", name)
}

// ParseECPublicKey returns the public key from the uncompressed point.
// If curveOID is empty, the curve is inferred from the point length.
func ParseECPublicKey(curveOID asn1.ObjectIdentifier, raw []byte) (*ecdsa.PublicKey, error) {
	var curve elliptic.Curve
	if len(curveOID) > 0 {
		c, err := CurveByOID(curveOID)
		if err != nil {
			return nil, err
		}
		curve = c
	} else {
		for _, c := range curves {
			if c.pointLen == len(raw) {
				curve = c.curve
				break
			}
		}
		if curve == nil {
			return nil, errors.Wrapf(ErrUnsupportedCurve, "point length %d", len(raw))
		}
	}

	pub, err := ecdsa.ParseUncompressedPublicKey(curve, raw)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid %s public key", curve.Params().Name)
	}
	return pub, nil
}

// MarshalECPublicKey returns the uncompressed point of the public key
func MarshalECPublicKey(pub *ecdsa.PublicKey) ([]byte, error) {
	if pub == nil {
		return nil, errors.New("public key is nil")
	}
	if _, err := CurveOID(pub.Curve); err != nil {
		return nil, err
	}
	b, err := pub.Bytes()
	if err != nil {
		return nil, errors.WithMessage(err, "unable to marshal public key")
	}
	return b, nil
}

// ECPublicKey returns the EC public key of a key, signer or public key
func ECPublicKey(k any) (*ecdsa.PublicKey, error) {
	if s, ok := k.(crypto.Signer); ok {
		k = s.Public()
	}
	switch pub := k.(type) {
	case *ecdsa.PublicKey:
		if pub == nil {
			return nil, errors.New("public key is nil")
		}
		return pub, nil
	default:
		return nil, errors.Errorf("key not supported: %T", k)
	}
}
