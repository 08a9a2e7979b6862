package csr

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	// register hash functions used by the signature schemes
	_ "crypto/sha256"
	_ "crypto/sha512"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/pkcs10/certutil"
	"github.com/effective-security/pkcs10/der"
	"github.com/effective-security/pkcs10/metricskey"
	"github.com/effective-security/pkcs10/oid"
	"github.com/effective-security/xlog"
)

// Create returns a new request for the subject,
// signed by the signer with ECDSA and SHA-256.
func Create(signer crypto.Signer, subject string) (*Request, error) {
	pub, err := certutil.ECPublicKey(signer)
	if err != nil {
		return nil, errors.Mark(err, ErrUnsupportedAlgorithm)
	}

	r := New()
	if err = r.SetSubject(subject); err != nil {
		return nil, err
	}
	if err = r.SetPublicKey(pub); err != nil {
		return nil, err
	}
	if err = r.Sign(signer, oid.Sha256WithEcdsa); err != nil {
		return nil, err
	}
	return r, nil
}

// BuildSignablePayload returns the CertificationRequestInfo node
// built from the request fields.
// The same node is signed by Sign and embedded by Encoded.
func (r *Request) BuildSignablePayload() (*der.Node, error) {
	return r.buildPayload(r.publicKey)
}

func (r *Request) buildPayload(pub *ecdsa.PublicKey) (*der.Node, error) {
	if pub == nil {
		return nil, errors.New("public key is not set")
	}

	subject := r.subjectNode.Clone()
	if subject == nil {
		var err error
		subject, err = certutil.EncodeSubject(r.subject)
		if err != nil {
			return nil, formatError(err, "invalid subject")
		}
	}

	spki, err := r.subjectPublicKeyInfo(pub)
	if err != nil {
		return nil, err
	}

	info := der.Sequence(der.Integer(int64(r.version)), subject, spki)
	switch {
	case r.attributes != nil:
		info.Children = append(info.Children, r.attributes.Clone())
	case !r.omitAttributes:
		info.Children = append(info.Children, der.Context(0))
	}
	return info, nil
}

func (r *Request) subjectPublicKeyInfo(pub *ecdsa.PublicKey) (*der.Node, error) {
	raw, err := certutil.MarshalECPublicKey(pub)
	if err != nil {
		return nil, errors.Mark(err, ErrUnsupportedAlgorithm)
	}

	algID := r.algorithmNode.Clone()
	if algID == nil {
		curveOID, err := certutil.CurveOID(pub.Curve)
		if err != nil {
			return nil, errors.Mark(err, ErrUnsupportedAlgorithm)
		}
		algID = der.Sequence(
			der.MustObjectIdentifier(oid.PublicKeyECDSA),
			der.MustObjectIdentifier(curveOID),
		)
	}
	return der.Sequence(algID, der.BitString(raw)), nil
}

// Sign signs the request with ECDSA using SHA-256 or SHA-384.
// If the public key is not set, the signer's public key is adopted
// once the signature succeeds, otherwise it must match the signer.
func (r *Request) Sign(signer crypto.Signer, alg oid.HashAlgorithm) error {
	defer metricskey.PerfCSROperation.MeasureSince(time.Now(), "sign")

	if r.decoded {
		return errors.WithStack(ErrReadOnly)
	}
	if !isSupportedSignature(alg) {
		return errors.Wrapf(ErrUnsupportedAlgorithm, "signature algorithm %s", alg)
	}

	pub, err := certutil.ECPublicKey(signer)
	if err != nil {
		return errors.Mark(err, ErrUnsupportedAlgorithm)
	}
	key := r.publicKey
	if key == nil {
		if key, err = copyPublicKey(pub); err != nil {
			return err
		}
	} else if !key.Equal(pub) {
		return errors.New("signer does not match the public key")
	}

	payload, err := r.buildPayload(key)
	if err != nil {
		return err
	}
	data, err := payload.Marshal()
	if err != nil {
		return err
	}

	sig, err := signer.Sign(rand.Reader, digest(alg, data), alg.Hash())
	if err != nil {
		return errors.WithMessage(err, "unable to sign request")
	}

	r.publicKey = key
	r.signatureAlgorithm = alg
	r.signatureParameters = nil
	r.signature = sig

	logger.KV(xlog.DEBUG, "subject", r.subject, "alg", alg)
	return nil
}

// Verify checks the signature of a signed request
func (r *Request) Verify() error {
	if !r.IsSigned() {
		return errors.WithStack(ErrNotSigned)
	}
	payload, err := r.BuildSignablePayload()
	if err != nil {
		return err
	}
	data, err := payload.Marshal()
	if err != nil {
		return err
	}
	return verifySignature(r.publicKey, r.signatureAlgorithm, data, r.signature)
}

// Encoded returns DER encoding of the signed request
func (r *Request) Encoded() ([]byte, error) {
	defer metricskey.PerfCSROperation.MeasureSince(time.Now(), "encode")

	if !r.IsSigned() {
		return nil, errors.WithStack(ErrNotSigned)
	}

	payload, err := r.BuildSignablePayload()
	if err != nil {
		return nil, err
	}

	sigAlg := der.Sequence(der.MustObjectIdentifier(r.signatureAlgorithm.OID()))
	if r.signatureParameters != nil {
		sigAlg.Children = append(sigAlg.Children, r.signatureParameters.Clone())
	}

	b, err := der.Sequence(payload, sigAlg, der.BitString(r.signature)).Marshal()
	if err != nil {
		return nil, errors.WithMessage(err, "unable to encode request")
	}
	return b, nil
}
