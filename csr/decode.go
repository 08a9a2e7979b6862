package csr

import (
	"crypto/ecdsa"
	"encoding/asn1"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/pkcs10/certutil"
	"github.com/effective-security/pkcs10/der"
	"github.com/effective-security/pkcs10/metricskey"
	"github.com/effective-security/pkcs10/oid"
	"github.com/effective-security/xlog"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Parse decodes a DER encoded request and verifies its signature.
// No request is returned if the structure is invalid, an algorithm
// is not supported, or the signature does not verify.
func Parse(data []byte) (*Request, error) {
	defer metricskey.PerfCSROperation.MeasureSince(time.Now(), "decode")

	r, err := decode(data)
	if err != nil {
		logger.KV(xlog.DEBUG, "reason", "decode", "err", err.Error())
		return nil, err
	}
	return r, nil
}

func decode(data []byte) (*Request, error) {
	top, err := der.Parse(data)
	if err != nil {
		return nil, formatError(err, "unable to parse request")
	}
	if !top.IsSequence() || top.Len() != 3 {
		return nil, errors.Wrap(ErrInvalidFormat, "wrong structure")
	}

	reqInfo := top.Children[0]
	if !reqInfo.IsSequence() || reqInfo.Len() < 3 || reqInfo.Len() > 4 {
		return nil, errors.Wrap(ErrInvalidFormat, "wrong structure of certification request info")
	}

	r := &Request{decoded: true}

	ver, err := reqInfo.Children[0].Int64()
	if err != nil {
		return nil, formatError(err, "invalid version")
	}
	if Version(ver) != V1 {
		return nil, errors.Wrapf(ErrInvalidFormat, "unsupported version %d", ver)
	}
	r.version = V1

	r.subjectNode = reqInfo.Children[1]
	r.subject, err = certutil.DecodeSubject(r.subjectNode)
	if err != nil {
		return nil, formatError(err, "invalid subject")
	}

	if err = r.decodePublicKeyInfo(reqInfo.Children[2]); err != nil {
		return nil, err
	}

	if reqInfo.Len() == 4 {
		attrs := reqInfo.Children[3]
		if !attrs.IsContext(0) {
			return nil, errors.Wrap(ErrInvalidFormat, "attributes must be a constructed [0] node")
		}
		if attrs.Len() > 0 {
			r.attributes = attrs
		}
	} else {
		r.omitAttributes = true
	}

	sigAlg := top.Children[1]
	if !sigAlg.IsSequence() || sigAlg.Len() < 1 || sigAlg.Len() > 2 {
		return nil, errors.Wrap(ErrInvalidFormat, "wrong structure of signature algorithm")
	}
	sigOID, err := sigAlg.Children[0].ObjectIdentifier()
	if err != nil {
		return nil, formatError(err, "invalid signature algorithm")
	}
	r.signatureAlgorithm = oid.HashAlgorithmFromOID(sigOID.String())
	if !isSupportedSignature(r.signatureAlgorithm) {
		return nil, errors.Wrapf(ErrUnsupportedAlgorithm, "signature algorithm %s", oid.Name(sigOID))
	}
	if sigAlg.Len() == 2 {
		r.signatureParameters = sigAlg.Children[1]
	}

	r.signature, err = top.Children[2].BitString()
	if err != nil {
		return nil, formatError(err, "invalid signature")
	}

	// the signature covers the exact encoding of the received info node
	payload, err := reqInfo.Marshal()
	if err != nil {
		return nil, formatError(err, "unable to encode certification request info")
	}
	if err = verifySignature(r.publicKey, r.signatureAlgorithm, payload, r.signature); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Request) decodePublicKeyInfo(spki *der.Node) error {
	if !spki.IsSequence() || spki.Len() != 2 {
		return errors.Wrap(ErrInvalidFormat, "wrong structure of subject public key info")
	}
	algID := spki.Children[0]
	if !algID.IsSequence() || algID.Len() < 1 || algID.Len() > 2 {
		return errors.Wrap(ErrInvalidFormat, "wrong structure of public key algorithm")
	}
	keyOID, err := algID.Children[0].ObjectIdentifier()
	if err != nil {
		return formatError(err, "invalid public key algorithm")
	}

	alg, ok := oid.Resolve(keyOID.String(), oid.PublicKeyResolvers...)
	if !ok {
		return errors.Wrapf(ErrUnsupportedAlgorithm, "public key algorithm %s", keyOID)
	}
	if !alg.Equal(oid.IDECPublicKey) {
		return errors.Wrapf(ErrUnsupportedAlgorithm, "public key algorithm %s", alg)
	}
	r.algorithm = alg
	r.algorithmNode = algID

	var curveOID asn1.ObjectIdentifier
	if algID.Len() == 2 {
		params := algID.Children[1]
		switch params.Tag {
		case cbasn1.OBJECT_IDENTIFIER:
			curveOID, err = params.ObjectIdentifier()
			if err != nil {
				return formatError(err, "invalid named curve")
			}
		case cbasn1.NULL:
		default:
			return errors.Wrap(ErrUnsupportedAlgorithm, "explicit curve parameters")
		}
	}

	raw, err := spki.Children[1].BitString()
	if err != nil {
		return formatError(err, "invalid public key")
	}
	r.publicKey, err = certutil.ParseECPublicKey(curveOID, raw)
	if err != nil {
		if errors.Is(err, certutil.ErrUnsupportedCurve) {
			return errors.Mark(err, ErrUnsupportedAlgorithm)
		}
		return formatError(err, "invalid public key")
	}
	return nil
}

func isSupportedSignature(alg oid.HashAlgorithm) bool {
	return alg == oid.Sha256WithEcdsa || alg == oid.Sha384WithEcdsa
}

func verifySignature(pub *ecdsa.PublicKey, alg oid.HashAlgorithm, payload, sig []byte) error {
	if !ecdsa.VerifyASN1(pub, digest(alg, payload), sig) {
		return errors.WithStack(ErrInvalidSignature)
	}
	return nil
}

func digest(alg oid.HashAlgorithm, data []byte) []byte {
	h := alg.Hash().New()
	_, _ = h.Write(data)
	return h.Sum(nil)
}
