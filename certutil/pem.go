package certutil

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// EncodePublicKeyToPEM returns PEM encoded public key
func EncodePublicKeyToPEM(pubKey crypto.PublicKey) ([]byte, error) {
	asn1Bytes, err := x509.MarshalPKIXPublicKey(pubKey)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var pemkey = &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: asn1Bytes,
	}

	b := bytes.NewBuffer([]byte{})

	err = pem.Encode(b, pemkey)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return b.Bytes(), nil
}

// ParseECPublicKeyFromPEM parses PEM encoded EC public key
func ParseECPublicKeyFromPEM(key []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(key)
	if block == nil {
		return nil, errors.New("key must be PEM encoded")
	}

	parsedKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to parse public key")
	}

	pkey, ok := parsedKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.Errorf("not EC public key: %T", parsedKey)
	}

	return pkey, nil
}

// EncodePrivateKeyToPEM returns PEM encoded private key
func EncodePrivateKeyToPEM(priv crypto.PrivateKey) ([]byte, error) {
	switch priv := priv.(type) {
	case *ecdsa.PrivateKey:
		key, err := x509.MarshalECPrivateKey(priv)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		block := pem.Block{
			Type:  "EC PRIVATE KEY",
			Bytes: key,
		}
		return pem.EncodeToMemory(&block), nil
	default:
		return nil, errors.Errorf("unsupported key: %T", priv)
	}
}

// LoadPrivateKey returns the EC private key loaded from PEM file
func LoadPrivateKey(file string) (*ecdsa.PrivateKey, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ParsePrivateKeyPEM(b)
}

// ParsePrivateKeyPEM parses and returns a PEM-encoded EC private
// key. The private key may be either an unencrypted PKCS#8 or SEC1 key.
func ParsePrivateKeyPEM(keyPEM []byte) (*ecdsa.PrivateKey, error) {
	keyDER, err := GetKeyDERFromPEM(keyPEM)
	if err != nil {
		return nil, err
	}

	return ParsePrivateKeyDER(keyDER)
}

// GetKeyDERFromPEM parses a PEM-encoded private key and returns DER-format key bytes.
func GetKeyDERFromPEM(in []byte) ([]byte, error) {
	// Ignore any EC PARAMETERS blocks when looking for a key (openssl includes
	// them by default).
	var keyDER *pem.Block
	for {
		keyDER, in = pem.Decode(in)
		if keyDER == nil || keyDER.Type != "EC PARAMETERS" {
			break
		}
	}
	if keyDER != nil {
		if procType, ok := keyDER.Headers["Proc-Type"]; ok {
			if strings.Contains(procType, "ENCRYPTED") {
				return nil, errors.Errorf("encrypted private key")
			}
		}
		return keyDER.Bytes, nil
	}

	return nil, errors.Errorf("unable to decode private key")
}

// ParsePrivateKeyDER parses a PKCS #8 or SEC1 DER-encoded EC private key.
// The key must not be in PEM format.
func ParsePrivateKeyDER(keyDER []byte) (*ecdsa.PrivateKey, error) {
	generalKey, err := x509.ParsePKCS8PrivateKey(keyDER)
	if err != nil {
		generalKey, err = x509.ParseECPrivateKey(keyDER)
		if err != nil {
			// the parser error is not returned to avoid leaking key material
			return nil, errors.Errorf("unable to parse private key")
		}
	}

	key, ok := generalKey.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.Errorf("not EC private key: %T", generalKey)
	}
	return key, nil
}
