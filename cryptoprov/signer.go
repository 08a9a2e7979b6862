package cryptoprov

import (
	"crypto"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/pkcs10/certutil"
)

// LoadPrivateKey returns crypto.PrivateKey.
// The input key can be in PEM encoded format, or PKCS#11 URI.
// The returned provider is nil for PEM encoded keys.
func (c *Crypto) LoadPrivateKey(key []byte) (Provider, crypto.PrivateKey, error) {
	keyPem := string(key)
	if IsKeyURI(keyPem) {
		pkuri, err := ParsePrivateKeyURI(keyPem)
		if err != nil {
			return nil, nil, errors.WithMessage(err, "failed to parse key")
		}

		provider, err := c.ByManufacturer(pkuri.Manufacturer(), pkuri.Model())
		if err != nil {
			return nil, nil, errors.WithMessagef(err, "provider not found: %s model: %s",
				pkuri.Manufacturer(), pkuri.Model())
		}

		pvk, err := provider.GetKey(pkuri.ID())
		if err != nil {
			return nil, nil, errors.WithMessagef(err, "unable to get key: %s", pkuri.ID())
		}
		return provider, pvk, nil
	}

	pvk, err := certutil.ParsePrivateKeyPEM(key)
	if err != nil {
		return nil, nil, err
	}
	return nil, pvk, nil
}

// NewSignerFromFromFile returns a signer from a key file,
// PEM encoded or containing PKCS#11 URI
func (c *Crypto) NewSignerFromFromFile(keyFile string) (crypto.Signer, error) {
	key, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, errors.WithMessagef(err, "load key file")
	}
	// remove trailing space and end-of-line
	key = []byte(strings.TrimSpace(string(key)))

	s, err := c.NewSignerFromPEM(key)
	if err != nil {
		return nil, errors.WithMessagef(err, "load key from file: %s", keyFile)
	}
	return s, nil
}

// NewSignerFromPEM returns a signer from PEM encoded key,
// or PKCS#11 URI
func (c *Crypto) NewSignerFromPEM(key []byte) (crypto.Signer, error) {
	_, pvk, err := c.LoadPrivateKey(key)
	if err != nil {
		return nil, err
	}

	signer, supported := pvk.(crypto.Signer)
	if !supported {
		return nil, errors.Errorf("loaded key of %T type does not support crypto.Signer", pvk)
	}

	return signer, nil
}
