package cryptoprov

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
)

// URIScheme is the scheme of the key URI
const URIScheme = "pkcs11"

// KeyURI identifies a key held by a provider
type KeyURI struct {
	manufacturer string
	model        string
	id           string
	serial       string
}

// Manufacturer returns the manufacturer of the provider
func (k *KeyURI) Manufacturer() string {
	return k.manufacturer
}

// Model returns the model of the provider
func (k *KeyURI) Model() string {
	return k.model
}

// ID returns the key id
func (k *KeyURI) ID() string {
	return k.id
}

// Serial returns the token serial
func (k *KeyURI) Serial() string {
	return k.serial
}

// String returns the URI
func (k *KeyURI) String() string {
	return FormatKeyURI(k.manufacturer, k.model, k.id, k.serial)
}

// FormatKeyURI returns PKCS#11 URI for the private key
func FormatKeyURI(manufacturer, model, keyID, serial string) string {
	return fmt.Sprintf("%s:manufacturer=%s;model=%s;id=%s;serial=%s;type=private",
		URIScheme,
		url.PathEscape(manufacturer),
		url.PathEscape(model),
		url.PathEscape(keyID),
		url.PathEscape(serial))
}

// IsKeyURI returns true if the value looks like a key URI
func IsKeyURI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), URIScheme+":")
}

// ParsePrivateKeyURI parses PKCS#11 URI of the private key
func ParsePrivateKeyURI(uri string) (*KeyURI, error) {
	uri = strings.TrimSpace(uri)
	if !IsKeyURI(uri) {
		return nil, errors.Errorf("invalid URI scheme: %q", uri)
	}

	k := &KeyURI{}
	for _, attr := range strings.Split(uri[len(URIScheme)+1:], ";") {
		if attr == "" {
			continue
		}
		name, value, ok := strings.Cut(attr, "=")
		if !ok {
			return nil, errors.Errorf("invalid URI attribute: %q", attr)
		}
		value, err := url.PathUnescape(value)
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid URI attribute: %q", attr)
		}

		switch strings.TrimSpace(name) {
		case "manufacturer":
			k.manufacturer = value
		case "model":
			k.model = value
		case "id":
			k.id = value
		case "serial":
			k.serial = value
		case "type":
			if value != "private" {
				return nil, errors.Errorf("invalid key type: %q", value)
			}
		}
	}

	if k.manufacturer == "" {
		return nil, errors.New("manufacturer is required")
	}
	if k.id == "" {
		return nil, errors.New("key id is required")
	}
	return k, nil
}
