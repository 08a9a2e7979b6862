package cryptoprov

import (
	"crypto"
	"crypto/elliptic"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/pkcs10", "cryptoprov")

// Provider defines an interface to work with crypto providers
type Provider interface {
	// Manufacturer returns manufacturer for the provider
	Manufacturer() string
	// Model returns model for the provider
	Model() string

	// GenerateECDSAKey creates a new ECDSA key with the label
	GenerateECDSAKey(label string, curve elliptic.Curve) (crypto.PrivateKey, error)
	// IdentifyKey returns key id and label for the given private key
	IdentifyKey(crypto.PrivateKey) (keyID, label string, err error)
	// GetKey returns the private key by id
	GetKey(keyID string) (crypto.PrivateKey, error)
	// ExportKey returns PKCS#11 URI for the key, and PEM encoded key
	// if the provider allows export
	ExportKey(keyID string) (string, []byte, error)
}

// KeyInfo describes a key held by a provider
type KeyInfo struct {
	ID           string            `json:"id" yaml:"id"`
	Label        string            `json:"label" yaml:"label"`
	CreationTime *time.Time        `json:"creation_time,omitempty" yaml:"creation_time,omitempty"`
	Meta         map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// KeyManager defines interface for key management operations
type KeyManager interface {
	// EnumKeys returns keys with the label prefix
	EnumKeys(prefix string) ([]KeyInfo, error)
	// DestroyKey removes the key
	DestroyKey(keyID string) error
}

// Crypto exposes instances of Provider
type Crypto struct {
	lock           sync.RWMutex
	provider       Provider
	byManufacturer map[string]Provider
}

// New creates an instance of Crypto providers
func New(defaultProvider Provider, providers []Provider) (*Crypto, error) {
	if defaultProvider == nil {
		return nil, errors.New("default provider is required")
	}

	c := &Crypto{
		provider:       defaultProvider,
		byManufacturer: map[string]Provider{},
	}

	for _, p := range providers {
		if err := c.Add(p); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Default returns a default crypto provider
func (c *Crypto) Default() Provider {
	return c.provider
}

// Add will add new provider
func (c *Crypto) Add(p Provider) error {
	key := providerKey(p.Manufacturer(), p.Model())

	c.lock.Lock()
	defer c.lock.Unlock()

	if existing, ok := c.byManufacturer[key]; ok && existing != p {
		return errors.Errorf("duplicate provider specified for manufacturer: %s", p.Manufacturer())
	}
	c.byManufacturer[key] = p
	return nil
}

// ByManufacturer returns a provider by manufacturer and model
func (c *Crypto) ByManufacturer(manufacturer, model string) (Provider, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if p, ok := c.byManufacturer[providerKey(manufacturer, model)]; ok {
		return p, nil
	}
	if c.provider.Manufacturer() == manufacturer && c.provider.Model() == model {
		return c.provider, nil
	}
	return nil, errors.Errorf("provider for %q and model %q not found", manufacturer, model)
}

func providerKey(manufacturer, model string) string {
	return manufacturer + "/" + model
}
