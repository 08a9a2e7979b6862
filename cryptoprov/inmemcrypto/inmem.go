// Package inmemcrypto provides a key provider that keeps ECDSA keys in memory.
package inmemcrypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/pkcs10/certutil"
	"github.com/effective-security/pkcs10/cryptoprov"
	"github.com/effective-security/pkcs10/metricskey"
	"github.com/effective-security/x/guid"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/pkcs10/cryptoprov", "inmemcrypto")

// ProviderName specifies a provider name
const ProviderName = cryptoprov.DefaultManufacturer

func init() {
	_ = cryptoprov.Register(ProviderName, Loader)
}

// Loader returns the provider for the configuration
func Loader(tc cryptoprov.TokenConfig) (cryptoprov.Provider, error) {
	return NewProvider(tc), nil
}

// Signer is a private key held by the provider
type Signer struct {
	keyID   string
	label   string
	created time.Time
	priv    *ecdsa.PrivateKey
}

// KeyID returns key id of the signer
func (s *Signer) KeyID() string {
	return s.keyID
}

// Label returns key label of the signer
func (s *Signer) Label() string {
	return s.label
}

// Public returns public key for the signer
func (s *Signer) Public() crypto.PublicKey {
	return s.priv.Public()
}

// Sign implements crypto.Signer
func (s *Signer) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	defer metricskey.PerfCryptoOperation.MeasureSince(time.Now(), ProviderName, "sign")
	return s.priv.Sign(rand, digest, opts)
}

// Provider keeps ECDSA keys in memory
type Provider struct {
	tc   cryptoprov.TokenConfig
	lock sync.RWMutex
	keys map[string]*Signer
}

// NewProvider returns an empty provider
func NewProvider(tc cryptoprov.TokenConfig) *Provider {
	return &Provider{
		tc:   tc,
		keys: map[string]*Signer{},
	}
}

// Manufacturer returns manufacturer for the provider
func (p *Provider) Manufacturer() string {
	return p.tc.Manufacturer()
}

// Model returns model for the provider
func (p *Provider) Model() string {
	return p.tc.Model()
}

// GenerateECDSAKey creates signer using randomly generated ECDSA key
func (p *Provider) GenerateECDSAKey(label string, curve elliptic.Curve) (crypto.PrivateKey, error) {
	defer metricskey.PerfCryptoOperation.MeasureSince(time.Now(), ProviderName, "genkey_ecdsa")

	if _, err := certutil.CurveOID(curve); err != nil {
		return nil, err
	}

	priv, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to generate key with label: %q", label)
	}
	return p.add(label, priv), nil
}

// ImportKey adds the private key to the provider
func (p *Provider) ImportKey(label string, priv *ecdsa.PrivateKey) (crypto.PrivateKey, error) {
	if priv == nil {
		return nil, errors.New("private key is nil")
	}
	if _, err := certutil.CurveOID(priv.Curve); err != nil {
		return nil, err
	}
	return p.add(label, priv), nil
}

func (p *Provider) add(label string, priv *ecdsa.PrivateKey) *Signer {
	s := &Signer{
		keyID:   guid.MustCreate(),
		label:   label,
		created: time.Now().UTC(),
		priv:    priv,
	}

	p.lock.Lock()
	p.keys[s.keyID] = s
	p.lock.Unlock()

	logger.KV(xlog.DEBUG, "id", s.keyID, "label", label, "curve", priv.Curve.Params().Name)
	return s
}

// IdentifyKey returns key id and label for the given private key
func (p *Provider) IdentifyKey(priv crypto.PrivateKey) (keyID, label string, err error) {
	s, ok := priv.(*Signer)
	if !ok {
		return "", "", errors.Errorf("not supported key: %T", priv)
	}

	p.lock.RLock()
	defer p.lock.RUnlock()

	if p.keys[s.keyID] != s {
		return "", "", errors.Errorf("key not found: %s", s.keyID)
	}
	return s.keyID, s.label, nil
}

// GetKey returns private key for the given key id
func (p *Provider) GetKey(keyID string) (crypto.PrivateKey, error) {
	defer metricskey.PerfCryptoOperation.MeasureSince(time.Now(), ProviderName, "getkey")

	p.lock.RLock()
	defer p.lock.RUnlock()

	s, ok := p.keys[keyID]
	if !ok {
		return nil, errors.Errorf("key not found: %s", keyID)
	}
	return s, nil
}

// ExportKey returns PKCS#11 URI and PEM encoded private key
func (p *Provider) ExportKey(keyID string) (string, []byte, error) {
	p.lock.RLock()
	s, ok := p.keys[keyID]
	p.lock.RUnlock()

	if !ok {
		return "", nil, errors.Errorf("key not found: %s", keyID)
	}

	pem, err := certutil.EncodePrivateKeyToPEM(s.priv)
	if err != nil {
		return "", nil, err
	}

	uri := cryptoprov.FormatKeyURI(p.Manufacturer(), p.Model(), keyID, p.tc.TokenSerial())
	return uri, pem, nil
}

// EnumKeys returns keys with the label prefix, ordered by label
func (p *Provider) EnumKeys(prefix string) ([]cryptoprov.KeyInfo, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()

	res := []cryptoprov.KeyInfo{}
	for _, s := range p.keys {
		if !strings.HasPrefix(s.label, prefix) {
			continue
		}
		created := s.created
		res = append(res, cryptoprov.KeyInfo{
			ID:           s.keyID,
			Label:        s.label,
			CreationTime: &created,
			Meta: map[string]string{
				"curve": s.priv.Curve.Params().Name,
			},
		})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Label == res[j].Label {
			return res[i].ID < res[j].ID
		}
		return res[i].Label < res[j].Label
	})
	return res, nil
}

// DestroyKey removes the key
func (p *Provider) DestroyKey(keyID string) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if _, ok := p.keys[keyID]; !ok {
		return errors.Errorf("key not found: %s", keyID)
	}
	delete(p.keys, keyID)
	logger.KV(xlog.NOTICE, "id", keyID)
	return nil
}
