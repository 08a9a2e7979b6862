package inmemcrypto_test

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"sync"
	"testing"

	"github.com/effective-security/pkcs10/certutil"
	"github.com/effective-security/pkcs10/cryptoprov"
	"github.com/effective-security/pkcs10/cryptoprov/inmemcrypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider() *inmemcrypto.Provider {
	return inmemcrypto.NewProvider(cryptoprov.NewTokenConfig(inmemcrypto.ProviderName, "unittest"))
}

func TestLoader(t *testing.T) {
	p, err := inmemcrypto.Loader(cryptoprov.NewTokenConfig("inmem", "m1"))
	require.NoError(t, err)
	assert.Equal(t, "inmem", p.Manufacturer())
	assert.Equal(t, "m1", p.Model())

	_, ok := p.(cryptoprov.KeyManager)
	assert.True(t, ok)
}

func TestGenerateECDSAKey(t *testing.T) {
	p := newProvider()

	for _, curve := range []elliptic.Curve{elliptic.P256(), elliptic.P384(), elliptic.P521()} {
		t.Run(curve.Params().Name, func(t *testing.T) {
			key, err := p.GenerateECDSAKey("label-"+curve.Params().Name, curve)
			require.NoError(t, err)

			signer, ok := key.(crypto.Signer)
			require.True(t, ok)

			ki, err := certutil.NewKeyInfo(signer)
			require.NoError(t, err)
			assert.Equal(t, curve.Params().Name, ki.Curve)
			assert.True(t, ki.IsPrivate)

			keyID, label, err := p.IdentifyKey(key)
			require.NoError(t, err)
			assert.NotEmpty(t, keyID)
			assert.Equal(t, "label-"+curve.Params().Name, label)

			k2, err := p.GetKey(keyID)
			require.NoError(t, err)
			assert.Equal(t, key, k2)

			digest := sha256.Sum256([]byte("To Be Signed"))
			sig, err := signer.Sign(rand.Reader, digest[:], crypto.SHA256)
			require.NoError(t, err)
			assert.True(t, ecdsa.VerifyASN1(signer.Public().(*ecdsa.PublicKey), digest[:], sig))
		})
	}

	_, err := p.GenerateECDSAKey("p224", elliptic.P224())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported curve")
}

func TestImportExport(t *testing.T) {
	p := newProvider()

	priv, err := certutil.LoadPrivateKey("../../csr/testdata/p256.key")
	require.NoError(t, err)

	key, err := p.ImportKey("imported", priv)
	require.NoError(t, err)
	keyID, _, err := p.IdentifyKey(key)
	require.NoError(t, err)

	uri, pem, err := p.ExportKey(keyID)
	require.NoError(t, err)
	assert.Equal(t, cryptoprov.FormatKeyURI("inmem", "unittest", keyID, ""), uri)

	exported, err := certutil.ParsePrivateKeyPEM(pem)
	require.NoError(t, err)
	assert.True(t, priv.Equal(exported))

	_, _, err = p.ExportKey("missing")
	assert.EqualError(t, err, "key not found: missing")

	_, err = p.ImportKey("nil", nil)
	assert.EqualError(t, err, "private key is nil")
}

func TestIdentifyKey(t *testing.T) {
	p := newProvider()
	other := newProvider()

	key, err := other.GenerateECDSAKey("other", elliptic.P256())
	require.NoError(t, err)

	_, _, err = p.IdentifyKey(key)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key not found")

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	_, _, err = p.IdentifyKey(priv)
	assert.EqualError(t, err, "not supported key: *ecdsa.PrivateKey")

	_, err = p.GetKey("missing")
	assert.EqualError(t, err, "key not found: missing")
}

func TestEnumAndDestroy(t *testing.T) {
	p := newProvider()

	for _, label := range []string{"csr-b", "csr-a", "tls-a"} {
		_, err := p.GenerateECDSAKey(label, elliptic.P256())
		require.NoError(t, err)
	}

	keys, err := p.EnumKeys("csr-")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "csr-a", keys[0].Label)
	assert.Equal(t, "csr-b", keys[1].Label)
	assert.Equal(t, "P-256", keys[0].Meta["curve"])
	assert.NotNil(t, keys[0].CreationTime)

	all, err := p.EnumKeys("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, p.DestroyKey(keys[0].ID))
	assert.EqualError(t, p.DestroyKey(keys[0].ID), "key not found: "+keys[0].ID)

	_, err = p.GetKey(keys[0].ID)
	assert.Error(t, err)

	keys, err = p.EnumKeys("csr-")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestConcurrentAccess(t *testing.T) {
	p := newProvider()

	var wg sync.WaitGroup
	ids := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key, err := p.GenerateECDSAKey("concurrent", elliptic.P256())
			if !assert.NoError(t, err) {
				return
			}
			id, _, err := p.IdentifyKey(key)
			if assert.NoError(t, err) {
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		_, err := p.GetKey(id)
		assert.NoError(t, err)
		seen[id] = true
	}
	assert.Len(t, seen, 20)
}
