package certutil_test

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/effective-security/pkcs10/certutil"
	"github.com/effective-security/pkcs10/oid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyInfoECDSA(t *testing.T) {
	tcases := []struct {
		curve elliptic.Curve
		size  int
		hash  oid.HashAlgorithm
	}{
		{elliptic.P256(), 256, oid.Sha256WithEcdsa},
		{elliptic.P384(), 384, oid.Sha384WithEcdsa},
		{elliptic.P521(), 521, oid.Sha384WithEcdsa},
	}

	for _, tc := range tcases {
		key, err := ecdsa.GenerateKey(tc.curve, rand.Reader)
		require.NoError(t, err)

		ki, err := certutil.NewKeyInfo(key)
		require.NoError(t, err)
		assert.Equal(t, "ECDSA", ki.Type)
		assert.Equal(t, tc.size, ki.KeySize)
		assert.Equal(t, tc.curve.Params().Name, ki.Curve)
		assert.Equal(t, tc.hash, ki.Hash)
		assert.True(t, ki.IsPrivate)

		ki, err = certutil.NewKeyInfo(key.Public())
		require.NoError(t, err)
		assert.Equal(t, "ECDSA", ki.Type)
		assert.Equal(t, tc.size, ki.KeySize)
		assert.False(t, ki.IsPrivate)
	}
}

func TestKeyInfoUnsupported(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	_, err = certutil.NewKeyInfo(priv)
	require.Error(t, err)
	assert.Equal(t, "key not supported: ed25519.PublicKey", err.Error())

	_, err = certutil.NewKeyInfo("key")
	require.Error(t, err)
	assert.Equal(t, "key not supported: string", err.Error())

	key, err := ecdsa.GenerateKey(elliptic.P224(), rand.Reader)
	require.NoError(t, err)
	_, err = certutil.NewKeyInfo(key)
	require.Error(t, err)
	assert.Equal(t, "curve P-224: unsupported curve", err.Error())
}

func TestDefaultHashAlgorithm(t *testing.T) {
	assert.Equal(t, oid.Sha256WithEcdsa, certutil.DefaultHashAlgorithm(nil))
	assert.Equal(t, oid.Sha256WithEcdsa, certutil.DefaultHashAlgorithm("key"))
}
