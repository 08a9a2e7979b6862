package oid_test

import (
	"crypto"
	"encoding/asn1"
	"testing"

	"github.com/effective-security/pkcs10/oid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func Test_Strings(t *testing.T) {
	assert.Equal(t, []string{"1.2.840.10045.2.1"}, oid.Strings(oid.PublicKeyECDSA))
	assert.Equal(t, "prime256v1", oid.Name(oid.CurveP256))
	assert.Equal(t, "2.5.4.3", oid.Name(oid.NameCN))
}

func Test_Parse(t *testing.T) {
	id, err := oid.Parse("1.2.840.10045.3.1.7")
	require.NoError(t, err)
	assert.True(t, id.Equal(oid.CurveP256))

	for _, s := range []string{"", "1", "a.b", "1..2", "1.2."} {
		_, err = oid.Parse(s)
		assert.Error(t, err, s)
	}
}

func Test_Resolve(t *testing.T) {
	a, ok := oid.Resolve("1.2.840.10045.2.1", oid.PublicKeyResolvers...)
	require.True(t, ok)
	assert.Equal(t, "x9", a.Table)
	assert.Equal(t, "id-ecPublicKey", a.String())
	assert.True(t, a.Equal(oid.IDECPublicKey))

	a, ok = oid.Resolve("1.2.840.113549.1.1.1", oid.PublicKeyResolvers...)
	require.True(t, ok)
	assert.Equal(t, "pkcs", a.Table)
	assert.Equal(t, "rsaEncryption", a.Name)

	a, ok = oid.Resolve("1.2.3.4", oid.PublicKeyResolvers...)
	assert.False(t, ok)
	assert.True(t, a.IsZero())

	// first table wins
	first := oid.NewTable("first", map[string]asn1.ObjectIdentifier{"a": {1, 2, 3}})
	second := oid.NewTable("second", map[string]asn1.ObjectIdentifier{"b": {1, 2, 3}})
	a, ok = oid.Resolve("1.2.3", first.Lookup, second.Lookup)
	require.True(t, ok)
	assert.Equal(t, "first", a.Table)
	a, ok = oid.Resolve("1.2.3", second.Lookup, first.Lookup)
	require.True(t, ok)
	assert.Equal(t, "b", a.Name)

	_, ok = oid.Resolve("1.2.3")
	assert.False(t, ok)

	a, ok = oid.X9.ByName("prime256v1")
	require.True(t, ok)
	assert.Equal(t, "1.2.840.10045.3.1.7", a.OID.String())
	assert.Equal(t, "x9", oid.X9.Name())
	assert.Equal(t, "1.2.3", oid.Algorithm{OID: asn1.ObjectIdentifier{1, 2, 3}}.String())
}

func Test_HashAlgorithm(t *testing.T) {
	tcases := []struct {
		id    string
		exp   oid.HashAlgorithm
		hash  crypto.Hash
		ecdsa bool
	}{
		{"1.2.840.10045.4.3.2", oid.Sha256WithEcdsa, crypto.SHA256, true},
		{"1.2.840.10045.4.3.3", oid.Sha384WithEcdsa, crypto.SHA384, true},
		{"1.2.840.10045.4.3.4", oid.Sha512WithEcdsa, crypto.SHA512, true},
		{"1.2.840.113549.1.1.11", oid.Sha256WithRsa, crypto.SHA256, false},
		{"1.2.3", oid.HashAlgorithmNone, 0, false},
	}

	for _, tc := range tcases {
		h := oid.HashAlgorithmFromOID(tc.id)
		assert.Equal(t, tc.exp, h, tc.id)
		assert.Equal(t, tc.hash, h.Hash())
		assert.Equal(t, tc.ecdsa, h.IsECDSA())
		if h != oid.HashAlgorithmNone {
			assert.Equal(t, tc.id, h.OID().String())
		}
	}
	assert.Equal(t, "Sha256WithEcdsa", oid.Sha256WithEcdsa.String())
	assert.Equal(t, "None", oid.HashAlgorithmNone.String())
}

func Test_ParseHashAlgorithm(t *testing.T) {
	for _, s := range []string{"sha256", "SHA256", "Sha256WithEcdsa", "ecdsa-with-SHA256", "sha256-ecdsa"} {
		h, err := oid.ParseHashAlgorithm(s)
		require.NoError(t, err, s)
		assert.Equal(t, oid.Sha256WithEcdsa, h)
	}
	_, err := oid.ParseHashAlgorithm("md5")
	require.Error(t, err)
	assert.Equal(t, `unsupported hash algorithm: "md5"`, err.Error())

	var cfg struct {
		Hash oid.HashAlgorithm `yaml:"hash"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("hash: sha384\n"), &cfg))
	assert.Equal(t, oid.Sha384WithEcdsa, cfg.Hash)

	b, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Equal(t, "hash: Sha384WithEcdsa\n", string(b))

	assert.Error(t, yaml.Unmarshal([]byte("hash: md5\n"), &cfg))
}
