package certutil_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/pkcs10/certutil"
	"github.com/effective-security/pkcs10/oid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestECPublicKey_RoundTrip(t *testing.T) {
	for _, curve := range []elliptic.Curve{elliptic.P256(), elliptic.P384(), elliptic.P521()} {
		t.Run(curve.Params().Name, func(t *testing.T) {
			key, err := ecdsa.GenerateKey(curve, rand.Reader)
			require.NoError(t, err)

			raw, err := certutil.MarshalECPublicKey(&key.PublicKey)
			require.NoError(t, err)
			assert.Equal(t, byte(4), raw[0])

			id, err := certutil.CurveOID(curve)
			require.NoError(t, err)

			pub, err := certutil.ParseECPublicKey(id, raw)
			require.NoError(t, err)
			assert.True(t, pub.Equal(&key.PublicKey))

			// inferred from length
			pub, err = certutil.ParseECPublicKey(nil, raw)
			require.NoError(t, err)
			assert.True(t, pub.Equal(&key.PublicKey))

			c, err := certutil.CurveByName(curve.Params().Name)
			require.NoError(t, err)
			assert.Equal(t, curve, c)
		})
	}
}

func TestECPublicKey_Errors(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	raw, err := certutil.MarshalECPublicKey(&key.PublicKey)
	require.NoError(t, err)

	// wrong curve for the point
	_, err = certutil.ParseECPublicKey(oid.CurveP384, raw)
	require.Error(t, err)

	// not on curve
	bad := append([]byte{}, raw...)
	bad[len(bad)-1] ^= 0xff
	_, err = certutil.ParseECPublicKey(oid.CurveP256, bad)
	require.Error(t, err)

	// compressed form is not supported
	_, err = certutil.ParseECPublicKey(oid.CurveP256, elliptic.MarshalCompressed(elliptic.P256(), key.X, key.Y))
	require.Error(t, err)

	_, err = certutil.ParseECPublicKey(nil, raw[:40])
	require.Error(t, err)
	assert.True(t, errors.Is(err, certutil.ErrUnsupportedCurve))

	_, err = certutil.ParseECPublicKey(oid.PublicKeyECDSA, raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, certutil.ErrUnsupportedCurve))

	_, err = certutil.CurveOID(nil)
	assert.True(t, errors.Is(err, certutil.ErrUnsupportedCurve))
	_, err = certutil.CurveByName("P-224")
	assert.True(t, errors.Is(err, certutil.ErrUnsupportedCurve))

	_, err = certutil.MarshalECPublicKey(nil)
	assert.EqualError(t, err, "public key is nil")

	pub, err := certutil.ECPublicKey(key)
	require.NoError(t, err)
	assert.True(t, pub.Equal(key.Public()))
	_, err = certutil.ECPublicKey([]byte{1})
	assert.EqualError(t, err, "key not supported: []uint8")
}
