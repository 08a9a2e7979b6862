package cryptoprov_test

import (
	"testing"

	"github.com/effective-security/pkcs10/cryptoprov"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTokenConfig(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		tc, err := cryptoprov.LoadTokenConfig("testdata/inmem.yaml")
		require.NoError(t, err)
		assert.Equal(t, "inmem", tc.Manufacturer())
		assert.Equal(t, "test", tc.Model())
		assert.Equal(t, "csr-tool", tc.TokenLabel())
		assert.Equal(t, "1234", tc.TokenSerial())
		assert.Equal(t, "Purpose=csr", tc.Attributes())
		assert.Equal(t, "p@ssw0rd", tc.Pin())
		assert.Empty(t, tc.Path())
	})

	t.Run("json", func(t *testing.T) {
		tc, err := cryptoprov.LoadTokenConfig("testdata/inmem.json")
		require.NoError(t, err)
		assert.Equal(t, "inmem", tc.Manufacturer())
		assert.Equal(t, "json", tc.Model())
		assert.Equal(t, "secret", tc.Pin())
	})

	tcases := []struct {
		file string
		err  string
	}{
		{"testdata/not_found.yaml", "open testdata/not_found.yaml: no such file or directory"},
		{"testdata/missing_pin.yaml", "unable to load PIN for configuration: testdata/missing_pin.yaml"},
		{"testdata/no_manufacturer.json", "manufacturer is required: testdata/no_manufacturer.json"},
		{"testdata/invalid.yaml", "failed to decode file: testdata/invalid.yaml"},
	}
	for _, tc := range tcases {
		t.Run(tc.file, func(t *testing.T) {
			_, err := cryptoprov.LoadTokenConfig(tc.file)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestNewTokenConfig(t *testing.T) {
	tc := cryptoprov.NewTokenConfig("inmem", "m1")
	assert.Equal(t, "inmem", tc.Manufacturer())
	assert.Equal(t, "m1", tc.Model())
	assert.Empty(t, tc.Pin())
}
