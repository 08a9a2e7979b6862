package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(args []string, in string) (int, string, string) {
	out := bytes.NewBuffer([]byte{})
	errout := bytes.NewBuffer([]byte{})
	rc := 0
	exit := func(c int) {
		rc = c
	}

	realMain(append([]string{"csr-tool"}, args...), strings.NewReader(in), out, errout, exit)
	return rc, out.String(), errout.String()
}

func TestMain(t *testing.T) {
	rc, out, errout := run([]string{"version"}, "")
	assert.Equal(t, 80, rc)
	assert.Equal(t, "csr-tool: error: unexpected argument version\n", errout)
	assert.Empty(t, out)
}

func TestVerify(t *testing.T) {
	rc, out, errout := run([]string{"csr", "verify", "../../csr/testdata/p256_sha256.csr"}, "")
	assert.Equal(t, 0, rc)
	assert.Equal(t, "OK\n", out)
	assert.Empty(t, errout)

	b, err := os.ReadFile("../../csr/testdata/p384_sha384.csr")
	require.NoError(t, err)

	rc, out, _ = run([]string{"csr", "verify", "-"}, string(b))
	assert.Equal(t, 0, rc)
	assert.Equal(t, "OK\n", out)

	rc, _, errout = run([]string{"csr", "verify", "../../csr/testdata/rsa.csr"}, "")
	assert.Equal(t, 1, rc)
	assert.Contains(t, errout, "unsupported algorithm")
}

func TestCreate(t *testing.T) {
	rc, out, errout := run([]string{"csr", "create", "--subject", "CN=main,O=Org", "--curve", "P-384"}, "")
	require.Equal(t, 0, rc, errout)
	assert.Contains(t, out, "-----BEGIN CERTIFICATE REQUEST-----")
	assert.Contains(t, out, "PRIVATE KEY-----")

	rc, out, errout = run([]string{"csr", "info", "-"}, out)
	require.Equal(t, 0, rc, errout)
	assert.Contains(t, out, "Subject: CN=main,O=Org\n")
	assert.Contains(t, out, "Signature algorithm: Sha384WithEcdsa\n")
}

func TestDebug(t *testing.T) {
	rc, out, _ := run([]string{"-D", "csr", "verify", "../../csr/testdata/p256_sha256.csr"}, "")
	assert.Equal(t, 0, rc)
	assert.Contains(t, out, "# csr-tool -D csr verify")
}
