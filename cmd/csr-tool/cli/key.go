package cli

import (
	"crypto"
	"crypto/elliptic"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/pkcs10/certutil"
	"github.com/effective-security/pkcs10/cryptoprov"
	"github.com/effective-security/x/fileutil"
	"github.com/effective-security/xlog"
)

// KeyCmd is the parent for key command
type KeyCmd struct {
	Generate KeyGenerateCmd `cmd:"" help:"generate EC key"`
	Info     KeyInfoCmd     `cmd:"" help:"print key info"`
}

// KeyGenerateCmd generates key
type KeyGenerateCmd struct {
	Curve  string `help:"curve: P-256|P-384|P-521" default:"P-256"`
	Label  string `help:"name for generated key; the label ending with * is made unique" default:"key*"`
	Output string `help:"the optional prefix for output files; if not set, the output will be printed to STDOUT only"`
	Force  bool   `help:"force to override key file if exists"`
}

// Run the command
func (a *KeyGenerateCmd) Run(ctx *Cli) error {
	if a.Output != "" && !a.Force && fileutil.FileExists(a.Output+".key") == nil {
		return errors.Errorf("%q file exists, specify --force flag to override", a.Output+".key")
	}

	curve, err := certutil.CurveByName(a.Curve)
	if err != nil {
		return err
	}

	cp, err := ctx.CryptoProv()
	if err != nil {
		return err
	}

	signer, key, err := generateKey(cp.Default(), prefixKeyLabel(a.Label), curve)
	if err != nil {
		return err
	}

	pub, err := certutil.EncodePublicKeyToPEM(signer.Public())
	if err != nil {
		return err
	}

	if a.Output == "" {
		fmt.Fprint(ctx.Writer(), string(key))
		fmt.Fprint(ctx.Writer(), string(pub))
		return nil
	}
	return saveFiles(a.Output, key, nil, pub)
}

// KeyInfoCmd prints key info
type KeyInfoCmd struct {
	File string `kong:"arg" required:"" help:"PEM encoded private or public key, or - for STDIN"`
}

// Run the command
func (a *KeyInfoCmd) Run(ctx *Cli) error {
	b, err := ctx.ReadFile(a.File)
	if err != nil {
		return err
	}

	var k any
	if priv, err := certutil.ParsePrivateKeyPEM(b); err == nil {
		k = priv
	} else if pub, err2 := certutil.ParseECPublicKeyFromPEM(b); err2 == nil {
		k = pub
	} else {
		return errors.WithMessagef(err, "unable to load key: %s", a.File)
	}

	ki, err := certutil.NewKeyInfo(k)
	if err != nil {
		return err
	}

	w := ctx.Writer()
	fmt.Fprintf(w, "Type: %s\n", ki.Type)
	fmt.Fprintf(w, "Curve: %s\n", ki.Curve)
	fmt.Fprintf(w, "Size: %d\n", ki.KeySize)
	fmt.Fprintf(w, "Private: %t\n", ki.IsPrivate)
	fmt.Fprintf(w, "Hash: %s\n", ki.Hash)
	return nil
}

// generateKey creates a key with the provider,
// and returns the signer and its exported PEM, or URI if the key is not exportable
func generateKey(prov cryptoprov.Provider, label string, curve elliptic.Curve) (crypto.Signer, []byte, error) {
	prv, err := prov.GenerateECDSAKey(label, curve)
	if err != nil {
		return nil, nil, err
	}

	signer, ok := prv.(crypto.Signer)
	if !ok {
		return nil, nil, errors.Errorf("generated key of %T type does not support crypto.Signer", prv)
	}

	keyID, _, err := prov.IdentifyKey(prv)
	if err != nil {
		return nil, nil, err
	}

	uri, key, err := prov.ExportKey(keyID)
	if err != nil {
		return nil, nil, err
	}
	if key == nil {
		key = []byte(uri + "\n")
	}

	logger.KV(xlog.INFO, "id", keyID, "label", label, "curve", curve.Params().Name)
	return signer, key, nil
}
