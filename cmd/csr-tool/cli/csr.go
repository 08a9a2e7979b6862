package cli

import (
	"bytes"
	"crypto"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/pkcs10/certutil"
	"github.com/effective-security/pkcs10/csr"
	"github.com/effective-security/pkcs10/oid"
	"github.com/effective-security/x/fileutil"
	"github.com/effective-security/x/guid"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"gopkg.in/yaml.v3"
)

// CsrCmd is the parent for CSR command
type CsrCmd struct {
	Create CsrCreateCmd `cmd:"" help:"create certificate request"`
	Info   CsrInfoCmd   `cmd:"" help:"print certificate request info"`
	Verify CsrVerifyCmd `cmd:"" help:"decode and verify certificate request"`
}

// CsrProfile specifies the request to create
type CsrProfile struct {
	Subject  string            `json:"subject" yaml:"subject"`
	Hash     oid.HashAlgorithm `json:"hash,omitempty" yaml:"hash,omitempty"`
	Curve    string            `json:"curve,omitempty" yaml:"curve,omitempty"`
	KeyLabel string            `json:"key_label,omitempty" yaml:"key_label,omitempty"`
}

// LoadCsrProfile decodes the profile in JSON or YAML format,
// depending on the file extension
func LoadCsrProfile(name string, b []byte) (*CsrProfile, error) {
	p := new(CsrProfile)

	var err error
	if strings.HasSuffix(name, ".json") {
		err = json.Unmarshal(b, p)
	} else {
		err = yaml.Unmarshal(b, p)
	}
	if err != nil {
		return nil, errors.WithMessage(err, "invalid CSR profile")
	}
	return p, nil
}

// CsrCreateCmd specifies flags for Create command
type CsrCreateCmd struct {
	Subject  string `help:"subject of the request, such as CN=example.com,O=Org"`
	Profile  string `help:"file name with CSR profile"`
	Key      string `help:"file name with private key, PEM encoded or PKCS#11 URI; if not set, a new key is generated"`
	KeyLabel string `help:"name for generated key; the label ending with * is made unique"`
	Curve    string `help:"curve for generated key: P-256|P-384|P-521"`
	Hash     string `help:"signature hash: sha256|sha384; if not set, chosen by the key curve"`
	Output   string `help:"the optional prefix for output files; if not set, the output will be printed to STDOUT only"`
	Force    bool   `help:"force to override key file if exists"`
}

// Run the command
func (a *CsrCreateCmd) Run(ctx *Cli) error {
	// the key file is written only for a generated key
	if a.Output != "" && a.Key == "" && !a.Force && fileutil.FileExists(a.Output+".key") == nil {
		return errors.Errorf("%q file exists, specify --force flag to override", a.Output+".key")
	}

	profile := new(CsrProfile)
	if a.Profile != "" {
		b, err := ctx.ReadFile(a.Profile)
		if err != nil {
			return errors.WithMessage(err, "read CSR profile")
		}
		profile, err = LoadCsrProfile(a.Profile, b)
		if err != nil {
			return err
		}
	}

	subject := values.Select(a.Subject != "", a.Subject, profile.Subject)
	if subject == "" {
		return errors.New("subject is required, use --subject or --profile")
	}

	signer, key, err := a.signer(ctx, profile)
	if err != nil {
		return err
	}

	hash := profile.Hash
	if a.Hash != "" {
		hash, err = oid.ParseHashAlgorithm(a.Hash)
		if err != nil {
			return err
		}
	}
	if hash == oid.HashAlgorithmNone {
		hash = certutil.DefaultHashAlgorithm(signer.Public())
	}

	r := csr.New()
	if err = r.SetSubject(subject); err != nil {
		return err
	}
	if err = r.Sign(signer, hash); err != nil {
		return err
	}
	csrPEM, err := r.ToPem()
	if err != nil {
		return err
	}

	if a.Output == "" {
		fmt.Fprint(ctx.Writer(), csrPEM)
		if len(key) > 0 {
			fmt.Fprint(ctx.Writer(), string(key))
		}
		return nil
	}
	return saveFiles(a.Output, key, []byte(csrPEM), nil)
}

// signer returns the signer, and the exported key if it was generated
func (a *CsrCreateCmd) signer(ctx *Cli, profile *CsrProfile) (crypto.Signer, []byte, error) {
	cp, err := ctx.CryptoProv()
	if err != nil {
		return nil, nil, err
	}

	if a.Key != "" {
		s, err := cp.NewSignerFromFromFile(a.Key)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	}

	curveName := values.Select(a.Curve != "", a.Curve, profile.Curve)
	curve, err := certutil.CurveByName(values.Select(curveName != "", curveName, "P-256"))
	if err != nil {
		return nil, nil, err
	}

	label := values.Select(a.KeyLabel != "", a.KeyLabel, profile.KeyLabel)
	return generateKey(cp.Default(), prefixKeyLabel(values.Select(label != "", label, "csr*")), curve)
}

// CsrInfoCmd prints the request
type CsrInfoCmd struct {
	File string `kong:"arg" required:"" help:"PEM or DER encoded request, or - for STDIN"`
	JSON bool   `help:"print in JSON format"`
}

// RequestInfo is the JSON view of the request
type RequestInfo struct {
	Version             string `json:"version"`
	Subject             string `json:"subject"`
	Algorithm           string `json:"algorithm"`
	Curve               string `json:"curve"`
	KeySize             int    `json:"key_size"`
	SignatureAlgorithm  string `json:"signature_algorithm"`
	SignatureParameters string `json:"signature_parameters,omitempty"`
	Signature           string `json:"signature"`
}

// Run the command
func (a *CsrInfoCmd) Run(ctx *Cli) error {
	r, err := loadRequest(ctx, a.File)
	if err != nil {
		return err
	}

	if !a.JSON {
		fmt.Fprint(ctx.Writer(), r.String())
		return nil
	}

	ki, err := r.PublicKeyInfo()
	if err != nil {
		return err
	}
	info := &RequestInfo{
		Version:            r.Version().String(),
		Subject:            r.Subject(),
		Algorithm:          r.Algorithm().String(),
		Curve:              ki.Curve,
		KeySize:            ki.KeySize,
		SignatureAlgorithm: r.SignatureAlgorithm().String(),
		Signature:          hex.EncodeToString(r.Signature()),
	}
	if params := r.SignatureParameters(); params != nil {
		info.SignatureParameters = params.String()
	}
	ctx.WriteJSON(info)
	return nil
}

// CsrVerifyCmd verifies the request
type CsrVerifyCmd struct {
	File string `kong:"arg" required:"" help:"PEM or DER encoded request, or - for STDIN"`
}

// Run the command
func (a *CsrVerifyCmd) Run(ctx *Cli) error {
	r, err := loadRequest(ctx, a.File)
	if err != nil {
		return err
	}
	if err = r.Verify(); err != nil {
		return err
	}
	fmt.Fprintln(ctx.Writer(), "OK")
	return nil
}

func loadRequest(ctx *Cli, file string) (*csr.Request, error) {
	b, err := ctx.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var r *csr.Request
	if bytes.Contains(b, []byte("-----BEGIN")) {
		r, err = csr.ParsePEM(string(b))
	} else {
		r, err = csr.Parse(b)
	}
	if err != nil {
		logger.KV(xlog.DEBUG, "file", file, "err", err.Error())
		return nil, errors.WithMessagef(err, "unable to load request: %s", file)
	}
	return r, nil
}

func saveFiles(baseName string, key, csrPEM, pubPEM []byte) error {
	if len(csrPEM) > 0 {
		if err := os.WriteFile(baseName+".csr", csrPEM, 0664); err != nil {
			return errors.WithStack(err)
		}
	}
	if len(pubPEM) > 0 {
		if err := os.WriteFile(baseName+".pub", pubPEM, 0664); err != nil {
			return errors.WithStack(err)
		}
	}
	if len(key) > 0 {
		if err := os.WriteFile(baseName+".key", key, 0600); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func prefixKeyLabel(label string) string {
	if strings.HasSuffix(label, "*") {
		g := guid.MustCreate()
		t := time.Now().UTC()
		label = strings.TrimSuffix(label, "*") +
			fmt.Sprintf("_%04d%02d%02d%02d%02d%02d_%s", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), g[:4])
	}

	return label
}
