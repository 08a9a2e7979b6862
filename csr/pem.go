package csr

import (
	"encoding/base64"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// PEMType is the type of the request PEM block
const PEMType = "CERTIFICATE REQUEST"

const (
	pemBegin  = "-----BEGIN "
	pemHeader = "CERTIFICATE REQUEST-----\n"
	pemFooter = "-----END CERTIFICATE REQUEST-----"
)

// ParsePEM decodes and verifies a PEM encoded request.
// CRLF line endings are accepted.
func ParsePEM(text string) (*Request, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	start := strings.Index(text, pemHeader)
	if start < 0 {
		return nil, errors.Wrap(ErrInvalidFormat, "PEM header not found")
	}
	text = text[start+len(pemHeader):]

	end := strings.Index(text, pemFooter)
	if end < 0 {
		return nil, errors.Wrap(ErrInvalidFormat, "PEM footer not found")
	}

	body := strings.Join(strings.Fields(text[:end]), "")
	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, formatError(err, "invalid PEM body")
	}
	return Parse(data)
}

// ToDer returns base64 encoding of the signed request
func (r *Request) ToDer() (string, error) {
	b, err := r.Encoded()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// ToPem returns PEM encoding of the signed request:
// the header, the ToDer body as a single line, and the footer,
// each on its own line.
func (r *Request) ToPem() (string, error) {
	body, err := r.ToDer()
	if err != nil {
		return "", err
	}
	return pemBegin + pemHeader + body + "\n" + pemFooter + "\n", nil
}

// Load returns the request loaded from PEM file
func Load(path string) (*Request, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ParsePEM(string(b))
}

// Save writes PEM encoding of the request to the file
func (r *Request) Save(path string) error {
	s, err := r.ToPem()
	if err != nil {
		return err
	}
	if err = os.WriteFile(path, []byte(s), 0644); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
