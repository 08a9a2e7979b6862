package cryptoprov

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"gopkg.in/yaml.v3"
)

// TokenConfig holds configuration of a key provider.
//
// A token may be identified either by serial number or label.  If
// both are specified then the first match wins.
type TokenConfig interface {
	// Manufacturer name of the manufacturer
	Manufacturer() string

	// Model name of the device
	Model() string

	// Path to the provider library or key store
	Path() string

	// Token serial number
	TokenSerial() string

	// Token label
	TokenLabel() string

	// Pin is a secret to access the token.
	// If it's prefixed with `file:`, then it will be loaded from the file.
	Pin() string

	// Comma separated key=value pair of attributes(e.g. "ServiceName=x,UserName=y")
	Attributes() string
}

type tokenConfig struct {
	Man    string `json:"Manufacturer" yaml:"manufacturer"`
	Mod    string `json:"Model"        yaml:"model"`
	Dir    string `json:"Path"         yaml:"path"`
	Serial string `json:"TokenSerial"  yaml:"token_serial"`
	Label  string `json:"TokenLabel"   yaml:"token_label"`
	Pwd    string `json:"Pin"          yaml:"pin"`
	Attrs  string `json:"Attributes"   yaml:"attributes"`
}

// Manufacturer name of the manufacturer
func (c *tokenConfig) Manufacturer() string {
	return c.Man
}

// Model name of the device
func (c *tokenConfig) Model() string {
	return c.Mod
}

// Path to the provider library or key store
func (c *tokenConfig) Path() string {
	return c.Dir
}

// Token serial number
func (c *tokenConfig) TokenSerial() string {
	return c.Serial
}

// Token label
func (c *tokenConfig) TokenLabel() string {
	return c.Label
}

// Pin is a secret to access the token.
// If it's prefixed with `file:`, then it will be loaded from the file.
func (c *tokenConfig) Pin() string {
	return c.Pwd
}

// Attributes is list of additional key=value pairs
func (c *tokenConfig) Attributes() string {
	return c.Attrs
}

// NewTokenConfig returns configuration for the manufacturer
func NewTokenConfig(manufacturer, model string) TokenConfig {
	return &tokenConfig{Man: manufacturer, Mod: model}
}

// LoadTokenConfig loads token configuration from YAML or JSON file
func LoadTokenConfig(filename string) (TokenConfig, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	tokenConfig := new(tokenConfig)
	if strings.HasSuffix(filename, ".json") {
		err = json.Unmarshal(b, tokenConfig)
	} else {
		err = yaml.Unmarshal(b, tokenConfig)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to decode file: %s", filename)
	}
	if tokenConfig.Man == "" {
		return nil, errors.Errorf("manufacturer is required: %s", filename)
	}

	pin := tokenConfig.Pin()
	if strings.HasPrefix(pin, "file:") {
		pinfile := pin[5:]

		// try to resolve pin file
		cwd, _ := os.Getwd()
		folders := []string{
			"",
			cwd,
			filepath.Dir(filename),
		}

		for _, folder := range folders {
			if resolved, err := resolve(pinfile, folder); err == nil {
				pinfile = resolved
				break
			}
			logger.KV(xlog.DEBUG, "reason", "resolve", "pinfile", pinfile, "basedir", folder)
		}

		pb, err := os.ReadFile(pinfile)
		if err != nil {
			return nil, errors.WithMessagef(err, "unable to load PIN for configuration: %s", filename)
		}
		tokenConfig.Pwd = strings.TrimSpace(string(pb))
	}

	return tokenConfig, nil
}

// resolve returns absolute file name relative to baseDir
func resolve(file string, baseDir string) (resolved string, err error) {
	if file == "" {
		return file, nil
	}
	if filepath.IsAbs(file) {
		resolved = file
	} else if baseDir != "" {
		resolved = filepath.Join(baseDir, file)
	} else {
		resolved = file
	}
	if _, err := os.Stat(resolved); err != nil {
		return resolved, errors.WithMessagef(err, "not found: %v", resolved)
	}
	return resolved, nil
}
