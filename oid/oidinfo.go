package oid

import (
	"encoding/asn1"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// well-known OIDs
var (
	PublicKeyRSA     = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	PublicKeyDSA     = asn1.ObjectIdentifier{1, 2, 840, 10040, 4, 1}
	PublicKeyECDSA   = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	PublicKeyEd25519 = asn1.ObjectIdentifier{1, 3, 101, 112}

	CurveP256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
	CurveP384 = asn1.ObjectIdentifier{1, 3, 132, 0, 34}
	CurveP521 = asn1.ObjectIdentifier{1, 3, 132, 0, 35}

	SignatureSHA1WithRSA     = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 5}
	SignatureSHA256WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
	SignatureSHA384WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}
	SignatureSHA512WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}
	SignatureECDSAWithSHA1   = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 1}
	SignatureECDSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}
	SignatureECDSAWithSHA384 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}
	SignatureECDSAWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}

	AttributeChallengePassword = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 7}
	AttributeExtensionRequest  = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 14}

	NameEmailAddress = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}
	NameCN           = asn1.ObjectIdentifier{2, 5, 4, 3}
	NameSurname      = asn1.ObjectIdentifier{2, 5, 4, 4}
	NameSerial       = asn1.ObjectIdentifier{2, 5, 4, 5}
	NameC            = asn1.ObjectIdentifier{2, 5, 4, 6}
	NameL            = asn1.ObjectIdentifier{2, 5, 4, 7}
	NameST           = asn1.ObjectIdentifier{2, 5, 4, 8}
	NameStreet       = asn1.ObjectIdentifier{2, 5, 4, 9}
	NameO            = asn1.ObjectIdentifier{2, 5, 4, 10}
	NameOU           = asn1.ObjectIdentifier{2, 5, 4, 11}
	NameTitle        = asn1.ObjectIdentifier{2, 5, 4, 12}
	NamePostal       = asn1.ObjectIdentifier{2, 5, 4, 17}
	NameGivenName    = asn1.ObjectIdentifier{2, 5, 4, 42}
	NameUID          = asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 1}
	NameDC           = asn1.ObjectIdentifier{0, 9, 2342, 19200300, 100, 1, 25}
)

// DisplayName provides OID name
var DisplayName = map[string]string{
	"1.2.840.10045.2.1":     "id-ecPublicKey",
	"1.2.840.10045.3.1.7":   "prime256v1",
	"1.3.132.0.34":          "secp384r1",
	"1.3.132.0.35":          "secp521r1",
	"1.2.840.10045.4.3.2":   "ecdsa-with-SHA256",
	"1.2.840.10045.4.3.3":   "ecdsa-with-SHA384",
	"1.2.840.113549.1.9.7":  "challengePassword",
	"1.2.840.113549.1.9.14": "extensionRequest",
}

// Name returns display name for the OID, or its dotted form
func Name(id asn1.ObjectIdentifier) string {
	s := id.String()
	if n, ok := DisplayName[s]; ok {
		return n
	}
	return s
}

// Strings returns list of OID string values
func Strings(ids ...asn1.ObjectIdentifier) []string {
	list := make([]string, 0, len(ids))

	for _, k := range ids {
		list = append(list, k.String())
	}

	return list
}

var oidRegex = regexp.MustCompile(`^\d+(\.\d+)+$`)

// Parse returns OID from its dotted string form
func Parse(oidString string) (asn1.ObjectIdentifier, error) {
	if !oidRegex.MatchString(oidString) {
		return nil, errors.Errorf("invalid OID: %q", oidString)
	}

	segments := strings.Split(oidString, ".")
	id := make(asn1.ObjectIdentifier, len(segments))
	for i, s := range segments {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid OID: %q", oidString)
		}
		id[i] = v
	}
	return id, nil
}
