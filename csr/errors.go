package csr

import "github.com/cockroachdb/errors"

// Error kinds returned by this package, use errors.Is to check them
var (
	// ErrInvalidFormat is returned for a structural violation:
	// malformed DER, wrong element counts, missing PEM markers
	ErrInvalidFormat = errors.New("invalid format")
	// ErrUnsupportedAlgorithm is returned for a well formed request
	// with a public key or signature algorithm that is not accepted
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	// ErrInvalidSignature is returned when the self-signature does not verify
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrNotSigned is returned when encoding a request that is not signed
	ErrNotSigned = errors.New("sign first")
	// ErrReadOnly is returned when modifying a decoded request
	ErrReadOnly = errors.New("request is read-only")
)

// formatError marks err as ErrInvalidFormat, keeping its cause
func formatError(err error, msg string) error {
	return errors.Mark(errors.WithMessage(err, msg), ErrInvalidFormat)
}
