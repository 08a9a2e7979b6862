// Package csr provides utilities for creating, parsing, and validating
// Certificate Signing Requests (CSRs) as defined by RFC 2986.
//
// This package supports:
//   - CSR creation and signing with ECDSA keys (SHA-256 and SHA-384)
//   - DER decoding with atomic self-signature verification
//   - canonical re-encoding of the signed CertificationRequestInfo
//   - PEM encoding and decoding
//
// Only EC public keys on P-256, P-384 and P-521 are supported.
// A decoded Request is read-only; a new request is built with New or Create.
//
// The package integrates with the cryptoprov package to sign
// with keys held by a crypto provider.
package csr
