// Package cryptoprov provides key providers that supply crypto.Signer values
// for signing certificate requests.
//
// Providers are registered by manufacturer with Register, and loaded from
// YAML or JSON token configuration files with LoadProvider or Load.
// A key held by a provider is referenced by a PKCS#11 style URI:
//
//	pkcs11:manufacturer=inmem;model=;id=<key id>;serial=;type=private
//
// The inmemcrypto subpackage registers an in-memory ECDSA provider.
package cryptoprov
