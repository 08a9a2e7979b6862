// Package der provides a generic ASN.1 DER node tree.
//
// Parse turns a DER buffer into a tree of Nodes and Marshal turns a tree back
// into bytes. Parsing is strict: indefinite lengths, non-minimal length
// encodings and trailing data are rejected, so a parsed tree marshals back to
// exactly the bytes it was parsed from.
//
// The package does not interpret the structures it carries. Callers use the
// typed accessors (Int64, ObjectIdentifier, BitString, Text) to extract
// values from the nodes they expect at a given position.
package der
