package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm migration.
const (
	DomainObject = "gocavy/object/v1"
	DomainResult = "gocavy/result/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The null separator
// keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ObjectID computes the content-addressed ID of a compiled object.
// Bindings are hashed in canonical form so that header whitespace and key
// order do not change the identity; the body is hashed verbatim.
func ObjectID(bindings Bindings, body string) (string, error) {
	header, err := MarshalCanonical(bindings)
	if err != nil {
		return "", fmt.Errorf("ObjectID: failed to marshal bindings: %w", err)
	}
	data := make([]byte, 0, len(header)+1+len(body))
	data = append(data, header...)
	data = append(data, '\n')
	data = append(data, body...)
	return hashWithDomain(DomainObject, data), nil
}

// ResultHash computes the identity of a decoded result set. Shots with
// equal hashes decoded to equal values.
func ResultHash(result ResultSet) (string, error) {
	canonical, err := MarshalCanonical(result)
	if err != nil {
		return "", fmt.Errorf("ResultHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}

// MustResultHash is like ResultHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustResultHash(result ResultSet) string {
	h, err := ResultHash(result)
	if err != nil {
		panic(err)
	}
	return h
}
