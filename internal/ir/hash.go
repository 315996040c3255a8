package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// encoding to change without colliding with stored hashes.
const (
	DomainTemplate    = "capnego/template/v1"
	DomainNegotiation = "capnego/negotiation/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TemplateHash identifies an element template by content. Pad order is
// significant because it is the declared preference order.
func TemplateHash(spec *ElementSpec) (string, error) {
	canonical, err := MarshalCanonical(spec.canonicalObject())
	if err != nil {
		return "", fmt.Errorf("TemplateHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTemplate, canonical), nil
}

// NegotiationKey identifies a negotiation by its inputs. Callers pass caps
// in canonical text form; filter is empty when no filter applies.
func NegotiationKey(mode, upstream, downstream, filter string) string {
	canonical, err := MarshalCanonical(map[string]any{
		"mode":       mode,
		"upstream":   upstream,
		"downstream": downstream,
		"filter":     filter,
	})
	if err != nil {
		// Only strings are marshaled.
		panic(err)
	}
	return hashWithDomain(DomainNegotiation, canonical)
}

// MustTemplateHash is like TemplateHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTemplateHash(spec *ElementSpec) string {
	h, err := TemplateHash(spec)
	if err != nil {
		panic(err)
	}
	return h
}
