package metadata

import (
	"encoding/json"
	"fmt"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"github.com/opencontainers/go-digest"
)

// CanonicalJSON encodes v as canonical JSON (RFC 8785) so that equal values always
// produce equal bytes.
func CanonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	canonical, err := jsoncanonicalizer.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize value: %w", err)
	}
	return canonical, nil
}

// DescriptorHash computes the digest of the canonical encoding of the metadata.
// Sources are not part of the hash.
func DescriptorHash(m *Metadata) (digest.Digest, error) {
	data, err := CanonicalJSON(m)
	if err != nil {
		return "", fmt.Errorf("failed to hash descriptor of %s: %w", m.ID, err)
	}
	return digest.FromBytes(data), nil
}
