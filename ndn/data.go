// Package ndn models the signed data objects the agent publishes and the
// keychain that signs them. Objects travel as msgpack on the overlay.
package ndn

import (
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Signature types
const (
	SigSha256        uint8 = 0 // Plain digest, no key
	SigEd25519       uint8 = 1 // Per-identity ed25519 key
	SigHmacSha256    uint8 = 2 // Keyed digest
	sigTypeNameDigest      = "digest"
)

// SignatureInfo describes how a data object was signed
type SignatureInfo struct {
	Type       uint8  `msgpack:"type"`
	KeyLocator string `msgpack:"key,omitempty"` // Identity name for keyed signatures
}

// Data is one publishable data object
type Data struct {
	Name            string        `msgpack:"name"`
	FreshnessPeriod time.Duration `msgpack:"freshness,omitempty"`
	ContentType     uint32        `msgpack:"ctype,omitempty"`
	Content         []byte        `msgpack:"content"`
	SignatureInfo   SignatureInfo `msgpack:"siginfo"`
	SignatureValue  []byte        `msgpack:"sigvalue,omitempty"`
}

// Encode serializes the data object for emission
func (d *Data) Encode() ([]byte, error) {
	b, err := msgpack.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode data object %s: %w", d.Name, err)
	}
	return b, nil
}

// Decode deserializes a data object received from the overlay
func Decode(b []byte) (*Data, error) {
	var d Data
	if err := msgpack.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("failed to decode data object: %w", err)
	}
	return &d, nil
}

// signedBytes is the portion of the object covered by the signature:
// everything except the signature value itself.
func (d *Data) signedBytes() ([]byte, error) {
	unsigned := *d
	unsigned.SignatureValue = nil
	b, err := msgpack.Marshal(&unsigned)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signed portion of %s: %w", d.Name, err)
	}
	return b, nil
}

// ValidateName checks that a content name is a usable prefix
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("content name cannot be empty")
	}
	if !strings.HasPrefix(name, "/") {
		return fmt.Errorf("content name %q must start with '/'", name)
	}
	return nil
}
