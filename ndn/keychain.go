package ndn

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
)

// KeyChain signs data objects according to a signing-descriptor string.
// Recognized descriptors:
//
//	""              - sha256 digest (default)
//	"digest"        - sha256 digest
//	"id:/<name>"    - ed25519 keyed by identity name, generated on first use
//	"hmac:<secret>" - hmac-sha256; the key locator carries a secret digest,
//	                  never the secret itself
type KeyChain struct {
	mu          sync.Mutex
	identities  map[string]ed25519.PrivateKey
	hmacSecrets map[string]string
}

// NewKeyChain creates an empty keychain
func NewKeyChain() *KeyChain {
	return &KeyChain{
		identities:  make(map[string]ed25519.PrivateKey),
		hmacSecrets: make(map[string]string),
	}
}

// Sign computes and attaches the signature for the descriptor
func (kc *KeyChain) Sign(d *Data, signingInfo string) error {
	scheme, arg, err := parseSigningInfo(signingInfo)
	if err != nil {
		return err
	}

	locator := arg
	if scheme == SigHmacSha256 {
		locator = hmacLocator(arg)
		kc.mu.Lock()
		kc.hmacSecrets[locator] = arg
		kc.mu.Unlock()
	}
	d.SignatureInfo = SignatureInfo{Type: scheme, KeyLocator: locator}

	msg, err := d.signedBytes()
	if err != nil {
		return err
	}

	switch scheme {
	case SigSha256:
		sum := sha256.Sum256(msg)
		d.SignatureValue = sum[:]
	case SigEd25519:
		key, err := kc.identityKey(arg)
		if err != nil {
			return err
		}
		d.SignatureValue = ed25519.Sign(key, msg)
	case SigHmacSha256:
		mac := hmac.New(sha256.New, []byte(arg))
		mac.Write(msg)
		d.SignatureValue = mac.Sum(nil)
	}
	return nil
}

// Verify checks the signature attached to a data object. Keyed schemes
// verify against this keychain's key material.
func (kc *KeyChain) Verify(d *Data) (bool, error) {
	msg, err := d.signedBytes()
	if err != nil {
		return false, err
	}

	switch d.SignatureInfo.Type {
	case SigSha256:
		sum := sha256.Sum256(msg)
		return hmac.Equal(sum[:], d.SignatureValue), nil
	case SigEd25519:
		key, err := kc.identityKey(d.SignatureInfo.KeyLocator)
		if err != nil {
			return false, err
		}
		return ed25519.Verify(key.Public().(ed25519.PublicKey), msg, d.SignatureValue), nil
	case SigHmacSha256:
		kc.mu.Lock()
		secret, ok := kc.hmacSecrets[d.SignatureInfo.KeyLocator]
		kc.mu.Unlock()
		if !ok {
			return false, fmt.Errorf("unknown hmac key locator %q on %s", d.SignatureInfo.KeyLocator, d.Name)
		}
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(msg)
		return hmac.Equal(mac.Sum(nil), d.SignatureValue), nil
	default:
		return false, fmt.Errorf("unknown signature type %d on %s", d.SignatureInfo.Type, d.Name)
	}
}

// identityKey returns the ed25519 key for an identity, generating and
// caching it on first use.
func (kc *KeyChain) identityKey(identity string) (ed25519.PrivateKey, error) {
	kc.mu.Lock()
	defer kc.mu.Unlock()

	if key, ok := kc.identities[identity]; ok {
		return key, nil
	}
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key for identity %s: %w", identity, err)
	}
	kc.identities[identity] = key
	return key, nil
}

func hmacLocator(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return fmt.Sprintf("%x", sum[:8])
}

// ValidateSigningInfo rejects descriptors the keychain cannot sign with
func ValidateSigningInfo(signingInfo string) error {
	_, _, err := parseSigningInfo(signingInfo)
	return err
}

// parseSigningInfo splits a descriptor into scheme and argument
func parseSigningInfo(signingInfo string) (uint8, string, error) {
	if signingInfo == "" || signingInfo == sigTypeNameDigest {
		return SigSha256, "", nil
	}

	scheme, arg, ok := strings.Cut(signingInfo, ":")
	if !ok {
		return 0, "", fmt.Errorf("invalid signing info %q", signingInfo)
	}
	switch scheme {
	case "id":
		if err := ValidateName(arg); err != nil {
			return 0, "", fmt.Errorf("invalid signing identity %q: %w", signingInfo, err)
		}
		return SigEd25519, arg, nil
	case "hmac":
		if arg == "" {
			return 0, "", fmt.Errorf("hmac signing info requires a secret")
		}
		return SigHmacSha256, arg, nil
	default:
		return 0, "", fmt.Errorf("unknown signing scheme %q", scheme)
	}
}
