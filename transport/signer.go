package transport

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strings"

	"github.com/goliatone/go-verify/core"
)

// Signer produces HMAC-SHA256 request signatures keyed by the shared secret.
// The signed payload is every parameter except the signature itself, sorted
// by name and joined as "&name=value".
type Signer struct {
	Secret string
}

func (s Signer) Sign(params map[string]string) (string, error) {
	mac, err := s.mac()
	if err != nil {
		return "", err
	}
	_, _ = mac.Write([]byte(CanonicalParams(params)))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// SignBody signs a raw response body.
func (s Signer) SignBody(body []byte) (string, error) {
	mac, err := s.mac()
	if err != nil {
		return "", err
	}
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifyBody checks a hex signature against body in constant time.
func (s Signer) VerifyBody(body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return fmt.Errorf("transport: response signature is required")
	}
	decoded, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("transport: decode hex signature: %w", err)
	}
	mac, err := s.mac()
	if err != nil {
		return err
	}
	_, _ = mac.Write(body)
	if subtle.ConstantTimeCompare(decoded, mac.Sum(nil)) != 1 {
		return fmt.Errorf("transport: response signature verification failed")
	}
	return nil
}

func (s Signer) mac() (hash.Hash, error) {
	secret := strings.TrimSpace(s.Secret)
	if secret == "" {
		return nil, fmt.Errorf("transport: signature secret is required")
	}
	return hmac.New(sha256.New, []byte(secret)), nil
}

func CanonicalParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if key == core.ParamSignature || strings.TrimSpace(key) == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, key := range keys {
		b.WriteString("&")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(params[key])
	}
	return b.String()
}
