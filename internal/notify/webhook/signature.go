package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/rakannimer/talk/internal/domain"
)

const SignatureHeader = "X-Coral-Signature"

// Sign computes the signature carried in the delivery header over the raw
// body bytes.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// SignaturesFor signs the body with every secret currently able to sign,
// newest first. Outside a rotation race that is a single signature; when two
// ACTIVE secrets briefly coexist the header carries both, newest leading.
func SignaturesFor(secrets []domain.Secret, body []byte) []string {
	signable := make([]domain.Secret, 0, len(secrets))
	for _, s := range secrets {
		if s.CanSign() {
			signable = append(signable, s)
		}
	}
	sort.Slice(signable, func(i, j int) bool {
		return signable[i].CreatedAt.After(signable[j].CreatedAt)
	})

	signatures := make([]string, 0, len(signable))
	for _, s := range signable {
		signatures = append(signatures, Sign(s.Secret, body))
	}
	return signatures
}

// Verify checks a received signature header against every secret still valid
// for verification at the given time. During a rotation window both the old
// and the new secret verify; once a secret's inactive_at has passed it no
// longer does.
func Verify(secrets []domain.Secret, now time.Time, body []byte, header string) bool {
	for _, provided := range strings.Split(header, ",") {
		provided = strings.TrimSpace(provided)
		if provided == "" {
			continue
		}
		for _, secret := range secrets {
			if !secret.CanVerify(now) {
				continue
			}
			if hmac.Equal([]byte(Sign(secret.Secret, body)), []byte(provided)) {
				return true
			}
		}
	}
	return false
}
