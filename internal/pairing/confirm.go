package pairing

import (
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/virtualhid/blehid/internal/platform"
)

// confirmInfo domain-separates the confirmation-value derivation from any
// other HKDF use of the same nonce material.
const confirmInfo = "blehid-pairing-confirm-v1"

// DeriveConfirmationValue computes the 6-digit numeric-comparison value a
// DisplayPasskey/NumericComparison pairing flow shows the user, derived via
// HKDF-SHA256 over the bond's server/client nonces.
func DeriveConfirmationValue(peer platform.PeerID, serverNonce, clientNonce []byte) (uint32, error) {
	secret := append(append([]byte(nil), serverNonce...), clientNonce...)
	r := hkdf.New(sha256.New, secret, []byte(peer), []byte(confirmInfo))
	okm := make([]byte, 4)
	if _, err := io.ReadFull(r, okm); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(okm) % 1_000_000, nil
}
