package internal

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	opaqueTokenSize = 32

	otpMin  = 100000
	otpSpan = 900000
)

// NewOpaqueToken returns 256 bits of crypto/rand output, hex encoded (64 chars).
// Used for session ids, email verification tokens and reset tokens.
func NewOpaqueToken() (string, error) {
	var raw [opaqueTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}

// NewOTP returns a 6-digit numeric code drawn uniformly from 100000-999999.
func NewOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", err
	}

	otp := fmt.Sprintf("%d", otpMin+n.Int64())
	if len(otp) != 6 {
		return "", fmt.Errorf("invalid otp generation length")
	}
	return otp, nil
}

// IsOpaqueToken reports whether s has the shape produced by NewOpaqueToken.
func IsOpaqueToken(s string) bool {
	if len(s) != opaqueTokenSize*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
