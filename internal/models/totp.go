package models

import (
	"bytes"
	"encoding/base64"
	"image/png"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// NewTOTPKey issues a fresh TOTP secret for a user account.
func NewTOTPKey(username, issuer string) (*otp.Key, error) {
	return totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: username,
	})
}

// TOTPKeyQRCode renders the key as a base64-encoded PNG for enrollment.
func TOTPKeyQRCode(key *otp.Key) (string, error) {
	img, err := key.Image(200, 200)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ValidTOTPCode checks a one-time code against a stored secret.
func ValidTOTPCode(secret, code string) bool {
	return totp.Validate(code, secret)
}
