// Projectdesk - Project Management and Client Collaboration Backend
// Copyright 2026 EN Consulting
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/enconsulting/projectdesk

package auth

import (
	"bytes"
	"fmt"
	"image/png"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// totpSkew accepts codes from one time step before and after the current
// one, tolerating clock drift between server and authenticator.
const totpSkew = 1

// TOTPEnrollment is the material handed to a user enrolling in
// two-factor authentication.
type TOTPEnrollment struct {
	// Secret is the base32-encoded shared secret.
	Secret string
	// URI is the otpauth:// provisioning URI for authenticator apps.
	URI string
}

// GenerateTOTP creates a fresh TOTP secret for the account. The issuer
// and account email show up as the label in authenticator apps.
func GenerateTOTP(issuer, email string) (*TOTPEnrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp secret: %w", err)
	}
	return &TOTPEnrollment{Secret: key.Secret(), URI: key.URL()}, nil
}

// ValidateTOTP reports whether code is valid for secret at time now,
// allowing one step of clock skew in either direction.
func ValidateTOTP(code, secret string, now time.Time) bool {
	valid, err := totp.ValidateCustom(code, secret, now, totp.ValidateOpts{
		Period:    30,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && valid
}

// TOTPQRCode renders the provisioning URI for secret as a PNG QR code.
func TOTPQRCode(issuer, email, secret string, size int) ([]byte, error) {
	query := url.Values{}
	query.Set("secret", secret)
	query.Set("issuer", issuer)
	uri := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + issuer + ":" + email,
		RawQuery: query.Encode(),
	}

	key, err := otp.NewKeyFromURL(uri.String())
	if err != nil {
		return nil, fmt.Errorf("failed to build totp key: %w", err)
	}

	img, err := key.Image(size, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode qr png: %w", err)
	}
	return buf.Bytes(), nil
}
