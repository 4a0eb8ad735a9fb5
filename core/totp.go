package core

import (
	"bytes"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpPeriod     = 30 // seconds per time step
	totpSecretSize = 20 // bytes, 160 bits of entropy
	totpSkew       = 1  // accepted steps either side of now
)

// TOTPEngine generates enrollment material and validates one-time codes.
// Standard RFC 6238 parameters: SHA1, 6 digits, 30-second steps.
type TOTPEngine struct {
	Issuer string
}

// TwoFactorEnrollment is returned by 2FA setup. QRCode is a PNG data URI
// encoding the otpauth:// URL; Secret is the same secret in base32 for
// manual entry.
type TwoFactorEnrollment struct {
	Secret string `json:"secret"`
	QRCode string `json:"qrCode"`
	URL    string `json:"-"`
}

// GenerateEnrollment produces a fresh secret for the account plus the
// scannable artifact an authenticator app enrolls from. Deterministic in
// everything except the secret itself.
func (e *TOTPEngine) GenerateEnrollment(username string) (*TwoFactorEnrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.Issuer,
		AccountName: username,
		Period:      totpPeriod,
		SecretSize:  totpSecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp key: %w", err)
	}

	img, err := key.Image(200, 200)
	if err != nil {
		return nil, fmt.Errorf("failed to render enrollment image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode enrollment image: %w", err)
	}

	return &TwoFactorEnrollment{
		Secret: key.Secret(),
		QRCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		URL:    key.URL(),
	}, nil
}

// VerifyCode checks a submitted code against the secret for the current time
// step and one step either side, tolerating clock skew. It returns the
// matched counter so callers can reject replays of an already-used step.
func (e *TOTPEngine) VerifyCode(secret, code string, now time.Time) (bool, int64) {
	if secret == "" || len(code) != 6 {
		return false, 0
	}

	base := now.Unix() / totpPeriod
	for step := int64(-totpSkew); step <= totpSkew; step++ {
		counter := base + step
		if counter < 0 {
			continue
		}

		expected, err := totp.GenerateCodeCustom(secret, time.Unix(counter*totpPeriod, 0), totp.ValidateOpts{
			Period:    totpPeriod,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil {
			return false, 0
		}

		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return true, counter
		}
	}

	return false, 0
}
