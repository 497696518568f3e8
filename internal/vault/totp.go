package vault

import (
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// ErrNoTOTP is returned when an entry has no otp field.
var ErrNoTOTP = errors.New("entry does not have totp")

// TOTP generates the one-time code valid at t from the entry's otp field.
func (e *Entry) TOTP(t time.Time) (string, error) {
	v, ok := e.Get(FieldOTP)
	if !ok || v.Kind() == KindBinary {
		return "", ErrNoTOTP
	}

	key, err := otp.NewKeyFromURL(v.Text())
	if err != nil {
		return "", fmt.Errorf("error generating totp: %w", err)
	}

	period := uint(key.Period())
	if period == 0 {
		period = 30
	}
	code, err := totp.GenerateCodeCustom(key.Secret(), t, totp.ValidateOpts{
		Period:    period,
		Digits:    key.Digits(),
		Algorithm: key.Algorithm(),
	})
	if err != nil {
		return "", fmt.Errorf("error generating totp: %w", err)
	}
	return code, nil
}
