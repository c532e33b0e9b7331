package security

import (
	"errors"
	"fmt"

	zxcvbn "github.com/nbutton23/zxcvbn-go"

	"github.com/gustavo-gsp/TaskFlow/internal/core/port"
)

// ErrWeakPassword indicates the candidate password fails the policy.
var ErrWeakPassword = errors.New("password does not meet requirements")

// PasswordPolicy enforces a minimum length plus a zxcvbn strength floor. The
// caller's own inputs (name, email) are penalized by the estimator so users
// cannot reuse their identity as a password.
type PasswordPolicy struct {
	minLength int
	minScore  int
}

// NewPasswordPolicy builds a policy. minScore is the zxcvbn score floor in
// [0,4]; values outside the range are clamped.
func NewPasswordPolicy(minLength, minScore int) *PasswordPolicy {
	if minLength <= 0 {
		minLength = 8
	}
	if minScore < 0 {
		minScore = 0
	}
	if minScore > 4 {
		minScore = 4
	}
	return &PasswordPolicy{minLength: minLength, minScore: minScore}
}

// MinLength returns the configured minimum password length.
func (p *PasswordPolicy) MinLength() int {
	return p.minLength
}

// Validate returns ErrWeakPassword (wrapped with a reason) when the password
// is too short or too guessable.
func (p *PasswordPolicy) Validate(password string, userInputs ...string) error {
	if len(password) < p.minLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, p.minLength)
	}

	if p.minScore > 0 {
		result := zxcvbn.PasswordStrength(password, userInputs)
		if result.Score < p.minScore {
			return fmt.Errorf("%w: too easy to guess", ErrWeakPassword)
		}
	}

	return nil
}

var _ port.PasswordPolicy = (*PasswordPolicy)(nil)
