package security

import (
	"errors"
	"testing"
)

func TestPasswordPolicyMinLength(t *testing.T) {
	policy := NewPasswordPolicy(8, 0)

	if err := policy.Validate("short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	if err := policy.Validate("long enough password"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestPasswordPolicyStrengthFloor(t *testing.T) {
	policy := NewPasswordPolicy(8, 3)

	if err := policy.Validate("password1"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword for dictionary password, got %v", err)
	}

	if err := policy.Validate("kT9#vLm2$xQw7!pZ"); err != nil {
		t.Fatalf("expected strong password to pass, got %v", err)
	}
}

func TestPasswordPolicyPenalizesUserInputs(t *testing.T) {
	policy := NewPasswordPolicy(8, 3)

	if err := policy.Validate("ann.smith@x.com", "Ann Smith", "ann.smith@x.com"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected password matching user inputs to fail, got %v", err)
	}
}
