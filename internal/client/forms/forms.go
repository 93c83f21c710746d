// Package forms implements client-side credential validation. Validation is
// pure and local: a field that fails here never reaches the network.
package forms

import "regexp"

// Mode selects which rule set applies.
type Mode string

const (
	ModeSignIn Mode = "signin"
	ModeSignUp Mode = "signup"
)

// Field names used as FormErrors keys.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// Fields carries one submission's worth of credential input. The password
// slices are owned by the caller, which is responsible for wiping them after
// the submit attempt.
type Fields struct {
	Email           string
	Password        []byte
	ConfirmPassword []byte
}

// FormErrors maps a field name to a human-readable message. A field that is
// valid has no entry.
type FormErrors map[string]string

// Empty reports whether the validation pass produced no errors.
func (e FormErrors) Empty() bool { return len(e) == 0 }

// emailShape is the usual something@something.something check. Deliverability
// is the backend's problem; this only rejects obviously malformed input.
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks the fields against the rules for the given mode and
// returns the per-field errors. It is recomputed on every call; stale errors
// for fields that became valid simply do not reappear.
func Validate(f Fields, mode Mode) FormErrors {
	errs := FormErrors{}

	switch {
	case f.Email == "":
		errs[FieldEmail] = "Email is required"
	case !emailShape.MatchString(f.Email):
		errs[FieldEmail] = "Enter a valid email address"
	}

	switch {
	case len(f.Password) == 0:
		errs[FieldPassword] = "Password is required"
	case len(f.Password) < MinPasswordLength:
		errs[FieldPassword] = "Password must be at least 6 characters"
	}

	if mode == ModeSignUp {
		switch {
		case len(f.ConfirmPassword) == 0:
			errs[FieldConfirmPassword] = "Please confirm your password"
		case string(f.ConfirmPassword) != string(f.Password):
			errs[FieldConfirmPassword] = "Passwords do not match"
		}
	}

	return errs
}
