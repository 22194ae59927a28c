package account

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Iron-Ham/watchdesk/internal/errors"
)

var (
	hasLetter     = regexp.MustCompile(`[a-zA-Z]`)
	hasDigit      = regexp.MustCompile(`[0-9]`)
	hasSpecial    = regexp.MustCompile(`[^a-zA-Z0-9]`)
	hasStrongMark = regexp.MustCompile(`[!@#$%^&*]`)
)

// Validation messages.
const (
	MsgLoginRequired       = "Enter your employee number and a password of at least 6 characters."
	MsgAllFieldsRequired   = "Please fill in every field."
	MsgWeakNewPassword     = "The new password must be at least 8 characters and include a letter, a digit and one of !@#$%^&*."
	MsgConfirmMismatch     = "The new password and its confirmation do not match."
	MsgSameAsCurrent       = "The new password must differ from the current password."
	MsgPasswordRequired    = "Please enter your password."
	MsgSignupEmpLength     = "The employee number must be 6 to 10 characters."
	MsgSignupPwTooShort    = "The password must be at least 8 characters."
	MsgSignupPwTooLong     = "The password must be at most 20 characters."
	MsgSignupPwLetter      = "The password must include a letter."
	MsgSignupPwDigit       = "The password must include a digit."
	MsgSignupPwSpecial     = "The password must include a special character."
	MsgSignupPwMismatch    = "The passwords do not match."
	MsgSignupNameLength    = "The name must be 2 to 20 characters."
	MsgSignupEmailRequired = "Please enter your email address."
	MsgSignupEmailInvalid  = "Please enter a valid email address."
	MsgSignupPhoneRequired = "Please enter your phone number."
)

// LoginRequest is the login form.
type LoginRequest struct {
	EmpNumber    string
	Password     string
	KeepLoggedIn bool
	// SaveID remembers EmpNumber for the next login form.
	SaveID bool
}

// Validate checks the login form.
func (r LoginRequest) Validate() error {
	if strings.TrimSpace(r.EmpNumber) == "" || utf8.RuneCountInString(r.Password) < 6 {
		return errors.NewValidationError(MsgLoginRequired)
	}
	return nil
}

// SignupForm is the registration form.
type SignupForm struct {
	EmpNumber       string
	Password        string
	ConfirmPassword string
	Name            string
	Email           string
	Phone           string
}

// Validate checks every field and returns one ValidationError per problem,
// in form order. A nil result means the form is valid.
func (f SignupForm) Validate() []*errors.ValidationError {
	var out []*errors.ValidationError
	add := func(field, msg string) {
		out = append(out, errors.NewValidationError(msg).WithField(field))
	}

	if n := utf8.RuneCountInString(f.EmpNumber); n < 6 || n > 10 {
		add("emp_number", MsgSignupEmpLength)
	}

	pwLen := utf8.RuneCountInString(f.Password)
	switch {
	case pwLen < 8:
		add("password", MsgSignupPwTooShort)
	case pwLen > 20:
		add("password", MsgSignupPwTooLong)
	}
	if !hasLetter.MatchString(f.Password) {
		add("password", MsgSignupPwLetter)
	}
	if !hasDigit.MatchString(f.Password) {
		add("password", MsgSignupPwDigit)
	}
	if !hasSpecial.MatchString(f.Password) {
		add("password", MsgSignupPwSpecial)
	}
	if f.Password != f.ConfirmPassword {
		add("confirm_password", MsgSignupPwMismatch)
	}

	if n := utf8.RuneCountInString(f.Name); n < 2 || n > 20 {
		add("name", MsgSignupNameLength)
	}

	switch {
	case f.Email == "":
		add("email", MsgSignupEmailRequired)
	case !validEmail(f.Email):
		add("email", MsgSignupEmailInvalid)
	}

	if f.Phone == "" {
		add("phone", MsgSignupPhoneRequired)
	}
	return out
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	// reject display-name forms such as "Kim <kim@example.com>"
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@")+1:], ".")
}

// ValidateNewPassword checks a password change request.
func ValidateNewPassword(current, next, confirm string) error {
	if current == "" || next == "" || confirm == "" {
		return errors.NewValidationError(MsgAllFieldsRequired)
	}
	if !isStrong(next, 8) {
		return errors.NewValidationError(MsgWeakNewPassword).WithField("new_password")
	}
	if next != confirm {
		return errors.NewValidationError(MsgConfirmMismatch).WithField("confirm_password")
	}
	if next == current {
		return errors.NewValidationError(MsgSameAsCurrent).WithField("new_password")
	}
	return nil
}

func isStrong(pw string, minLen int) bool {
	return utf8.RuneCountInString(pw) >= minLen &&
		hasLetter.MatchString(pw) &&
		hasDigit.MatchString(pw) &&
		hasStrongMark.MatchString(pw)
}

// Strength grades a candidate password.
type Strength int

const (
	StrengthNone Strength = iota
	StrengthWeak
	StrengthMedium
	StrengthStrong
)

func (s Strength) String() string {
	switch s {
	case StrengthWeak:
		return "weak"
	case StrengthMedium:
		return "medium"
	case StrengthStrong:
		return "strong"
	default:
		return ""
	}
}

// PasswordStrength grades pw: strong when it would pass the server's
// strict rule at 10 characters, medium from 6 characters, weak otherwise.
func PasswordStrength(pw string) Strength {
	switch {
	case pw == "":
		return StrengthNone
	case isStrong(pw, 10):
		return StrengthStrong
	case utf8.RuneCountInString(pw) >= 6:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}
