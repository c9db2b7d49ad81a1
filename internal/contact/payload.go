// Package contact defines the contact-form submission payload and its
// validation rules. Validate is pure so the same rules can back both the
// client-side preview and the authoritative server check.
package contact

import "strings"

// Payload is an inbound contact submission. Website is a hidden honeypot
// field; legitimate users never populate it.
type Payload struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Company       string `json:"company,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Message       string `json:"message" validate:"required,min=10"`
	Website       string `json:"website,omitempty"`
	CaptchaAnswer string `json:"captchaAnswer"`
	CaptchaToken  string `json:"captchaToken"`
}

// ValidationResult reports the outcome of validating a payload. OK is true
// iff Errors is empty. Data holds the normalized payload regardless of
// outcome.
type ValidationResult struct {
	OK     bool              `json:"ok"`
	Errors map[string]string `json:"errors"`
	Data   Payload           `json:"data"`
}

// normalize trims every field of the payload.
func normalize(p Payload) Payload {
	return Payload{
		Name:          strings.TrimSpace(p.Name),
		Email:         strings.TrimSpace(p.Email),
		Company:       strings.TrimSpace(p.Company),
		Phone:         strings.TrimSpace(p.Phone),
		Message:       strings.TrimSpace(p.Message),
		Website:       strings.TrimSpace(p.Website),
		CaptchaAnswer: strings.TrimSpace(p.CaptchaAnswer),
		CaptchaToken:  strings.TrimSpace(p.CaptchaToken),
	}
}

// EmailDomain returns the lowercased domain part of an email address, or ""
// when the address has no @.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at == -1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
