package models

import (
	"strings"

	participant "termo/internal/participant/models"
	dErrors "termo/pkg/domain-errors"
)

// ComposeRequest asks for a consent document to be (re)generated.
type ComposeRequest struct {
	ContactName  string                 `json:"contact_name"`
	ContactPhone string                 `json:"contact_phone"`
	Overrides    *participant.Overrides `json:"overrides,omitempty"`
}

// Normalize trims the contact fields.
func (r *ComposeRequest) Normalize() {
	r.ContactName = strings.TrimSpace(r.ContactName)
	r.ContactPhone = strings.TrimSpace(r.ContactPhone)
}

// Validate requires both emergency contact fields.
func (r *ComposeRequest) Validate() error {
	if r.ContactName == "" {
		return dErrors.New(dErrors.CodeValidation, "contact_name is required")
	}
	if r.ContactPhone == "" {
		return dErrors.New(dErrors.CodeValidation, "contact_phone is required")
	}
	return nil
}

// SignRequest carries a hand-drawn signature, base64 or data URI encoded.
// Resign allows stamping a document that is already signed.
type SignRequest struct {
	Signature string `json:"signature"`
	Resign    bool   `json:"resign,omitempty"`
}

// Normalize trims the payload.
func (r *SignRequest) Normalize() {
	r.Signature = strings.TrimSpace(r.Signature)
}

// Validate requires a signature payload.
func (r *SignRequest) Validate() error {
	if r.Signature == "" {
		return dErrors.New(dErrors.CodeValidation, "signature is required")
	}
	return nil
}

// SignResult reports a completed signature.
type SignResult struct {
	Success     bool   `json:"success"`
	DocumentURL string `json:"document_url"`
	// Recovered is set when the document already carried the signature and
	// only the flag had to be updated.
	Recovered bool `json:"recovered,omitempty"`
}
