package models

import (
	"strings"
	"time"

	dErrors "termo/pkg/domain-errors"
)

// DocumentID is a participant's 11-digit national document number (CPF),
// stored without punctuation.
type DocumentID string

// DocumentIDLength is the number of digits in a DocumentID.
const DocumentIDLength = 11

// ParseDocumentID accepts "12345678901" or "123.456.789-01". Dots, dashes,
// slashes and spaces are stripped; anything else is rejected.
func ParseDocumentID(raw string) (DocumentID, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '/', r == ' ':
		default:
			return "", dErrors.New(dErrors.CodeValidation, "document id must contain only digits")
		}
	}
	if b.Len() != DocumentIDLength {
		return "", dErrors.New(dErrors.CodeValidation, "document id must have 11 digits")
	}
	return DocumentID(b.String()), nil
}

func (d DocumentID) String() string {
	return string(d)
}

// Masked keeps the first three and last two digits for logs.
func (d DocumentID) Masked() string {
	s := string(d)
	if len(s) < 6 {
		return strings.Repeat("*", len(s))
	}
	return s[:3] + strings.Repeat("*", len(s)-5) + s[len(s)-2:]
}

// Participant is one registration record.
type Participant struct {
	DocumentID    DocumentID `json:"document_id"`
	FullName      string     `json:"full_name"`
	GuardianName  string     `json:"guardian_name"`
	GuardianPhone string     `json:"guardian_phone"`
	Campus        string     `json:"campus"`
	Email         string     `json:"email"`
	Age           int        `json:"age"`
	ContactName   string     `json:"contact_name"`
	ContactPhone  string     `json:"contact_phone"`
	// DocumentPath is the public path of the generated document, empty until
	// the first compose.
	DocumentPath string     `json:"document_url,omitempty"`
	Signed       bool       `json:"signed"`
	SignedAt     *time.Time `json:"signed_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasDocument reports whether a document has been generated.
func (p *Participant) HasDocument() bool {
	return strings.TrimSpace(p.DocumentPath) != ""
}

// Details are the fields a compose request may change.
type Details struct {
	FullName      string
	GuardianName  string
	GuardianPhone string
	ContactName   string
	ContactPhone  string
}

// DetailsOf returns p's current editable fields.
func DetailsOf(p *Participant) Details {
	return Details{
		FullName:      p.FullName,
		GuardianName:  p.GuardianName,
		GuardianPhone: p.GuardianPhone,
		ContactName:   p.ContactName,
		ContactPhone:  p.ContactPhone,
	}
}

// Apply copies d onto p.
func (d Details) Apply(p *Participant) {
	p.FullName = d.FullName
	p.GuardianName = d.GuardianName
	p.GuardianPhone = d.GuardianPhone
	p.ContactName = d.ContactName
	p.ContactPhone = d.ContactPhone
}

// Overrides are caller-edited registration fields. Blank values keep the
// stored ones.
type Overrides struct {
	FullName      string `json:"full_name"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
}

// ApplyTo overwrites the fields of d for which o has a non-blank value.
func (o *Overrides) ApplyTo(d *Details) {
	if o == nil {
		return
	}
	if v := strings.TrimSpace(o.FullName); v != "" {
		d.FullName = v
	}
	if v := strings.TrimSpace(o.GuardianName); v != "" {
		d.GuardianName = v
	}
	if v := strings.TrimSpace(o.GuardianPhone); v != "" {
		d.GuardianPhone = v
	}
}

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// SignedFilter narrows the signed listing. SignedFrom is inclusive and
// SignedBefore exclusive.
type SignedFilter struct {
	Search       string
	Campus       string
	SignedFrom   *time.Time
	SignedBefore *time.Time
	Page         int
	Limit        int
}

// Normalize trims the text filters and clamps paging.
func (f SignedFilter) Normalize() SignedFilter {
	f.Search = strings.TrimSpace(f.Search)
	f.Campus = strings.TrimSpace(f.Campus)
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.Limit < 1:
		f.Limit = DefaultLimit
	case f.Limit > MaxLimit:
		f.Limit = MaxLimit
	}
	return f
}

// Offset is the number of rows skipped before the current page.
func (f SignedFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// SearchDigits is Search with everything but digits removed, used to match
// document id prefixes.
func (f SignedFilter) SearchDigits() string {
	var b strings.Builder
	for _, r := range f.Search {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Matches applies the text and date filters to p. It is the reference used by
// the in-memory store; SQL stores express the same predicate in their query.
func (f SignedFilter) Matches(p *Participant) bool {
	if !p.Signed || p.SignedAt == nil {
		return false
	}
	if f.Search != "" {
		name := strings.Contains(strings.ToLower(p.FullName), strings.ToLower(f.Search))
		digits := f.SearchDigits()
		doc := digits != "" && strings.HasPrefix(string(p.DocumentID), digits)
		if !name && !doc {
			return false
		}
	}
	if f.Campus != "" && !strings.Contains(strings.ToLower(p.Campus), strings.ToLower(f.Campus)) {
		return false
	}
	if f.SignedFrom != nil && p.SignedAt.Before(*f.SignedFrom) {
		return false
	}
	if f.SignedBefore != nil && !p.SignedAt.Before(*f.SignedBefore) {
		return false
	}
	return true
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes TotalPages for total rows.
func NewPagination(f SignedFilter, total int) Pagination {
	pages := 0
	if total > 0 {
		pages = (total + f.Limit - 1) / f.Limit
	}
	return Pagination{Page: f.Page, Limit: f.Limit, Total: total, TotalPages: pages}
}

// SignedPage is one page of signed participants.
type SignedPage struct {
	Items      []*Participant `json:"items"`
	Pagination Pagination     `json:"pagination"`
}

// Stats summarizes signed documents.
type Stats struct {
	TotalSigned   int `json:"total_signed"`
	TotalCampuses int `json:"total_campuses"`
}
