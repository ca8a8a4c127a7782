// Package employee defines the record a background is rendered from, its
// validation, the {"employee": {...}} JSON envelope, and how much of it each
// privacy level discloses.
package employee

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"

	"tools.zach/dev/dresscode/internal/atomicfile"
)

// ErrInvalidRecord is returned when a record fails validation.
var ErrInvalidRecord = errors.New("invalid employee record")

var (
	emailRe = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
	colorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)
)

// ///////////////////////////////////////////////
// Privacy Level
// ///////////////////////////////////////////////

// PrivacyLevel controls which fields are disclosed. Disclosure grows
// monotonically from Low to High.
type PrivacyLevel string

const (
	Low    PrivacyLevel = "low"
	Medium PrivacyLevel = "medium"
	High   PrivacyLevel = "high"
)

// Valid reports whether l is a known level or empty.
func (l PrivacyLevel) Valid() bool {
	switch l {
	case "", Low, Medium, High:
		return true
	}
	return false
}

// Effective maps the empty level to Low.
func (l PrivacyLevel) Effective() PrivacyLevel {
	if l == "" {
		return Low
	}
	return l
}

// ///////////////////////////////////////////////
// Record
// ///////////////////////////////////////////////

// Contact holds the contact channels encoded as QR codes.
type Contact struct {
	Email    string `json:"email"`
	Telegram string `json:"telegram"`
}

// ColorPair holds the corporate colors as "#RGB" or "#RRGGBB" strings.
type ColorPair struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Branding holds the visual identity of the employee's company.
type Branding struct {
	LogoURL         string    `json:"logo_url"`
	CorporateColors ColorPair `json:"corporate_colors"`
	Slogan          string    `json:"slogan"`
}

// Record is one employee. Empty strings are legal everywhere and render as
// empty text.
type Record struct {
	FullName       string       `json:"full_name"`
	Position       string       `json:"position"`
	Company        string       `json:"company"`
	Department     string       `json:"department"`
	OfficeLocation string       `json:"office_location"`
	Contact        Contact      `json:"contact"`
	Branding       Branding     `json:"branding"`
	PrivacyLevel   PrivacyLevel `json:"privacy_level"`
}

// Validate checks the email shape, both colors, and the privacy level.
func (r Record) Validate() error {
	var errs []error
	if r.Contact.Email != "" && !emailRe.MatchString(r.Contact.Email) {
		errs = append(errs, fmt.Errorf("%w: email %q", ErrInvalidRecord, r.Contact.Email))
	}
	for _, c := range []string{r.Branding.CorporateColors.Primary, r.Branding.CorporateColors.Secondary} {
		if c != "" && !colorRe.MatchString(c) {
			errs = append(errs, fmt.Errorf("%w: hex color %q", ErrInvalidRecord, c))
		}
	}
	if !r.PrivacyLevel.Valid() {
		errs = append(errs, fmt.Errorf("%w: privacy level %q must be low, medium, or high", ErrInvalidRecord, r.PrivacyLevel))
	}
	return errors.Join(errs...)
}

// Disclosed returns a copy of r with the fields its privacy level withholds
// blanked. Low keeps name and position, Medium adds company, department and
// office, High keeps everything. Branding is always kept.
func (r Record) Disclosed() Record {
	out := Record{
		FullName:     r.FullName,
		Position:     r.Position,
		Branding:     r.Branding,
		PrivacyLevel: r.PrivacyLevel,
	}
	switch r.PrivacyLevel.Effective() {
	case High:
		return r
	case Medium:
		out.Company = r.Company
		out.Department = r.Department
		out.OfficeLocation = r.OfficeLocation
	}
	return out
}

// ///////////////////////////////////////////////
// JSON Envelope
// ///////////////////////////////////////////////

// Envelope is the on-disk and over-the-wire wrapper.
type Envelope struct {
	Employee *Record `json:"employee"`
}

// Decode parses and validates an envelope.
func Decode(data []byte) (Record, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if env.Employee == nil {
		return Record{}, fmt.Errorf("%w: expected an object with an \"employee\" key", ErrInvalidRecord)
	}
	if err := env.Employee.Validate(); err != nil {
		return Record{}, err
	}
	return *env.Employee, nil
}

// Encode returns the envelope as UTF-8 JSON indented with four spaces.
// Non-ASCII text is written as is, not escaped.
func Encode(r Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(Envelope{Employee: &r}); err != nil {
		return nil, fmt.Errorf("encoding employee: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Load reads and validates the envelope at path.
func Load(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("reading employee file: %w", err)
	}
	r, err := Decode(data)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Save validates r and writes its envelope to path atomically.
func Save(path string, r Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	data, err := Encode(r)
	if err != nil {
		return err
	}
	return atomicfile.Write(path, data, 0o644)
}
