package employee

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompt asks for each field on w and reads one line per answer from r.
// A missing final newline is accepted; running out of input leaves the
// remaining fields empty. The result is validated.
func Prompt(r io.Reader, w io.Writer) (Record, error) {
	sc := bufio.NewScanner(r)
	ask := func(label string) string {
		fmt.Fprintf(w, "%s: ", label)
		if !sc.Scan() {
			return ""
		}
		return strings.TrimSpace(sc.Text())
	}

	var rec Record
	fmt.Fprintln(w, "Employee details:")
	rec.FullName = ask("Full name")
	rec.Position = ask("Position")
	rec.Company = ask("Company")
	rec.Department = ask("Department")
	rec.OfficeLocation = ask("Office location")

	fmt.Fprintln(w, "\nContact details:")
	rec.Contact.Email = ask("Email")
	rec.Contact.Telegram = ask("Telegram")

	fmt.Fprintln(w, "\nBranding:")
	rec.Branding.LogoURL = ask("Logo path or URL")
	rec.Branding.CorporateColors.Primary = ask("Primary color (hex)")
	rec.Branding.CorporateColors.Secondary = ask("Secondary color (hex)")
	rec.Branding.Slogan = ask("Slogan")

	rec.PrivacyLevel = PrivacyLevel(strings.ToLower(ask("\nPrivacy level (low/medium/high)")))

	if err := sc.Err(); err != nil {
		return Record{}, fmt.Errorf("reading answers: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}
