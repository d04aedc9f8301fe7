package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/smallnest/contactcrawler/contact"
)

// utf8BOM is prepended to written files so spreadsheet applications
// detect the encoding.
const utf8BOM = "\ufeff"

var columns = []string{
	"name",
	"political_party",
	"position",
	"email",
	"phone",
	"contact_url",
	"address",
	"additional_info",
	"start_url",
	"last_updated",
}

// Write renders contacts as CSV, BOM first.
func Write(w io.Writer, contacts []contact.Contact) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("failed to write contact table: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write contact table: %w", err)
	}
	for _, c := range contacts {
		record := []string{
			c.Name,
			c.PoliticalParty,
			c.Position,
			c.Email,
			c.Phone,
			c.ContactURL,
			c.Address,
			c.AdditionalInfo,
			c.StartURL,
			c.LastUpdated,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write contact table: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write contact table: %w", err)
	}
	return nil
}

// WriteFile writes contacts to a CSV file, replacing it if present.
func WriteFile(path string, contacts []contact.Contact) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := Write(f, contacts); err != nil {
		return err
	}
	return f.Close()
}

// Read parses a contact table. Columns are matched by header name;
// unknown columns are ignored and absent ones read as empty. A table
// without a start_url column is rejected.
func Read(r io.Reader) ([]contact.Contact, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read contact table header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		index[strings.TrimSpace(name)] = i
	}
	if _, ok := index["start_url"]; !ok {
		return nil, fmt.Errorf("contact table has no start_url column")
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var contacts []contact.Contact
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read contact table: %w", err)
		}
		contacts = append(contacts, contact.Contact{
			Name:           field(record, "name"),
			PoliticalParty: field(record, "political_party"),
			Position:       field(record, "position"),
			Email:          field(record, "email"),
			Phone:          field(record, "phone"),
			ContactURL:     field(record, "contact_url"),
			Address:        field(record, "address"),
			AdditionalInfo: field(record, "additional_info"),
			StartURL:       field(record, "start_url"),
			LastUpdated:    field(record, "last_updated"),
		})
	}
	return contacts, nil
}

// ReadFile reads a contact table from a CSV file.
func ReadFile(path string) ([]contact.Contact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// StartURLs returns the distinct start URLs of a table in first-seen
// order, skipping empty values. These seed the discovery stage.
func StartURLs(contacts []contact.Contact) []string {
	seen := make(map[string]struct{}, len(contacts))
	var urls []string
	for _, c := range contacts {
		if c.StartURL == "" {
			continue
		}
		if _, ok := seen[c.StartURL]; ok {
			continue
		}
		seen[c.StartURL] = struct{}{}
		urls = append(urls, c.StartURL)
	}
	return urls
}
