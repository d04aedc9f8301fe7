// Package contact defines the contact record produced by crawling sessions
// and the pure reconciliation functions that combine records discovered by
// different sessions and runs. Reconciliation never mutates its inputs;
// every function returns a fresh slice, so results from concurrent sessions
// can be combined without locking.
package contact

import "fmt"

// Unknown is the sentinel written in place of missing field values when a
// contact is formatted for display or export. It is never used as a merge
// key and is never stored before output formatting.
const Unknown = "Unbekannt"

// Separator joins conflicting observations of the same field during a
// merge, existing value first.
const Separator = " | "

// Contact is one extracted contact record. Name is the only required
// field; an empty string in any other field means the value is not known
// yet. StartURL records the seed URL the discovering session began from,
// LastUpdated is stamped once per full run.
type Contact struct {
	Name           string
	PoliticalParty string
	Position       string
	Email          string
	Phone          string
	ContactURL     string
	Address        string
	AdditionalInfo string
	StartURL       string
	LastUpdated    string
}

// optionalFields returns pointers to every field that participates in
// reconciliation, in a fixed order. Name is the merge key and LastUpdated
// is stamped per run; neither is included.
func (c *Contact) optionalFields() []*string {
	return []*string{
		&c.PoliticalParty,
		&c.Position,
		&c.Email,
		&c.Phone,
		&c.ContactURL,
		&c.Address,
		&c.AdditionalInfo,
		&c.StartURL,
	}
}

// Summary renders the record as a single log line, with missing values
// shown as Unknown.
func (c Contact) Summary() string {
	filled := FillUnknown([]Contact{c})[0]
	return fmt.Sprintf("Name: %s, Partei: %s, Position: %s, Email: %s, Telefon: %s, Website: %s, Adresse: %s, Zusätzliche Infos: %s",
		filled.Name, filled.PoliticalParty, filled.Position, filled.Email,
		filled.Phone, filled.ContactURL, filled.Address, filled.AdditionalInfo)
}
