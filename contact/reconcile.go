package contact

import (
	"sort"

	"github.com/smallnest/contactcrawler/log"
)

// Dedupe returns a new slice keeping only the first occurrence of each
// distinct name, preserving the original relative order. Names are
// compared case-sensitively.
func Dedupe(contacts []Contact) []Contact {
	seen := make(map[string]struct{}, len(contacts))
	unique := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}

// WithSubpage returns the contacts whose ContactURL is set. Contacts
// without one are not silently dropped: each is reported through the
// package logger so missing subpages stay visible in the run output.
func WithSubpage(contacts []Contact) []Contact {
	kept := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.ContactURL == "" || c.ContactURL == Unknown {
			log.Warn("Für den Kontakt %s wurde keine Unterseite gefunden.", c.Name)
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// FillUnknown returns a copy of contacts in which every empty field is
// replaced by the Unknown sentinel. Present values are never altered.
// The result is meant for display and export only.
func FillUnknown(contacts []Contact) []Contact {
	filled := make([]Contact, len(contacts))
	for i, c := range contacts {
		for _, field := range c.optionalFields() {
			if *field == "" {
				*field = Unknown
			}
		}
		filled[i] = c
	}
	return filled
}

// MergeLists combines two contact lists keyed by name so that no
// observation from either list is lost. Contacts only present in one list
// are kept as-is. When both lists carry the same name, each field takes
// whichever value is present; if both are present and differ, the values
// are joined with Separator, first list's value first. Order: first list's
// contacts in their order, then names new in the second list in encounter
// order.
func MergeLists(first, second []Contact) []Contact {
	merged := make([]Contact, 0, len(first)+len(second))
	position := make(map[string]int, len(first))

	for _, c := range first {
		if _, ok := position[c.Name]; ok {
			continue
		}
		position[c.Name] = len(merged)
		merged = append(merged, c)
	}

	for _, c := range second {
		idx, ok := position[c.Name]
		if !ok {
			position[c.Name] = len(merged)
			merged = append(merged, c)
			continue
		}
		existing := &merged[idx]
		incoming := c
		existingFields := existing.optionalFields()
		for i, field := range incoming.optionalFields() {
			*existingFields[i] = mergeValue(*existingFields[i], *field)
		}
	}

	return merged
}

func mergeValue(existing, incoming string) string {
	switch {
	case incoming == "":
		return existing
	case existing == "" || existing == incoming:
		return incoming
	default:
		return existing + Separator + incoming
	}
}

// MergeTables reconciles a previous run's table with a freshly produced
// one. When both tables hold a row for the same (name, start_url) pair,
// only the updated row is kept. The result is ordered by start URL; within
// one start URL, updated rows come before surviving original rows.
func MergeTables(original, updated []Contact) []Contact {
	type key struct {
		name     string
		startURL string
	}

	fresh := make(map[key]struct{}, len(updated))
	for _, c := range updated {
		fresh[key{c.Name, c.StartURL}] = struct{}{}
	}

	type row struct {
		contact  Contact
		fromOld  bool
		position int
	}
	rows := make([]row, 0, len(original)+len(updated))
	for _, c := range updated {
		rows = append(rows, row{contact: c, position: len(rows)})
	}
	for _, c := range original {
		if _, replaced := fresh[key{c.Name, c.StartURL}]; replaced {
			continue
		}
		rows = append(rows, row{contact: c, fromOld: true, position: len(rows)})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].contact.StartURL != rows[j].contact.StartURL {
			return rows[i].contact.StartURL < rows[j].contact.StartURL
		}
		if rows[i].fromOld != rows[j].fromOld {
			return !rows[i].fromOld
		}
		return rows[i].position < rows[j].position
	})

	merged := make([]Contact, len(rows))
	for i, r := range rows {
		merged[i] = r.contact
	}
	return merged
}

// StampTime sets LastUpdated on every contact to the given timestamp,
// returning a new slice.
func StampTime(contacts []Contact, timestamp string) []Contact {
	stamped := make([]Contact, len(contacts))
	for i, c := range contacts {
		c.LastUpdated = timestamp
		stamped[i] = c
	}
	return stamped
}
