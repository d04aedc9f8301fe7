package agent

import (
	"context"
	"fmt"

	"github.com/smallnest/contactcrawler/contact"
	"github.com/smallnest/contactcrawler/log"
)

func stringArg(args map[string]any, name string) string {
	value, _ := args[name].(string)
	return value
}

// visitURLTool returns the visit_url tool bound to this session's cache
// and page-fetch backend.
func (s *Session) visitURLTool() Tool {
	return Tool{
		Name:        "visit_url",
		Description: "Visit a URL and return the HTML",
		Params: []Param{
			{Name: "url", Type: "string", Description: "The URL to visit (can be absolute or relative)", Required: true},
		},
		Handler: s.visitURL,
	}
}

// visitURL serves a page from the session cache when possible; otherwise
// it notifies observers and fetches. A fetch failure is reported back to
// the model as the tool result so it can try a different URL.
func (s *Session) visitURL(ctx context.Context, args map[string]any) (string, error) {
	pageURL := stringArg(args, "url")
	if pageURL == "" {
		return "", fmt.Errorf("visit_url: missing required argument url")
	}

	if cached, ok := s.webCache.Get(pageURL); ok {
		log.Debug("session %s: using cached version of %s", s.id, pageURL)
		return cached, nil
	}

	s.notify(pageURL)
	cleaned, err := s.fetcher.FetchCleanHTML(ctx, pageURL)
	if err != nil {
		log.Warn("session %s: %v", s.id, err)
		return fmt.Sprintf("failed to load page %s: %v", pageURL, err), nil
	}

	s.webCache.Put(pageURL, cleaned)
	return cleaned, nil
}

// saveContactTool returns the save_contact tool bound to this session's
// contact accumulator.
func (s *Session) saveContactTool() Tool {
	return Tool{
		Name:        "save_contact",
		Description: "Save a contact",
		Params: []Param{
			{Name: "name", Type: "string", Description: "The name of the contact", Required: true},
			{Name: "political_party", Type: "string", Description: "The political party of the contact"},
			{Name: "position", Type: "string", Description: "The position of the contact, i.e. 'Vorsitzender'"},
			{Name: "email", Type: "string", Description: "The email of the contact"},
			{Name: "phone", Type: "string", Description: "The phone number of the contact"},
			{Name: "contact_url", Type: "string", Description: "The url of the contact"},
			{Name: "address", Type: "string", Description: "The address of the contact"},
			{Name: "additional_info", Type: "string", Description: "Additional information about the contact"},
		},
		Handler: s.saveContact,
	}
}

// saveContact appends a contact record stamped with the session's start
// URL. Missing optional fields stay empty until output formatting.
func (s *Session) saveContact(_ context.Context, args map[string]any) (string, error) {
	name := stringArg(args, "name")
	if name == "" {
		return "", fmt.Errorf("save_contact: missing required argument name")
	}

	c := contact.Contact{
		Name:           name,
		PoliticalParty: stringArg(args, "political_party"),
		Position:       stringArg(args, "position"),
		Email:          stringArg(args, "email"),
		Phone:          stringArg(args, "phone"),
		ContactURL:     stringArg(args, "contact_url"),
		Address:        stringArg(args, "address"),
		AdditionalInfo: stringArg(args, "additional_info"),
		StartURL:       s.startURL,
	}
	s.contacts = append(s.contacts, c)

	confirmation := fmt.Sprintf("Successfully saved contact: %s", c.Summary())
	log.Debug("session %s: %s", s.id, confirmation)
	return confirmation, nil
}
