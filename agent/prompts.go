package agent

import "strings"

// PromptFindContacts seeds a discovery session for one start URL.
const PromptFindContacts = `I am trying to find the people responsible for transport policy on a website.
If they are found, they should be saved.
Usually there are several people on a site and they belong to one party.
If you have found the right website, then I would like to have exactly one person from each party.
Here is the url: {url}`

// PromptUpdateContact seeds an enrichment session for one person's detail
// subpage.
const PromptUpdateContact = `I am trying to find information about this person on a website.
When you have found the information, you want it to be saved.
Here is the person: {person} and the url: {contact_url}`

// renderPrompt substitutes {key} placeholders in a template with the
// supplied parameters. Unknown placeholders are left in place.
func renderPrompt(template string, params map[string]string) string {
	rendered := template
	for key, value := range params {
		rendered = strings.ReplaceAll(rendered, "{"+key+"}", value)
	}
	return rendered
}
