// Package pipeline orchestrates the two-stage contact extraction run:
// stage one discovers contacts per seed URL, stage two enriches every
// discovered contact that has a detail subpage. Sessions are fully
// independent units of work executed on bounded worker pools; results are
// collected in completion order and a failed session never aborts its
// siblings.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/smallnest/contactcrawler/agent"
	"github.com/smallnest/contactcrawler/contact"
	"github.com/smallnest/contactcrawler/log"
)

const (
	// DefaultDiscoveryWidth bounds the stage-one pool; discovery
	// sessions browse several pages each.
	DefaultDiscoveryWidth = 4
	// DefaultEnrichmentWidth bounds the stage-two pool; enrichment
	// sessions are lighter single-page visits.
	DefaultEnrichmentWidth = 8
)

// SessionFactory creates a fresh agent session for one unit of work.
// Every call must return a new session: sessions own private caches and
// accumulators and are never reused across units.
type SessionFactory func() *agent.Session

// Orchestrator runs discovery and enrichment sessions concurrently and
// reconciles their results into one contact table.
type Orchestrator struct {
	newSession      SessionFactory
	discoveryWidth  int
	enrichmentWidth int
	observer        agent.Observer
	now             func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDiscoveryWidth sets the stage-one worker pool width.
func WithDiscoveryWidth(width int) Option {
	return func(o *Orchestrator) {
		if width > 0 {
			o.discoveryWidth = width
		}
	}
}

// WithEnrichmentWidth sets the stage-two worker pool width.
func WithEnrichmentWidth(width int) Option {
	return func(o *Orchestrator) {
		if width > 0 {
			o.enrichmentWidth = width
		}
	}
}

// WithObserver attaches the given observer to every session, typically
// for progress display. The observer must be safe for concurrent use;
// sessions still keep their own observer lists.
func WithObserver(observer agent.Observer) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

// WithClock overrides the run timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an Orchestrator spawning sessions from the given factory.
func New(newSession SessionFactory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		newSession:      newSession,
		discoveryWidth:  DefaultDiscoveryWidth,
		enrichmentWidth: DefaultEnrichmentWidth,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the full pipeline for the given seed URLs and returns the
// reconciled contacts, each stamped with the run-start timestamp, plus
// the token usage summed over all sessions. Session failures are logged
// with their seed URL and excluded; only a context error aborts the run.
func (o *Orchestrator) Run(ctx context.Context, urls []string) ([]contact.Contact, agent.TokenUsage, error) {
	runStart := o.now()

	type unit struct {
		contacts []contact.Contact
		usage    agent.TokenUsage
		label    string
		err      error
	}

	results := make(chan unit, len(urls))
	sem := make(chan struct{}, o.discoveryWidth)
	var wg sync.WaitGroup

	for _, url := range urls {
		wg.Add(1)
		go func(seedURL string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results <- unit{label: seedURL, err: fmt.Errorf("panic: %v", r)}
				}
			}()
			sem <- struct{}{}
			defer func() { <-sem }()

			contacts, usage, err := o.findContacts(ctx, seedURL)
			results <- unit{contacts: contacts, usage: usage, label: seedURL, err: err}
		}(url)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []contact.Contact
	var usage agent.TokenUsage
	for res := range results {
		if res.err != nil {
			log.Error("Beim Durchsuchen von %s ist folgender Fehler aufgetreten: %v", res.label, res.err)
			continue
		}
		usage.Add(res.usage)
		all = append(all, res.contacts...)
	}

	if err := ctx.Err(); err != nil {
		return nil, usage, err
	}

	if len(all) == 0 {
		log.Info("Keine Kontakte gefunden.")
	}
	for _, c := range all {
		log.Info("%s", c.Summary())
	}

	timestamp := runStart.Format(time.RFC3339)
	return contact.StampTime(all, timestamp), usage, nil
}

// findContacts runs one discovery session for a seed URL and, when the
// discovered contacts point at detail subpages, the enrichment stage for
// them. The return value reconciles both passes so observations from
// either survive.
func (o *Orchestrator) findContacts(ctx context.Context, seedURL string) ([]contact.Contact, agent.TokenUsage, error) {
	session := o.newSession()
	if o.observer != nil {
		session.Attach(o.observer)
	}

	discovered, err := session.Run(ctx, agent.PromptFindContacts, map[string]string{"url": seedURL})
	if err != nil {
		return nil, session.Usage(), err
	}
	usage := session.Usage()
	log.Info("Tokens used: input %d, output %d", usage.Input, usage.Output)

	if len(discovered) == 0 {
		log.Info("Bei der Suche für die Seite %s wurden keine Kontakte gefunden", seedURL)
		return nil, usage, nil
	}

	log.Info("Bei der initialen Suche wurden folgende Kontakte gefunden:")
	for _, c := range discovered {
		log.Info("%s", c.Summary())
	}

	firstSearch := contact.Dedupe(discovered)

	// Contacts without a subpage are logged inside WithSubpage and stay
	// in the discovery result; only subpage holders enter stage two.
	eligible := contact.WithSubpage(discovered)
	if len(eligible) == 0 {
		return firstSearch, usage, nil
	}

	enriched, enrichmentUsage := o.updateContacts(ctx, eligible)
	usage.Add(enrichmentUsage)

	// Enrichment sessions start from a person's subpage, not a seed URL;
	// carry the seed over so the per-start-URL invariant holds.
	for i := range enriched {
		if enriched[i].StartURL == "" {
			enriched[i].StartURL = seedURL
		}
	}

	// MergeLists both deduplicates by name and keeps observations from
	// either pass, joining conflicting field values visibly.
	return contact.MergeLists(firstSearch, contact.Dedupe(enriched)), usage, nil
}

// updateContacts runs one enrichment session per contact on the stage-two
// pool. Failed sessions are logged with the affected contact and skipped.
func (o *Orchestrator) updateContacts(ctx context.Context, contacts []contact.Contact) ([]contact.Contact, agent.TokenUsage) {
	log.Info("Unterseiten werden jetzt für zusätzliche Informationen durchsucht.")

	type unit struct {
		contacts []contact.Contact
		usage    agent.TokenUsage
		label    string
		err      error
	}

	results := make(chan unit, len(contacts))
	sem := make(chan struct{}, o.enrichmentWidth)
	var wg sync.WaitGroup

	for _, c := range contacts {
		wg.Add(1)
		go func(person contact.Contact) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results <- unit{label: person.Name, err: fmt.Errorf("panic: %v", r)}
				}
			}()
			sem <- struct{}{}
			defer func() { <-sem }()

			session := o.newSession()
			if o.observer != nil {
				session.Attach(o.observer)
			}
			enriched, err := session.Run(ctx, agent.PromptUpdateContact, map[string]string{
				"person":      person.Name,
				"contact_url": person.ContactURL,
			})
			results <- unit{contacts: enriched, usage: session.Usage(), label: person.Name, err: err}
		}(c)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []contact.Contact
	var usage agent.TokenUsage
	for res := range results {
		if res.err != nil {
			log.Error("Die Unterseite für %s konnte nicht durchsucht werden: %v", res.label, res.err)
			continue
		}
		usage.Add(res.usage)
		all = append(all, res.contacts...)
	}
	return all, usage
}
