// Contact Crawler - LLM-driven contact extraction from websites
//
// Contact Crawler points a tool-calling language model agent at a list of
// seed URLs and collects the contact persons it finds there into CSV
// tables. The model browses each site through a visit_url tool, stores
// findings through a save_contact tool, and the pipeline reconciles
// everything it reported across pages and runs.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/smallnest/contactcrawler
//
// Basic example:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		openai "github.com/sashabaranov/go-openai"
//
//		"github.com/smallnest/contactcrawler/agent"
//		"github.com/smallnest/contactcrawler/crawler"
//		"github.com/smallnest/contactcrawler/pipeline"
//	)
//
//	func main() {
//		client := openai.NewClient("your-api-key")
//		fetcher := crawler.New()
//
//		orchestrator := pipeline.New(func() *agent.Session {
//			return agent.NewSession(client, fetcher)
//		})
//
//		contacts, usage, err := orchestrator.Run(context.Background(),
//			[]string{"https://www.example.org"})
//		if err != nil {
//			panic(err)
//		}
//		fmt.Printf("found %d contacts using %d tokens\n", len(contacts), usage.Total)
//	}
//
// # Packages
//
//   - agent: the conversation loop, tool registry and session state
//   - cache: the per-session LRU page cache
//   - crawler: page fetching and HTML cleaning
//   - contact: contact records and reconciliation
//   - pipeline: the two-stage discovery/enrichment orchestration
//   - store: CSV table input and output
//   - config: environment configuration for the CLI
//   - log: leveled logging with a pluggable backend
//
// The contactcrawler command under cmd/ ties these together: it reads the
// seed URLs from a contacts.csv, runs the pipeline and writes
// contacts_updated.csv and contacts_merged.csv.
package contactcrawler
