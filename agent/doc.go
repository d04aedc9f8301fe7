// Package agent runs tool-calling conversations against an LLM inference
// service to extract contact records from websites.
//
// A Session owns one conversation: it repeatedly sends the accumulated
// message history plus the tool schema to the model, executes the tool
// calls the model requests (visiting pages, saving contacts) and feeds the
// results back, until the model answers without requesting a tool. Each
// session owns a private page cache, its own contact accumulator and its
// own token counters, so any number of sessions can run concurrently
// without shared state.
//
// The inference service and the page-fetch backend are injected through
// the ChatCompleter and PageFetcher interfaces; *openai.Client and
// *crawler.Client satisfy them.
//
//	session := agent.NewSession(client, crawler.New())
//	contacts, err := session.Run(ctx, agent.PromptFindContacts,
//		map[string]string{"url": "https://musterstadt.example/rat"})
//
// Sampling uses a fixed seed and zero temperature, so identical
// conversation state reproduces identical tool-call sequences.
package agent
