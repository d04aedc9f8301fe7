package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedChat replays a fixed sequence of model responses, recording the
// requests it was sent.
type scriptedChat struct {
	responses []openai.ChatCompletionResponse
	requests  []openai.ChatCompletionRequest
}

func (c *scriptedChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.requests = append(c.requests, req)
	if len(c.responses) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("script exhausted")
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func toolCallMessage(calls ...openai.ToolCall) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				ToolCalls: calls,
			},
		}},
		Usage: openai.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}
}

func textMessage(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: content,
			},
		}},
		Usage: openai.Usage{PromptTokens: 50, CompletionTokens: 10, TotalTokens: 60},
	}
}

func call(id, name, args string) openai.ToolCall {
	return openai.ToolCall{
		ID:       id,
		Type:     openai.ToolTypeFunction,
		Function: openai.FunctionCall{Name: name, Arguments: args},
	}
}

// fakeFetcher serves canned pages and counts fetches per URL.
type fakeFetcher struct {
	pages   map[string]string
	fetches map[string]int
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, fetches: make(map[string]int)}
}

func (f *fakeFetcher) FetchCleanHTML(_ context.Context, url string) (string, error) {
	f.fetches[url]++
	page, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("failed to load page %s: status 404", url)
	}
	return page, nil
}

func TestSession_DiscoveryConversation(t *testing.T) {
	// Scenario: one page visit yields two parties, both get saved, then a
	// plain-text reply terminates the loop.
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolCallMessage(call("1", "visit_url", `{"url":"https://x/contacts"}`)),
		toolCallMessage(
			call("2", "save_contact", `{"name":"Anna Schäfer","political_party":"Partei A"}`),
			call("3", "save_contact", `{"name":"Ben Meier","political_party":"Partei B"}`),
		),
		textMessage("I saved both contacts."),
	}}
	fetcher := newFakeFetcher(map[string]string{
		"https://x/contacts": "<body><p>Anna Schäfer (Partei A)</p><p>Ben Meier (Partei B)</p></body>",
	})

	s := NewSession(chat, fetcher)
	contacts, err := s.Run(context.Background(), PromptFindContacts, map[string]string{"url": "https://x/contacts"})
	require.NoError(t, err)

	assert.Equal(t, StateDone, s.State())
	require.Len(t, contacts, 2)
	for _, c := range contacts {
		assert.Equal(t, "https://x/contacts", c.StartURL)
	}
	assert.Equal(t, "Anna Schäfer", contacts[0].Name)
	assert.Equal(t, "Ben Meier", contacts[1].Name)

	// Token counters accumulate across all three exchanges.
	assert.Equal(t, 250, s.Usage().Input)
	assert.Equal(t, 50, s.Usage().Output)
	assert.Equal(t, 300, s.Usage().Total)

	// Every request carried the tool schema and deterministic sampling.
	// Temperature must survive JSON encoding: a literal 0 would be
	// dropped by the omitempty tag and the service would fall back to
	// its default sampling temperature.
	require.NotEmpty(t, chat.requests)
	for _, req := range chat.requests {
		assert.Len(t, req.Tools, 2)
		require.NotNil(t, req.Seed)
		assert.Equal(t, 42, *req.Seed)
		assert.InDelta(t, 0, req.Temperature, 1e-30)

		encoded, err := json.Marshal(req)
		require.NoError(t, err)
		assert.Contains(t, string(encoded), `"temperature":`)
	}

	// The prompt template was rendered with the start URL.
	first := chat.requests[0].Messages[0]
	assert.Equal(t, openai.ChatMessageRoleUser, first.Role)
	assert.Contains(t, first.Content, "Here is the url: https://x/contacts")

	// Function results were appended in issue order, tagged by tool name.
	messages := s.Messages()
	var functionNames []string
	for _, m := range messages {
		if m.Role == openai.ChatMessageRoleFunction {
			functionNames = append(functionNames, m.Name)
		}
	}
	assert.Equal(t, []string{"visit_url", "save_contact", "save_contact"}, functionNames)
}

func TestSession_RepeatedVisitUsesCache(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolCallMessage(call("1", "visit_url", `{"url":"https://x/contacts"}`)),
		toolCallMessage(call("2", "visit_url", `{"url":"https://x/contacts"}`)),
		textMessage("nothing to save"),
	}}
	fetcher := newFakeFetcher(map[string]string{
		"https://x/contacts": "<body>page</body>",
	})

	s := NewSession(chat, fetcher)
	_, err := s.Run(context.Background(), PromptFindContacts, map[string]string{"url": "https://x/contacts"})
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.fetches["https://x/contacts"],
		"second visit of the identical URL must be served from the cache")

	// Both tool results carry the same page content.
	var results []string
	for _, m := range s.Messages() {
		if m.Role == openai.ChatMessageRoleFunction && m.Name == "visit_url" {
			results = append(results, m.Content)
		}
	}
	require.Len(t, results, 2)
	assert.Equal(t, results[0], results[1])
}

func TestSession_ObserverNotifiedBeforeFetch(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolCallMessage(call("1", "visit_url", `{"url":"https://x/a"}`)),
		toolCallMessage(call("2", "visit_url", `{"url":"https://x/a"}`)),
		textMessage("done"),
	}}
	fetcher := newFakeFetcher(map[string]string{"https://x/a": "<body>a</body>"})

	s := NewSession(chat, fetcher)
	var visited []string
	s.Attach(ObserverFunc(func(url string) {
		visited = append(visited, url)
	}))

	_, err := s.Run(context.Background(), PromptFindContacts, map[string]string{"url": "https://x/a"})
	require.NoError(t, err)

	// One notification per actual fetch; cache hits stay silent.
	assert.Equal(t, []string{"https://x/a"}, visited)
}

func TestSession_Detach(t *testing.T) {
	s := NewSession(&scriptedChat{}, newFakeFetcher(nil))

	type countingObserver struct{ ObserverFunc }
	var count int
	o := &countingObserver{ObserverFunc(func(string) { count++ })}

	s.Attach(o)
	s.notify("https://x")
	s.Detach(o)
	s.notify("https://x")

	assert.Equal(t, 1, count)
}

func TestSession_DetachFuncObserverDoesNotPanic(t *testing.T) {
	s := NewSession(&scriptedChat{}, newFakeFetcher(nil))

	var count int
	o := ObserverFunc(func(string) { count++ })
	s.Attach(o)

	// Func values are not comparable; detaching one must be a silent
	// no-op instead of a runtime panic.
	assert.NotPanics(t, func() { s.Detach(o) })
	assert.NotPanics(t, func() { s.Detach(nil) })

	s.notify("https://x")
	assert.Equal(t, 1, count)
}

func TestSession_EmptyResponseMeansDone(t *testing.T) {
	// No content and no tool calls is treated as completion, not an error.
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant},
			}},
			Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 0, TotalTokens: 10},
		},
	}}

	s := NewSession(chat, newFakeFetcher(nil))
	contacts, err := s.Run(context.Background(), PromptFindContacts, map[string]string{"url": "https://x"})
	require.NoError(t, err)
	assert.Empty(t, contacts)
	assert.Equal(t, StateDone, s.State())
}

func TestSession_NoChoicesMeansDone(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{{}}}

	s := NewSession(chat, newFakeFetcher(nil))
	_, err := s.Run(context.Background(), PromptFindContacts, map[string]string{"url": "https://x"})
	require.NoError(t, err)
	assert.Equal(t, StateDone, s.State())
}

func TestSession_UnknownToolIsFatal(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolCallMessage(call("1", "delete_everything", `{}`)),
	}}

	s := NewSession(chat, newFakeFetcher(nil))
	_, err := s.Run(context.Background(), PromptFindContacts, map[string]string{"url": "https://x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestSession_MalformedArgumentsAreFatal(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolCallMessage(call("1", "save_contact", `{"name": broken`)),
	}}

	s := NewSession(chat, newFakeFetcher(nil))
	_, err := s.Run(context.Background(), PromptFindContacts, map[string]string{"url": "https://x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed arguments")
}

func TestSession_FetchFailureReportedToModel(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolCallMessage(call("1", "visit_url", `{"url":"https://x/broken"}`)),
		textMessage("could not load the page"),
	}}

	s := NewSession(chat, newFakeFetcher(nil))
	_, err := s.Run(context.Background(), PromptFindContacts, map[string]string{"url": "https://x"})
	require.NoError(t, err, "a failed page load must not abort the session")

	messages := s.Messages()
	var result string
	for _, m := range messages {
		if m.Role == openai.ChatMessageRoleFunction && m.Name == "visit_url" {
			result = m.Content
		}
	}
	assert.Contains(t, result, "failed to load page https://x/broken")
}

func TestSession_SaveContactRequiresName(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolCallMessage(call("1", "save_contact", `{"email":"a@x"}`)),
	}}

	s := NewSession(chat, newFakeFetcher(nil))
	_, err := s.Run(context.Background(), PromptFindContacts, map[string]string{"url": "https://x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required argument name")
}

func TestSession_InteractiveMode(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		textMessage("Which site should I look at?"),
		textMessage("Understood, stopping."),
	}}

	var out strings.Builder
	in := strings.NewReader("try the council page\nq\n")

	s := NewSession(chat, newFakeFetcher(nil), WithInteractive(in, &out))
	_, err := s.Run(context.Background(), PromptFindContacts, map[string]string{"url": "https://x"})
	require.NoError(t, err)

	assert.Equal(t, StateDone, s.State())
	assert.Contains(t, out.String(), "Which site should I look at?")

	// The free-text user turn was appended to the history.
	messages := s.Messages()
	last := messages[len(messages)-1]
	assert.Equal(t, openai.ChatMessageRoleUser, last.Role)
	assert.Equal(t, "try the council page", last.Content)
}

func TestSession_Reset(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolCallMessage(call("1", "save_contact", `{"name":"Anna"}`)),
		textMessage("saved"),
	}}

	s := NewSession(chat, newFakeFetcher(nil))
	_, err := s.Run(context.Background(), PromptFindContacts, map[string]string{"url": "https://x"})
	require.NoError(t, err)
	require.NotEmpty(t, s.Contacts())

	s.Reset()
	assert.Empty(t, s.Contacts())
	assert.Empty(t, s.Messages())
	assert.Equal(t, TokenUsage{}, s.Usage())
	assert.Empty(t, s.StartURL())
	assert.Equal(t, StateRunning, s.State())
}

func TestSession_Options(t *testing.T) {
	seedValue := 7
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{textMessage("ok")}}

	s := NewSession(chat, newFakeFetcher(nil), WithModel("gpt-4o"), WithSeed(seedValue), WithCacheSize(4))
	_, err := s.Run(context.Background(), PromptUpdateContact, map[string]string{
		"person":      "Anna Schäfer",
		"contact_url": "https://x/anna",
	})
	require.NoError(t, err)

	require.Len(t, chat.requests, 1)
	req := chat.requests[0]
	assert.Equal(t, "gpt-4o", req.Model)
	require.NotNil(t, req.Seed)
	assert.Equal(t, seedValue, *req.Seed)
	assert.Contains(t, req.Messages[0].Content, "Here is the person: Anna Schäfer")

	// Enrichment prompts carry no "url" parameter, so no start URL is set.
	assert.Empty(t, s.StartURL())
}
