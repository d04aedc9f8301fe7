package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/smallnest/contactcrawler/cache"
	"github.com/smallnest/contactcrawler/contact"
	"github.com/smallnest/contactcrawler/log"
)

// ChatCompleter is the slice of the inference service a session needs.
// *openai.Client satisfies it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// PageFetcher loads a URL and returns cleaned HTML. *crawler.Client
// satisfies it.
type PageFetcher interface {
	FetchCleanHTML(ctx context.Context, url string) (string, error)
}

// State is the lifecycle state of a session.
type State int

const (
	// StateRunning means the conversation loop is still exchanging turns.
	StateRunning State = iota
	// StateDone is terminal; the contact accumulator holds the result.
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// TokenUsage accumulates the token counters reported by the inference
// service across one session.
type TokenUsage struct {
	Input  int
	Output int
	Total  int
}

// Add sums another session's counters into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.Input += other.Input
	u.Output += other.Output
	u.Total += other.Total
}

const (
	// DefaultModel is the model requested when none is configured.
	DefaultModel = "gpt-4-1106-preview"
	// defaultSeed makes sampling reproducible; combined with zero
	// temperature, identical conversation state yields identical
	// tool-call sequences.
	defaultSeed = 42
)

// Session runs one tool-calling conversation pursuing one extraction goal,
// either discovery on a start URL or enrichment of a single person. It is
// single-goroutine: create it, run it, read its results. The page cache is
// private to the session and never shared.
type Session struct {
	id       string
	chat     ChatCompleter
	fetcher  PageFetcher
	registry *Registry
	webCache *cache.LRU

	model string
	seed  int

	interactive bool
	input       *bufio.Scanner
	output      io.Writer

	messages  []openai.ChatCompletionMessage
	contacts  []contact.Contact
	startURL  string
	state     State
	usage     TokenUsage
	observers []Observer
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithModel overrides the model name sent to the inference service.
func WithModel(model string) SessionOption {
	return func(s *Session) {
		s.model = model
	}
}

// WithSeed overrides the fixed sampling seed.
func WithSeed(seed int) SessionOption {
	return func(s *Session) {
		s.seed = seed
	}
}

// WithCacheSize sets the capacity of the session's page cache.
func WithCacheSize(size int) SessionOption {
	return func(s *Session) {
		s.webCache = cache.New(size)
	}
}

// WithInteractive switches the session into interactive mode: a plain-text
// model reply is displayed on out and one more free-text user turn is read
// from in, until the user enters "q". Meant for manual inspection only;
// unattended runs leave this off.
func WithInteractive(in io.Reader, out io.Writer) SessionOption {
	return func(s *Session) {
		s.interactive = true
		s.input = bufio.NewScanner(in)
		s.output = out
	}
}

// NewSession creates a session talking to the given inference service and
// page-fetch backend. The visit_url and save_contact tools are registered
// automatically.
func NewSession(chat ChatCompleter, fetcher PageFetcher, opts ...SessionOption) *Session {
	s := &Session{
		id:       uuid.New().String(),
		chat:     chat,
		fetcher:  fetcher,
		webCache: cache.New(cache.DefaultCapacity),
		model:    DefaultModel,
		seed:     defaultSeed,
		output:   os.Stdout,
		state:    StateRunning,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registry = NewRegistry(s.visitURLTool(), s.saveContactTool())
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Usage returns the token counters accumulated so far.
func (s *Session) Usage() TokenUsage { return s.usage }

// StartURL returns the seed URL this session began from, if any.
func (s *Session) StartURL() string { return s.startURL }

// Contacts returns a copy of the contacts accumulated so far.
func (s *Session) Contacts() []contact.Contact {
	contacts := make([]contact.Contact, len(s.contacts))
	copy(contacts, s.contacts)
	return contacts
}

// Messages returns a copy of the conversation history. The history stays
// inspectable after the session has terminated.
func (s *Session) Messages() []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, len(s.messages))
	copy(messages, s.messages)
	return messages
}

// Reset clears the conversation, the accumulated contacts and the token
// counters so the session can be started again. The page cache is kept;
// already fetched pages stay valid.
func (s *Session) Reset() {
	s.messages = nil
	s.contacts = nil
	s.startURL = ""
	s.usage = TokenUsage{}
	s.state = StateRunning
}

// Run seeds the conversation from the prompt template and the supplied
// parameters, then steps the loop until the session reaches StateDone.
// The "url" parameter, when present, becomes the session's start URL and
// is stamped on every saved contact. Run returns the accumulated contact
// records.
func (s *Session) Run(ctx context.Context, promptTemplate string, params map[string]string) ([]contact.Contact, error) {
	s.startURL = params["url"]
	s.state = StateRunning
	s.messages = append(s.messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: renderPrompt(promptTemplate, params),
	})

	for s.state == StateRunning {
		if err := s.step(ctx); err != nil {
			return nil, err
		}
	}
	return s.Contacts(), nil
}

// step performs one exchange: send history plus tool schema, account
// token usage, then either execute the requested tool calls or terminate.
func (s *Session) step(ctx context.Context) error {
	seed := s.seed
	resp, err := s.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:      s.model,
		Messages:   s.messages,
		Tools:      s.registry.Schema(),
		ToolChoice: "auto",
		Seed:       &seed,
		// A literal 0 would be dropped by the omitempty tag and the
		// service would sample at its default temperature; the smallest
		// positive value is the documented way to request zero.
		Temperature: math.SmallestNonzeroFloat32,
	})
	if err != nil {
		return fmt.Errorf("inference request failed: %w", err)
	}

	s.usage.Add(TokenUsage{
		Input:  resp.Usage.PromptTokens,
		Output: resp.Usage.CompletionTokens,
		Total:  resp.Usage.TotalTokens,
	})

	if len(resp.Choices) == 0 {
		log.Debug("session %s: model returned no message, treating as completion", s.id)
		s.state = StateDone
		return nil
	}
	msg := resp.Choices[0].Message

	if len(msg.ToolCalls) > 0 {
		return s.handleToolCalls(ctx, msg.ToolCalls)
	}

	// An empty reply without tool calls signals completion, not an error.
	if msg.Content == "" {
		s.state = StateDone
		return nil
	}

	if !s.interactive {
		// A plain-text reply means the model believes the task is done.
		s.state = StateDone
		return nil
	}
	return s.interactiveTurn(msg.Content)
}

// handleToolCalls dispatches every requested tool in issue order and
// appends a function-result message per call, tagged with the tool name.
// The model sees the outputs on its next turn.
func (s *Session) handleToolCalls(ctx context.Context, calls []openai.ToolCall) error {
	for _, call := range calls {
		output, err := s.registry.Dispatch(ctx, call.Function.Name, call.Function.Arguments)
		if err != nil {
			return err
		}
		s.messages = append(s.messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleFunction,
			Name:    call.Function.Name,
			Content: output,
		})
	}
	return nil
}

// interactiveTurn shows the model's reply and reads one more user turn.
// "q" or end of input terminates the session.
func (s *Session) interactiveTurn(content string) error {
	fmt.Fprintf(s.output, "Assistant:\n%s\n\nYou ('q' to stop): ", content)
	if !s.input.Scan() {
		s.state = StateDone
		return s.input.Err()
	}
	line := s.input.Text()
	if line == "q" {
		s.state = StateDone
		return nil
	}
	s.messages = append(s.messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: line,
	})
	return nil
}
