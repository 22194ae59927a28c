// Package chat holds the conversation with the analysis assistant shown in
// the notification panel.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"

	"github.com/Iron-Ham/watchdesk/internal/errors"
	"github.com/Iron-Ham/watchdesk/internal/logging"
)

// Placeholder is shown in place of an answer while the request is in flight.
const Placeholder = "Thinking..."

// ErrorPrefix starts the text of an answer that failed.
const ErrorPrefix = "An error occurred: "

// Role identifies who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation.
type Message struct {
	ID      string
	Role    Role
	Text    string
	Pending bool
	Failed  bool
	At      time.Time
}

// Asker answers a question. *api.Client satisfies it.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Conversation is a thread-safe message list backed by an Asker.
type Conversation struct {
	asker  Asker
	logger *logging.Logger
	now    func() time.Time

	mu       sync.Mutex
	messages []Message
	pending  int
}

// New creates an empty Conversation.
func New(asker Asker, logger *logging.Logger) *Conversation {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Conversation{asker: asker, logger: logger.WithComponent("chat"), now: time.Now}
}

// Ask sends question and blocks until the answer replaces the placeholder.
// A blank question is ignored and returns a zero Message. The returned
// message is the final assistant entry; err is the cause when it failed.
func (c *Conversation) Ask(ctx context.Context, question string) (Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Message{}, nil
	}

	placeholderID := c.begin(question)

	answer, err := c.asker.Ask(ctx, question)
	if err != nil {
		c.logger.Warn("analysis request failed", "error", err)
		return c.finish(placeholderID, ErrorPrefix+errors.UserMessage(err), true), err
	}
	return c.finish(placeholderID, answer, false), nil
}

func (c *Conversation) begin(question string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.messages = append(c.messages,
		Message{ID: uuid.NewString(), Role: RoleUser, Text: question, At: now},
	)
	id := uuid.NewString()
	c.messages = append(c.messages,
		Message{ID: id, Role: RoleAssistant, Text: Placeholder, Pending: true, At: now},
	)
	c.pending++
	return id
}

func (c *Conversation) finish(id, text string, failed bool) Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending--
	for i := range c.messages {
		if c.messages[i].ID != id {
			continue
		}
		c.messages[i].Text = text
		c.messages[i].Pending = false
		c.messages[i].Failed = failed
		c.messages[i].At = c.now()
		return c.messages[i]
	}
	// Cleared while in flight.
	return Message{ID: id, Role: RoleAssistant, Text: text, Failed: failed, At: c.now()}
}

// Messages returns a copy of the conversation in order.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Busy reports whether any answer is still pending.
func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending > 0
}

// Clear drops every message. Answers still in flight are discarded.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// Renderer turns assistant answers into terminal markdown.
type Renderer struct {
	tr *glamour.TermRenderer
}

// NewRenderer creates a Renderer for a glamour style name ("auto", "dark",
// "light", "notty") wrapping at width columns.
func NewRenderer(style string, width int) (*Renderer, error) {
	if width <= 0 {
		width = 80
	}
	styleOpt := glamour.WithStandardStyle(style)
	if style == "" || style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	tr, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s markdown renderer", style)
	}
	return &Renderer{tr: tr}, nil
}

// Render renders m. User messages, placeholders and failures are returned
// as plain text; a render failure falls back to the raw answer.
func (r *Renderer) Render(m Message) string {
	if r == nil || r.tr == nil || m.Role != RoleAssistant || m.Pending || m.Failed {
		return m.Text
	}
	out, err := r.tr.Render(m.Text)
	if err != nil {
		return m.Text
	}
	return strings.TrimSpace(out)
}
