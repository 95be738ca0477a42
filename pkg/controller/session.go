// Package controller drives one chat page: it turns a submission into a webhook
// call, shapes the reply and keeps the message log and table rows.
package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leadcatalyst/leadchat/pkg/logger"
	"github.com/leadcatalyst/leadchat/pkg/shaper"
	"github.com/leadcatalyst/leadchat/pkg/table"
	"github.com/leadcatalyst/leadchat/pkg/webhook"
)

var (
	// ErrEmptyMessage is returned for blank submissions; nothing is recorded or sent.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy is returned while a previous submission is still awaiting its reply.
	ErrBusy = errors.New("a request is already in progress")
)

type State int

const (
	Idle State = iota
	AwaitingResponse
)

func (s State) String() string {
	if s == AwaitingResponse {
		return "awaiting_response"
	}
	return "idle"
}

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

const thinkingText = "Looking up information and processing your request... This may take a few moments."

type ChatMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Detail    string    `json:"detail,omitempty"`
	Sender    Sender    `json:"sender"`
	Thinking  bool      `json:"thinking,omitempty"`
	Error     bool      `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notification is a transient alert raised next to the chat log.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

// Snapshot is a consistent copy of a session's view state.
type Snapshot struct {
	ChatID   string        `json:"chat_id"`
	State    string        `json:"state"`
	Loading  bool          `json:"loading"`
	Messages []ChatMessage `json:"messages"`
	Rows     []table.Row   `json:"rows"`
	Grid     table.Grid    `json:"grid"`
}

type Session struct {
	id      string
	sender  webhook.Sender
	timeout time.Duration
	now     func() time.Time

	mu       sync.Mutex
	state    State
	messages []ChatMessage
	rows     []table.Row
	notices  []Notification
	lastUsed time.Time
}

func NewSession(id string, sender webhook.Sender, timeout time.Duration) *Session {
	s := &Session{
		id:      id,
		sender:  sender,
		timeout: timeout,
		now:     time.Now,
		rows:    []table.Row{},
	}
	s.lastUsed = s.now()
	return s
}

func (s *Session) ID() string { return s.id }

// Submit sends text to the webhook and records the exchange. The returned message
// is the bot reply that was appended; err carries the underlying failure when that
// reply is an error message.
func (s *Session) Submit(ctx context.Context, text string) (ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatMessage{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state == AwaitingResponse {
		s.mu.Unlock()
		return ChatMessage{}, ErrBusy
	}
	now := s.now()
	thinking := ChatMessage{
		ID:        uuid.NewString(),
		Text:      thinkingText,
		Sender:    SenderBot,
		Thinking:  true,
		Timestamp: now,
	}
	s.messages = append(s.messages,
		ChatMessage{ID: uuid.NewString(), Text: text, Sender: SenderUser, Timestamp: now},
		thinking,
	)
	s.rows = []table.Row{}
	s.state = AwaitingResponse
	s.lastUsed = now
	s.mu.Unlock()

	resp, err := s.sender.Send(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	s.lastUsed = s.now()
	s.removeMessage(thinking.ID)

	if err != nil {
		description := DescribeError(err, s.timeout)
		logger.ErrorCF("controller", "Webhook error", map[string]interface{}{
			"chat_id": s.id,
			"error":   err.Error(),
		})
		reply := ChatMessage{
			ID:        uuid.NewString(),
			Text:      "Error processing request",
			Detail:    description,
			Sender:    SenderBot,
			Error:     true,
			Timestamp: s.now(),
		}
		s.messages = append(s.messages, reply)
		s.notices = append(s.notices, Notification{
			Title:       "Webhook error",
			Description: description,
			Variant:     "destructive",
		})
		return reply, err
	}

	res := shaper.Shape(resp.Value, text)
	s.rows = res.Rows
	logger.InfoCF("controller", "Response shaped", map[string]interface{}{
		"chat_id": s.id,
		"kind":    res.Kind.String(),
		"rows":    len(res.Rows),
	})

	reply := ChatMessage{
		ID:        uuid.NewString(),
		Text:      res.Status,
		Detail:    res.Detail,
		Sender:    SenderBot,
		Timestamp: s.now(),
	}
	s.messages = append(s.messages, reply)
	return reply, nil
}

func (s *Session) removeMessage(id string) {
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Rows returns a copy of the current table rows.
func (s *Session) Rows() []table.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return table.Clone(s.rows)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := table.Clone(s.rows)
	return Snapshot{
		ChatID:   s.id,
		State:    s.state.String(),
		Loading:  s.state == AwaitingResponse,
		Messages: append([]ChatMessage{}, s.messages...),
		Rows:     rows,
		Grid:     table.NewGrid(rows),
	}
}

// IdleSnapshot is the state of a chat that has not sent anything yet.
func IdleSnapshot(chatID string) Snapshot {
	return Snapshot{
		ChatID:   chatID,
		State:    Idle.String(),
		Messages: []ChatMessage{},
		Rows:     []table.Row{},
		Grid:     table.NewGrid(nil),
	}
}

// TakeNotifications returns and clears the pending notifications.
func (s *Session) TakeNotifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed, s.state == Idle
}
