package models

import (
	"fmt"
	"strings"
	"time"
)

// Validator is implemented by request payloads that can be checked client-side.
type Validator interface {
	Validate() error
}

// TopicStatus is the learner's progress on a single topic.
type TopicStatus string

const (
	TopicPending    TopicStatus = "PENDING"
	TopicInProgress TopicStatus = "IN_PROGRESS"
	TopicCompleted  TopicStatus = "COMPLETED"
)

// EmbeddingStatus tracks background document ingestion for a pathway.
type EmbeddingStatus string

const (
	EmbeddingPending    EmbeddingStatus = "PENDING"
	EmbeddingProcessing EmbeddingStatus = "PROCESSING"
	EmbeddingCompleted  EmbeddingStatus = "COMPLETED"
	EmbeddingFailed     EmbeddingStatus = "FAILED"
)

// Timestamp accepts the naive ISO-8601 datetimes the API emits (no zone) as well as RFC 3339.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339Nano) + `"`), nil
}

// User is the identity behind the current session.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username,omitempty"`
	IsActive    bool   `json:"is_active"`
	IsVerified  bool   `json:"is_verified"`
	IsSuperuser bool   `json:"is_superuser"`
}

// DisplayName prefers the username and falls back to the email address.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Registration is the payload for POST /auth/register.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

// Validate implements [Validator].
func (r Registration) Validate() error {
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("invalid email %q", r.Email)
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// TokenStatus is returned by the verify and refresh endpoints.
type TokenStatus struct {
	Valid   bool   `json:"valid"`
	UserID  string `json:"user_id"`
	Message string `json:"message,omitempty"`
}

// Message is a plain acknowledgement, e.g. from the password reset endpoints.
type Message struct {
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

// Topic is one step of a pathway.
type Topic struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	OrderNumber int         `json:"order_number"`
	Status      TopicStatus `json:"status"`
	Keywords    []string    `json:"keywords"`
}

// TopicCreate describes a topic when creating a pathway by hand.
type TopicCreate struct {
	Name        string      `json:"name"`
	OrderNumber int         `json:"order_number"`
	Keywords    []string    `json:"keywords"`
	Status      TopicStatus `json:"status"`
}

// Pathway is a learning curriculum owned by the current user.
type Pathway struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Topics  []Topic   `json:"topics"`
	Created Timestamp `json:"created"`
}

// PathwayCreate is the payload for POST /pathways/.
type PathwayCreate struct {
	Name   string        `json:"name"`
	Topics []TopicCreate `json:"topics"`
}

// NewPathwayCreate orders topic names 1..n, each starting out pending.
func NewPathwayCreate(name string, topics []string) PathwayCreate {
	pc := PathwayCreate{Name: name, Topics: make([]TopicCreate, 0, len(topics))}
	for i, topic := range topics {
		pc.Topics = append(pc.Topics, TopicCreate{
			Name:        topic,
			OrderNumber: i + 1,
			Keywords:    []string{},
			Status:      TopicPending,
		})
	}
	return pc
}

// Validate implements [Validator].
func (p PathwayCreate) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("pathway name is required")
	}
	if len(p.Topics) == 0 {
		return fmt.Errorf("at least one topic is required")
	}
	for _, t := range p.Topics {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("topic %d has no name", t.OrderNumber)
		}
	}
	return nil
}

// PathwayStatus is the completion summary served by GET /pathways/{id}/status.
type PathwayStatus struct {
	TotalTopics          int     `json:"total_topics" msgpack:"total_topics"`
	CompletedTopicsCount int     `json:"completed_topics_count" msgpack:"completed_topics_count"`
	PendingTopicsCount   int     `json:"pending_topics_count" msgpack:"pending_topics_count"`
	CompletionPercentage float64 `json:"completion_percentage" msgpack:"completion_percentage"`
	CompletedTopics      []Topic `json:"completed_topics" msgpack:"completed_topics"`
}

// Done reports whether every topic has been completed.
func (s PathwayStatus) Done() bool {
	return s.TotalTopics > 0 && s.CompletedTopicsCount >= s.TotalTopics
}

// UploadResult acknowledges a PDF upload; ingestion continues in the background.
type UploadResult struct {
	Message         string          `json:"message"`
	PathwayID       string          `json:"pathway_id"`
	EmbeddingStatus EmbeddingStatus `json:"embedding_status"`
}

// TopicSummary is an AI-generated topic summary in markdown.
type TopicSummary struct {
	TopicID int    `json:"topic_id"`
	Summary string `json:"summary"`
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a retrieval chat.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload for POST /pathways/{id}/chat.
type ChatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history"`
}

// Validate implements [Validator].
func (c ChatRequest) Validate() error {
	if strings.TrimSpace(c.Message) == "" {
		return fmt.Errorf("message is required")
	}
	for i, m := range c.History {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("history[%d] has unknown role %q", i, m.Role)
		}
	}
	return nil
}

// ChatReply is the retrieval backend's answer.
type ChatReply struct {
	Answer    string `json:"answer"`
	PathwayID string `json:"pathway_id"`
}

// Quiz difficulties accepted by the API.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// QuizRequest is the payload for POST /pathways/generate-quiz.
type QuizRequest struct {
	TopicID      int    `json:"topic_id"`
	Difficulty   string `json:"difficulty"`
	NumQuestions int    `json:"num_questions"`
}

// Validate implements [Validator].
func (q QuizRequest) Validate() error {
	switch q.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("difficulty must be easy, medium or hard, got %q", q.Difficulty)
	}
	if q.NumQuestions < 1 || q.NumQuestions > 20 {
		return fmt.Errorf("num_questions must be between 1 and 20, got %d", q.NumQuestions)
	}
	if q.TopicID <= 0 {
		return fmt.Errorf("topic_id must be positive")
	}
	return nil
}

// QuizQuestion is a single generated question; Options is only set for "mcq".
type QuizQuestion struct {
	Type        string   `json:"type"`
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

// Quiz is a generated quiz for one topic.
type Quiz struct {
	Topic     string         `json:"topic"`
	Questions []QuizQuestion `json:"questions"`
}
