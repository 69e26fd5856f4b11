package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestamp(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want time.Time
	}{
		{name: "naive microseconds", in: `"2025-03-01T10:20:30.123456"`, want: time.Date(2025, 3, 1, 10, 20, 30, 123456000, time.UTC)},
		{name: "naive seconds", in: `"2025-03-01T10:20:30"`, want: time.Date(2025, 3, 1, 10, 20, 30, 0, time.UTC)},
		{name: "rfc3339", in: `"2025-03-01T10:20:30Z"`, want: time.Date(2025, 3, 1, 10, 20, 30, 0, time.UTC)},
		{name: "null", in: `null`, want: time.Time{}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.in), &ts); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !ts.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ts.Time)
			}
		})
	}

	t.Run("garbage", func(t *testing.T) {
		var ts Timestamp
		if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
			t.Error("expected error for unparseable timestamp")
		}
	})
}

func TestNewPathwayCreate(t *testing.T) {
	pc := NewPathwayCreate("Go", []string{"Syntax", "Concurrency"})

	if len(pc.Topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(pc.Topics))
	}
	for i, topic := range pc.Topics {
		if topic.OrderNumber != i+1 {
			t.Errorf("topic %d: expected order %d, got %d", i, i+1, topic.OrderNumber)
		}
		if topic.Status != TopicPending {
			t.Errorf("topic %d: expected PENDING, got %s", i, topic.Status)
		}
		if topic.Keywords == nil {
			t.Errorf("topic %d: keywords should encode as [] not null", i)
		}
	}
	if err := pc.Validate(); err != nil {
		t.Errorf("expected valid pathway, got %v", err)
	}
	if err := NewPathwayCreate("Go", nil).Validate(); err == nil {
		t.Error("expected error for pathway without topics")
	}
}

func TestValidate(t *testing.T) {
	tc := []struct {
		name    string
		v       Validator
		wantErr bool
	}{
		{name: "quiz ok", v: QuizRequest{TopicID: 1, Difficulty: DifficultyMedium, NumQuestions: 5}},
		{name: "quiz bad difficulty", v: QuizRequest{TopicID: 1, Difficulty: "insane", NumQuestions: 5}, wantErr: true},
		{name: "quiz too many questions", v: QuizRequest{TopicID: 1, Difficulty: DifficultyEasy, NumQuestions: 21}, wantErr: true},
		{name: "quiz zero questions", v: QuizRequest{TopicID: 1, Difficulty: DifficultyEasy, NumQuestions: 0}, wantErr: true},
		{name: "chat ok", v: ChatRequest{Message: "hi", History: []ChatMessage{{Role: RoleUser, Content: "a"}, {Role: RoleAssistant, Content: "b"}}}},
		{name: "chat empty", v: ChatRequest{Message: "  "}, wantErr: true},
		{name: "chat bad role", v: ChatRequest{Message: "hi", History: []ChatMessage{{Role: "system", Content: "x"}}}, wantErr: true},
		{name: "registration ok", v: Registration{Email: "a@b.c", Password: "pw"}},
		{name: "registration bad email", v: Registration{Email: "nope", Password: "pw"}, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPathwayStatusDone(t *testing.T) {
	if (PathwayStatus{}).Done() {
		t.Error("empty pathway should not be done")
	}
	if !(PathwayStatus{TotalTopics: 3, CompletedTopicsCount: 3}).Done() {
		t.Error("expected pathway with all topics complete to be done")
	}
	if (PathwayStatus{TotalTopics: 3, CompletedTopicsCount: 2}).Done() {
		t.Error("expected partial pathway not to be done")
	}
}

func TestUserDisplayName(t *testing.T) {
	if got := (User{Email: "a@b.c"}).DisplayName(); got != "a@b.c" {
		t.Errorf("expected email fallback, got %s", got)
	}
	if got := (User{Email: "a@b.c", Username: "ada"}).DisplayName(); got != "ada" {
		t.Errorf("expected username, got %s", got)
	}
}
