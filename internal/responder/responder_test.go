package responder

import (
	"context"
	"errors"
	"testing"

	"github.com/FRI2020/talk-trace/internal/models"

	openai "github.com/sashabaranov/go-openai"
)

type fakeCompleter struct {
	reply    string
	err      error
	lastReq  openai.ChatCompletionRequest
	numCalls int
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.numCalls++
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.reply}},
		},
	}, nil
}

type fakeContexts struct {
	saved map[string][]models.ChatTurn
}

func newFakeContexts() *fakeContexts {
	return &fakeContexts{saved: make(map[string][]models.ChatTurn)}
}

func (f *fakeContexts) Load(_ context.Context, phoneNumber string) ([]models.ChatTurn, error) {
	return append([]models.ChatTurn{}, f.saved[phoneNumber]...), nil
}

func (f *fakeContexts) Save(_ context.Context, phoneNumber string, turns []models.ChatTurn) error {
	f.saved[phoneNumber] = turns
	return nil
}

func TestGenerateAppendsTurns(t *testing.T) {
	llm := &fakeCompleter{reply: "Hello! How can I help?"}
	contexts := newFakeContexts()
	r := NewWithClient(llm, contexts, "qwen-plus", 100)

	reply, err := r.Generate(context.Background(), "15551234", "Hi there")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply != "Hello! How can I help?" {
		t.Errorf("unexpected reply %q", reply)
	}

	if llm.lastReq.Model != "qwen-plus" || llm.lastReq.MaxTokens != 100 {
		t.Errorf("request not capped as configured: %+v", llm.lastReq)
	}

	turns := contexts.saved["15551234"]
	if len(turns) != 2 {
		t.Fatalf("expected 2 saved turns, got %d", len(turns))
	}
	if turns[0].Role != "user" || turns[0].Content != "Hi there" {
		t.Errorf("unexpected user turn %+v", turns[0])
	}
	if turns[1].Role != "assistant" || turns[1].Content != reply {
		t.Errorf("unexpected assistant turn %+v", turns[1])
	}
}

func TestGenerateCarriesContextAcrossCalls(t *testing.T) {
	llm := &fakeCompleter{reply: "sure"}
	contexts := newFakeContexts()
	r := NewWithClient(llm, contexts, "qwen-plus", 100)

	if _, err := r.Generate(context.Background(), "15551234", "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Generate(context.Background(), "15551234", "second"); err != nil {
		t.Fatal(err)
	}

	// The second request must include the full prior exchange plus the
	// new user turn.
	if len(llm.lastReq.Messages) != 3 {
		t.Fatalf("expected 3 messages in second request, got %d", len(llm.lastReq.Messages))
	}
	if llm.lastReq.Messages[2].Content != "second" {
		t.Errorf("new user turn missing: %+v", llm.lastReq.Messages)
	}

	if len(contexts.saved["15551234"]) != 4 {
		t.Errorf("expected 4 saved turns, got %d", len(contexts.saved["15551234"]))
	}
}

func TestGenerateVendorFailure(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("rate limited")}
	contexts := newFakeContexts()
	r := NewWithClient(llm, contexts, "qwen-plus", 100)

	if _, err := r.Generate(context.Background(), "15551234", "Hi"); err == nil {
		t.Fatal("expected vendor error to propagate")
	}
	if len(contexts.saved) != 0 {
		t.Error("context should not be saved on vendor failure")
	}
}
