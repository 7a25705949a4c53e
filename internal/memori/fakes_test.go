package memori

import (
	"context"
	"sync"
)

// fakeLLM is an LLMClient test double that records calls.
type fakeLLM struct {
	mu       sync.Mutex
	calls    []fakeLLMCall
	response func(model string, messages []Message) (Completion, error)
}

type fakeLLMCall struct {
	model    string
	messages []Message
}

func newFakeLLM() *fakeLLM {
	return &fakeLLM{
		response: func(model string, messages []Message) (Completion, error) {
			return Completion{
				Content: "ok",
				Usage:   Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
			}, nil
		},
	}
}

func (f *fakeLLM) Complete(ctx context.Context, model string, messages []Message) (Completion, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeLLMCall{model: model, messages: messages})
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Completion{}, err
	}
	return f.response(model, messages)
}

func (f *fakeLLM) lastCall() fakeLLMCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// fakeEngine is an EngineClient test double that counts session opens per
// namespace.
type fakeEngine struct {
	mu    sync.Mutex
	opens map[string]int
	err   error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{opens: make(map[string]int)}
}

func (f *fakeEngine) Open(ctx context.Context, cfg SessionConfig) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.opens[cfg.Namespace]++
	return &Session{ID: "sess-" + cfg.Namespace, Namespace: cfg.Namespace}, nil
}

func (f *fakeEngine) openCount(ns string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens[ns]
}
