package memori

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/botfusions/memorid/internal/namespace"
	"go.uber.org/zap"
)

// Service is the facade for one base namespace. It proxies chat calls to
// the LLM client while keeping memory-engine sessions enabled for the
// namespaces involved.
//
// The base namespace is immutable. Per-user isolation is handled by
// deriving an effective namespace per call and opening a scoped engine
// session for it, never by swapping the facade's own identity. Concurrent
// calls with different user ids therefore cannot observe each other's
// substitution, and a stats call after a per-user chat always reports the
// base namespace.
type Service struct {
	databaseURL  string
	namespace    string
	defaultModel string

	engine EngineClient
	llm    LLMClient
	logger *zap.Logger

	consciousIngest bool
	autoIngest      bool

	mu sync.Mutex
	// sessions caches enabled engine sessions keyed by effective
	// namespace. Entries live for the facade lifetime.
	sessions map[string]*Session
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	DatabaseURL     string
	Namespace       string
	DefaultModel    string
	Engine          EngineClient
	LLM             LLMClient
	Logger          *zap.Logger
	ConsciousIngest bool
	AutoIngest      bool
}

// NewService creates a service facade for one base namespace.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("namespace required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("engine client required")
	}
	if opts.LLM == nil {
		return nil, fmt.Errorf("llm client required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	model := opts.DefaultModel
	if model == "" {
		model = DefaultModel
	}

	return &Service{
		databaseURL:     opts.DatabaseURL,
		namespace:       opts.Namespace,
		defaultModel:    model,
		engine:          opts.Engine,
		llm:             opts.LLM,
		logger:          logger.With(zap.String("namespace", opts.Namespace)),
		consciousIngest: opts.ConsciousIngest,
		autoIngest:      opts.AutoIngest,
		sessions:        make(map[string]*Session),
	}, nil
}

// Namespace returns the immutable base namespace.
func (s *Service) Namespace() string {
	return s.namespace
}

// ChatRequest is one chat call into the facade.
type ChatRequest struct {
	Message      string
	UserID       string
	Model        string
	SystemPrompt string
}

// ChatResult is the structured outcome of a chat call. A failed LLM call is
// a recovered outcome (Success false, Error set), not a Go error.
type ChatResult struct {
	Success   bool
	Response  string
	Error     string
	Model     string
	Namespace string
	Usage     Usage
}

// Chat sends a message through the memory engine to the LLM.
//
// When UserID is set, the call runs against the derived per-user namespace;
// the facade's base namespace is untouched. LLM failures are recovered into
// the result. Engine session failures surface as errors for the HTTP layer
// to turn into a 500.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (ChatResult, error) {
	if req.Message == "" {
		return ChatResult{}, fmt.Errorf("message required")
	}

	effective := namespace.Key(s.namespace, req.UserID)

	if _, err := s.ensureSession(ctx, effective); err != nil {
		return ChatResult{}, fmt.Errorf("memory engine session for %q: %w", effective, err)
	}

	model := req.Model
	if model == "" {
		model = s.defaultModel
	}

	var messages []Message
	if req.SystemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, Message{Role: RoleUser, Content: req.Message})

	completion, err := s.llm.Complete(ctx, model, messages)
	if err != nil {
		s.logger.Error("chat failed",
			zap.String("effective_namespace", effective),
			zap.Error(err))
		return ChatResult{
			Success:   false,
			Error:     err.Error(),
			Namespace: effective,
		}, nil
	}

	s.logger.Info("chat completed",
		zap.String("effective_namespace", effective),
		zap.String("model", model),
		zap.Int("total_tokens", completion.Usage.TotalTokens))

	return ChatResult{
		Success:   true,
		Response:  completion.Content,
		Model:     model,
		Namespace: effective,
		Usage:     completion.Usage,
	}, nil
}

// Stats describes the facade's memory backend.
type Stats struct {
	Namespace string `json:"namespace"`
	Database  string `json:"database"`
	Status    string `json:"status"`
}

// Stats ensures the base-namespace session and reports the backend host.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if _, err := s.ensureSession(ctx, s.namespace); err != nil {
		return Stats{}, fmt.Errorf("memory engine session for %q: %w", s.namespace, err)
	}

	return Stats{
		Namespace: s.namespace,
		Database:  databaseHost(s.databaseURL),
		Status:    "active",
	}, nil
}

// ensureSession returns the cached engine session for the effective
// namespace, opening and enabling one on first use.
func (s *Service) ensureSession(ctx context.Context, effective string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[effective]; ok {
		return sess, nil
	}

	sess, err := s.engine.Open(ctx, SessionConfig{
		DatabaseURL:     s.databaseURL,
		Namespace:       effective,
		ConsciousIngest: s.consciousIngest,
		AutoIngest:      s.autoIngest,
	})
	if err != nil {
		return nil, err
	}

	s.sessions[effective] = sess
	s.logger.Info("memory engine session enabled",
		zap.String("effective_namespace", effective))
	return sess, nil
}

// databaseHost extracts the host portion of a connection string: the
// content after "@" up to the next "/". Connection strings without
// credentials (no "@") report "unknown".
func databaseHost(url string) string {
	_, after, found := strings.Cut(url, "@")
	if !found {
		return "unknown"
	}
	host, _, _ := strings.Cut(after, "/")
	return host
}
