// Package server assembles the NLP pipeline and serves the REST API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/retailsense/concierge/internal/metrics"
	"github.com/retailsense/concierge/internal/profile"
	"github.com/retailsense/concierge/plugin/llm"
	"github.com/retailsense/concierge/plugin/nlp/guardrail"
	"github.com/retailsense/concierge/plugin/nlp/intent"
	"github.com/retailsense/concierge/plugin/nlp/respond"
	"github.com/retailsense/concierge/plugin/nlp/route"
	"github.com/retailsense/concierge/plugin/nlp/slot"
	"github.com/retailsense/concierge/plugin/voice"
	"github.com/retailsense/concierge/server/corebackend"
	"github.com/retailsense/concierge/server/middleware"
	"github.com/retailsense/concierge/server/orchestrator"
	"github.com/retailsense/concierge/server/retrieval"
	"github.com/retailsense/concierge/server/router/apiv1"
	"github.com/retailsense/concierge/store"
)

// Server is the main HTTP server.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
}

// NewServer wires the pipeline from the profile and mounts the API.
func NewServer(ctx context.Context, p *profile.Profile, st *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.CorrelationID())
	e.Use(middleware.NewRateLimiter(10, 20).Middleware())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			slog.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("correlation_id", middleware.GetCorrelationID(c)),
			)
			return nil
		},
	}))

	collector := metrics.NewCollector()
	orch, err := buildOrchestrator(p, st, collector)
	if err != nil {
		return nil, err
	}

	var voiceService voice.Service
	if p.IsVoiceEnabled() {
		voiceService, err = voice.NewService(p)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create voice service")
		}
	}

	apiv1.NewAPIV1Service(p, st, orch, collector, voiceService).Register(e)

	return &Server{
		Profile:    p,
		Store:      st,
		echoServer: e,
	}, nil
}

// buildOrchestrator assembles the pipeline services. The LLM layers,
// retrieval embedder and core backend client come online only when the
// profile enables them; everything else degrades to the rule path.
func buildOrchestrator(p *profile.Profile, st *store.Store, collector *metrics.Collector) (*orchestrator.Service, error) {
	var llmService llm.Service
	if p.IsLLMEnabled() {
		var err error
		llmService, err = llm.NewService(p)
		if err != nil {
			if !p.LLMFallbackToRules {
				return nil, errors.Wrap(err, "failed to create LLM service")
			}
			slog.Warn("LLM unavailable, running rule-only", slog.Any("error", err))
			llmService = nil
		}
	}

	var intentLLM *intent.LLMClassifier
	var slotLLM *slot.LLMFiller
	var respondLLM *respond.LLMGenerator
	if llmService != nil {
		intentLLM = intent.NewLLMClassifier(llmService, p.IntentConfidenceThreshold)
		slotLLM = slot.NewLLMFiller(llmService)
		respondLLM = respond.NewLLMGenerator(llmService)
	}

	var retriever orchestrator.Retriever
	if p.EmbeddingAPIKey != "" {
		embedder, err := retrieval.NewEmbedder(p)
		if err != nil {
			slog.Warn("embedder unavailable, keyword search only", slog.Any("error", err))
			retriever = retrieval.NewService(st, nil, p.RetrievalTopK)
		} else {
			retriever = retrieval.NewService(st, embedder, p.RetrievalTopK)
		}
	} else {
		retriever = retrieval.NewService(st, nil, p.RetrievalTopK)
	}

	policies, err := guardrail.NewPolicyEngine(p.GuardrailPolicies)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile guardrail policies")
	}

	intentService := intent.NewService(
		intent.NewRuleClassifier(),
		intentLLM,
		intent.NewKeywordClassifier(p.IntentConfidenceThreshold),
	).WithMetrics(collector)

	return orchestrator.New(
		intentService,
		slot.NewService(slot.NewRuleFiller(), slotLLM).WithMetrics(collector),
		route.NewRouter(),
		respond.NewService(respond.NewRuleGenerator(), respondLLM).WithMetrics(collector),
		retriever,
		corebackend.NewClient(p.CoreAPIBaseURL, p.CoreAPITimeout),
		guardrail.NewService(p.GuardrailConfidenceThreshold, policies),
		st,
		collector,
	), nil
}

// Start begins serving. It blocks until the listener fails.
func (s *Server) Start(_ context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server listening",
		slog.String("addr", addr),
		slog.String("mode", s.Profile.Mode),
		slog.String("driver", s.Profile.Driver))
	return s.echoServer.Start(addr)
}

// Shutdown gracefully stops the server and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server", slog.Any("error", err))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", slog.Any("error", err))
	}
	slog.Info("server stopped")
}
