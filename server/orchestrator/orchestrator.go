// Package orchestrator coordinates the NLP pipeline: classification,
// slot filling, routing, backend fetch, response generation,
// guardrails and query logging.
package orchestrator

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/retailsense/concierge/internal/metrics"
	"github.com/retailsense/concierge/plugin/nlp/guardrail"
	"github.com/retailsense/concierge/plugin/nlp/intent"
	"github.com/retailsense/concierge/plugin/nlp/respond"
	"github.com/retailsense/concierge/plugin/nlp/route"
	"github.com/retailsense/concierge/plugin/nlp/slot"
	"github.com/retailsense/concierge/server/corebackend"
	"github.com/retailsense/concierge/server/retrieval"
	"github.com/retailsense/concierge/store"
)

// IntentClassifier produces the query intent.
type IntentClassifier interface {
	Classify(ctx context.Context, query string) (intent.Result, error)
}

// SlotFiller extracts entities from the query.
type SlotFiller interface {
	Extract(ctx context.Context, query string, intent string) (slot.Slots, error)
}

// Responder generates the final answer.
type Responder interface {
	Generate(ctx context.Context, in respond.Input) respond.Response
}

// Retriever searches the knowledge base.
type Retriever interface {
	Search(ctx context.Context, query string) ([]*retrieval.Result, error)
}

// CoreFetcher fetches backend data for a routed endpoint.
type CoreFetcher interface {
	Fetch(ctx context.Context, endpoint string) (map[string]any, error)
}

// QueryLogStore persists query logs.
type QueryLogStore interface {
	CreateQueryLog(ctx context.Context, create *store.QueryLog) (*store.QueryLog, error)
}

// Request is one user query.
type Request struct {
	Query          string
	ConversationID string
	UserRole       string
}

// Response is the pipeline result for an accepted query.
type Response struct {
	QueryUID       string         `json:"query_id"`
	ConversationID string         `json:"conversation_id"`
	Intent         string         `json:"intent"`
	Slots          slot.Slots     `json:"slots"`
	RoutedEndpoint string         `json:"routed_endpoint"`
	ResponseText   string         `json:"response_text"`
	ResponseHTML   string         `json:"response_html,omitempty"`
	Confidence     float64        `json:"confidence"`
	Sources        []string       `json:"sources"`
	CoreData       map[string]any `json:"core_data,omitempty"`
}

// RejectionError signals that a guardrail blocked the query. The
// Reason is safe to show to the user.
type RejectionError struct {
	Check  string
	Reason string
}

func (e *RejectionError) Error() string {
	return e.Reason
}

// Service runs the pipeline.
type Service struct {
	intents    IntentClassifier
	slots      SlotFiller
	router     *route.Router
	responder  Responder
	retriever  Retriever
	core       CoreFetcher
	guardrails *guardrail.Service
	queryLogs  QueryLogStore
	metrics    *metrics.Collector
}

// New wires the pipeline. retriever and core may be nil; the pipeline
// degrades accordingly.
func New(
	intents IntentClassifier,
	slots SlotFiller,
	router *route.Router,
	responder Responder,
	retriever Retriever,
	core CoreFetcher,
	guardrails *guardrail.Service,
	queryLogs QueryLogStore,
	collector *metrics.Collector,
) *Service {
	return &Service{
		intents:    intents,
		slots:      slots,
		router:     router,
		responder:  responder,
		retriever:  retriever,
		core:       core,
		guardrails: guardrails,
		queryLogs:  queryLogs,
		metrics:    collector,
	}
}

// ProcessQuery runs a query through the full pipeline. A guardrail
// rejection comes back as *RejectionError; infrastructure failures
// inside the pipeline degrade instead of erroring wherever the answer
// can still be produced.
func (s *Service) ProcessQuery(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	logger := slog.With(
		slog.String("conversation_id", conversationID),
		slog.String("user_role", req.UserRole),
	)
	logger.Info("processing query", slog.String("query", truncate(req.Query, 200)))

	// Step 1: intent classification.
	classified, err := s.intents.Classify(ctx, req.Query)
	if err != nil {
		return nil, errors.Wrap(err, "intent classification failed")
	}

	// Step 2: slot filling.
	slots, err := s.slots.Extract(ctx, req.Query, string(classified.Intent))
	if err != nil {
		return nil, errors.Wrap(err, "slot extraction failed")
	}
	if !slot.Validate(slots, string(classified.Intent)) {
		logger.Info("required slots missing", slog.String("intent", string(classified.Intent)))
	}

	// Step 3: routing.
	routed := s.router.Resolve(classified.Intent, slots)
	logger.Info("query routed", slog.String("endpoint", routed.Endpoint))

	// Step 4: knowledge base retrieval.
	contexts := s.retrieve(ctx, req.Query)

	// Step 5: core backend fetch. Failures degrade to a data-free answer.
	coreData := s.fetchCoreData(ctx, routed.Endpoint, logger)

	// Step 6: response generation.
	generated := s.responder.Generate(ctx, respond.Input{
		Query:    req.Query,
		Intent:   classified.Intent,
		Slots:    slots,
		Endpoint: routed.Endpoint,
		Contexts: contexts,
		CoreData: coreData,
	})

	sources := generated.Sources
	if coreData != nil && !contains(sources, "core_backend") {
		sources = append(sources, "core_backend")
	}

	// Step 7: guardrails.
	check := s.guardrails.CheckAll(guardrail.Input{
		Query:      req.Query,
		Intent:     string(classified.Intent),
		Confidence: classified.Confidence,
		Response:   generated.Text,
		UserRole:   req.UserRole,
	})
	if !check.Passed {
		logger.Warn("guardrail check failed",
			slog.String("check", check.Check), slog.String("reason", check.Reason))
		if s.metrics != nil {
			s.metrics.RecordRejection(check.Check)
		}
		// Log the rejection but never fail the rejection path on a
		// storage error.
		s.logQuery(ctx, conversationID, req, string(intent.Rejected), classified.Confidence, "", logger)
		return nil, &RejectionError{Check: check.Check, Reason: check.Reason}
	}

	// Step 8: query log.
	queryLog := s.logQuery(ctx, conversationID, req,
		string(classified.Intent), classified.Confidence, routed.Endpoint, logger)

	if s.metrics != nil {
		s.metrics.RecordQuery(string(classified.Intent), time.Since(start))
	}

	resp := &Response{
		ConversationID: conversationID,
		Intent:         string(classified.Intent),
		Slots:          slots,
		RoutedEndpoint: routed.Endpoint,
		ResponseText:   generated.Text,
		ResponseHTML:   generated.HTML,
		Confidence:     classified.Confidence,
		Sources:        sources,
		CoreData:       coreData,
	}
	if queryLog != nil {
		resp.QueryUID = queryLog.UID
	}

	logger.Info("query processed",
		slog.String("intent", string(classified.Intent)),
		slog.Duration("elapsed", time.Since(start)))
	return resp, nil
}

func (s *Service) retrieve(ctx context.Context, query string) []respond.ContextDoc {
	if s.retriever == nil {
		return nil
	}
	results, err := s.retriever.Search(ctx, query)
	if err != nil {
		slog.Warn("retrieval failed", slog.Any("error", err))
		return nil
	}

	docs := make([]respond.ContextDoc, 0, len(results))
	for _, r := range results {
		docs = append(docs, respond.ContextDoc{
			Text:     r.Document.Text,
			Source:   r.Document.Source,
			DocType:  r.Document.DocType,
			Metadata: r.Metadata(),
			Score:    r.Score,
		})
	}
	return docs
}

func (s *Service) fetchCoreData(ctx context.Context, endpoint string, logger *slog.Logger) map[string]any {
	if s.core == nil || !corebackend.Fetchable(endpoint) {
		return nil
	}
	data, err := s.core.Fetch(ctx, endpoint)
	if err != nil {
		logger.Warn("core backend fetch failed", slog.Any("error", err))
		return nil
	}
	return data
}

func (s *Service) logQuery(
	ctx context.Context,
	conversationID string,
	req Request,
	intentName string,
	confidence float64,
	endpoint string,
	logger *slog.Logger,
) *store.QueryLog {
	if s.queryLogs == nil {
		return nil
	}
	queryLog, err := s.queryLogs.CreateQueryLog(ctx, &store.QueryLog{
		UID:            shortuuid.New(),
		ConversationID: conversationID,
		UserRole:       req.UserRole,
		QueryText:      guardrail.RedactPII(req.Query),
		Intent:         intentName,
		Confidence:     confidence,
		RoutedEndpoint: endpoint,
		CreatedTs:      time.Now().Unix(),
	})
	if err != nil {
		logger.Error("failed to log query", slog.Any("error", err))
		return nil
	}
	return queryLog
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
