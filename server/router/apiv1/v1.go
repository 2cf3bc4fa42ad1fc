// Package apiv1 exposes the REST API.
package apiv1

import (
	"github.com/labstack/echo/v4"

	"github.com/retailsense/concierge/internal/metrics"
	"github.com/retailsense/concierge/internal/profile"
	"github.com/retailsense/concierge/plugin/voice"
	"github.com/retailsense/concierge/server/orchestrator"
	"github.com/retailsense/concierge/store"
)

// APIV1Service holds the handlers for /api/v1.
type APIV1Service struct {
	Profile      *profile.Profile
	Store        *store.Store
	Orchestrator *orchestrator.Service
	Metrics      *metrics.Collector

	// VoiceService is nil when voice is disabled; the voice routes are
	// then not registered.
	VoiceService voice.Service
}

func NewAPIV1Service(
	p *profile.Profile,
	st *store.Store,
	orch *orchestrator.Service,
	collector *metrics.Collector,
	voiceService voice.Service,
) *APIV1Service {
	return &APIV1Service{
		Profile:      p,
		Store:        st,
		Orchestrator: orch,
		Metrics:      collector,
		VoiceService: voiceService,
	}
}

// Register mounts all routes on the echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	e.GET("/", s.GetServiceInfo)
	e.GET("/healthz", s.GetHealth)

	apiv1 := e.Group("/api/v1")
	apiv1.GET("/system/metrics", s.GetSystemMetrics)

	nlp := apiv1.Group("/nlp")
	nlp.POST("/query", s.ProcessQuery)
	nlp.GET("/logs", s.ListQueryLogs)
	nlp.POST("/feedback", s.CreateFeedback)

	if s.VoiceService != nil {
		nlp.POST("/voice/query", s.ProcessVoiceQuery)
	}
}
