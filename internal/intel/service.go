package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"lastmile-backend/internal/extract"
	"lastmile-backend/internal/trip"
)

// Generator is the reasoning-service call the Service depends on. *Client
// satisfies it; tests substitute a fake.
type Generator interface {
	GenerateContent(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Service issues the two-stage trip intelligence queries. Core failures
// propagate; deep failures degrade to an empty enrichment result, so a
// failing enrichment call never blocks the primary answer.
type Service struct {
	gen Generator
}

// NewService creates a Service on top of the given generator.
func NewService(gen Generator) *Service {
	return &Service{gen: gen}
}

// FetchCore runs the fast query for ETAs and open status. The result is
// validated: drive and walk times must be present and positive, and the
// traffic status is normalized.
func (s *Service) FetchCore(ctx context.Context, destination string, lat, lng float64) (trip.CoreResult, error) {
	resp, err := s.gen.GenerateContent(ctx, coreRequest(destination, lat, lng))
	if err != nil {
		return trip.CoreResult{}, fmt.Errorf("core intel request: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return trip.CoreResult{}, fmt.Errorf("core intel: %w", ErrEmptyResponse)
	}

	raw, ok := extract.Object(text)
	if !ok {
		log.Printf("core intel: response contained no JSON object: %q", text)
		return trip.CoreResult{}, fmt.Errorf("core intel: %w", ErrMalformedResponse)
	}

	var core trip.CoreResult
	if err := json.Unmarshal(raw, &core); err != nil {
		log.Printf("core intel: extracted JSON does not match expected shape: %v", err)
		return trip.CoreResult{}, fmt.Errorf("core intel: %w", ErrMalformedResponse)
	}

	core.Driving.TrafficStatus = string(trip.NormalizeTrafficStatus(core.Driving.TrafficStatus))

	if core.Driving.DriveTimeMins <= 0 || core.Walking.WalkTimeMins <= 0 {
		return trip.CoreResult{}, fmt.Errorf("core intel: %w", ErrInvalidTimeValues)
	}
	return core, nil
}

// FetchDeep runs the enrichment query for weather, parking and trend. It
// never returns an error: any failure is logged and converted to a result
// with an empty grounding-sources sequence.
func (s *Service) FetchDeep(ctx context.Context, destination string, lat, lng float64) trip.DeepResult {
	empty := trip.DeepResult{GroundingSources: []trip.GroundingSource{}}

	resp, err := s.gen.GenerateContent(ctx, deepRequest(destination, lat, lng))
	if err != nil {
		log.Printf("deep intel request failed: %v", err)
		return empty
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		log.Printf("deep intel: empty response for %q", destination)
		return empty
	}

	raw, ok := extract.Object(text)
	if !ok {
		log.Printf("deep intel: response contained no JSON object: %q", text)
		return empty
	}

	var deep trip.DeepResult
	if err := json.Unmarshal(raw, &deep); err != nil {
		log.Printf("deep intel: extracted JSON does not match expected shape: %v", err)
		return empty
	}

	deep.GroundingSources = projectSources(resp.GroundingChunks())
	return deep
}

// projectSources maps citation chunks onto grounding sources. Chunks that
// are neither maps nor web citations are dropped.
func projectSources(chunks []GroundingChunk) []trip.GroundingSource {
	sources := lo.FilterMap(chunks, func(ch GroundingChunk, _ int) (trip.GroundingSource, bool) {
		switch {
		case ch.Maps != nil:
			return trip.GroundingSource{Title: titleOr(ch.Maps.Title, "Map"), URI: ch.Maps.URI}, true
		case ch.Web != nil:
			return trip.GroundingSource{Title: titleOr(ch.Web.Title, "Web"), URI: ch.Web.URI}, true
		}
		return trip.GroundingSource{}, false
	})
	if sources == nil {
		sources = []trip.GroundingSource{}
	}
	return sources
}

func titleOr(title, fallback string) string {
	if title == "" {
		return fallback
	}
	return title
}

// Analyze runs the core and deep queries concurrently and merges their
// results. Both must complete before anything is returned; a core failure
// fails the whole call and the deep result, if any, is discarded.
func (s *Service) Analyze(ctx context.Context, destination string, lat, lng float64) (trip.Analysis, error) {
	var (
		core trip.CoreResult
		deep trip.DeepResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.FetchCore(gctx, destination, lat, lng)
		if err != nil {
			return err
		}
		core = c
		return nil
	})
	g.Go(func() error {
		deep = s.FetchDeep(gctx, destination, lat, lng)
		return nil
	})

	if err := g.Wait(); err != nil {
		return trip.Analysis{}, err
	}
	return trip.Merge(destination, core, deep), nil
}
