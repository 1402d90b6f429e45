package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/core/ports"
	"github.com/MintRaspberry/AgroPlan2/internal/pkg/geospatial"
)

// SketchService owns the in-progress field sketches. Drawing clients send
// edit events, the service recomputes area and centroid on every apply and
// publishes the fresh figures for live map overlays. All state is held on
// the instance, keyed by sketch ID.
type SketchService struct {
	mu        sync.RWMutex
	sketches  map[string]*domain.Sketch
	publisher ports.EventPublisher
}

// NewSketchService creates a new SketchService.
func NewSketchService(publisher ports.EventPublisher) *SketchService {
	return &SketchService{
		sketches:  make(map[string]*domain.Sketch),
		publisher: publisher,
	}
}

// Apply processes one edit event and returns the sketch with recomputed
// figures. A delete event removes the sketch and returns nil. Sketches with
// fewer than three vertices are kept with zero area; the drawing UI produces
// them transiently.
func (s *SketchService) Apply(ctx context.Context, event *domain.PolygonEditEvent) (*domain.Sketch, error) {
	if event.SketchID == "" {
		return nil, fmt.Errorf("sketch id must not be empty")
	}

	switch event.Kind {
	case domain.EditCreated, domain.EditEdited:
	case domain.EditDeleted:
		s.mu.Lock()
		delete(s.sketches, event.SketchID)
		s.mu.Unlock()
		_ = s.publisher.PublishSketchUpdate(ctx, &domain.Sketch{ID: event.SketchID, UpdatedAt: time.Now()})
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown edit kind %q", event.Kind)
	}

	sketch := &domain.Sketch{
		ID:        event.SketchID,
		Vertices:  event.Vertices,
		AreaHa:    geospatial.PolygonAreaHectares(event.Vertices),
		UpdatedAt: time.Now(),
	}
	if centroid, err := geospatial.Centroid(event.Vertices); err == nil {
		sketch.Centroid = &centroid
	}

	s.mu.Lock()
	s.sketches[event.SketchID] = sketch
	s.mu.Unlock()

	_ = s.publisher.PublishSketchUpdate(ctx, sketch)

	return sketch, nil
}

// Get returns the current state of a sketch.
func (s *SketchService) Get(ctx context.Context, id string) (*domain.Sketch, error) {
	s.mu.RLock()
	sketch, ok := s.sketches[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("sketch %s not found", id)
	}
	return sketch, nil
}

// Discard drops a sketch without publishing an update.
func (s *SketchService) Discard(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.sketches, id)
	s.mu.Unlock()
}
