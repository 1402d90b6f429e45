package domain

import (
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/pkg/geospatial"
)

// EditKind discriminates the gestures a drawing client can send.
type EditKind string

const (
	EditCreated EditKind = "created"
	EditEdited  EditKind = "edited"
	EditDeleted EditKind = "deleted"
)

// PolygonEditEvent is one create, edit or delete gesture on a sketch.
type PolygonEditEvent struct {
	Kind     EditKind           `json:"kind"`
	SketchID string             `json:"sketch_id"`
	Vertices []geospatial.Point `json:"vertices,omitempty"`
}

// Sketch is an in-progress field boundary with its live figures.
type Sketch struct {
	ID        string             `json:"id"`
	Vertices  []geospatial.Point `json:"vertices"`
	AreaHa    float64            `json:"area_ha"`
	Centroid  *geospatial.Point  `json:"centroid,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}
