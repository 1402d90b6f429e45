package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/pkg/geospatial"
)

// FieldRepo implements ports.FieldRepository with pgx.
type FieldRepo struct {
	db *DB
}

// NewFieldRepo creates a new FieldRepo.
func NewFieldRepo(db *DB) *FieldRepo {
	return &FieldRepo{db: db}
}

// boundaryGeoJSON renders the vertex ring as a GeoJSON Polygon geometry so
// PostGIS can build the boundary column from it. Returns nil for rings that
// enclose no surface.
func boundaryGeoJSON(pts []geospatial.Point) (interface{}, error) {
	if len(pts) < 3 {
		return nil, nil
	}

	ring := make(orb.Ring, 0, len(pts)+1)
	for _, p := range pts {
		ring = append(ring, orb.Point{p.Lng, p.Lat})
	}
	// GeoJSON rings are closed explicitly.
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}

	raw, err := json.Marshal(geojson.NewGeometry(orb.Polygon{ring}))
	if err != nil {
		return nil, fmt.Errorf("marshal boundary: %w", err)
	}
	return string(raw), nil
}

func boundsArgs(b *domain.Bounds) (minLat, minLng, maxLat, maxLng interface{}) {
	if b == nil {
		return nil, nil, nil, nil
	}
	return b.MinLat, b.MinLng, b.MaxLat, b.MaxLng
}

// Create inserts a field and fills in its generated ID and timestamps.
func (r *FieldRepo) Create(ctx context.Context, f *domain.Field) error {
	boundary, err := boundaryGeoJSON(f.Polygon)
	if err != nil {
		return err
	}
	minLat, minLng, maxLat, maxLng := boundsArgs(f.Bounds)

	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO fields (name, area_ha, centroid, polygon, boundary,
		                    min_lat, min_lng, max_lat, max_lng,
		                    soil_type, climate_zone, metadata)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5,
		        ST_SetSRID(ST_GeomFromGeoJSON($6), 4326)::geography,
		        $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`, f.Name, f.AreaHa, f.Centroid.Lng, f.Centroid.Lat, f.Polygon, boundary,
		minLat, minLng, maxLat, maxLng,
		f.SoilType, f.ClimateZone, f.Metadata,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
}

// Update rewrites a field row, refreshing updated_at.
func (r *FieldRepo) Update(ctx context.Context, f *domain.Field) error {
	boundary, err := boundaryGeoJSON(f.Polygon)
	if err != nil {
		return err
	}
	minLat, minLng, maxLat, maxLng := boundsArgs(f.Bounds)

	return r.db.Pool.QueryRow(ctx, `
		UPDATE fields
		SET name = $2, area_ha = $3,
		    centroid = ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography,
		    polygon = $6,
		    boundary = ST_SetSRID(ST_GeomFromGeoJSON($7), 4326)::geography,
		    min_lat = $8, min_lng = $9, max_lat = $10, max_lng = $11,
		    soil_type = $12, climate_zone = $13, metadata = $14,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, f.ID, f.Name, f.AreaHa, f.Centroid.Lng, f.Centroid.Lat, f.Polygon, boundary,
		minLat, minLng, maxLat, maxLng,
		f.SoilType, f.ClimateZone, f.Metadata,
	).Scan(&f.UpdatedAt)
}

// Delete removes a field and, through cascades, its history and climate rows.
func (r *FieldRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM fields WHERE id = $1`, id)
	return err
}

// GetByID returns a field by UUID.
func (r *FieldRepo) GetByID(ctx context.Context, id string) (*domain.Field, error) {
	var f domain.Field
	var minLat, minLng, maxLat, maxLng sql.NullFloat64
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, area_ha,
		       ST_Y(centroid::geometry) as lat,
		       ST_X(centroid::geometry) as lng,
		       COALESCE(polygon, '[]'),
		       min_lat, min_lng, max_lat, max_lng,
		       soil_type, climate_zone, COALESCE(metadata, '{}'),
		       created_at, updated_at
		FROM fields WHERE id = $1
	`, id).Scan(
		&f.ID, &f.Name, &f.AreaHa,
		&f.Centroid.Lat, &f.Centroid.Lng,
		&f.Polygon,
		&minLat, &minLng, &maxLat, &maxLng,
		&f.SoilType, &f.ClimateZone, &f.Metadata,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if minLat.Valid {
		f.Bounds = &domain.Bounds{
			MinLat: minLat.Float64, MinLng: minLng.Float64,
			MaxLat: maxLat.Float64, MaxLng: maxLng.Float64,
		}
	}
	return &f, nil
}

// List returns one page of fields ordered by name plus the total count.
func (r *FieldRepo) List(ctx context.Context, offset, limit int) ([]domain.Field, int, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, area_ha,
		       ST_Y(centroid::geometry) as lat,
		       ST_X(centroid::geometry) as lng,
		       COALESCE(polygon, '[]'),
		       min_lat, min_lng, max_lat, max_lng,
		       soil_type, climate_zone, COALESCE(metadata, '{}'),
		       created_at, updated_at,
		       COUNT(*) OVER() as total
		FROM fields
		ORDER BY name
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var fields []domain.Field
	total := 0
	for rows.Next() {
		var f domain.Field
		var minLat, minLng, maxLat, maxLng sql.NullFloat64
		if err := rows.Scan(
			&f.ID, &f.Name, &f.AreaHa,
			&f.Centroid.Lat, &f.Centroid.Lng,
			&f.Polygon,
			&minLat, &minLng, &maxLat, &maxLng,
			&f.SoilType, &f.ClimateZone, &f.Metadata,
			&f.CreatedAt, &f.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, err
		}
		if minLat.Valid {
			f.Bounds = &domain.Bounds{
				MinLat: minLat.Float64, MinLng: minLng.Float64,
				MaxLat: maxLat.Float64, MaxLng: maxLng.Float64,
			}
		}
		fields = append(fields, f)
	}
	return fields, total, rows.Err()
}

// FindNearby returns fields whose centroid lies within radiusMeters,
// nearest first, using PostGIS ST_DWithin.
func (r *FieldRepo) FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.Field, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, area_ha,
		       ST_Y(centroid::geometry) as lat,
		       ST_X(centroid::geometry) as lng,
		       COALESCE(polygon, '[]'),
		       soil_type, climate_zone,
		       ST_Distance(centroid, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) as distance,
		       created_at, updated_at
		FROM fields
		WHERE ST_DWithin(centroid, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $4
	`, lng, lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []domain.Field
	for rows.Next() {
		var f domain.Field
		var dist float64
		if err := rows.Scan(
			&f.ID, &f.Name, &f.AreaHa,
			&f.Centroid.Lat, &f.Centroid.Lng,
			&f.Polygon,
			&f.SoilType, &f.ClimateZone,
			&dist,
			&f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, err
		}
		f.Distance = &dist
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// Search performs fuzzy + full-text search on field names.
func (r *FieldRepo) Search(ctx context.Context, query string, limit int) ([]domain.Field, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, area_ha,
		       ST_Y(centroid::geometry) as lat,
		       ST_X(centroid::geometry) as lng,
		       soil_type, climate_zone, created_at, updated_at,
		       similarity(name, $1) as sim
		FROM fields
		WHERE name_vector @@ plainto_tsquery('english', $1)
		   OR name %> $1
		ORDER BY sim DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []domain.Field
	for rows.Next() {
		var f domain.Field
		var sim float64
		if err := rows.Scan(
			&f.ID, &f.Name, &f.AreaHa,
			&f.Centroid.Lat, &f.Centroid.Lng,
			&f.SoilType, &f.ClimateZone, &f.CreatedAt, &f.UpdatedAt,
			&sim,
		); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}
