package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
)

// fieldFeature renders a field as a GeoJSON feature. Fields with a stored
// boundary become Polygons (lng,lat ring order, closed); fields registered
// from a point alone fall back to their centroid.
func fieldFeature(field *domain.Field) *geojson.Feature {
	ring := make(orb.Ring, 0, len(field.Polygon)+1)
	for _, p := range field.Polygon {
		ring = append(ring, orb.Point{p.Lng, p.Lat})
	}
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}

	var f *geojson.Feature
	if len(ring) >= 4 {
		f = geojson.NewFeature(orb.Polygon{ring})
	} else {
		f = geojson.NewFeature(orb.Point{field.Centroid.Lng, field.Centroid.Lat})
	}
	f.ID = field.ID
	f.Properties = geojson.Properties{
		"name":         field.Name,
		"area_ha":      field.AreaHa,
		"soil_type":    field.SoilType,
		"climate_zone": field.ClimateZone,
	}
	return f
}

// centroidMarker renders the map marker Point at a field's centroid.
func centroidMarker(field *domain.Field) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{field.Centroid.Lng, field.Centroid.Lat})
	f.Properties = geojson.Properties{
		"kind":     "marker",
		"field_id": field.ID,
		"name":     field.Name,
		"area_ha":  field.AreaHa,
	}
	return f
}

// FieldGeoJSONHandler returns a single field as a GeoJSON Feature.
func FieldGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "field id is required")
		}
		field, err := deps.Fields.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "field not found")
		}

		c.Set("Content-Type", "application/geo+json")
		return c.JSON(fieldFeature(field))
	}
}

// OverviewGeoJSONHandler returns the map overview: every field's boundary
// polygon plus a centroid marker Point per field, in one FeatureCollection.
// lat, lng and radius narrow the overview to fields near a point.
func OverviewGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lng := c.QueryFloat("lng", 0)
		radius := c.QueryFloat("radius", 0)

		var (
			fields []domain.Field
			err    error
		)
		if lat != 0 && lng != 0 && radius > 0 {
			if radius > 50000 {
				return errBadRequest(c, "radius must be at most 50000 meters")
			}
			fields, err = deps.Fields.FindNearby(c.Context(), lat, lng, radius, 100)
		} else {
			fields, _, err = deps.Fields.List(c.Context(), 0, 100)
		}
		if err != nil {
			return errInternal(c, err.Error())
		}

		fc := geojson.NewFeatureCollection()
		for i := range fields {
			fc.Append(fieldFeature(&fields[i]))
			if fields[i].Centroid.Valid() {
				fc.Append(centroidMarker(&fields[i]))
			}
		}

		c.Set("Content-Type", "application/geo+json")
		return c.JSON(fc)
	}
}
