package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	fieldType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Field",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"name":         &graphql.Field{Type: graphql.String},
			"area_ha":      &graphql.Field{Type: graphql.Float},
			"centroid":     &graphql.Field{Type: geoPointType},
			"soil_type":    &graphql.Field{Type: graphql.String},
			"climate_zone": &graphql.Field{Type: graphql.String},
			"distance":     &graphql.Field{Type: graphql.Float},
		},
	})

	recommendationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Recommendation",
		Fields: graphql.Fields{
			"crop":    &graphql.Field{Type: graphql.String},
			"score":   &graphql.Field{Type: graphql.Float},
			"reasons": &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	marketPriceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MarketPrice",
		Fields: graphql.Fields{
			"crop":   &graphql.Field{Type: graphql.String},
			"price":  &graphql.Field{Type: graphql.Float},
			"region": &graphql.Field{Type: graphql.String},
			"date":   &graphql.Field{Type: graphql.DateTime},
			"source": &graphql.Field{Type: graphql.String},
		},
	})

	yieldStatType := graphql.NewObject(graphql.ObjectConfig{
		Name: "YieldStat",
		Fields: graphql.Fields{
			"crop":      &graphql.Field{Type: graphql.String},
			"avg_yield": &graphql.Field{Type: graphql.Float},
			"seasons":   &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"field": &graphql.Field{
				Type:        fieldType,
				Description: "Get a field by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Fields.GetByID(p.Context, id)
				},
			},
			"fields": &graphql.Field{
				Type:        graphql.NewList(fieldType),
				Description: "List registered fields",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					offset := p.Args["offset"].(int)
					limit := p.Args["limit"].(int)
					fields, _, err := deps.Fields.List(p.Context, offset, limit)
					return fields, err
				},
			},
			"fieldsNearby": &graphql.Field{
				Type:        graphql.NewList(fieldType),
				Description: "Find fields near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 5000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lng := p.Args["lng"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Fields.FindNearby(p.Context, lat, lng, radius, limit)
				},
			},
			"searchFields": &graphql.Field{
				Type:        graphql.NewList(fieldType),
				Description: "Search fields by name (fuzzy matching)",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := p.Args["query"].(string)
					limit := p.Args["limit"].(int)
					return deps.Fields.Search(p.Context, q, limit)
				},
			},
			"recommendations": &graphql.Field{
				Type:        graphql.NewList(recommendationType),
				Description: "Crop recommendations for a field's next season",
				Args: graphql.FieldConfigArgument{
					"field_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					fieldID := p.Args["field_id"].(string)
					return deps.Rotation.Recommend(p.Context, fieldID)
				},
			},
			"marketPrice": &graphql.Field{
				Type:        marketPriceType,
				Description: "Current market price for a crop",
				Args: graphql.FieldConfigArgument{
					"crop":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"region": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					crop := p.Args["crop"].(string)
					region := p.Args["region"].(string)
					return deps.Market.Current(p.Context, crop, region)
				},
			},
			"yieldStats": &graphql.Field{
				Type:        graphql.NewList(yieldStatType),
				Description: "Per-crop yield statistics for a field",
				Args: graphql.FieldConfigArgument{
					"field_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					fieldID := p.Args["field_id"].(string)
					return deps.Stats.YieldStats(p.Context, fieldID)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
