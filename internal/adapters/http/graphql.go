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
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	businessType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Business",
		Fields: graphql.Fields{
			"place_id":          &graphql.Field{Type: graphql.String},
			"name":              &graphql.Field{Type: graphql.String},
			"location":          &graphql.Field{Type: geoPointType},
			"category":          &graphql.Field{Type: graphql.String},
			"categories":        &graphql.Field{Type: graphql.NewList(graphql.String)},
			"rating":            &graphql.Field{Type: graphql.Float},
			"review_count":      &graphql.Field{Type: graphql.Int},
			"price_level":       &graphql.Field{Type: graphql.Int},
			"phone":             &graphql.Field{Type: graphql.String},
			"website":           &graphql.Field{Type: graphql.String},
			"description":       &graphql.Field{Type: graphql.String},
			"formatted_address": &graphql.Field{Type: graphql.String},
			"city":              &graphql.Field{Type: graphql.String},
			"state":             &graphql.Field{Type: graphql.String},
			"maps_url":          &graphql.Field{Type: graphql.String},
			"distance":          &graphql.Field{Type: graphql.Float},
		},
	})

	searchType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Search",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"user_id":      &graphql.Field{Type: graphql.String},
			"query":        &graphql.Field{Type: graphql.String},
			"location":     &graphql.Field{Type: graphql.String},
			"radius":       &graphql.Field{Type: graphql.Float},
			"category":     &graphql.Field{Type: graphql.String},
			"grid_search":  &graphql.Field{Type: graphql.Boolean},
			"result_count": &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"business": &graphql.Field{
				Type:        businessType,
				Description: "Get a saved business by place ID",
				Args: graphql.FieldConfigArgument{
					"place_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					placeID := p.Args["place_id"].(string)
					return deps.Businesses.GetByPlaceID(p.Context, placeID)
				},
			},
			"businessesNearby": &graphql.Field{
				Type:        graphql.NewList(businessType),
				Description: "Find saved businesses near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 5000.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Businesses.FindNearby(p.Context, lat, lon, radius, limit)
				},
			},
			"placeDetails": &graphql.Field{
				Type:        businessType,
				Description: "Fetch live place details from the provider",
				Args: graphql.FieldConfigArgument{
					"place_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					placeID := p.Args["place_id"].(string)
					return deps.Search.GetDetails(p.Context, placeID)
				},
			},
			"search": &graphql.Field{
				Type:        searchType,
				Description: "Get a past search by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.History.GetByID(p.Context, id)
				},
			},
			"searches": &graphql.Field{
				Type:        graphql.NewList(searchType),
				Description: "List a user's past searches, newest first",
				Args: graphql.FieldConfigArgument{
					"user_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
					"offset":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					uid := p.Args["user_id"].(string)
					limit := p.Args["limit"].(int)
					offset := p.Args["offset"].(int)
					searches, _, err := deps.History.ListByUser(p.Context, uid, limit, offset)
					return searches, err
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
