package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/eatnear/internal/core/domain"
	"github.com/samirrijal/eatnear/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	priceRangeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PriceRange",
		Fields: graphql.Fields{
			"lower": &graphql.Field{Type: graphql.Float},
			"upper": &graphql.Field{Type: graphql.Float},
		},
	})

	restaurantType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Restaurant",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"name":           &graphql.Field{Type: graphql.String},
			"address":        &graphql.Field{Type: graphql.String},
			"location":       &graphql.Field{Type: geoPointType},
			"rating":         &graphql.Field{Type: graphql.Float},
			"price_range":    &graphql.Field{Type: priceRangeType},
			"price_category": &graphql.Field{Type: graphql.String},
			"distance":       &graphql.Field{Type: graphql.Float, Description: "Meters from the search center; null outside searches"},
			"created_at":     &graphql.Field{Type: graphql.DateTime},
			"updated_at":     &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"restaurantsNearby": &graphql.Field{
				Type:        graphql.NewList(restaurantType),
				Description: "Restaurants within distance meters of a point, best match first",
				Args: graphql.FieldConfigArgument{
					"latitude":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"longitude":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"distance":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"priceCategory": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"limit":         &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: usecases.DefaultSearchLimit},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					category, err := domain.ParsePriceCategory(p.Args["priceCategory"].(string))
					if err != nil {
						return nil, err
					}
					ranked, err := deps.Search.Search(p.Context, domain.SearchRequest{
						Center: domain.GeoPoint{
							Lat: p.Args["latitude"].(float64),
							Lon: p.Args["longitude"].(float64),
						},
						RadiusMeters:  float64(p.Args["distance"].(int)),
						PriceCategory: category,
						Limit:         p.Args["limit"].(int),
					})
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(ranked))
					for i := range ranked {
						d := ranked[i].Distance
						out = append(out, restaurantToGraph(&ranked[i].Restaurant, &d))
					}
					return out, nil
				},
			},
			"restaurant": &graphql.Field{
				Type:        restaurantType,
				Description: "Get a restaurant by name",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					r, err := deps.Restaurants.GetByName(p.Context, p.Args["name"].(string))
					if err != nil {
						return nil, err
					}
					return restaurantToGraph(r, nil), nil
				},
			},
			"restaurants": &graphql.Field{
				Type:        graphql.NewList(restaurantType),
				Description: "List restaurants ordered by name",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: usecases.DefaultListLimit},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					items, _, err := deps.Restaurants.List(p.Context, p.Args["offset"].(int), p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(items))
					for i := range items {
						out = append(out, restaurantToGraph(&items[i], nil))
					}
					return out, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func restaurantToGraph(r *domain.Restaurant, distance *float64) map[string]interface{} {
	m := map[string]interface{}{
		"id":      r.ID,
		"name":    r.Name,
		"address": r.Address,
		"location": map[string]interface{}{
			"latitude":  r.Location.Lat,
			"longitude": r.Location.Lon,
		},
		"rating":     r.Rating,
		"created_at": r.CreatedAt,
		"updated_at": r.UpdatedAt,
	}
	if r.PriceRange != nil {
		m["price_range"] = map[string]interface{}{
			"lower": r.PriceRange.Lower,
			"upper": r.PriceRange.Upper,
		}
	}
	if r.PriceCategory != "" {
		m["price_category"] = string(r.PriceCategory)
	}
	if distance != nil {
		m["distance"] = *distance
	}
	return m
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
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
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
