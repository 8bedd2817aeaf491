package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geo"

	"github.com/samirrijal/zonebuf/internal/core/domain"
	"github.com/samirrijal/zonebuf/internal/core/usecases"
)

var errNoBoundaryStore = errors.New("boundary store not configured")

func boundaryOf(p graphql.ResolveParams) domain.Boundary {
	b, _ := p.Source.(domain.Boundary)
	return b
}

// buildSchema exposes the stored boundaries for selective reads.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	boundType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bound",
		Fields: graphql.Fields{
			"min_lon": &graphql.Field{Type: graphql.Float},
			"min_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
		},
	})

	boundaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Boundary",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return boundaryOf(p).ID, nil
				},
			},
			"name": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return boundaryOf(p).Name, nil
				},
			},
			"area_m2": &graphql.Field{
				Type:        graphql.Float,
				Description: "Geodesic area in square meters",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return geo.Area(boundaryOf(p).Polygon), nil
				},
			},
			"bound": &graphql.Field{
				Type: boundType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					bd := boundaryOf(p).Polygon.Bound()
					return map[string]interface{}{
						"min_lon": bd.Min.Lon(), "min_lat": bd.Min.Lat(),
						"max_lon": bd.Max.Lon(), "max_lat": bd.Max.Lat(),
					}, nil
				},
			},
			"wkt": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return wkt.MarshalString(boundaryOf(p).Polygon), nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"boundaries": &graphql.Field{
				Type:        graphql.NewList(boundaryType),
				Description: "Stored boundaries whose name matches any of the patterns",
				Args: graphql.FieldConfigArgument{
					"match": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Boundaries == nil {
						return nil, errNoBoundaryStore
					}
					bs, err := deps.Boundaries.Boundaries(p.Context)
					if err != nil {
						return nil, err
					}
					var patterns []string
					if raw, ok := p.Args["match"].([]interface{}); ok {
						for _, v := range raw {
							if s, ok := v.(string); ok {
								patterns = append(patterns, s)
							}
						}
					}
					return usecases.FilterBoundaries(bs, patterns)
				},
			},
			"boundary": &graphql.Field{
				Type:        boundaryType,
				Description: "One stored boundary by id",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Boundaries == nil {
						return nil, errNoBoundaryStore
					}
					bs, err := deps.Boundaries.Boundaries(p.Context)
					if err != nil {
						return nil, err
					}
					id, _ := p.Args["id"].(string)
					for _, b := range bs {
						if b.ID == id {
							return b, nil
						}
					}
					return nil, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

// GraphQLHandler serves queries over the stored boundaries.
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
