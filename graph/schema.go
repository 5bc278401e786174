package graph

import (
	_ "embed"
	"fmt"

	graphql "github.com/graph-gophers/graphql-go"
	gqlotel "github.com/graph-gophers/graphql-go/trace/otel"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed schema.graphqls
var SchemaSDL string

// SchemaOptions - настройки исполнения схемы.
type SchemaOptions struct {
	MaxDepth int
	Tracing  bool
}

// NewSchema разбирает SDL и связывает его с резолвером.
func NewSchema(r *Resolver, opts SchemaOptions) (*graphql.Schema, error) {
	schemaOpts := []graphql.SchemaOpt{graphql.UseStringDescriptions()}
	if opts.MaxDepth > 0 {
		schemaOpts = append(schemaOpts, graphql.MaxDepth(opts.MaxDepth))
	}
	if opts.Tracing {
		schemaOpts = append(schemaOpts, graphql.Tracer(gqlotel.DefaultTracer()))
	}
	schema, err := graphql.ParseSchema(SchemaSDL, r, schemaOpts...)
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}
	return schema, nil
}

// ValidateSchema проверяет SDL независимым парсером.
func ValidateSchema() (*ast.Schema, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphqls", Input: SchemaSDL})
	if err != nil {
		return nil, fmt.Errorf("validate graphql schema: %w", err)
	}
	return schema, nil
}
