package parser

import (
	"context"

	"github.com/iamhimansu/csvparse/pkg/csvparse/types"
)

// Parser defines the interface for parsing CSV input.
//
// Parse consumes src according to cfg (nil means all defaults) and always
// returns a result. Recoverable problems are listed in Result.Errors; a source
// that cannot be opened, read or decoded also sets Meta.Aborted and is passed
// to cfg.Error. cfg.Complete, when set, receives the returned result before
// Parse returns unless the source failed.
type Parser interface {
	Parse(ctx context.Context, src types.Source, cfg *types.Config) *types.Result[any]
}

// Handle lets a step callback stop parsing.
type Handle interface {
	Abort()
}

// StepFunc receives each row as a single-row result. Rows delivered to a step
// callback are not collected into the final result's Data.
type StepFunc func(row *types.Result[any], h Handle)
