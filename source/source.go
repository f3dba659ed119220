// Package source defines how a dashboard page obtains its records.
package source

import (
	"context"

	"github.com/jmcleod/erpdesk/list"
	"github.com/jmcleod/erpdesk/session"
)

type (
	// Query is the list state sent to the source.
	Query = list.Query
	// AuthContext identifies the user the request is made for.
	AuthContext = session.AuthContext
)

// Result is one response from a source. Total is the size of the whole
// filtered set, which exceeds len(Data) when the source pages server-side.
type Result[R any] struct {
	Data  []R
	Total int
}

// Source fetches records. Implementations must honour ctx cancellation so
// superseded requests can be abandoned.
type Source[R any] interface {
	Fetch(ctx context.Context, q Query, auth AuthContext) (Result[R], error)
}

// Func adapts a function to Source.
type Func[R any] func(ctx context.Context, q Query, auth AuthContext) (Result[R], error)

func (f Func[R]) Fetch(ctx context.Context, q Query, auth AuthContext) (Result[R], error) {
	return f(ctx, q, auth)
}

// Static serves a fixed record set, ignoring the query. It pairs with a
// client-side list.Controller.
func Static[R any](records []R) Source[R] {
	return Func[R](func(ctx context.Context, _ Query, _ AuthContext) (Result[R], error) {
		if err := ctx.Err(); err != nil {
			return Result[R]{}, err
		}
		return Result[R]{Data: records, Total: len(records)}, nil
	})
}
