package port

import "context"

// TransactionScope runs fn inside a single store transaction. The transaction commits when
// fn returns nil and rolls back otherwise. Calls made while a transaction is already bound
// to ctx join it.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

// ExecuteWithResult runs fn through scope and returns its value.
func ExecuteWithResult[T any](ctx context.Context, scope TransactionScope, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := scope.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
