package querycache

import "context"

// Mutate runs fn with the mutation retry count. When it succeeds onSuccess
// is called with the result, typically to update or invalidate queries.
func Mutate[T any](ctx context.Context, c *Cache, name string, fn func(context.Context) (T, error), onSuccess func(*Cache, T)) (T, error) {
	var result T
	err := c.retry(ctx, name, c.cfg.MutationRetry, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}

	if onSuccess != nil {
		onSuccess(c, result)
	}
	return result, nil
}
