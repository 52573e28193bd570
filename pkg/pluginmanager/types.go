package pluginmanager

// Collection maps a relative file path to its record. The manager never
// inspects the records, it only threads the collection through plugins.
type Collection[T any] map[string]T

// Plugin transforms a collection. A plugin may return a new collection or
// the one it was given; returning an error (or panicking) aborts the run.
type Plugin[T any] func(files Collection[T]) (Collection[T], error)

// Result is the settled value of an asynchronous plugin.
type Result[T any] struct {
	Files Collection[T]
	Err   error
}

// Async adapts a function that produces its result later into a Plugin.
// The run waits on the channel before the next plugin is invoked. A channel
// closed without a value counts as a failure.
func Async[T any](fn func(files Collection[T]) <-chan Result[T]) Plugin[T] {
	return func(files Collection[T]) (Collection[T], error) {
		res, ok := <-fn(files)
		if !ok {
			return nil, errNoResult
		}
		return res.Files, res.Err
	}
}
