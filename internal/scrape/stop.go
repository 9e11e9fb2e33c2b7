package scrape

// StopFunc decides whether a record is the last one to scrape, the record
// it returns true for is kept.
type StopFunc[T any] func(record T) bool

// Never scrapes until the source is exhausted.
func Never[T any]() StopFunc[T] {
	return func(T) bool { return false }
}

func StopWhen[T any](predicate func(T) bool) StopFunc[T] {
	return StopFunc[T](predicate)
}

// StopAfter stops on the nth record it is called with.
//
// The returned StopFunc is stateful, create one per page.
func StopAfter[T any](n int) StopFunc[T] {
	seen := 0
	return func(T) bool {
		seen++
		return seen >= n
	}
}

// StopAny stops as soon as one of the given funcs does, nil funcs are
// skipped. Every func is evaluated so that stateful ones stay in sync.
func StopAny[T any](funcs ...StopFunc[T]) StopFunc[T] {
	return func(record T) bool {
		stop := false
		for _, f := range funcs {
			if f != nil && f(record) {
				stop = true
			}
		}
		return stop
	}
}
