package try

// something have method `Fatal`.
//
// For example in standard libraries: *testing.T, log.Logger
type Fataler interface {
	Fatal(...any)
}

// Wrapper of a pair of (T, error).
//
// When error is nil, such Either is "ok", and T value is handled as valid.
// Otherwise, it is "no good", and T value is not valid.
type Either[T any] interface {
	// get value & error pair.
	//
	// If the Either has value, return (value, nil).
	// Otherwise, return (zero-value, error).
	Get() (T, error)

	// When Either is "ok", it just returns the T value.
	//
	// Otherwise, it calls ftl.Fatal(err).
	// If ftl has "Helper()" method (like *testing.T), that is called before Fatal.
	OrFatal(ftl Fataler) T

	// When Either is "ok", it just returns the T value. Otherwise, the default.
	OrDefault(T) T
}

// To wraps a (value, error) pair as Either.
func To[T any](ok T, ng error) Either[T] {
	if ng == nil {
		return tryOk[T]{ok}
	}
	return tryNg[T]{ng}
}

type tryOk[T any] struct {
	value T
}

func (t tryOk[T]) Get() (T, error)   { return t.value, nil }
func (t tryOk[T]) OrFatal(Fataler) T { return t.value }
func (t tryOk[T]) OrDefault(T) T     { return t.value }

type tryNg[T any] struct {
	err error
}

type helper interface {
	Helper()
}

func (t tryNg[T]) Get() (T, error) { return *new(T), t.err }

func (t tryNg[T]) OrFatal(ftl Fataler) T {
	if h, ok := ftl.(helper); ok {
		h.Helper()
	}
	ftl.Fatal(t.err)
	return *new(T) // not reached when ftl.Fatal quits
}

func (t tryNg[T]) OrDefault(def T) T { return def }
