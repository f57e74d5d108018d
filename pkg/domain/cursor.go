package domain

// Cursor is a lazy, finite, non-restartable sequence of Objects.
//
// Usage follows pgx.Rows:
//
//	cur, err := mirror.List(ctx, filter)
//	if err != nil { ... }
//	defer cur.Close()
//	for cur.Next() {
//		obj := cur.Object()
//		...
//	}
//	if err := cur.Err(); err != nil { ... }
//
// Next returning false means either exhaustion or failure;
// always check Err afterwards. Close is idempotent.
type Cursor interface {
	// Next advances to the next object. False when no more objects,
	// or when the underlying source failed (then Err is non-nil).
	Next() bool

	// Object is the current object. Valid only after Next returned true.
	Object() Object

	// Err is the first error the cursor hit, if any.
	Err() error

	// Close releases underlying resources.
	Close()
}

// SliceCursor wraps an in-memory slice as a Cursor.
func SliceCursor(objs []Object) Cursor {
	return &sliceCursor{objs: objs}
}

type sliceCursor struct {
	objs []Object
	pos  int
	cur  Object
}

func (s *sliceCursor) Next() bool {
	if len(s.objs) <= s.pos {
		return false
	}
	s.cur = s.objs[s.pos]
	s.pos += 1
	return true
}

func (s *sliceCursor) Object() Object { return s.cur }
func (s *sliceCursor) Err() error     { return nil }
func (s *sliceCursor) Close()         {}

// ConcatCursor chains sources lazily: each source function is invoked
// only when the previous cursor is exhausted without error.
//
// An error from any source (opening or iterating) stops the whole
// iteration; remaining sources are never opened.
func ConcatCursor(sources ...func() (Cursor, error)) Cursor {
	return &concatCursor{sources: sources}
}

type concatCursor struct {
	sources []func() (Cursor, error)
	current Cursor
	err     error
	closed  bool
}

func (c *concatCursor) Next() bool {
	if c.err != nil || c.closed {
		return false
	}
	for {
		if c.current == nil {
			if len(c.sources) == 0 {
				return false
			}
			cur, err := c.sources[0]()
			c.sources = c.sources[1:]
			if err != nil {
				c.err = err
				return false
			}
			c.current = cur
		}
		if c.current.Next() {
			return true
		}
		if err := c.current.Err(); err != nil {
			c.err = err
			return false
		}
		c.current.Close()
		c.current = nil
	}
}

func (c *concatCursor) Object() Object {
	if c.current == nil {
		return Object{}
	}
	return c.current.Object()
}

func (c *concatCursor) Err() error { return c.err }

func (c *concatCursor) Close() {
	c.closed = true
	if c.current != nil {
		c.current.Close()
		c.current = nil
	}
	c.sources = nil
}

// CollectCursor drains a cursor into a slice, closing it.
func CollectCursor(cur Cursor) ([]Object, error) {
	defer cur.Close()
	objs := []Object{}
	for cur.Next() {
		objs = append(objs, cur.Object())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return objs, nil
}
