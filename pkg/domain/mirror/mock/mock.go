package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mikage-io/kagami/pkg/domain"
	kerr "github.com/mikage-io/kagami/pkg/domain/errors"
	imock "github.com/mikage-io/kagami/pkg/domain/internal/mock"
	"github.com/mikage-io/kagami/pkg/domain/mirror"
)

// Mirror is a mock of mirror.Interface.
//
// Set Impl fields in tests; calling a method without Impl panics.
type Mirror struct {
	Impl struct {
		Upsert       func(context.Context, domain.Object) error
		Get          func(context.Context, domain.ObjectMeta) (*domain.Object, error)
		Delete       func(context.Context, domain.ObjectMeta) error
		List         func(context.Context, domain.ObjectFilter) (domain.Cursor, error)
		PurgeDeleted func(context.Context, time.Duration) (int64, error)
	}
	Calls struct {
		Upsert       imock.CallLog[domain.Object]
		Get          imock.CallLog[domain.ObjectMeta]
		Delete       imock.CallLog[domain.ObjectMeta]
		List         imock.CallLog[domain.ObjectFilter]
		PurgeDeleted imock.CallLog[time.Duration]
	}
}

func New() *Mirror {
	return &Mirror{}
}

var _ mirror.Interface = &Mirror{}

func (m *Mirror) Upsert(ctx context.Context, obj domain.Object) error {
	m.Calls.Upsert = append(m.Calls.Upsert, obj)
	if m.Impl.Upsert != nil {
		return m.Impl.Upsert(ctx, obj)
	}
	panic(errors.New("it should not be called"))
}

func (m *Mirror) Get(ctx context.Context, meta domain.ObjectMeta) (*domain.Object, error) {
	m.Calls.Get = append(m.Calls.Get, meta)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, meta)
	}
	panic(errors.New("it should not be called"))
}

func (m *Mirror) Delete(ctx context.Context, meta domain.ObjectMeta) error {
	m.Calls.Delete = append(m.Calls.Delete, meta)
	if m.Impl.Delete != nil {
		return m.Impl.Delete(ctx, meta)
	}
	panic(errors.New("it should not be called"))
}

func (m *Mirror) List(ctx context.Context, filter domain.ObjectFilter) (domain.Cursor, error) {
	m.Calls.List = append(m.Calls.List, filter)
	if m.Impl.List != nil {
		return m.Impl.List(ctx, filter)
	}
	panic(errors.New("it should not be called"))
}

func (m *Mirror) PurgeDeleted(ctx context.Context, olderThan time.Duration) (int64, error) {
	m.Calls.PurgeDeleted = append(m.Calls.PurgeDeleted, olderThan)
	if m.Impl.PurgeDeleted != nil {
		return m.Impl.PurgeDeleted(ctx, olderThan)
	}
	panic(errors.New("it should not be called"))
}

// InMemory is a map-backed mirror.Interface for tests:
// same visible semantics as the PostgreSQL mirror, no database.
type InMemory struct {
	mux         sync.Mutex
	userScoping bool

	rows []row
}

type row struct {
	obj       domain.Object
	deleted   bool
	updatedAt time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

// NewInMemoryUserScoped requires UserID on Upsert, like
// postgres.WithUserScoping.
func NewInMemoryUserScoped() *InMemory {
	return &InMemory{userScoping: true}
}

var _ mirror.Interface = &InMemory{}

func (m *InMemory) find(meta domain.ObjectMeta) int {
	for i, r := range m.rows {
		if r.obj.ObjectMeta.Equal(meta) {
			return i
		}
	}
	return -1
}

func (m *InMemory) Upsert(_ context.Context, obj domain.Object) error {
	if err := obj.Validate(); err != nil {
		return kerr.NewInvalidCausedBy("upsert rejected", err)
	}
	if m.userScoping && obj.UserID == "" {
		return kerr.NewInvalid(fmt.Sprintf(
			"upsert rejected: user id is required for %s", obj.ObjectMeta,
		))
	}

	m.mux.Lock()
	defer m.mux.Unlock()

	if i := m.find(obj.ObjectMeta); 0 <= i {
		m.rows[i] = row{obj: obj, updatedAt: time.Now()}
		return nil
	}
	m.rows = append(m.rows, row{obj: obj, updatedAt: time.Now()})
	return nil
}

func (m *InMemory) Get(_ context.Context, meta domain.ObjectMeta) (*domain.Object, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	if i := m.find(meta); 0 <= i && !m.rows[i].deleted {
		obj := m.rows[i].obj
		return &obj, nil
	}
	return nil, nil
}

func (m *InMemory) Delete(_ context.Context, meta domain.ObjectMeta) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	if i := m.find(meta); 0 <= i {
		m.rows[i].deleted = true
		m.rows[i].updatedAt = time.Now()
	}
	return nil
}

func (m *InMemory) List(_ context.Context, filter domain.ObjectFilter) (domain.Cursor, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	matched := []domain.Object{}
	for _, r := range m.rows {
		if !r.deleted && filter.Matches(r.obj) {
			matched = append(matched, r.obj)
		}
	}
	return domain.SliceCursor(matched), nil
}

func (m *InMemory) PurgeDeleted(_ context.Context, olderThan time.Duration) (int64, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	deadline := time.Now().Add(-olderThan)
	kept := make([]row, 0, len(m.rows))
	purged := int64(0)
	for _, r := range m.rows {
		if r.deleted && r.updatedAt.Before(deadline) {
			purged += 1
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return purged, nil
}
