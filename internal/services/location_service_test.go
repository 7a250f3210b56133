package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/weatherlist-backend/internal/models"
)

// memLocationStore mirrors the transactional behaviour of the PostgreSQL store.
type memLocationStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string][]models.SavedLocation
	fail   error
}

func newMemLocationStore() *memLocationStore {
	return &memLocationStore{rows: map[string][]models.SavedLocation{}}
}

func (m *memLocationStore) ListByUser(_ context.Context, userID string) ([]models.SavedLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	out := append([]models.SavedLocation{}, m.rows[userID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (m *memLocationStore) Get(_ context.Context, userID, name string) (*models.SavedLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows[userID] {
		if r.LocationName == name {
			r := r
			return &r, nil
		}
	}
	return nil, ErrLocationNotFound
}

func (m *memLocationStore) Insert(_ context.Context, loc NewLocation) (int64, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, 0, m.fail
	}
	order := 0
	for _, r := range m.rows[loc.UserID] {
		if r.LocationName == loc.Name {
			return 0, 0, ErrLocationExists
		}
		if r.DisplayOrder+1 > order {
			order = r.DisplayOrder + 1
		}
	}
	m.nextID++
	m.rows[loc.UserID] = append(m.rows[loc.UserID], models.SavedLocation{
		ID: m.nextID, UserID: loc.UserID, LocationName: loc.Name,
		Latitude: loc.Latitude, Longitude: loc.Longitude, DisplayOrder: order,
	})
	return m.nextID, order, nil
}

func (m *memLocationStore) Delete(_ context.Context, userID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[userID]
	for i, r := range rows {
		if r.LocationName != name {
			continue
		}
		rows = append(rows[:i], rows[i+1:]...)
		for j := range rows {
			if rows[j].DisplayOrder > r.DisplayOrder {
				rows[j].DisplayOrder--
			}
		}
		m.rows[userID] = rows
		return nil
	}
	return ErrLocationNotFound
}

func (m *memLocationStore) Reorder(_ context.Context, userID string, names []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	staged := append([]models.SavedLocation{}, m.rows[userID]...)
	for i, name := range names {
		found := false
		for j := range staged {
			if staged[j].LocationName == name {
				staged[j].DisplayOrder = i
				found = true
			}
		}
		if !found {
			return &MissingLocationError{Name: name}
		}
	}
	if len(staged) != len(names) {
		return ErrIncompleteOrder
	}
	m.rows[userID] = staged
	return nil
}

func orders(t *testing.T, svc *LocationService, userID string) map[string]int {
	t.Helper()
	list, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	out := make(map[string]int, len(list))
	for _, l := range list {
		out[l.LocationName] = l.DisplayOrder
	}
	return out
}

func assertContiguous(t *testing.T, svc *LocationService, userID string) {
	t.Helper()
	list, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	for i, l := range list {
		assert.Equal(t, i, l.DisplayOrder, "display_order must be 0..n-1")
	}
}

func TestLocationService_SeoulBusanScenario(t *testing.T) {
	ctx := context.Background()
	svc := NewLocationService(newMemLocationStore())

	_, err := svc.Add(ctx, AddLocationInput{UserID: "u1", Name: "Seoul"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, AddLocationInput{UserID: "u1", Name: "Busan"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Seoul": 0, "Busan": 1}, orders(t, svc, "u1"))

	require.NoError(t, svc.Reorder(ctx, "u1", []string{"Busan", "Seoul"}))

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Busan", list[0].LocationName)
	assert.Equal(t, 0, list[0].DisplayOrder)
	assert.Equal(t, "Seoul", list[1].LocationName)
	assert.Equal(t, 1, list[1].DisplayOrder)
}

func TestLocationService_ListEmpty(t *testing.T) {
	svc := NewLocationService(newMemLocationStore())
	list, err := svc.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLocationService_AddValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewLocationService(newMemLocationStore())

	_, err := svc.Add(ctx, AddLocationInput{UserID: "", Name: "Seoul"})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.Add(ctx, AddLocationInput{UserID: "u1"})
	assert.Equal(t, KindValidation, KindOf(err))

	lat := 37.56
	_, err = svc.Add(ctx, AddLocationInput{UserID: "u1", Name: "Seoul", Latitude: &lat})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestLocationService_DuplicateAdd(t *testing.T) {
	ctx := context.Background()
	svc := NewLocationService(newMemLocationStore())

	lat, lon := 37.56, 126.97
	id, err := svc.Add(ctx, AddLocationInput{UserID: "u1", Name: "Seoul", Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)

	_, err = svc.Add(ctx, AddLocationInput{UserID: "u1", Name: "Seoul"})
	assert.Equal(t, KindDuplicateLocation, KindOf(err))

	loc, err := svc.Get(ctx, "u1", "Seoul")
	require.NoError(t, err)
	assert.Equal(t, id, loc.ID)
	require.True(t, loc.HasCoordinates())
	assert.Equal(t, lat, *loc.Latitude)

	// same name for another user is fine
	_, err = svc.Add(ctx, AddLocationInput{UserID: "u2", Name: "Seoul"})
	assert.NoError(t, err)
}

func TestLocationService_DeleteMissingLeavesOthers(t *testing.T) {
	ctx := context.Background()
	svc := NewLocationService(newMemLocationStore())
	for _, n := range []string{"A", "B"} {
		_, err := svc.Add(ctx, AddLocationInput{UserID: "u1", Name: n})
		require.NoError(t, err)
	}

	err := svc.Delete(ctx, "u1", "X")
	assert.Equal(t, KindNotFound, KindOf(err))

	err = svc.Delete(ctx, "u1", "a")
	assert.Equal(t, KindNotFound, KindOf(err), "names are case-sensitive")

	assert.Equal(t, map[string]int{"A": 0, "B": 1}, orders(t, svc, "u1"))
}

func TestLocationService_DeleteCompactsOrder(t *testing.T) {
	ctx := context.Background()
	svc := NewLocationService(newMemLocationStore())
	for _, n := range []string{"A", "B", "C"} {
		_, err := svc.Add(ctx, AddLocationInput{UserID: "u1", Name: n})
		require.NoError(t, err)
	}

	require.NoError(t, svc.Delete(ctx, "u1", "B"))
	assert.Equal(t, map[string]int{"A": 0, "C": 1}, orders(t, svc, "u1"))

	_, err := svc.Add(ctx, AddLocationInput{UserID: "u1", Name: "D"})
	require.NoError(t, err)
	assert.Equal(t, 2, orders(t, svc, "u1")["D"])
	assertContiguous(t, svc, "u1")
}

func TestLocationService_ReorderMissingRollsBack(t *testing.T) {
	ctx := context.Background()
	svc := NewLocationService(newMemLocationStore())
	for _, n := range []string{"A", "B"} {
		_, err := svc.Add(ctx, AddLocationInput{UserID: "u1", Name: n})
		require.NoError(t, err)
	}

	err := svc.Reorder(ctx, "u1", []string{"B", "A", "X"})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "Location not found: X", MessageOf(err))
	assert.Equal(t, map[string]int{"A": 0, "B": 1}, orders(t, svc, "u1"))
}

func TestLocationService_ReorderRejectsPartialAndDuplicateLists(t *testing.T) {
	ctx := context.Background()
	svc := NewLocationService(newMemLocationStore())
	for _, n := range []string{"A", "B", "C"} {
		_, err := svc.Add(ctx, AddLocationInput{UserID: "u1", Name: n})
		require.NoError(t, err)
	}

	err := svc.Reorder(ctx, "u1", []string{"C", "A"})
	assert.Equal(t, KindValidation, KindOf(err))

	err = svc.Reorder(ctx, "u1", []string{"C", "C", "A"})
	assert.Equal(t, KindValidation, KindOf(err))

	err = svc.Reorder(ctx, "u1", nil)
	assert.Equal(t, KindValidation, KindOf(err))

	err = svc.Reorder(ctx, "", []string{"A"})
	assert.Equal(t, KindValidation, KindOf(err))

	assert.Equal(t, map[string]int{"A": 0, "B": 1, "C": 2}, orders(t, svc, "u1"))
}

func TestLocationService_ContiguousAfterMixedWrites(t *testing.T) {
	ctx := context.Background()
	svc := NewLocationService(newMemLocationStore())

	for _, n := range []string{"A", "B", "C", "D"} {
		_, err := svc.Add(ctx, AddLocationInput{UserID: "u1", Name: n})
		require.NoError(t, err)
	}
	require.NoError(t, svc.Reorder(ctx, "u1", []string{"D", "C", "B", "A"}))
	require.NoError(t, svc.Delete(ctx, "u1", "D"))
	_, err := svc.Add(ctx, AddLocationInput{UserID: "u1", Name: "E"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "u1", "B"))

	assertContiguous(t, svc, "u1")
	assert.Equal(t, map[string]int{"C": 0, "A": 1, "E": 2}, orders(t, svc, "u1"))
}

func TestLocationService_StoreFailureIsStoreUnavailable(t *testing.T) {
	store := newMemLocationStore()
	store.fail = errors.New("connection refused")
	svc := NewLocationService(store)

	_, err := svc.List(context.Background(), "u1")
	assert.Equal(t, KindStoreUnavailable, KindOf(err))
	assert.Equal(t, "Failed to fetch locations", MessageOf(err))

	_, err = svc.Add(context.Background(), AddLocationInput{UserID: "u1", Name: "A"})
	assert.Equal(t, KindStoreUnavailable, KindOf(err))
}
