package reorder

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"keystone/database"
	"keystone/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMove(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"last to first", 2, 0, []string{"C", "A", "B"}},
		{"first to last", 0, 2, []string{"B", "C", "A"}},
		{"middle down", 1, 2, []string{"A", "C", "B"}},
		{"same index", 1, 1, []string{"A", "B", "C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []string{"A", "B", "C"}
			got, err := Move(in, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{"A", "B", "C"}, in)
		})
	}

	_, err := Move([]string{"A"}, 0, 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = Move([]string{"A"}, -1, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

type project struct {
	ID    string
	Title string
}

func seedProjects(t *testing.T, store database.Store, titles ...string) []project {
	t.Helper()
	out := make([]project, 0, len(titles))
	for i, title := range titles {
		rec, err := store.Create(context.Background(), models.CollectionProjects, map[string]any{"title": title, "order": i})
		require.NoError(t, err)
		out = append(out, project{ID: rec.ID, Title: title})
	}
	return out
}

func persistedTitles(t *testing.T, store database.Store) []string {
	t.Helper()
	recs, err := store.List(context.Background(), models.CollectionProjects, database.ListOptions{Sort: models.FieldOrder})
	require.NoError(t, err)
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Fields["title"].(string)
	}
	return out
}

func newEditor(invalidate func()) *Editor[project] {
	return NewEditor(
		func(p project) string { return p.ID },
		func(p project, q string) bool { return p.Title == q },
		invalidate,
	)
}

func TestSaveOrder_MoveLastToFirst(t *testing.T) {
	store := database.NewMemoryStore()
	items := seedProjects(t, store, "A", "B", "C")

	moved, err := Move(items, 2, 0)
	require.NoError(t, err)
	ids := []string{moved[0].ID, moved[1].ID, moved[2].ID}
	require.NoError(t, SaveOrder(context.Background(), store, models.CollectionProjects, ids))

	want := map[string]float64{"C": 0, "A": 1, "B": 2}
	for _, p := range items {
		rec, err := store.Get(context.Background(), models.CollectionProjects, p.ID)
		require.NoError(t, err)
		assert.Equal(t, want[p.Title], rec.Fields["order"], p.Title)
	}
}

func TestSaveOrder_MatchesSplice(t *testing.T) {
	titles := []string{"A", "B", "C", "D", "E"}
	for from := range titles {
		for to := range titles {
			store := database.NewMemoryStore()
			items := seedProjects(t, store, titles...)

			ed := newEditor(nil)
			ed.Load(items)
			require.NoError(t, ed.Drag(from, to))
			require.NoError(t, ed.Save(context.Background(), store, models.CollectionProjects))

			want, err := Move(titles, from, to)
			require.NoError(t, err)
			assert.Equal(t, want, persistedTitles(t, store), "move %d -> %d", from, to)
		}
	}
}

func TestSaveOrder_RejectsDuplicates(t *testing.T) {
	store := database.NewMemoryStore()
	err := SaveOrder(context.Background(), store, models.CollectionProjects, []string{"a", "a"})
	assert.Error(t, err)
}

type failingUpdater struct {
	mu     sync.Mutex
	failID string
	calls  int
}

func (f *failingUpdater) Update(ctx context.Context, collection, id string, fields map[string]any) (*models.Record, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if id == f.failID {
		return nil, errors.New("store unavailable")
	}
	return &models.Record{ID: id}, nil
}

func TestEditor_SaveFailureKeepsDirty(t *testing.T) {
	invalidated := 0
	ed := newEditor(func() { invalidated++ })
	ed.Load([]project{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}})
	require.NoError(t, ed.Drag(1, 0))

	u := &failingUpdater{failID: "a"}
	err := ed.Save(context.Background(), u, models.CollectionProjects)
	assert.Error(t, err)
	assert.True(t, ed.Dirty())
	assert.Equal(t, 0, invalidated)

	u.failID = ""
	require.NoError(t, ed.Save(context.Background(), u, models.CollectionProjects))
	assert.False(t, ed.Dirty())
	assert.Equal(t, 1, invalidated)
}

func TestEditor_LoadDoesNotOverwriteDirtyList(t *testing.T) {
	ed := newEditor(nil)
	ed.Load([]project{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}})
	require.NoError(t, ed.Drag(0, 1))

	applied := ed.Load([]project{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}})
	assert.False(t, applied)
	assert.Equal(t, []project{{ID: "b", Title: "B"}, {ID: "a", Title: "A"}}, ed.Items())
}

func TestEditor_DragDisabledWhileSearching(t *testing.T) {
	items := []project{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}, {ID: "c", Title: "C"}}
	ed := newEditor(nil)
	ed.Load(items)
	ed.SetSearch("B")

	assert.Equal(t, []project{{ID: "b", Title: "B"}}, ed.View())
	for from := range items {
		for to := range items {
			assert.ErrorIs(t, ed.Drag(from, to), ErrReorderDisabled)
		}
	}
	assert.Equal(t, items, ed.Items())
	assert.False(t, ed.Dirty())

	ed.SetSearch("  ")
	require.NoError(t, ed.Drag(0, 2))
	assert.True(t, ed.Dirty())
}

func TestReorderImages(t *testing.T) {
	current := []string{"a.jpg", "b.jpg", "c.jpg"}

	got, err := ReorderImages(current, []string{"c.jpg", "a.jpg", "b.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c.jpg", "a.jpg", "b.jpg"}, got)

	_, err = ReorderImages(current, []string{"c.jpg", "a.jpg"})
	assert.ErrorIs(t, err, ErrNotPermutation)

	_, err = ReorderImages(current, []string{"c.jpg", "a.jpg", "a.jpg"})
	assert.ErrorIs(t, err, ErrNotPermutation)

	_, err = ReorderImages(current, []string{"c.jpg", "a.jpg", "d.jpg"})
	assert.ErrorIs(t, err, ErrNotPermutation)
}
