package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/roomescape/internal/model"
	"github.com/iliyamo/roomescape/internal/repository"
)

func seed(t *testing.T) (*repository.MemoryStore, []model.Theme) {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	ts, _ := store.TimeSlots().Create(ctx, "10:00")
	var themes []model.Theme
	for _, name := range []string{"T1", "T2", "T3"} {
		th, err := store.Themes().Create(ctx, model.Theme{Name: name})
		if err != nil {
			t.Fatalf("seed theme: %v", err)
		}
		themes = append(themes, th)
	}
	m, _ := store.Members().Create(ctx, model.Member{Name: "m", Email: "m@example.com"})

	book := func(day int, th model.Theme) {
		r, err := model.NewReservation(0, time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC), ts, th, m, model.StatusReserved, time.Time{})
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if _, err := store.Reservations().InsertReserved(ctx, r); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	book(2, themes[0])
	book(3, themes[0])
	book(4, themes[0])
	book(5, themes[1])
	// outside the period
	book(20, themes[2])
	book(21, themes[2])
	return store, themes
}

func TestPopularThemes(t *testing.T) {
	store, themes := seed(t)
	r := NewRanker(store.Reservations(), store.Themes())
	p := model.Period{From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)}

	top, err := r.PopularThemes(context.Background(), p, 1)
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	if len(top) != 1 || top[0].ID != themes[0].ID {
		t.Fatalf("count=1: %+v", top)
	}
	top, _ = r.PopularThemes(context.Background(), p, 5)
	if len(top) != 2 || top[0].ID != themes[0].ID || top[1].ID != themes[1].ID {
		t.Fatalf("count=5: %+v", top)
	}
	none, _ := r.PopularThemes(context.Background(), p, 0)
	if len(none) != 0 {
		t.Fatalf("count=0: %+v", none)
	}
}

func TestPopularThemesCountsWaiting(t *testing.T) {
	store, themes := seed(t)
	ctx := context.Background()
	ts, _ := store.TimeSlots().FindAll(ctx)
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	// T2 gains two waiting rows on its booked day and ties T1 at three
	for _, id := range []uint64{50, 51} {
		w, _ := model.NewReservation(0, day, ts[0], themes[1], model.Member{ID: id}, model.StatusWaited, time.Time{})
		if _, err := store.Reservations().InsertWaiting(ctx, w); err != nil {
			t.Fatalf("insert waiting: %v", err)
		}
	}
	p := model.Period{From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)}
	top, _ := NewRanker(store.Reservations(), store.Themes()).PopularThemes(ctx, p, 2)
	if len(top) != 2 || top[0].ID != themes[0].ID || top[1].ID != themes[1].ID {
		t.Fatalf("tie must go to the lower id: %+v", top)
	}
}

func TestRankIsStableAndDropsZero(t *testing.T) {
	in := []model.ThemeCount{{ThemeID: 3, Count: 2}, {ThemeID: 1, Count: 2}, {ThemeID: 2, Count: 5}, {ThemeID: 4, Count: 0}}
	got := Rank(in)
	want := []uint64{2, 1, 3}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i, id := range want {
		if got[i].ThemeID != id {
			t.Fatalf("position %d: got %d want %d", i, got[i].ThemeID, id)
		}
	}
	if in[0].ThemeID != 3 {
		t.Fatal("input modified")
	}
}

func TestCachedRankerWithoutRedisDelegates(t *testing.T) {
	store, themes := seed(t)
	c := NewCachedRanker(NewRanker(store.Reservations(), store.Themes()), nil, time.Minute, "test", nil)
	p := model.Period{From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)}
	top, err := c.PopularThemes(context.Background(), p, 1)
	if err != nil || len(top) != 1 || top[0].ID != themes[0].ID {
		t.Fatalf("got %+v %v", top, err)
	}
}
