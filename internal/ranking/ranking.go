// Package ranking computes the most-booked themes over a date period.
package ranking

import (
	"context"
	"fmt"
	"sort"

	"github.com/iliyamo/roomescape/internal/model"
)

// Counter reports per-theme reservation counts for a period.
type Counter interface {
	CountByTheme(ctx context.Context, p model.Period) ([]model.ThemeCount, error)
}

// ThemeLister returns the theme catalog.
type ThemeLister interface {
	FindAll(ctx context.Context) ([]model.Theme, error)
}

// Ranker answers popular-theme queries.
type Ranker struct {
	counts Counter
	themes ThemeLister
}

func NewRanker(c Counter, t ThemeLister) *Ranker { return &Ranker{counts: c, themes: t} }

// PopularThemes returns up to count themes ordered by how many
// reservations, confirmed or waiting, fall inside p.  Ties go to the lower
// theme id.  Themes without reservations in p are not returned.
func (r *Ranker) PopularThemes(ctx context.Context, p model.Period, count int) ([]model.Theme, error) {
	if count <= 0 {
		return []model.Theme{}, nil
	}
	counts, err := r.counts.CountByTheme(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("ranking: count by theme: %w", err)
	}
	all, err := r.themes.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ranking: list themes: %w", err)
	}
	byID := make(map[uint64]model.Theme, len(all))
	for _, th := range all {
		byID[th.ID] = th
	}

	ranked := Rank(counts)
	out := make([]model.Theme, 0, min(count, len(ranked)))
	for _, tc := range ranked {
		if len(out) == count {
			break
		}
		if th, ok := byID[tc.ThemeID]; ok {
			out = append(out, th)
		}
	}
	return out, nil
}

// Rank sorts counts by count descending, then theme id ascending.  The
// input slice is not modified.
func Rank(counts []model.ThemeCount) []model.ThemeCount {
	out := make([]model.ThemeCount, 0, len(counts))
	for _, tc := range counts {
		if tc.Count > 0 {
			out = append(out, tc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ThemeID < out[j].ThemeID
	})
	return out
}
