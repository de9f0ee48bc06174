package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"crm-backend/internal/domain/systemlog"
)

type systemlogRepo struct{ s *Store }

func (r *systemlogRepo) Append(_ context.Context, e systemlog.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.events = append(r.s.events, e)
	return nil
}

func (r *systemlogRepo) List(_ context.Context, f systemlog.ListFilter) (systemlog.Page, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	filtered := make([]systemlog.Event, 0, len(r.s.events))
	for _, e := range r.s.events {
		if matches(e, f) {
			filtered = append(filtered, e)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		if f.SortAsc {
			return filtered[i].Timestamp.Before(filtered[j].Timestamp)
		}
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})

	total := len(filtered)
	totalPages := (total + f.PageSize - 1) / f.PageSize
	if totalPages == 0 {
		totalPages = 1
	}

	start := (f.Page - 1) * f.PageSize
	if start > total {
		start = total
	}
	end := start + f.PageSize
	if end > total {
		end = total
	}

	return systemlog.Page{
		Records:    filtered[start:end],
		Total:      total,
		Page:       f.Page,
		TotalPages: totalPages,
	}, nil
}

func matches(e systemlog.Event, f systemlog.ListFilter) bool {
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(e.Description), q) &&
			!strings.Contains(strings.ToLower(e.Action), q) &&
			!strings.Contains(strings.ToLower(e.EntityType), q) {
			return false
		}
	}
	return true
}

func (r *systemlogRepo) DeleteByIDs(_ context.Context, ids []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := r.s.events[:0]
	deleted := 0
	for _, e := range r.s.events {
		if drop[e.ID] {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.s.events = kept
	return deleted, nil
}

func (r *systemlogRepo) DeleteAll(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.events = nil
	return nil
}

func (r *systemlogRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.events[:0]
	deleted := 0
	for _, e := range r.s.events {
		if e.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.s.events = kept
	return deleted, nil
}
