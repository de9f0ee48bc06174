package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"crm-backend/internal/domain/systemlog"
)

func seedEvents(t *testing.T, repo systemlog.Repository, n int, base time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := repo.Append(context.Background(), systemlog.Event{
			ID:          fmt.Sprintf("ev-%03d", i),
			ActorID:     "u1",
			Action:      systemlog.ActionCreate,
			EntityType:  "lead",
			Description: fmt.Sprintf("event number %d", i),
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
}

func TestSystemlogPaginationPartition(t *testing.T) {
	repo := New().SystemLog()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedEvents(t, repo, 45, base)

	seen := make(map[string]int)
	pageSize := 10
	var totalPages int

	for page := 1; ; page++ {
		p, err := repo.List(context.Background(), systemlog.ListFilter{Page: page, PageSize: pageSize})
		if err != nil {
			t.Fatalf("List page %d: %v", page, err)
		}
		if p.Total != 45 {
			t.Fatalf("Total = %d, quiero 45", p.Total)
		}
		totalPages = p.TotalPages
		for _, e := range p.Records {
			seen[e.ID]++
		}
		if page >= p.TotalPages {
			break
		}
	}

	if totalPages != 5 {
		t.Fatalf("TotalPages = %d, quiero 5", totalPages)
	}
	if len(seen) != 45 {
		t.Fatalf("las páginas cubren %d eventos, quiero 45 (sin huecos)", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("evento %s apareció %d veces (solapamiento entre páginas)", id, n)
		}
	}
}

func TestSystemlogListOrderAndFilters(t *testing.T) {
	repo := New().SystemLog()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedEvents(t, repo, 5, base)

	// default: más nuevo primero
	p, err := repo.List(context.Background(), systemlog.ListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if p.Records[0].ID != "ev-004" {
		t.Fatalf("primer registro = %s, quiero ev-004", p.Records[0].ID)
	}

	// asc invierte
	p, _ = repo.List(context.Background(), systemlog.ListFilter{Page: 1, PageSize: 10, SortAsc: true})
	if p.Records[0].ID != "ev-000" {
		t.Fatalf("primer registro asc = %s, quiero ev-000", p.Records[0].ID)
	}

	// search es case-insensitive sobre la descripción
	p, _ = repo.List(context.Background(), systemlog.ListFilter{Page: 1, PageSize: 10, Search: "NUMBER 3"})
	if p.Total != 1 || p.Records[0].ID != "ev-003" {
		t.Fatalf("search devolvió total=%d, quiero exactamente ev-003", p.Total)
	}
}

func TestSystemlogRetentionCutoff(t *testing.T) {
	repo := New().SystemLog()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	old := systemlog.Event{ID: "old", Action: "login", Timestamp: now.AddDate(0, 0, -91)}
	fresh := systemlog.Event{ID: "fresh", Action: "login", Timestamp: now.AddDate(0, 0, -10)}
	_ = repo.Append(context.Background(), old)
	_ = repo.Append(context.Background(), fresh)

	cutoff := now.AddDate(0, 0, -90)
	n, err := repo.DeleteOlderThan(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("DeleteOlderThan: %v", err)
	}
	if n != 1 {
		t.Fatalf("borrados = %d, quiero 1 (solo el de 91 días)", n)
	}

	p, _ := repo.List(context.Background(), systemlog.ListFilter{Page: 1, PageSize: 10})
	if p.Total != 1 || p.Records[0].ID != "fresh" {
		t.Fatalf("sobrevivió el evento equivocado: total=%d", p.Total)
	}
}
