package analytics

import (
	"context"
	"sort"
	"time"

	"crm-backend/internal/domain/audit"
	"crm-backend/internal/domain/contacts"
	"crm-backend/internal/domain/deals"
	"crm-backend/internal/domain/identity"
	"crm-backend/internal/domain/leads"
	"crm-backend/internal/domain/systemlog"
	"crm-backend/internal/domain/tasks"
	"crm-backend/internal/domain/visibility"
)

// Service arma los rollups de lectura. No escribe nada: agrega sobre los
// repos de cada dominio, siempre acotado al alcance del actor.
type Service struct {
	leads    leads.Repository
	contacts contacts.Repository
	deals    deals.Repository
	tasks    tasks.Repository
	hist     *audit.Service
	users    *identity.Service
	events   *systemlog.Service
}

func NewService(
	lr leads.Repository,
	cr contacts.Repository,
	dr deals.Repository,
	tr tasks.Repository,
	hist *audit.Service,
	users *identity.Service,
	events *systemlog.Service,
) *Service {
	return &Service{
		leads:    lr,
		contacts: cr,
		deals:    dr,
		tasks:    tr,
		hist:     hist,
		users:    users,
		events:   events,
	}
}

type OwnerCount struct {
	OwnerID string `json:"owner_id"`
	Count   int    `json:"count"`
}

// RecentChange es la proyección JSON de un ChangeRecord para el resumen.
type RecentChange struct {
	ID         string    `json:"id"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id"`
	ChangedBy  string    `json:"changed_by"`
	Field      string    `json:"field"`
	OldValue   *string   `json:"old_value"`
	NewValue   *string   `json:"new_value"`
	Timestamp  time.Time `json:"timestamp"`
}

// Overview es el resumen de leads + actividad reciente. Los totales
// globales (usuarios, eventos) solo se completan para ADMIN.
type Overview struct {
	TotalLeads    int            `json:"total_leads"`
	LeadsByStage  map[string]int `json:"leads_by_stage"`
	TopOwners     []OwnerCount   `json:"top_owners"`
	RecentChanges []RecentChange `json:"recent_changes"`

	TotalUsers  *int `json:"total_users,omitempty"`
	TotalEvents *int `json:"total_events,omitempty"`
}

const (
	topOwnersLimit     = 5
	recentChangesLimit = 10
)

func (s *Service) Overview(ctx context.Context, actor visibility.Actor) (Overview, error) {
	scope := visibility.ScopeFor(actor)

	byStage, err := s.leads.CountByStage(ctx, scope)
	if err != nil {
		return Overview{}, err
	}
	total := 0
	for _, n := range byStage {
		total += n
	}

	byOwner, err := s.leads.CountByOwner(ctx, scope)
	if err != nil {
		return Overview{}, err
	}

	recent, err := s.hist.ListRecent(ctx, actor, recentChangesLimit)
	if err != nil {
		return Overview{}, err
	}

	changes := make([]RecentChange, 0, len(recent))
	for _, rec := range recent {
		changes = append(changes, RecentChange{
			ID:         rec.ID,
			EntityKind: string(rec.EntityKind),
			EntityID:   rec.EntityID,
			ChangedBy:  rec.ChangedBy,
			Field:      rec.Field,
			OldValue:   rec.OldValue,
			NewValue:   rec.NewValue,
			Timestamp:  rec.Timestamp,
		})
	}

	out := Overview{
		TotalLeads:    total,
		LeadsByStage:  byStage,
		TopOwners:     topOwners(byOwner, topOwnersLimit),
		RecentChanges: changes,
	}

	if actor.Role == visibility.RoleAdmin {
		if n, err := s.users.Count(ctx); err == nil {
			out.TotalUsers = &n
		}
		// el total sale del mismo listado paginado que usa el log admin
		if p, err := s.events.List(ctx, actor, systemlog.ListFilter{PageSize: 1}); err == nil {
			out.TotalEvents = &p.Total
		}
	}
	return out, nil
}

// Dashboard es la vista comercial: contactos, pipeline y tareas.
type Dashboard struct {
	TotalContacts  int     `json:"total_contacts"`
	TotalDeals     int     `json:"total_deals"`
	ActiveDeals    int     `json:"active_deals"`
	WonRevenue     float64 `json:"won_revenue"`
	PipelineValue  float64 `json:"pipeline_value"`
	PendingTasks   int     `json:"pending_tasks"`
	ConversionRate float64 `json:"conversion_rate"`
}

func (s *Service) Dashboard(ctx context.Context, actor visibility.Actor) (Dashboard, error) {
	scope := visibility.ScopeFor(actor)

	nContacts, err := s.contacts.Count(ctx, scope)
	if err != nil {
		return Dashboard{}, err
	}

	ds, err := s.deals.StatsFor(ctx, scope)
	if err != nil {
		return Dashboard{}, err
	}

	nPending, err := s.tasks.CountPending(ctx, scope)
	if err != nil {
		return Dashboard{}, err
	}

	conversion := 0.0
	if ds.ClosedCount > 0 {
		conversion = float64(ds.WonCount) / float64(ds.ClosedCount)
	}

	return Dashboard{
		TotalContacts:  nContacts,
		TotalDeals:     ds.Total,
		ActiveDeals:    ds.Active,
		WonRevenue:     ds.WonRevenue,
		PipelineValue:  ds.Pipeline,
		PendingTasks:   nPending,
		ConversionRate: conversion,
	}, nil
}

// topOwners ordena por count descendente; empata por owner id para que el
// resultado sea estable.
func topOwners(byOwner map[string]int, limit int) []OwnerCount {
	out := make([]OwnerCount, 0, len(byOwner))
	for owner, n := range byOwner {
		out = append(out, OwnerCount{OwnerID: owner, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].OwnerID < out[j].OwnerID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
