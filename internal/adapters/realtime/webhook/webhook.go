// Package webhook reenvía los eventos de dominio a un endpoint HTTP
// externo (integraciones, zapier-style). Best-effort: un webhook caído
// jamás afecta la mutación que lo originó.
package webhook

import (
	"context"
	"net/http"
	"time"

	"crm-backend/internal/platform/httpclient"
	"crm-backend/internal/platform/logger"
	"crm-backend/internal/ports/realtime"
)

const (
	deliverTimeout = 5 * time.Second
	deliverRetries = 3
)

type Publisher struct {
	client *httpclient.Client
	url    string
	log    logger.Logger
}

func New(url string, log logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop{}
	}
	return &Publisher{
		client: httpclient.New(deliverTimeout),
		url:    url,
		log:    log,
	}
}

type delivery struct {
	Event   string    `json:"event"`
	Room    string    `json:"room,omitempty"`
	Payload any       `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

// Publish entrega el evento en background; el caller no espera.
func (p *Publisher) Publish(_ context.Context, ev realtime.Event) {
	if p.url == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout*deliverRetries)
		defer cancel()

		err := p.client.DoJSONRetry(ctx, http.MethodPost, p.url, nil, delivery{
			Event:   ev.Name,
			Room:    ev.Room,
			Payload: ev.Payload,
			SentAt:  time.Now(),
		}, nil, deliverRetries)
		if err != nil {
			p.log.Warn("webhook: delivery failed", map[string]any{
				"event": ev.Name,
				"err":   err.Error(),
			})
		}
	}()
}
