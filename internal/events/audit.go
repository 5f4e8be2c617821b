package events

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/super-skeleton/auth-service/internal/hooks"
	"github.com/super-skeleton/auth-service/internal/logging"
)

const auditIndex = "auth-audit"

// AuditIndexer writes one audit document per lifecycle event. The index is
// append-only; token values never leave the process.
type AuditIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewAuditIndexer(url, user, password string) (*AuditIndexer, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, err
	}

	return &AuditIndexer{client: client, index: auditIndex}, nil
}

// Observe registers the indexer for every lifecycle event.
func (a *AuditIndexer) Observe(d *hooks.Dispatcher) {
	for _, e := range []hooks.Event{
		hooks.EventUserRegistered,
		hooks.EventUserLoggedIn,
		hooks.EventPasswordResetRequested,
		hooks.EventPasswordResetCompleted,
		hooks.EventVerificationResent,
		hooks.EventUserLoggedOut,
	} {
		e := e
		d.On(e, func(ctx context.Context, payload hooks.Payload) {
			a.indexEvent(ctx, e, payload)
		})
	}
}

func (a *AuditIndexer) indexEvent(ctx context.Context, e hooks.Event, payload hooks.Payload) {
	doc := lifecycleRecord{
		Event:     string(e),
		Method:    payload.Method,
		Timestamp: time.Now().UTC(),
	}
	if payload.User != nil {
		doc.UserID = payload.User.ID
		doc.Email = payload.User.Email
	} else {
		doc.UserID = payload.UserID
	}

	body, err := json.Marshal(doc)
	if err != nil {
		logging.FromContext(ctx).Error("audit_marshal_failed", "event", string(e), "error", err)
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req := esapi.IndexRequest{
		Index: a.index,
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(reqCtx, a.client)
	if err != nil {
		logging.FromContext(ctx).Error("audit_index_failed", "event", string(e), "error", err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		logging.FromContext(ctx).Error("audit_index_rejected", "event", string(e), "status", res.Status())
	}
}
