package registry

import (
	"context"
	"sync"

	"github.com/outhook-io/outhook/model"
	"github.com/outhook-io/outhook/pkg/errs"
)

// Registry is the stored-webhook lookup table. The dispatch engine only
// reads it; ownership and mutation belong to the host configuration layer.
type Registry interface {
	Get(ctx context.Context, id string) (*model.Webhook, error)
}

// MemoryRegistry is a concurrency-safe in-memory Registry for hosts that
// keep webhook definitions in process.
type MemoryRegistry struct {
	mux      sync.RWMutex
	webhooks map[string]*model.Webhook
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		webhooks: make(map[string]*model.Webhook),
	}
}

func (r *MemoryRegistry) Get(ctx context.Context, id string) (*model.Webhook, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	if webhook, ok := r.webhooks[id]; ok {
		return webhook, nil
	}
	return nil, errs.NewConfigNotFound(id)
}

// Set validates and stores a webhook definition, replacing any existing
// entry with the same id.
func (r *MemoryRegistry) Set(webhook *model.Webhook) error {
	if err := webhook.Default(); err != nil {
		return err
	}
	if err := webhook.Validate(); err != nil {
		return err
	}

	r.mux.Lock()
	defer r.mux.Unlock()
	r.webhooks[webhook.ID] = webhook
	return nil
}

func (r *MemoryRegistry) Remove(id string) {
	r.mux.Lock()
	defer r.mux.Unlock()
	delete(r.webhooks, id)
}

func (r *MemoryRegistry) IDs() []string {
	r.mux.RLock()
	defer r.mux.RUnlock()
	ids := make([]string, 0, len(r.webhooks))
	for id := range r.webhooks {
		ids = append(ids, id)
	}
	return ids
}
