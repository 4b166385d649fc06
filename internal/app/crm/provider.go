// Package crm defines the provider strategy interface the sync stage works
// against. Adding a CRM means registering another implementation, not
// editing the sync service.
package crm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"voicepipe/internal/app/model"
)

// ErrUnsupportedProvider is returned when no implementation is registered
// for the credential's provider.
var ErrUnsupportedProvider = errors.New("unsupported CRM provider")

// ContactResult reports one contact upsert.
type ContactResult struct {
	RemoteID string
	// Created is false when an existing record was updated instead.
	Created bool
}

// Provider is one CRM backend. Implementations must make UpsertContact
// idempotent: syncing the same email twice updates rather than duplicates.
type Provider interface {
	Name() string
	// Validate checks the credential before any per-item work; a failure
	// here fails the whole sync stage.
	Validate(cred model.CRMCredential) error
	UpsertContact(ctx context.Context, cred model.CRMCredential, contact model.Contact) (*ContactResult, error)
	// CreateTask creates a follow-up task linked to contactRemoteID and
	// returns the remote task ID. Task creation has no natural idempotency
	// key; retries may duplicate tasks (accepted, see SyncLog audit trail).
	CreateTask(ctx context.Context, cred model.CRMCredential, item model.ActionItem, contactRemoteID string) (string, error)
}

// Registry holds the known providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under its name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns the provider for name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
	}
	return p, nil
}
