// Package salesforce implements the CRM provider interface against the
// Salesforce REST API.
package salesforce

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"voicepipe/internal/app/crm"
	"voicepipe/internal/app/model"
)

// Name is the provider identifier stored on credentials and sync logs.
const Name = "salesforce"

// Endpoints used by the OAuth flow for this provider.
const (
	AuthorizePath = "/services/oauth2/authorize"
	TokenPath     = "/services/oauth2/token"
	UserInfoPath  = "/services/oauth2/userinfo"
)

// Scopes requested during authorization.
var Scopes = []string{"api", "refresh_token"}

// priorityMap maps the internal priority vocabulary onto Salesforce task
// priorities. Salesforce has no separate "urgent" tier, so urgent collapses
// onto High.
var priorityMap = map[model.Priority]string{
	model.PriorityLow:    "Low",
	model.PriorityMedium: "Normal",
	model.PriorityHigh:   "High",
	model.PriorityUrgent: "High",
}

// TaskPriority maps an internal priority to Salesforce's vocabulary.
func TaskPriority(p model.Priority) string {
	if mapped, ok := priorityMap[p]; ok {
		return mapped
	}
	return "Normal"
}

// Provider implements crm.Provider.
type Provider struct {
	httpClient *http.Client
	logger     *slog.Logger
}

var _ crm.Provider = (*Provider)(nil)

// New creates the Salesforce provider. A nil httpClient selects a default
// with a 30s timeout.
func New(httpClient *http.Client, logger *slog.Logger) *Provider {
	return &Provider{httpClient: httpClient, logger: logger}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return Name }

// Validate fails fast on credential-level problems, before any per-item
// work is attempted.
func (p *Provider) Validate(cred model.CRMCredential) error {
	if cred.AccessToken == "" {
		return fmt.Errorf("salesforce credential has no access token")
	}
	if cred.InstanceURL == "" {
		return fmt.Errorf("salesforce credential has no instance URL")
	}
	return nil
}

// UpsertContact searches by email and updates the existing record, else
// creates a new one. Upsert-by-email is the idempotency mechanism that
// makes repeated syncs of the same contact safe.
func (p *Provider) UpsertContact(ctx context.Context, cred model.CRMCredential, contact model.Contact) (*crm.ContactResult, error) {
	client := newRESTClient(cred.InstanceURL, cred.AccessToken, p.httpClient)
	fields := contactFields(contact)

	if contact.Email != "" {
		soql := fmt.Sprintf("SELECT Id FROM Contact WHERE Email = '%s' LIMIT 1", escapeSOQL(contact.Email))
		ids, err := client.query(ctx, soql)
		if err != nil {
			// Best-effort search: log and fall through to create rather
			// than losing the contact.
			p.logger.Warn("contact search failed, creating instead",
				"email", contact.Email, "error", err)
		} else if len(ids) > 0 {
			if err := client.update(ctx, "Contact", ids[0], fields); err != nil {
				return nil, fmt.Errorf("update contact %s: %w", ids[0], err)
			}
			return &crm.ContactResult{RemoteID: ids[0], Created: false}, nil
		}
	}

	id, err := client.create(ctx, "Contact", fields)
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return &crm.ContactResult{RemoteID: id, Created: true}, nil
}

// CreateTask creates a follow-up task linked to a contact.
func (p *Provider) CreateTask(ctx context.Context, cred model.CRMCredential, item model.ActionItem, contactRemoteID string) (string, error) {
	client := newRESTClient(cred.InstanceURL, cred.AccessToken, p.httpClient)

	fields := map[string]any{
		"Subject":  item.Task,
		"Priority": TaskPriority(item.Priority),
		"Status":   "Not Started",
	}
	if contactRemoteID != "" {
		fields["WhoId"] = contactRemoteID
	}
	if item.DueDate != "" {
		fields["ActivityDate"] = item.DueDate
	}

	id, err := client.create(ctx, "Task", fields)
	if err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	return id, nil
}

// contactFields maps the extracted contact onto Salesforce Contact fields.
// Salesforce requires LastName; a single-word name lands there whole.
func contactFields(c model.Contact) map[string]any {
	first, last := splitName(c.Name)

	fields := map[string]any{"LastName": last}
	if first != "" {
		fields["FirstName"] = first
	}
	if c.Title != "" {
		fields["Title"] = c.Title
	}
	if c.Email != "" {
		fields["Email"] = c.Email
	}
	if c.Phone != "" {
		fields["Phone"] = c.Phone
	}
	if c.Company != "" {
		fields["Description"] = "Company: " + c.Company
	}
	return fields
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", "Unknown"
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}
