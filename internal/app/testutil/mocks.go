// Package testutil provides hand-rolled fakes for the pipeline's external
// dependencies plus seed helpers over an in-memory store.
package testutil

import (
	"context"
	"os"
	"sync"

	"voicepipe/internal/app/api/extract"
	"voicepipe/internal/app/api/speech"
	"voicepipe/internal/app/crm"
	"voicepipe/internal/app/events"
	"voicepipe/internal/app/model"
)

// MockSpeechClient returns a canned transcription result.
type MockSpeechClient struct {
	mu     sync.Mutex
	Result *speech.Result
	Err    error
	Calls  []string
}

// NewMockSpeechClient creates a mock that returns a short transcript.
func NewMockSpeechClient() *MockSpeechClient {
	return &MockSpeechClient{
		Result: &speech.Result{
			Text:     "Spoke with Jane Doe from Acme about the renewal",
			Language: "en",
			Duration: 42.5,
		},
	}
}

func (m *MockSpeechClient) Transcribe(_ context.Context, filePath, _ string) (*speech.Result, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, filePath)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// MockExtractClient returns a canned extraction payload.
type MockExtractClient struct {
	mu    sync.Mutex
	JSON  string
	Err   error
	Calls []string
}

// NewMockExtractClient creates a mock that returns a confident extraction
// with one contact and one action item.
func NewMockExtractClient() *MockExtractClient {
	return &MockExtractClient{
		JSON: `{
			"contacts": [{"name": "Jane Doe", "company": "Acme", "email": "jane@acme.test", "confidence": 0.9}],
			"companies": ["Acme"],
			"action_items": [{"task": "Send renewal quote", "priority": "high", "confidence": 0.85}],
			"buying_signals": [],
			"overall_sentiment": "positive",
			"sentiment_score": 0.6,
			"summary": "Renewal discussion with Acme",
			"key_points": ["Renewal due next month"],
			"next_steps": "Send the quote by Friday",
			"confidence_score": 0.9
		}`,
	}
}

func (m *MockExtractClient) Extract(_ context.Context, transcript string) (*extract.Raw, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, transcript)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return &extract.Raw{JSON: m.JSON, PromptTokens: 200, CompletionTokens: 120}, nil
}

// MockBlobStore serves an in-memory byte slice as the audio file.
type MockBlobStore struct {
	Content     []byte
	Size        int64
	StatErr     error
	DownloadErr error
}

// NewMockBlobStore creates a mock holding a tiny fake audio payload.
func NewMockBlobStore() *MockBlobStore {
	content := []byte("RIFF fake audio")
	return &MockBlobStore{Content: content, Size: int64(len(content))}
}

func (m *MockBlobStore) Stat(_ context.Context, _ string) (int64, error) {
	if m.StatErr != nil {
		return 0, m.StatErr
	}
	if m.Size > 0 {
		return m.Size, nil
	}
	return int64(len(m.Content)), nil
}

func (m *MockBlobStore) Download(_ context.Context, _, destPath string) error {
	if m.DownloadErr != nil {
		return m.DownloadErr
	}
	return os.WriteFile(destPath, m.Content, 0o644)
}

// CapturePublisher records published events instead of delivering them.
type CapturePublisher struct {
	mu     sync.Mutex
	Err    error
	events []events.Event
}

// NewCapturePublisher creates an empty capture publisher.
func NewCapturePublisher() *CapturePublisher {
	return &CapturePublisher{}
}

func (p *CapturePublisher) Publish(_ context.Context, e events.Event) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

// Events returns a copy of everything published so far.
func (p *CapturePublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

// MockCRMProvider scripts per-contact and per-task outcomes.
type MockCRMProvider struct {
	ProviderName string
	ValidateErr  error
	// UpsertErrs keys item failures by contact name.
	UpsertErrs map[string]error
	// TaskErrs keys task failures by action item task text.
	TaskErrs map[string]error

	mu       sync.Mutex
	Upserts  []model.Contact
	Tasks    []model.ActionItem
	nextID   int
}

// NewMockCRMProvider creates a provider where every write succeeds.
func NewMockCRMProvider() *MockCRMProvider {
	return &MockCRMProvider{ProviderName: "salesforce"}
}

func (m *MockCRMProvider) Name() string {
	if m.ProviderName == "" {
		return "salesforce"
	}
	return m.ProviderName
}

func (m *MockCRMProvider) Validate(_ model.CRMCredential) error {
	return m.ValidateErr
}

func (m *MockCRMProvider) UpsertContact(_ context.Context, _ model.CRMCredential, contact model.Contact) (*crm.ContactResult, error) {
	if err, ok := m.UpsertErrs[contact.Name]; ok {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Upserts = append(m.Upserts, contact)
	m.nextID++
	return &crm.ContactResult{RemoteID: remoteID("003", m.nextID), Created: true}, nil
}

func (m *MockCRMProvider) CreateTask(_ context.Context, _ model.CRMCredential, item model.ActionItem, _ string) (string, error) {
	if err, ok := m.TaskErrs[item.Task]; ok {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tasks = append(m.Tasks, item)
	m.nextID++
	return remoteID("00T", m.nextID), nil
}

func remoteID(prefix string, n int) string {
	const digits = "0123456789"
	id := ""
	for n > 0 {
		id = string(digits[n%10]) + id
		n /= 10
	}
	for len(id) < 12 {
		id = "0" + id
	}
	return prefix + id
}
