package salesforce

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicepipe/internal/app/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCred(instanceURL string) model.CRMCredential {
	return model.CRMCredential{
		Provider:    Name,
		Connected:   true,
		AccessToken: "00Daccess",
		InstanceURL: instanceURL,
	}
}

func TestValidate(t *testing.T) {
	p := New(nil, testLogger())

	assert.NoError(t, p.Validate(testCred("https://na1.example.test")))
	assert.Error(t, p.Validate(model.CRMCredential{InstanceURL: "https://na1.example.test"}))
	assert.Error(t, p.Validate(model.CRMCredential{AccessToken: "00Daccess"}))
}

func TestTaskPriority(t *testing.T) {
	tests := []struct {
		priority model.Priority
		expected string
	}{
		{model.PriorityLow, "Low"},
		{model.PriorityMedium, "Normal"},
		{model.PriorityHigh, "High"},
		{model.PriorityUrgent, "High"},
		{model.Priority("bogus"), "Normal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, TaskPriority(tt.priority), string(tt.priority))
	}
}

func TestUpsertContactCreatesWhenNoMatch(t *testing.T) {
	var created map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer 00Daccess", r.Header.Get("Authorization"))
		switch {
		case strings.Contains(r.URL.Path, "/query"):
			json.NewEncoder(w).Encode(map[string]any{"totalSize": 0, "records": []any{}})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/sobjects/Contact"):
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"id": "003NEW", "success": true})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	p := New(srv.Client(), testLogger())
	result, err := p.UpsertContact(context.Background(), testCred(srv.URL), model.Contact{
		Name:  "Jane Mary Doe",
		Email: "jane@acme.test",
		Title: "VP Sales",
	})
	require.NoError(t, err)

	assert.Equal(t, "003NEW", result.RemoteID)
	assert.True(t, result.Created)
	assert.Equal(t, "Jane Mary", created["FirstName"])
	assert.Equal(t, "Doe", created["LastName"])
	assert.Equal(t, "jane@acme.test", created["Email"])
	assert.Equal(t, "VP Sales", created["Title"])
}

// Syncing the same email twice must update the existing record, never
// create a duplicate.
func TestUpsertContactUpdatesExisting(t *testing.T) {
	var patchedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/query"):
			q := r.URL.Query().Get("q")
			assert.Contains(t, q, "jane@acme.test")
			json.NewEncoder(w).Encode(map[string]any{
				"totalSize": 1,
				"records":   []map[string]string{{"Id": "003EXISTING"}},
			})
		case r.Method == http.MethodPatch:
			patchedPath = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	p := New(srv.Client(), testLogger())
	result, err := p.UpsertContact(context.Background(), testCred(srv.URL), model.Contact{
		Name:  "Jane Doe",
		Email: "jane@acme.test",
	})
	require.NoError(t, err)

	assert.Equal(t, "003EXISTING", result.RemoteID)
	assert.False(t, result.Created)
	assert.Contains(t, patchedPath, "/sobjects/Contact/003EXISTING")
}

// A failed search falls through to create instead of dropping the contact.
func TestUpsertContactSearchFailureFallsThroughToCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/query"):
			w.WriteHeader(http.StatusInternalServerError)
		case r.Method == http.MethodPost:
			json.NewEncoder(w).Encode(map[string]any{"id": "003FALLBACK", "success": true})
		}
	}))
	defer srv.Close()

	p := New(srv.Client(), testLogger())
	result, err := p.UpsertContact(context.Background(), testCred(srv.URL), model.Contact{
		Name:  "Jane Doe",
		Email: "jane@acme.test",
	})
	require.NoError(t, err)
	assert.Equal(t, "003FALLBACK", result.RemoteID)
	assert.True(t, result.Created)
}

func TestUpsertContactNoEmailSkipsSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/query") {
			t.Error("search must be skipped when the contact has no email")
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "003NOEMAIL", "success": true})
	}))
	defer srv.Close()

	p := New(srv.Client(), testLogger())
	result, err := p.UpsertContact(context.Background(), testCred(srv.URL), model.Contact{Name: "Madonna"})
	require.NoError(t, err)
	assert.Equal(t, "003NOEMAIL", result.RemoteID)
}

func TestCreateTask(t *testing.T) {
	var created map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/sobjects/Task"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": "00TNEW", "success": true})
	}))
	defer srv.Close()

	p := New(srv.Client(), testLogger())
	id, err := p.CreateTask(context.Background(), testCred(srv.URL), model.ActionItem{
		Task:     "Send renewal quote",
		DueDate:  "2026-09-15",
		Priority: model.PriorityUrgent,
	}, "003CONTACT")
	require.NoError(t, err)

	assert.Equal(t, "00TNEW", id)
	assert.Equal(t, "Send renewal quote", created["Subject"])
	assert.Equal(t, "High", created["Priority"])
	assert.Equal(t, "Not Started", created["Status"])
	assert.Equal(t, "003CONTACT", created["WhoId"])
	assert.Equal(t, "2026-09-15", created["ActivityDate"])
}

func TestCreateTaskWithoutContactOmitsWhoID(t *testing.T) {
	var created map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		json.NewEncoder(w).Encode(map[string]any{"id": "00TORPHAN", "success": true})
	}))
	defer srv.Close()

	p := New(srv.Client(), testLogger())
	_, err := p.CreateTask(context.Background(), testCred(srv.URL), model.ActionItem{Task: "Follow up"}, "")
	require.NoError(t, err)

	_, hasWho := created["WhoId"]
	assert.False(t, hasWho)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		name  string
		first string
		last  string
	}{
		{"Jane Doe", "Jane", "Doe"},
		{"Jane Mary Doe", "Jane Mary", "Doe"},
		{"Madonna", "", "Madonna"},
		{"", "", "Unknown"},
		{"   ", "", "Unknown"},
	}
	for _, tt := range tests {
		first, last := splitName(tt.name)
		assert.Equal(t, tt.first, first, tt.name)
		assert.Equal(t, tt.last, last, tt.name)
	}
}

func TestEscapeSOQL(t *testing.T) {
	assert.Equal(t, `o\'brien@x.test`, escapeSOQL(`o'brien@x.test`))
	assert.Equal(t, `a\\b`, escapeSOQL(`a\b`))
}
