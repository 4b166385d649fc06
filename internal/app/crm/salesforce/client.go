package salesforce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiVersion = "v58.0"

// restClient issues authenticated calls against one Salesforce instance.
type restClient struct {
	instanceURL string
	accessToken string
	httpClient  *http.Client
}

func newRESTClient(instanceURL, accessToken string, httpClient *http.Client) *restClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &restClient{
		instanceURL: strings.TrimRight(instanceURL, "/"),
		accessToken: accessToken,
		httpClient:  httpClient,
	}
}

type queryResponse struct {
	TotalSize int `json:"totalSize"`
	Records   []struct {
		ID string `json:"Id"`
	} `json:"records"`
}

// query runs a SOQL query and returns matching record IDs.
func (c *restClient) query(ctx context.Context, soql string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/services/data/%s/query?q=%s", c.instanceURL, apiVersion, url.QueryEscape(soql))

	var out queryResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(out.Records))
	for _, r := range out.Records {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

type createResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

// create inserts one sobject and returns its ID.
func (c *restClient) create(ctx context.Context, sobject string, fields map[string]any) (string, error) {
	endpoint := fmt.Sprintf("%s/services/data/%s/sobjects/%s", c.instanceURL, apiVersion, sobject)

	var out createResponse
	if err := c.do(ctx, http.MethodPost, endpoint, fields, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("create %s: no id in response", sobject)
	}
	return out.ID, nil
}

// update patches one sobject. Salesforce answers 204 with an empty body.
func (c *restClient) update(ctx context.Context, sobject, id string, fields map[string]any) error {
	endpoint := fmt.Sprintf("%s/services/data/%s/sobjects/%s/%s", c.instanceURL, apiVersion, sobject, id)
	return c.do(ctx, http.MethodPatch, endpoint, fields, nil)
}

func (c *restClient) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call salesforce: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read salesforce response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("salesforce returned %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode salesforce response: %w", err)
		}
	}
	return nil
}

// escapeSOQL escapes string literals for embedding in a SOQL query.
func escapeSOQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
