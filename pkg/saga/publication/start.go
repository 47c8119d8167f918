package publication

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Starter starts a new publication saga instance. The offering writer is
// the sole owner of saga start, per the publication workflow's entry
// point at DRAFT -> PUBLISHING.
type Starter struct {
	baseURL    string
	httpClient *http.Client
}

// NewStarter builds a Starter against a Camunda-compatible process engine.
func NewStarter(baseURL string) *Starter {
	return &Starter{baseURL: baseURL, httpClient: &http.Client{}}
}

type startRequest struct {
	Variables map[string]startVariable `json:"variables"`
}

type startVariable struct {
	Value any    `json:"value"`
	Type  string `json:"type"`
}

type startResponse struct {
	ID string `json:"id"`
}

// Start launches ProcessDefinitionKey with vars and returns the new
// process instance id.
func (s *Starter) Start(ctx context.Context, vars Variables) (string, error) {
	encodedSpecIDs, err := json.Marshal(vars.SpecificationIDs)
	if err != nil {
		return "", fmt.Errorf("publication: failed to encode specificationIds: %w", err)
	}

	encodedPriceIDs, err := json.Marshal(vars.PricingIDs)
	if err != nil {
		return "", fmt.Errorf("publication: failed to encode pricingIds: %w", err)
	}

	req := startRequest{
		Variables: map[string]startVariable{
			"offeringId":       {Value: vars.OfferingID, Type: "String"},
			"pricingIds":       {Value: string(encodedPriceIDs), Type: "Json"},
			"specificationIds": {Value: string(encodedSpecIDs), Type: "Json"},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("publication: failed to encode start request: %w", err)
	}

	url := fmt.Sprintf("%s/process-definition/key/%s/start", s.baseURL, ProcessDefinitionKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("publication: failed to build start request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("publication: start request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("publication: start returned status %d", resp.StatusCode)
	}

	var out startResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("publication: failed to decode start response: %w", err)
	}

	return out.ID, nil
}
