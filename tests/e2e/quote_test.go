package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"testing"
	"time"
)

// TestQuoteWorkflow submits a quote and reads it back through the list
// endpoint
func TestQuoteWorkflow(t *testing.T) {
	baseURL := getBaseURL(t)
	token := getAuthToken(t)
	client := &http.Client{Timeout: 30 * time.Second}

	var quoteID string

	t.Run("SubmitQuote", func(t *testing.T) {
		payload := map[string]interface{}{
			"nomeCompleto": "Teste E2E",
			"cpf":          "111.444.777-35",
			"email":        "e2e@example.com",
			"celular":      "(21) 99988-7766",
			"dadosVeiculo": map[string]interface{}{
				"placa":     "ABC1D23",
				"marca":     "Fiat",
				"modelo":    "Argo 1.0",
				"anoModelo": "2022",
			},
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("Failed to encode payload: %v", err)
		}

		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		if err := writer.WriteField("type", "auto"); err != nil {
			t.Fatalf("Failed to write field: %v", err)
		}
		if err := writer.WriteField("payload", string(encoded)); err != nil {
			t.Fatalf("Failed to write field: %v", err)
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("Failed to close form: %v", err)
		}

		req, err := http.NewRequest("POST", baseURL+"/quotes", body)
		if err != nil {
			t.Fatalf("Failed to create request: %v", err)
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			raw, _ := io.ReadAll(resp.Body)
			t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(raw))
		}

		var result map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if ok, _ := result["ok"].(bool); !ok {
			t.Fatalf("Expected ok=true, got %v", result)
		}
		quoteID, _ = result["id"].(string)
		if quoteID == "" {
			t.Fatal("Response missing quote id")
		}
	})

	t.Run("ListQuotes", func(t *testing.T) {
		req, err := http.NewRequest("GET", baseURL+"/quotes/my?type=auto&limit=10", nil)
		if err != nil {
			t.Fatalf("Failed to create request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			raw, _ := io.ReadAll(resp.Body)
			t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(raw))
		}

		var list struct {
			Items []map[string]interface{} `json:"items"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}

		found := false
		for _, item := range list.Items {
			if item["id"] == quoteID {
				found = true
			}
		}
		if !found {
			t.Errorf("Submitted quote %s not present in the listing", quoteID)
		}
	})
}

// getAuthToken retrieves the bearer token for E2E runs
func getAuthToken(t *testing.T) string {
	token := os.Getenv("TEST_AUTH_TOKEN")
	if token == "" {
		t.Skip("TEST_AUTH_TOKEN not set, skipping E2E test")
	}
	return token
}
