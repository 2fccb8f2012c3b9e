// Package quoteclient submits assembled quote drafts to the ingestion
// endpoint. The wizard uses it as its final step, so a browser submission and
// a wizard submission arrive at the API in exactly the same shape.
package quoteclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/hmon-seguros/quote-api/internal/logging"
	"github.com/hmon-seguros/quote-api/internal/models"
	"github.com/hmon-seguros/quote-api/internal/utils"
	"github.com/hmon-seguros/quote-api/internal/utils/httpclient"
	"go.uber.org/zap"
)

// File is one attachment to submit, keyed by its logical attachment key
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Client submits quotes to the ingestion endpoint
type Client struct {
	baseURL string
	pool    *httpclient.HTTPClientPool
	logger  *logging.SafeLogger
}

// NewClient creates a quote submission client. baseURL points at the API
// root, without a trailing slash.
func NewClient(baseURL string, pool *httpclient.HTTPClientPool, logger *logging.SafeLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		pool:    pool,
		logger:  logger,
	}
}

// Submit posts one multipart submission: the quote type, the payload as a
// JSON field and one part per attachment. The bearer token identifies the
// customer on the receiving side.
func (c *Client) Submit(ctx context.Context, token, quoteType string, payload interface{}, files map[string]File) (*models.IngestResponse, error) {
	body, contentType, err := buildForm(quoteType, payload, files)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/v1/quotes"
	ctx, _, done := utils.TraceHTTPOperation(ctx, http.MethodPost, url, "submit_quote")
	defer done()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build submission request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	client := c.pool.Get()
	defer c.pool.Put(client)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("falha no envio da cotação: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("falha no envio da cotação: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, submissionError(resp.StatusCode, raw)
	}

	var result models.IngestResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("resposta inesperada do servidor: %w", err)
	}

	c.logger.Info("quote submitted",
		zap.String("quote_id", result.ID),
		zap.String("type", quoteType))
	return &result, nil
}

// buildForm assembles the multipart body. Attachments are written in the
// canonical key order so the payload is deterministic.
func buildForm(quoteType string, payload interface{}, files map[string]File) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("type", quoteType); err != nil {
		return nil, "", fmt.Errorf("failed to write form field: %w", err)
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := writer.WriteField("payload", string(encoded)); err != nil {
		return nil, "", fmt.Errorf("failed to write form field: %w", err)
	}

	for _, key := range models.AttachmentKeys {
		file, ok := files[key]
		if !ok {
			continue
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`,
			models.AttachmentFormFields[key], file.Filename))
		if file.ContentType != "" {
			header.Set("Content-Type", file.ContentType)
		}
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form part: %w", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("failed to write attachment: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// submissionError turns an error response into a message carrying the status
// and, when the server reported one, the pipeline stage that failed
func submissionError(status int, raw []byte) error {
	var stageErr models.StageErrorResponse
	if err := json.Unmarshal(raw, &stageErr); err == nil && stageErr.Error != "" {
		if stageErr.Stage != "" {
			return fmt.Errorf("Erro (%d) [%s] %s", status, stageErr.Stage, stageErr.Error)
		}
		return fmt.Errorf("Erro (%d) %s", status, stageErr.Error)
	}
	return fmt.Errorf("Erro (%d) %s", status, strings.TrimSpace(string(raw)))
}
