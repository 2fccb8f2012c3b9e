package models

import "errors"

// Sentinel errors shared across services
var (
	ErrNotAuthenticated   = errors.New("não autenticado")
	ErrQuoteNotFound      = errors.New("cotação não encontrada")
	ErrAccountNotFound    = errors.New("conta não encontrada")
	ErrAttachmentExists   = errors.New("anexo já existe no destino")
	ErrInvalidPayload     = errors.New("payload inválido (JSON)")
	ErrNotMultipart       = errors.New("esperado multipart/form-data")
	ErrSubscriptionAbsent = errors.New("assinatura não encontrada")
)

// ErrorResponse is the generic error body
type ErrorResponse struct {
	Error string `json:"error"`
}

// StageErrorResponse tags an ingestion failure with the pipeline stage that
// produced it, so clients can tell exactly where a submission stopped
type StageErrorResponse struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// Ingestion stages, in pipeline order
const (
	StageAuth          = "auth"
	StageForm          = "form"
	StagePayload       = "payload"
	StageAccountLookup = "account_lookup"
	StageAccountCreate = "account_create"
	StageInsertQuote   = "insert_quote"
	StageUpload        = "upload"
	StageUpdateUploads = "update_uploads"
	StageUnhandled     = "unhandled"
)
