package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hmon-seguros/quote-api/internal/config"
	"github.com/hmon-seguros/quote-api/internal/logging"
	"github.com/hmon-seguros/quote-api/internal/models"
	"github.com/hmon-seguros/quote-api/internal/observability"
	"github.com/hmon-seguros/quote-api/internal/repository/mongodb"
	"github.com/hmon-seguros/quote-api/internal/utils"
	"go.uber.org/zap"
)

// StageError is an ingestion failure tagged with the pipeline stage that
// produced it
type StageError struct {
	Stage  string
	Status int
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("[%s] %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage string, status int, err error) *StageError {
	return &StageError{Stage: stage, Status: status, Err: err}
}

// UploadFile is one attachment received with a submission
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IngestInput is a parsed quote submission
type IngestInput struct {
	UserID    string
	UserEmail string
	Type      string
	AccountID string
	Payload   map[string]interface{}
	Files     map[string]*UploadFile
}

// QuoteService handles quote ingestion and retrieval
type QuoteService struct {
	quotes    QuoteStore
	accounts  AccountStore
	storage   AttachmentStorage
	signedTTL time.Duration
	logger    *logging.SafeLogger
}

// NewQuoteService creates a new quote service instance
func NewQuoteService(quotes QuoteStore, accounts AccountStore, storage AttachmentStorage, signedTTL time.Duration, logger *logging.SafeLogger) *QuoteService {
	return &QuoteService{
		quotes:    quotes,
		accounts:  accounts,
		storage:   storage,
		signedTTL: signedTTL,
		logger:    logger,
	}
}

// Global quote service instance
var QuoteServiceInstance *QuoteService

// InitQuoteService initializes the global quote service instance
func InitQuoteService(storage AttachmentStorage) {
	logger := zap.L().Named("quote_service")

	QuoteServiceInstance = NewQuoteService(
		mongodb.NewQuoteRepository(config.MongoDB),
		mongodb.NewAccountRepository(config.MongoDB),
		storage,
		config.AppConfig.SignedURLTTL,
		logging.Logger,
	)

	logger.Info("quote service initialized successfully")
}

// Ingest runs the submission pipeline: account resolution, quote insert,
// attachment uploads, uploads patch. Failures carry the stage they happened
// in; a partially uploaded submission is not rolled back.
func (s *QuoteService) Ingest(ctx context.Context, in *IngestInput) (*models.IngestResponse, *StageError) {
	// account_lookup / account_create
	accountID := in.AccountID
	if accountID == "" {
		member, err := s.accounts.EarliestMembership(ctx, in.UserID)
		if err != nil {
			observability.QuoteSubmissions.WithLabelValues(in.Type, models.StageAccountLookup).Inc()
			return nil, stageErr(models.StageAccountLookup, http.StatusBadRequest, err)
		}
		if member != nil {
			accountID = member.AccountID
		}
	}
	if accountID == "" {
		id, err := s.createDefaultAccount(ctx, in.UserID, in.UserEmail)
		if err != nil {
			observability.QuoteSubmissions.WithLabelValues(in.Type, models.StageAccountCreate).Inc()
			return nil, stageErr(models.StageAccountCreate, http.StatusBadRequest, err)
		}
		accountID = id
	}

	// insert_quote
	quote := buildQuoteRecord(accountID, in)
	if err := s.quotes.InsertQuote(ctx, quote); err != nil {
		observability.QuoteSubmissions.WithLabelValues(in.Type, models.StageInsertQuote).Inc()
		return nil, stageErr(models.StageInsertQuote, http.StatusBadRequest, err)
	}

	s.logger.Info("quote inserted",
		zap.String("quote_id", quote.ID),
		zap.String("account_id", accountID),
		zap.String("type", in.Type))

	// upload — deterministic paths, no overwrite, first failure aborts the
	// rest; already-uploaded attachments stay where they are
	uploads := make(map[string]string)
	for _, key := range models.AttachmentKeys {
		file, ok := in.Files[key]
		if !ok || file == nil {
			continue
		}
		path := attachmentPath(accountID, quote.ID, key, file.Filename)
		if err := s.storage.Put(ctx, path, file.ContentType, file.Data); err != nil {
			observability.AttachmentUploads.WithLabelValues(key, "error").Inc()
			observability.QuoteSubmissions.WithLabelValues(in.Type, models.StageUpload).Inc()
			return nil, stageErr(models.StageUpload, http.StatusBadRequest,
				fmt.Errorf("upload:%s:%v", key, err))
		}
		observability.AttachmentUploads.WithLabelValues(key, "ok").Inc()
		uploads[key] = path
	}

	// update_uploads
	if len(uploads) > 0 {
		if err := s.quotes.SetUploads(ctx, quote.ID, uploads); err != nil {
			observability.QuoteSubmissions.WithLabelValues(in.Type, models.StageUpdateUploads).Inc()
			return nil, stageErr(models.StageUpdateUploads, http.StatusBadRequest, err)
		}
	}

	observability.QuoteSubmissions.WithLabelValues(in.Type, "ok").Inc()
	return &models.IngestResponse{OK: true, ID: quote.ID}, nil
}

// createDefaultAccount creates a default account for a user with no
// membership, along with the membership row itself
func (s *QuoteService) createDefaultAccount(ctx context.Context, userID, email string) (string, error) {
	owner := email
	if owner == "" {
		owner = "usuário"
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:        uuid.NewString(),
		Name:      fmt.Sprintf("Conta de %s", owner),
		CreatedBy: userID,
		CreatedAt: now,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return "", err
	}
	if err := s.accounts.AddMember(ctx, &models.AccountMember{
		UserID:    userID,
		AccountID: account.ID,
		JoinedAt:  now,
	}); err != nil {
		return "", err
	}

	s.logger.Info("created default account",
		zap.String("account_id", account.ID),
		zap.String("user_id", userID))
	return account.ID, nil
}

// buildQuoteRecord projects the payload's summary columns and wraps the full
// payload
func buildQuoteRecord(accountID string, in *IngestInput) *models.QuoteRecord {
	quote := &models.QuoteRecord{
		ID:        uuid.NewString(),
		AccountID: accountID,
		CreatedBy: in.UserID,
		Type:      in.Type,
		Status:    models.QuoteStatusSubmitted,
		Data:      in.Payload,
		CreatedAt: time.Now().UTC(),
	}

	quote.CustomerName = payloadString(in.Payload, "nomeCompleto")
	quote.CustomerCPF = payloadString(in.Payload, "cpf")
	quote.CustomerEmail = payloadString(in.Payload, "email")
	if phone := payloadString(in.Payload, "celular"); phone != nil {
		// Summary column holds E.164 when parseable; the raw value stays in
		// the payload
		normalized := utils.NormalizeToE164(*phone)
		quote.CustomerPhone = &normalized
	}

	if vehicle, ok := in.Payload["dadosVeiculo"].(map[string]interface{}); ok {
		quote.VehiclePlate = payloadString(vehicle, "placa")
		quote.VehicleBrand = payloadString(vehicle, "marca")
		quote.VehicleModel = payloadString(vehicle, "modelo")
		if year := payloadString(vehicle, "anoModelo"); year != nil {
			if n, err := strconv.Atoi(strings.TrimSpace(*year)); err == nil {
				quote.VehicleYear = &n
			}
		}
	}

	return quote
}

// payloadString reads a non-empty string value from a payload map
func payloadString(payload map[string]interface{}, key string) *string {
	value, ok := payload[key].(string)
	if !ok || value == "" {
		return nil
	}
	return &value
}

// attachmentPath builds the deterministic storage path of an attachment. The
// extension comes from the uploaded filename, defaulting to jpg.
func attachmentPath(accountID, quoteID, key, filename string) string {
	ext := "jpg"
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		ext = strings.ToLower(filename[i+1:])
	}
	return fmt.Sprintf("%s/%s/%s.%s", accountID, quoteID, key, ext)
}

// List returns the caller's latest quotes of a type with signed attachment
// URLs. Absent attachments come back as null URLs.
func (s *QuoteService) List(ctx context.Context, userID, quoteType string, limit int) (*models.QuoteListResponse, error) {
	quotes, err := s.quotes.ListQuotes(ctx, userID, quoteType, limit)
	if err != nil {
		return nil, err
	}

	// Collect every attachment path so the batch is signed in one pass
	var allPaths []string
	for i := range quotes {
		for _, key := range models.AttachmentKeys {
			if path, ok := quotes[i].Uploads()[key]; ok {
				allPaths = append(allPaths, path)
			}
		}
	}

	signed := map[string]string{}
	if len(allPaths) > 0 {
		signed, err = s.storage.SignedURLs(ctx, allPaths, s.signedTTL)
		if err != nil {
			return nil, err
		}
	}

	response := &models.QuoteListResponse{Items: make([]models.QuoteListItem, 0, len(quotes))}
	for i := range quotes {
		q := &quotes[i]
		uploads := q.Uploads()
		response.Items = append(response.Items, models.QuoteListItem{
			ID:           q.ID,
			CreatedAt:    q.CreatedAt,
			Status:       q.Status,
			Type:         q.Type,
			CustomerName: q.CustomerName,
			VehiclePlate: q.VehiclePlate,
			VehicleModel: q.VehicleModel,
			Uploads: models.QuoteListUploads{
				CNHURL: signedOrNil(signed, uploads, "cnh"),
				CRVURL: signedOrNil(signed, uploads, "crv"),
				NFURL:  signedOrNil(signed, uploads, "nf"),
			},
		})
	}
	return response, nil
}

func signedOrNil(signed map[string]string, uploads map[string]string, key string) *string {
	path, ok := uploads[key]
	if !ok {
		return nil
	}
	url, ok := signed[path]
	if !ok {
		return nil
	}
	return &url
}

// Detail returns one of the caller's quotes with signed attachment URLs.
// Quotes created by other users are reported as not found.
func (s *QuoteService) Detail(ctx context.Context, userID, id string) (*models.QuoteRecord, map[string]string, error) {
	quote, err := s.quotes.GetQuote(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if quote == nil || quote.CreatedBy != userID {
		return nil, nil, models.ErrQuoteNotFound
	}

	uploads := quote.Uploads()
	paths := make([]string, 0, len(uploads))
	for _, path := range uploads {
		paths = append(paths, path)
	}

	signed := map[string]string{}
	if len(paths) > 0 {
		signed, err = s.storage.SignedURLs(ctx, paths, s.signedTTL)
		if err != nil {
			return nil, nil, err
		}
	}

	urls := make(map[string]string, len(uploads))
	for key, path := range uploads {
		if url, ok := signed[path]; ok {
			urls[key] = url
		}
	}
	return quote, urls, nil
}
