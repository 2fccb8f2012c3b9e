package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hmon-seguros/quote-api/internal/middleware"
	"github.com/hmon-seguros/quote-api/internal/models"
	"github.com/hmon-seguros/quote-api/internal/observability"
	"github.com/hmon-seguros/quote-api/internal/services"
	"github.com/hmon-seguros/quote-api/internal/utils"
	"go.uber.org/zap"
)

const (
	defaultQuoteType = "auto"
	defaultListLimit = 10
	maxListLimit     = 50
	maxUploadBytes   = 15 << 20
)

// SubmitQuote godoc
// @Summary Enviar cotação
// @Description Recebe uma cotação em multipart/form-data: campo type, campo payload (JSON) e anexos imagemCnh, imagemCrv e imagemNF. Falhas retornam o estágio do pipeline em que ocorreram.
// @Tags quotes
// @Accept multipart/form-data
// @Produce json
// @Param type formData string false "Tipo da cotação" default(auto)
// @Param payload formData string false "Payload JSON do formulário; ausente equivale a um objeto vazio"
// @Security BearerAuth
// @Success 200 {object} models.IngestResponse
// @Failure 400 {object} models.StageErrorResponse
// @Failure 401 {object} models.StageErrorResponse
// @Failure 500 {object} models.StageErrorResponse
// @Router /quotes [post]
func SubmitQuote(c *gin.Context) {
	ctx, _, complete := utils.TraceOperation(c.Request.Context(), "submit_quote", nil)
	defer complete()

	// A submission that panics must still answer with its stage
	defer func() {
		if r := recover(); r != nil {
			observability.Logger().Error("quote submission panicked", zap.Any("panic", r))
			c.JSON(http.StatusInternalServerError, models.StageErrorResponse{
				Stage: models.StageUnhandled,
				Error: "erro inesperado",
			})
		}
	}()

	claims, err := middleware.GetClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.StageErrorResponse{Stage: models.StageAuth, Error: "Não autenticado"})
		return
	}

	// form
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		c.JSON(http.StatusBadRequest, models.StageErrorResponse{
			Stage: models.StageForm,
			Error: models.ErrNotMultipart.Error(),
		})
		return
	}
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		c.JSON(http.StatusBadRequest, models.StageErrorResponse{
			Stage: models.StageForm,
			Error: "formulário inválido",
		})
		return
	}

	// payload; an absent field means an empty submission
	payload := map[string]interface{}{}
	if raw := c.PostForm("payload"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			c.JSON(http.StatusBadRequest, models.StageErrorResponse{
				Stage: models.StagePayload,
				Error: models.ErrInvalidPayload.Error(),
			})
			return
		}
	}

	quoteType := c.PostForm("type")
	if quoteType == "" {
		quoteType = defaultQuoteType
	}

	files, err := collectFiles(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.StageErrorResponse{
			Stage: models.StageForm,
			Error: err.Error(),
		})
		return
	}

	resp, stageErr := services.QuoteServiceInstance.Ingest(ctx, &services.IngestInput{
		UserID:    claims.Sub,
		UserEmail: claims.Email,
		Type:      quoteType,
		AccountID: c.PostForm("account_id"),
		Payload:   payload,
		Files:     files,
	})
	if stageErr != nil {
		observability.Logger().Warn("quote submission failed",
			zap.String("stage", stageErr.Stage),
			zap.Error(stageErr.Err))
		c.JSON(stageErr.Status, models.StageErrorResponse{
			Stage: stageErr.Stage,
			Error: stageErr.Err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// collectFiles reads the recognized attachment parts from the parsed form
func collectFiles(c *gin.Context) (map[string]*services.UploadFile, error) {
	files := make(map[string]*services.UploadFile)
	for _, key := range models.AttachmentKeys {
		header, err := c.FormFile(models.AttachmentFormFields[key])
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				continue
			}
			return nil, err
		}

		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}

		files[key] = &services.UploadFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
	}
	return files, nil
}

// ListMyQuotes godoc
// @Summary Listar minhas cotações
// @Description Lista as cotações do usuário autenticado, mais recentes primeiro, com URLs assinadas dos anexos (nulas quando ausentes)
// @Tags quotes
// @Produce json
// @Param type query string false "Tipo da cotação" default(auto)
// @Param limit query int false "Quantidade máxima" default(10)
// @Security BearerAuth
// @Success 200 {object} models.QuoteListResponse
// @Failure 401 {object} models.StageErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /quotes/my [get]
func ListMyQuotes(c *gin.Context) {
	ctx, _, complete := utils.TraceOperation(c.Request.Context(), "list_quotes", nil)
	defer complete()

	userID, err := middleware.UserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.StageErrorResponse{Stage: models.StageAuth, Error: "Não autenticado"})
		return
	}

	quoteType := c.DefaultQuery("type", defaultQuoteType)
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	resp, err := services.QuoteServiceInstance.List(ctx, userID, quoteType, limit)
	if err != nil {
		observability.Logger().Error("failed to list quotes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "falha ao listar cotações"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// QuoteDetail godoc
// @Summary Detalhe de uma cotação (HTML)
// @Description Página HTML com os dados completos de uma cotação do usuário autenticado
// @Tags quotes
// @Produce html
// @Param id path string true "ID da cotação"
// @Security BearerAuth
// @Success 200 {string} string "Página HTML"
// @Failure 404 {string} string "Cotação não encontrada"
// @Router /quotes/{id} [get]
func QuoteDetail(c *gin.Context) {
	ctx, _, complete := utils.TraceOperation(c.Request.Context(), "quote_detail", nil)
	defer complete()

	userID, err := middleware.UserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.StageErrorResponse{Stage: models.StageAuth, Error: "Não autenticado"})
		return
	}

	quote, urls, err := services.QuoteServiceInstance.Detail(ctx, userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrQuoteNotFound) {
			c.Data(http.StatusNotFound, "text/html; charset=utf-8",
				[]byte("<!DOCTYPE html><html lang=\"pt-BR\"><body><h1>Cotação não encontrada</h1></body></html>"))
			return
		}
		observability.Logger().Error("failed to load quote detail", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "falha ao carregar cotação"})
		return
	}

	raw, err := json.MarshalIndent(quote.Data, "", "  ")
	if err != nil {
		raw = []byte("{}")
	}

	c.HTML(http.StatusOK, "quote_detail.html", gin.H{
		"Quote":   quote,
		"Data":    quote.Data,
		"Vehicle": vehicleSection(quote.Data),
		"URLs":    urls,
		"RawJSON": string(raw),
	})
}

// vehicleSection pulls the nested vehicle object out of the payload for the
// template, which cannot type-assert
func vehicleSection(data map[string]interface{}) map[string]interface{} {
	if vehicle, ok := data["dadosVeiculo"].(map[string]interface{}); ok {
		return vehicle
	}
	return map[string]interface{}{}
}
