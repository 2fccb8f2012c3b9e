package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hmon-seguros/quote-api/internal/models"
	"github.com/hmon-seguros/quote-api/internal/observability"
	"github.com/hmon-seguros/quote-api/internal/quoteclient"
	"github.com/hmon-seguros/quote-api/internal/services"
	"github.com/hmon-seguros/quote-api/internal/utils"
	"github.com/hmon-seguros/quote-api/internal/wizard"
	"go.uber.org/zap"
)

var (
	wizardStore  *wizard.Store
	submitClient *quoteclient.Client
)

// InitWizardHandlers wires the wizard endpoints to their session store and
// submission client
func InitWizardHandlers(store *wizard.Store, client *quoteclient.Client) {
	wizardStore = store
	submitClient = client
}

// AttachmentView describes a filled attachment slot without its bytes
type AttachmentView struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	PreviewID   string `json:"preview_id"`
}

// WizardSessionView is the wizard state returned to the client
type WizardSessionView struct {
	ID          string                    `json:"id"`
	Step        int                       `json:"step"`
	StepCount   int                       `json:"step_count"`
	Complete    bool                      `json:"step_complete"`
	Draft       models.QuoteDraft         `json:"draft"`
	Catalog     wizard.CatalogSelection   `json:"catalog"`
	Attachments map[string]AttachmentView `json:"attachments"`
}

// WizardFieldRequest sets one draft field by dotted path
type WizardFieldRequest struct {
	Path  string `json:"path" binding:"required"`
	Value string `json:"value"`
}

// WizardFieldResponse returns the stored (masked) value of a field. Valid is
// set only for fields with a field-level validator, currently the applicant
// and spouse taxpayer ids.
type WizardFieldResponse struct {
	Path  string `json:"path"`
	Value string `json:"value"`
	Valid *bool  `json:"valid,omitempty"`
}

// CatalogSelectRequest records a vehicle catalog selection
type CatalogSelectRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name"`
}

func sessionView(s *wizard.Session) WizardSessionView {
	attachments := make(map[string]AttachmentView, len(s.Attachments))
	for key, a := range s.Attachments {
		attachments[key] = AttachmentView{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			PreviewID:   a.PreviewID,
		}
	}
	return WizardSessionView{
		ID:          s.ID,
		Step:        s.Step,
		StepCount:   wizard.StepCount,
		Complete:    wizard.StepComplete(s.Step, &s.Draft),
		Draft:       s.Draft,
		Catalog:     s.Catalog,
		Attachments: attachments,
	}
}

// loadSession fetches the caller's session or writes the error response
func loadSession(c *gin.Context) (*wizard.Session, bool) {
	session, err := wizardStore.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, wizard.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: wizard.ErrSessionNotFound.Error()})
		} else {
			observability.Logger().Error("failed to load wizard session", zap.Error(err))
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "falha ao carregar sessão"})
		}
		return nil, false
	}
	return session, true
}

// saveSession persists the session or writes the error response
func saveSession(c *gin.Context, session *wizard.Session) bool {
	if err := wizardStore.Save(c.Request.Context(), session); err != nil {
		observability.Logger().Error("failed to save wizard session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "falha ao salvar sessão"})
		return false
	}
	return true
}

// CreateWizardSession godoc
// @Summary Iniciar assistente de cotação
// @Description Cria uma nova sessão do assistente de cotação auto
// @Tags wizard
// @Produce json
// @Security BearerAuth
// @Success 201 {object} WizardSessionView
// @Failure 500 {object} models.ErrorResponse
// @Router /wizard [post]
func CreateWizardSession(c *gin.Context) {
	session := wizard.NewSession()
	if !saveSession(c, session) {
		return
	}
	c.JSON(http.StatusCreated, sessionView(session))
}

// GetWizardSession godoc
// @Summary Consultar sessão do assistente
// @Tags wizard
// @Produce json
// @Param id path string true "ID da sessão"
// @Security BearerAuth
// @Success 200 {object} WizardSessionView
// @Failure 404 {object} models.ErrorResponse
// @Router /wizard/{id} [get]
func GetWizardSession(c *gin.Context) {
	session, ok := loadSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionView(session))
}

// DeleteWizardSession godoc
// @Summary Encerrar sessão do assistente
// @Tags wizard
// @Produce json
// @Param id path string true "ID da sessão"
// @Security BearerAuth
// @Success 204 {string} string ""
// @Failure 500 {object} models.ErrorResponse
// @Router /wizard/{id} [delete]
func DeleteWizardSession(c *gin.Context) {
	if err := wizardStore.Delete(c.Request.Context(), c.Param("id")); err != nil {
		observability.Logger().Error("failed to delete wizard session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "falha ao encerrar sessão"})
		return
	}
	c.Status(http.StatusNoContent)
}

// SetWizardField godoc
// @Summary Preencher campo do formulário
// @Description Grava um campo do rascunho por caminho pontuado (ex.: dadosVeiculo.placa), aplicando a máscara do campo. Campos irmãos nunca são alterados. Para cpf e cpfConjuge a resposta informa se os dígitos verificadores conferem.
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "ID da sessão"
// @Param data body WizardFieldRequest true "Caminho e valor"
// @Security BearerAuth
// @Success 200 {object} WizardFieldResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /wizard/{id}/field [put]
func SetWizardField(c *gin.Context) {
	var req WizardFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "corpo da requisição inválido"})
		return
	}

	session, ok := loadSession(c)
	if !ok {
		return
	}

	if err := session.Set(req.Path, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if !saveSession(c, session) {
		return
	}

	stored, _ := session.Get(req.Path)
	resp := WizardFieldResponse{Path: req.Path, Value: stored}
	if valid, checked := wizard.ValidateField(req.Path, stored); checked {
		resp.Valid = &valid
	}
	c.JSON(http.StatusOK, resp)
}

// AdvanceWizard godoc
// @Summary Avançar etapa
// @Description Avança para a próxima etapa quando todos os campos obrigatórios da etapa atual estão preenchidos
// @Tags wizard
// @Produce json
// @Param id path string true "ID da sessão"
// @Security BearerAuth
// @Success 200 {object} WizardSessionView
// @Failure 400 {object} models.ErrorResponse "Campos obrigatórios pendentes"
// @Failure 404 {object} models.ErrorResponse
// @Router /wizard/{id}/advance [post]
func AdvanceWizard(c *gin.Context) {
	session, ok := loadSession(c)
	if !ok {
		return
	}

	if err := session.Advance(); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if !saveSession(c, session) {
		return
	}
	c.JSON(http.StatusOK, sessionView(session))
}

// RetreatWizard godoc
// @Summary Voltar etapa
// @Description Retorna à etapa anterior sem validação
// @Tags wizard
// @Produce json
// @Param id path string true "ID da sessão"
// @Security BearerAuth
// @Success 200 {object} WizardSessionView
// @Failure 404 {object} models.ErrorResponse
// @Router /wizard/{id}/retreat [post]
func RetreatWizard(c *gin.Context) {
	session, ok := loadSession(c)
	if !ok {
		return
	}

	session.Retreat()
	if !saveSession(c, session) {
		return
	}
	c.JSON(http.StatusOK, sessionView(session))
}

// ResetWizard godoc
// @Summary Reiniciar o assistente
// @Description Limpa o rascunho e retorna à primeira etapa, mantendo o id da sessão
// @Tags wizard
// @Produce json
// @Param id path string true "ID da sessão"
// @Security BearerAuth
// @Success 200 {object} WizardSessionView
// @Failure 404 {object} models.ErrorResponse
// @Router /wizard/{id}/reset [post]
func ResetWizard(c *gin.Context) {
	session, ok := loadSession(c)
	if !ok {
		return
	}

	session.Reset()
	if !saveSession(c, session) {
		return
	}
	c.JSON(http.StatusOK, sessionView(session))
}

// LookupWizardCEP godoc
// @Summary Buscar endereço pelo CEP
// @Description Consulta o CEP preenchido no rascunho e grava o endereço retornado. Uma resposta que chega depois de outra consulta mais recente é descartada.
// @Tags wizard
// @Produce json
// @Param id path string true "ID da sessão"
// @Security BearerAuth
// @Success 200 {object} WizardSessionView
// @Failure 400 {object} models.ErrorResponse "CEP inválido"
// @Failure 404 {object} models.ErrorResponse "CEP não encontrado"
// @Router /wizard/{id}/cep [post]
func LookupWizardCEP(c *gin.Context) {
	ctx, _, complete := utils.TraceOperation(c.Request.Context(), "wizard_cep_lookup", nil)
	defer complete()

	session, ok := loadSession(c)
	if !ok {
		return
	}

	generation := session.BeginLookup("cep")
	if !saveSession(c, session) {
		return
	}

	result, err := services.CEPServiceInstance.Lookup(ctx, session.Draft.CEP)
	if err != nil {
		// The address stays untouched on any lookup failure
		if errors.Is(err, services.ErrCEPNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
			return
		}
		if errors.Is(err, services.ErrInvalidCEP) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
		observability.Logger().Error("cep lookup failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: "falha na consulta de CEP"})
		return
	}

	// The session may have moved on while the lookup was in flight; a stale
	// response must not overwrite newer state
	session, ok = loadSession(c)
	if !ok {
		return
	}
	if !session.LookupCurrent("cep", generation) {
		c.JSON(http.StatusOK, sessionView(session))
		return
	}

	session.ApplyAddress(result)
	if !saveSession(c, session) {
		return
	}
	c.JSON(http.StatusOK, sessionView(session))
}

// ListCatalogBrands godoc
// @Summary Listar marcas de veículos
// @Tags wizard
// @Produce json
// @Param id path string true "ID da sessão"
// @Security BearerAuth
// @Success 200 {array} models.FIPEBrand
// @Failure 502 {object} models.ErrorResponse
// @Router /wizard/{id}/catalog/brands [get]
func ListCatalogBrands(c *gin.Context) {
	brands, err := services.FIPEServiceInstance.Brands(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, brands)
}

// ListCatalogModels godoc
// @Summary Listar modelos da marca selecionada
// @Tags wizard
// @Produce json
// @Param id path string true "ID da sessão"
// @Security BearerAuth
// @Success 200 {array} models.FIPEModel
// @Failure 400 {object} models.ErrorResponse "Nenhuma marca selecionada"
// @Failure 502 {object} models.ErrorResponse
// @Router /wizard/{id}/catalog/models [get]
func ListCatalogModels(c *gin.Context) {
	session, ok := loadSession(c)
	if !ok {
		return
	}
	if session.Catalog.BrandCode == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "nenhuma marca selecionada"})
		return
	}

	catalogModels, err := services.FIPEServiceInstance.Models(c.Request.Context(), session.Catalog.BrandCode)
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, catalogModels)
}

// ListCatalogYears godoc
// @Summary Listar anos do modelo selecionado
// @Tags wizard
// @Produce json
// @Param id path string true "ID da sessão"
// @Security BearerAuth
// @Success 200 {array} models.FIPEYear
// @Failure 400 {object} models.ErrorResponse "Seleção incompleta"
// @Failure 502 {object} models.ErrorResponse
// @Router /wizard/{id}/catalog/years [get]
func ListCatalogYears(c *gin.Context) {
	session, ok := loadSession(c)
	if !ok {
		return
	}
	if session.Catalog.BrandCode == "" || session.Catalog.ModelCode == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "selecione marca e modelo antes"})
		return
	}

	years, err := services.FIPEServiceInstance.Years(c.Request.Context(), session.Catalog.BrandCode, session.Catalog.ModelCode)
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, years)
}

// SelectCatalogBrand godoc
// @Summary Selecionar marca
// @Description Grava a marca escolhida e limpa modelo, ano e avaliação pendente
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "ID da sessão"
// @Param data body CatalogSelectRequest true "Código e nome da marca"
// @Security BearerAuth
// @Success 200 {object} WizardSessionView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /wizard/{id}/catalog/brand [post]
func SelectCatalogBrand(c *gin.Context) {
	var req CatalogSelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "corpo da requisição inválido"})
		return
	}

	session, ok := loadSession(c)
	if !ok {
		return
	}

	session.SelectBrand(req.Code, req.Name)
	if !saveSession(c, session) {
		return
	}
	c.JSON(http.StatusOK, sessionView(session))
}

// SelectCatalogModel godoc
// @Summary Selecionar modelo
// @Description Grava o modelo escolhido e limpa ano e avaliação pendente
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "ID da sessão"
// @Param data body CatalogSelectRequest true "Código e nome do modelo"
// @Security BearerAuth
// @Success 200 {object} WizardSessionView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /wizard/{id}/catalog/model [post]
func SelectCatalogModel(c *gin.Context) {
	var req CatalogSelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "corpo da requisição inválido"})
		return
	}

	session, ok := loadSession(c)
	if !ok {
		return
	}
	if session.Catalog.BrandCode == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "nenhuma marca selecionada"})
		return
	}

	session.SelectModel(req.Code, req.Name)
	if !saveSession(c, session) {
		return
	}
	c.JSON(http.StatusOK, sessionView(session))
}

// SelectCatalogYear godoc
// @Summary Selecionar ano e buscar avaliação
// @Description Grava o ano escolhido, consulta a avaliação de referência e a deixa pendente de confirmação. Uma avaliação que chega depois de outra consulta mais recente é descartada.
// @Tags wizard
// @Accept json
// @Produce json
// @Param id path string true "ID da sessão"
// @Param data body CatalogSelectRequest true "Código do ano"
// @Security BearerAuth
// @Success 200 {object} WizardSessionView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /wizard/{id}/catalog/year [post]
func SelectCatalogYear(c *gin.Context) {
	ctx, _, complete := utils.TraceOperation(c.Request.Context(), "wizard_valuation", nil)
	defer complete()

	var req CatalogSelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "corpo da requisição inválido"})
		return
	}

	session, ok := loadSession(c)
	if !ok {
		return
	}
	if session.Catalog.BrandCode == "" || session.Catalog.ModelCode == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "selecione marca e modelo antes"})
		return
	}

	session.SelectYear(req.Code)
	generation := session.BeginLookup("valuation")
	if !saveSession(c, session) {
		return
	}

	valuation, err := services.FIPEServiceInstance.Valuation(ctx,
		session.Catalog.BrandCode, session.Catalog.ModelCode, req.Code)
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}

	session, ok = loadSession(c)
	if !ok {
		return
	}
	if !session.LookupCurrent("valuation", generation) {
		c.JSON(http.StatusOK, sessionView(session))
		return
	}

	session.ApplyValuation(valuation)
	if !saveSession(c, session) {
		return
	}
	c.JSON(http.StatusOK, sessionView(session))
}

// ConfirmValuation godoc
// @Summary Confirmar avaliação
// @Description Grava o valor da avaliação pendente no rascunho do veículo
// @Tags wizard
// @Produce json
// @Param id path string true "ID da sessão"
// @Security BearerAuth
// @Success 200 {object} WizardSessionView
// @Failure 400 {object} models.ErrorResponse "Nenhuma avaliação pendente"
// @Failure 404 {object} models.ErrorResponse
// @Router /wizard/{id}/valuation/confirm [post]
func ConfirmValuation(c *gin.Context) {
	session, ok := loadSession(c)
	if !ok {
		return
	}

	if err := session.ConfirmValuation(); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if !saveSession(c, session) {
		return
	}
	c.JSON(http.StatusOK, sessionView(session))
}

// RejectValuation godoc
// @Summary Rejeitar avaliação
// @Description Descarta a avaliação pendente e limpa as seleções do catálogo
// @Tags wizard
// @Produce json
// @Param id path string true "ID da sessão"
// @Security BearerAuth
// @Success 200 {object} WizardSessionView
// @Failure 404 {object} models.ErrorResponse
// @Router /wizard/{id}/valuation/reject [post]
func RejectValuation(c *gin.Context) {
	session, ok := loadSession(c)
	if !ok {
		return
	}

	session.RejectValuation()
	if !saveSession(c, session) {
		return
	}
	c.JSON(http.StatusOK, sessionView(session))
}

// AttachWizardFile godoc
// @Summary Anexar arquivo
// @Description Preenche um dos anexos da cotação (cnh, crv ou nf). Um novo anexo substitui o anterior e recebe um novo preview_id.
// @Tags wizard
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "ID da sessão"
// @Param key path string true "Chave do anexo" Enums(cnh, crv, nf)
// @Param file formData file true "Arquivo"
// @Security BearerAuth
// @Success 200 {object} WizardSessionView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /wizard/{id}/attachments/{key} [post]
func AttachWizardFile(c *gin.Context) {
	key := c.Param("key")
	if !validAttachmentKey(key) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "chave de anexo desconhecida"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "arquivo ausente"})
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "falha ao ler arquivo"})
		return
	}
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "falha ao ler arquivo"})
		return
	}

	session, ok := loadSession(c)
	if !ok {
		return
	}

	session.Attach(key, header.Filename, header.Header.Get("Content-Type"), data)
	if !saveSession(c, session) {
		return
	}
	c.JSON(http.StatusOK, sessionView(session))
}

// DetachWizardFile godoc
// @Summary Remover anexo
// @Tags wizard
// @Produce json
// @Param id path string true "ID da sessão"
// @Param key path string true "Chave do anexo" Enums(cnh, crv, nf)
// @Security BearerAuth
// @Success 200 {object} WizardSessionView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /wizard/{id}/attachments/{key} [delete]
func DetachWizardFile(c *gin.Context) {
	key := c.Param("key")
	if !validAttachmentKey(key) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "chave de anexo desconhecida"})
		return
	}

	session, ok := loadSession(c)
	if !ok {
		return
	}

	session.Detach(key)
	if !saveSession(c, session) {
		return
	}
	c.JSON(http.StatusOK, sessionView(session))
}

func validAttachmentKey(key string) bool {
	for _, k := range models.AttachmentKeys {
		if k == key {
			return true
		}
	}
	return false
}

// SubmitWizard godoc
// @Summary Enviar a cotação montada no assistente
// @Description Envia o rascunho e os anexos da sessão ao endpoint de ingestão. Em caso de sucesso a sessão é encerrada.
// @Tags wizard
// @Produce json
// @Param id path string true "ID da sessão"
// @Security BearerAuth
// @Success 200 {object} models.IngestResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /wizard/{id}/submit [post]
func SubmitWizard(c *gin.Context) {
	ctx, _, complete := utils.TraceOperation(c.Request.Context(), "wizard_submit", nil)
	defer complete()

	session, ok := loadSession(c)
	if !ok {
		return
	}

	// Every step must be complete before the draft leaves the wizard
	for step := 0; step < wizard.StepCount; step++ {
		if !wizard.StepComplete(step, &session.Draft) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: wizard.ErrIncompleteStep.Error()})
			return
		}
	}

	files := make(map[string]quoteclient.File, len(session.Attachments))
	for key, a := range session.Attachments {
		files[key] = quoteclient.File{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Data:        a.Data,
		}
	}

	resp, err := submitClient.Submit(ctx, bearerToken(c), defaultQuoteType, session.Draft, files)
	if err != nil {
		observability.Logger().Warn("wizard submission failed",
			zap.String("session_id", session.ID),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := wizardStore.Delete(c.Request.Context(), session.ID); err != nil {
		observability.Logger().Warn("failed to delete submitted wizard session",
			zap.String("session_id", session.ID),
			zap.Error(err))
	}

	c.JSON(http.StatusOK, resp)
}

// bearerToken returns the raw bearer token; the auth middleware already
// guaranteed the header shape
func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
