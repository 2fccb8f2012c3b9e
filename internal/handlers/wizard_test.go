package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hmon-seguros/quote-api/internal/logging"
	"github.com/hmon-seguros/quote-api/internal/middleware"
	"github.com/hmon-seguros/quote-api/internal/models"
	"github.com/hmon-seguros/quote-api/internal/quoteclient"
	"github.com/hmon-seguros/quote-api/internal/services"
	"github.com/hmon-seguros/quote-api/internal/utils/httpclient"
	"github.com/hmon-seguros/quote-api/internal/wizard"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wizCache is an in-memory wizard.Cache
type wizCache struct {
	values map[string][]byte
}

func newWizCache() *wizCache {
	return &wizCache{values: make(map[string][]byte)}
}

func (c *wizCache) Get(ctx context.Context, key string) *redis.StringCmd {
	value, ok := c.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(value), nil)
}

func (c *wizCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		c.values[key] = v
	case string:
		c.values[key] = []byte(v)
	}
	return redis.NewStatusResult("OK", nil)
}

func (c *wizCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := c.values[key]; ok {
			delete(c.values, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

type wizardTestEnv struct {
	router *gin.Engine
	cache  *wizCache
	quotes *memQuoteStore
	server *httptest.Server
	token  string
}

// newWizardTestEnv wires the wizard routes plus a live ingestion endpoint so
// the submit step exercises the real pipeline
func newWizardTestEnv(t *testing.T) *wizardTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &wizardTestEnv{
		cache:  newWizCache(),
		quotes: newMemQuoteStore(),
		token:  buildToken(t, map[string]interface{}{"sub": "user-1", "email": "maria@example.com"}),
	}

	services.QuoteServiceInstance = services.NewQuoteService(
		env.quotes, &memAccountStore{}, newMemStorage(), 600*time.Second, &logging.SafeLogger{})

	router := gin.New()
	v1 := router.Group("/v1", middleware.AuthMiddleware())
	v1.POST("/quotes", SubmitQuote)
	v1.POST("/wizard", CreateWizardSession)
	v1.GET("/wizard/:id", GetWizardSession)
	v1.DELETE("/wizard/:id", DeleteWizardSession)
	v1.PUT("/wizard/:id/field", SetWizardField)
	v1.POST("/wizard/:id/advance", AdvanceWizard)
	v1.POST("/wizard/:id/retreat", RetreatWizard)
	v1.POST("/wizard/:id/reset", ResetWizard)
	v1.POST("/wizard/:id/cep", LookupWizardCEP)
	v1.GET("/wizard/:id/catalog/brands", ListCatalogBrands)
	v1.GET("/wizard/:id/catalog/models", ListCatalogModels)
	v1.GET("/wizard/:id/catalog/years", ListCatalogYears)
	v1.POST("/wizard/:id/catalog/brand", SelectCatalogBrand)
	v1.POST("/wizard/:id/catalog/model", SelectCatalogModel)
	v1.POST("/wizard/:id/catalog/year", SelectCatalogYear)
	v1.POST("/wizard/:id/valuation/confirm", ConfirmValuation)
	v1.POST("/wizard/:id/valuation/reject", RejectValuation)
	v1.POST("/wizard/:id/attachments/:key", AttachWizardFile)
	v1.DELETE("/wizard/:id/attachments/:key", DetachWizardFile)
	v1.POST("/wizard/:id/submit", SubmitWizard)
	env.router = router

	env.server = httptest.NewServer(router)
	t.Cleanup(env.server.Close)

	InitWizardHandlers(
		wizard.NewStore(env.cache, time.Hour),
		quoteclient.NewClient(env.server.URL, httpclient.NewHTTPClientPool(2), &logging.SafeLogger{}),
	)

	return env
}

func (e *wizardTestEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *wizardTestEnv) createSession(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/v1/wizard", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var view WizardSessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.NotEmpty(t, view.ID)
	return view.ID
}

func (e *wizardTestEnv) setField(t *testing.T, id, path, value string) {
	t.Helper()
	w := e.do(t, http.MethodPut, "/v1/wizard/"+id+"/field", WizardFieldRequest{Path: path, Value: value})
	require.Equal(t, http.StatusOK, w.Code, "set %s: %s", path, w.Body.String())
}

func TestWizard_CreateAndGet(t *testing.T) {
	env := newWizardTestEnv(t)
	id := env.createSession(t)

	w := env.do(t, http.MethodGet, "/v1/wizard/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view WizardSessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 0, view.Step)
	assert.Equal(t, wizard.StepCount, view.StepCount)
	assert.False(t, view.Complete)
}

func TestWizard_SessionNotFound(t *testing.T) {
	env := newWizardTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/wizard/desconhecida", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWizard_SetFieldAppliesMask(t *testing.T) {
	env := newWizardTestEnv(t)
	id := env.createSession(t)

	w := env.do(t, http.MethodPut, "/v1/wizard/"+id+"/field",
		WizardFieldRequest{Path: "celular", Value: "21999887766"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp WizardFieldResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "(21) 99988-7766", resp.Value)
}

func TestWizard_SetFieldReportsCPFValidity(t *testing.T) {
	env := newWizardTestEnv(t)
	id := env.createSession(t)

	w := env.do(t, http.MethodPut, "/v1/wizard/"+id+"/field",
		WizardFieldRequest{Path: "cpf", Value: "12345678900"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp WizardFieldResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Valid)
	assert.False(t, *resp.Valid, "check digits do not match")

	w = env.do(t, http.MethodPut, "/v1/wizard/"+id+"/field",
		WizardFieldRequest{Path: "cpf", Value: "11144477735"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "111.444.777-35", resp.Value)
	require.NotNil(t, resp.Valid)
	assert.True(t, *resp.Valid)

	// Fields without a validator carry no flag
	w = env.do(t, http.MethodPut, "/v1/wizard/"+id+"/field",
		WizardFieldRequest{Path: "nomeCompleto", Value: "Maria Silva"})
	require.Equal(t, http.StatusOK, w.Code)
	resp = WizardFieldResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Valid)
}

func TestWizard_AdvanceBlockedByInvalidCPF(t *testing.T) {
	env := newWizardTestEnv(t)
	id := env.createSession(t)

	for path, value := range map[string]string{
		"email":               "maria@example.com",
		"celular":             "21999887766",
		"cpf":                 "12345678900",
		"nomeCompleto":        "Maria Silva",
		"nascimento":          "01011990",
		"primeiraHabilitacao": "01012008",
		"cep":                 "20040030",
		"estadoCivil":         "solteiro",
	} {
		env.setField(t, id, path, value)
	}

	w := env.do(t, http.MethodPost, "/v1/wizard/"+id+"/advance", nil)
	require.Equal(t, http.StatusBadRequest, w.Code, "invalid CPF keeps the step incomplete")

	env.setField(t, id, "cpf", "11144477735")
	w = env.do(t, http.MethodPost, "/v1/wizard/"+id+"/advance", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestWizard_SetUnknownField(t *testing.T) {
	env := newWizardTestEnv(t)
	id := env.createSession(t)

	w := env.do(t, http.MethodPut, "/v1/wizard/"+id+"/field",
		WizardFieldRequest{Path: "outro.placa", Value: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWizard_AdvanceGatedByRequiredFields(t *testing.T) {
	env := newWizardTestEnv(t)
	id := env.createSession(t)

	w := env.do(t, http.MethodPost, "/v1/wizard/"+id+"/advance", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	for path, value := range map[string]string{
		"email":               "maria@example.com",
		"celular":             "21999887766",
		"cpf":                 "11144477735",
		"nomeCompleto":        "Maria Silva",
		"nascimento":          "01011990",
		"primeiraHabilitacao": "01012008",
		"cep":                 "20040030",
		"estadoCivil":         "solteiro",
	} {
		env.setField(t, id, path, value)
	}

	w = env.do(t, http.MethodPost, "/v1/wizard/"+id+"/advance", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view WizardSessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 1, view.Step)

	w = env.do(t, http.MethodPost, "/v1/wizard/"+id+"/retreat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 0, view.Step)
}

func TestWizard_CEPLookupAppliesAddress(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"cep":"20040-030","logradouro":"Rua da Assembleia","bairro":"Centro","localidade":"Rio de Janeiro","uf":"RJ"}`))
	}))
	defer provider.Close()
	services.CEPServiceInstance = services.NewCEPService(
		provider.URL, nil, time.Hour, httpclient.NewHTTPClientPool(2), &logging.SafeLogger{})

	env := newWizardTestEnv(t)
	id := env.createSession(t)
	env.setField(t, id, "cep", "20040030")

	w := env.do(t, http.MethodPost, "/v1/wizard/"+id+"/cep", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view WizardSessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "Rua da Assembleia", view.Draft.Logradouro)
	assert.Equal(t, "Centro", view.Draft.Bairro)
	assert.Equal(t, "Rio de Janeiro", view.Draft.Cidade)
	assert.Equal(t, "RJ", view.Draft.Estado)
}

func TestWizard_CEPNotFoundKeepsAddress(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"erro":true}`))
	}))
	defer provider.Close()
	services.CEPServiceInstance = services.NewCEPService(
		provider.URL, nil, time.Hour, httpclient.NewHTTPClientPool(2), &logging.SafeLogger{})

	env := newWizardTestEnv(t)
	id := env.createSession(t)
	env.setField(t, id, "logradouro", "Rua Antiga")
	env.setField(t, id, "cep", "99999999")

	w := env.do(t, http.MethodPost, "/v1/wizard/"+id+"/cep", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/v1/wizard/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view WizardSessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "Rua Antiga", view.Draft.Logradouro, "address untouched on a failed lookup")
}

func TestWizard_AttachAndDetach(t *testing.T) {
	env := newWizardTestEnv(t)
	id := env.createSession(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "cnh.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("cnh-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/wizard/"+id+"/attachments/cnh", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view WizardSessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Contains(t, view.Attachments, "cnh")
	assert.Equal(t, "cnh.jpg", view.Attachments["cnh"].Filename)
	assert.NotEmpty(t, view.Attachments["cnh"].PreviewID)

	w2 := env.do(t, http.MethodDelete, "/v1/wizard/"+id+"/attachments/cnh", nil)
	require.Equal(t, http.StatusOK, w2.Code)
	view = WizardSessionView{}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &view))
	assert.NotContains(t, view.Attachments, "cnh")

	w3 := env.do(t, http.MethodPost, "/v1/wizard/"+id+"/attachments/rg", nil)
	assert.Equal(t, http.StatusBadRequest, w3.Code, "unknown attachment key")
}

func fillCompleteDraft(t *testing.T, env *wizardTestEnv, id string) {
	t.Helper()
	for path, value := range map[string]string{
		"email":                  "maria@example.com",
		"celular":                "21999887766",
		"cpf":                    "11144477735",
		"nomeCompleto":           "Maria Silva",
		"nascimento":             "01011990",
		"primeiraHabilitacao":    "01012008",
		"cep":                    "20040030",
		"estadoCivil":            "solteiro",
		"residencia":             "casa",
		"portao":                 "automatico",
		"garagemTrabalho":        "sim",
		"estudante":              "nao",
		"usoVeiculo":             "passeio",
		"profissao":              "engenheira",
		"tipoSeguro":             "sim",
		"dadosVeiculo.placa":     "ABC1D23",
		"dadosVeiculo.marca":     "Fiat",
		"dadosVeiculo.modelo":    "Argo 1.0",
		"dadosVeiculo.anoModelo": "2022",
		"dadosVeiculo.alienado":  "nao",
	} {
		env.setField(t, id, path, value)
	}
}

func TestWizard_SubmitEndToEnd(t *testing.T) {
	env := newWizardTestEnv(t)
	id := env.createSession(t)
	fillCompleteDraft(t, env, id)

	w := env.do(t, http.MethodPost, "/v1/wizard/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	require.NotEmpty(t, resp.ID)

	stored := env.quotes.quotes[resp.ID]
	require.NotNil(t, stored)
	require.NotNil(t, stored.CustomerName)
	assert.Equal(t, "Maria Silva", *stored.CustomerName)
	require.NotNil(t, stored.VehicleYear)
	assert.Equal(t, 2022, *stored.VehicleYear)

	// The session is gone after a successful submission
	w = env.do(t, http.MethodGet, "/v1/wizard/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWizard_CatalogSelectionAndValuation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/carros/marcas", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"codigo":"21","nome":"Fiat"}]`))
	})
	mux.HandleFunc("/carros/marcas/21/modelos", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"modelos":[{"codigo":7940,"nome":"Argo 1.0"}]}`))
	})
	mux.HandleFunc("/carros/marcas/21/modelos/7940/anos/2022-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Valor":"R$ 68.790,00","Marca":"Fiat","Modelo":"Argo 1.0","AnoModelo":2022}`))
	})
	provider := httptest.NewServer(mux)
	defer provider.Close()
	services.FIPEServiceInstance = services.NewFIPEService(
		provider.URL, nil, time.Hour, httpclient.NewHTTPClientPool(2), &logging.SafeLogger{})

	env := newWizardTestEnv(t)
	id := env.createSession(t)

	w := env.do(t, http.MethodPost, "/v1/wizard/"+id+"/catalog/brand",
		CatalogSelectRequest{Code: "21", Name: "Fiat"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/v1/wizard/"+id+"/catalog/model",
		CatalogSelectRequest{Code: "7940", Name: "Argo 1.0"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/v1/wizard/"+id+"/catalog/year",
		CatalogSelectRequest{Code: "2022-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view WizardSessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.NotNil(t, view.Catalog.Valuation)
	assert.Equal(t, "R$ 68.790,00", view.Catalog.Valuation.Valor)
	assert.Equal(t, "2022", view.Draft.DadosVeiculo.AnoModelo)
	assert.Empty(t, view.Draft.DadosVeiculo.Valor, "value waits for confirmation")

	w = env.do(t, http.MethodPost, "/v1/wizard/"+id+"/valuation/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "R$ 68.790,00", view.Draft.DadosVeiculo.Valor)
}

func TestWizard_RejectValuationClearsSelections(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/carros/marcas/21/modelos/7940/anos/2022-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Valor":"R$ 68.790,00","Marca":"Fiat","Modelo":"Argo 1.0","AnoModelo":2022}`))
	})
	provider := httptest.NewServer(mux)
	defer provider.Close()
	services.FIPEServiceInstance = services.NewFIPEService(
		provider.URL, nil, time.Hour, httpclient.NewHTTPClientPool(2), &logging.SafeLogger{})

	env := newWizardTestEnv(t)
	id := env.createSession(t)

	env.do(t, http.MethodPost, "/v1/wizard/"+id+"/catalog/brand", CatalogSelectRequest{Code: "21", Name: "Fiat"})
	env.do(t, http.MethodPost, "/v1/wizard/"+id+"/catalog/model", CatalogSelectRequest{Code: "7940", Name: "Argo 1.0"})
	env.do(t, http.MethodPost, "/v1/wizard/"+id+"/catalog/year", CatalogSelectRequest{Code: "2022-1"})

	w := env.do(t, http.MethodPost, "/v1/wizard/"+id+"/valuation/reject", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view WizardSessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Empty(t, view.Catalog.BrandCode)
	assert.Empty(t, view.Draft.DadosVeiculo.Marca)
	assert.Empty(t, view.Draft.DadosVeiculo.Modelo)
	assert.Empty(t, view.Draft.DadosVeiculo.AnoModelo)
}

func TestWizard_SubmitIncompleteDraft(t *testing.T) {
	env := newWizardTestEnv(t)
	id := env.createSession(t)

	w := env.do(t, http.MethodPost, "/v1/wizard/"+id+"/submit", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.quotes.quotes)
}
