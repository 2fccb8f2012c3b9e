package wizard

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hmon-seguros/quote-api/internal/models"
)

var (
	// ErrIncompleteStep blocks step advancement while required fields are empty
	ErrIncompleteStep = errors.New("preencha todos os campos obrigatórios")
	// ErrUnknownField is returned for a path that addresses no draft field
	ErrUnknownField = errors.New("campo desconhecido")
)

// Attachment is a file slot of the wizard session. Data round-trips through
// JSON as base64.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
	PreviewID   string `json:"preview_id"`
}

// CatalogSelection holds the transient vehicle-catalog state: selected codes
// and the valuation awaiting confirmation
type CatalogSelection struct {
	BrandCode string                `json:"brand_code"`
	ModelCode string                `json:"model_code"`
	YearCode  string                `json:"year_code"`
	Valuation *models.FIPEValuation `json:"valuation,omitempty"`
}

// Session is the serializable state of one in-progress quote wizard
type Session struct {
	ID          string                `json:"id"`
	Step        int                   `json:"step"`
	Draft       models.QuoteDraft     `json:"draft"`
	Touched     map[string]bool       `json:"touched"`
	Catalog     CatalogSelection      `json:"catalog"`
	Attachments map[string]Attachment `json:"attachments"`
	// Lookups holds a generation counter per lookup kind so a superseded
	// response can be recognized and discarded
	Lookups   map[string]uint64 `json:"lookups"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewSession creates an empty wizard session at the first step
func NewSession() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          uuid.NewString(),
		Touched:     make(map[string]bool),
		Attachments: make(map[string]Attachment),
		Lookups:     make(map[string]uint64),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Get returns the current value of a draft field by dotted path
func (s *Session) Get(path string) (string, error) {
	return GetField(&s.Draft, path)
}

// Set writes a draft field by dotted path, applying the field's input mask,
// and marks the field as touched. Sibling fields are never altered.
func (s *Session) Set(path, value string) error {
	if err := SetField(&s.Draft, path, applyMask(path, value)); err != nil {
		return err
	}
	s.Touched[path] = true
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Advance moves to the next step if the current step's required fields are
// complete. The step index never passes the last step.
func (s *Session) Advance() error {
	if !StepComplete(s.Step, &s.Draft) {
		return ErrIncompleteStep
	}
	if s.Step < StepCount-1 {
		s.Step++
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Retreat moves to the previous step unconditionally, floored at 0
func (s *Session) Retreat() {
	if s.Step > 0 {
		s.Step--
	}
	s.UpdatedAt = time.Now().UTC()
}

// Attach fills a file slot, releasing any previous attachment in it
func (s *Session) Attach(key, filename, contentType string, data []byte) {
	s.Detach(key)
	s.Attachments[key] = Attachment{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
		PreviewID:   uuid.NewString(),
	}
	s.UpdatedAt = time.Now().UTC()
}

// Detach clears a file slot and its preview reference
func (s *Session) Detach(key string) {
	delete(s.Attachments, key)
	s.UpdatedAt = time.Now().UTC()
}

// BeginLookup starts a new lookup of the given kind and returns its
// generation; any response carrying an older generation is stale
func (s *Session) BeginLookup(kind string) uint64 {
	s.Lookups[kind]++
	return s.Lookups[kind]
}

// LookupCurrent reports whether the generation still identifies the most
// recent lookup of its kind
func (s *Session) LookupCurrent(kind string, generation uint64) bool {
	return s.Lookups[kind] == generation
}

// ApplyAddress overwrites the address fields with a lookup result
func (s *Session) ApplyAddress(result *models.CEPResult) {
	s.Draft.Logradouro = result.Logradouro
	s.Draft.Bairro = result.Bairro
	s.Draft.Cidade = result.Localidade
	s.Draft.Estado = result.UF
	s.UpdatedAt = time.Now().UTC()
}

// SelectBrand records a brand selection and clears all downstream
// catalog state
func (s *Session) SelectBrand(code, name string) {
	s.Catalog = CatalogSelection{BrandCode: code}
	s.Draft.DadosVeiculo.Marca = name
	s.Draft.DadosVeiculo.Modelo = ""
	s.Draft.DadosVeiculo.AnoModelo = ""
	s.Draft.DadosVeiculo.Valor = ""
	s.UpdatedAt = time.Now().UTC()
}

// SelectModel records a model selection and clears the year and valuation
func (s *Session) SelectModel(code, name string) {
	s.Catalog.ModelCode = code
	s.Catalog.YearCode = ""
	s.Catalog.Valuation = nil
	s.Draft.DadosVeiculo.Modelo = name
	s.Draft.DadosVeiculo.AnoModelo = ""
	s.Draft.DadosVeiculo.Valor = ""
	s.UpdatedAt = time.Now().UTC()
}

// SelectYear records a model-year selection and clears any pending valuation
func (s *Session) SelectYear(code string) {
	s.Catalog.YearCode = code
	s.Catalog.Valuation = nil
	s.Draft.DadosVeiculo.Valor = ""
	s.UpdatedAt = time.Now().UTC()
}

// ApplyValuation stores a fetched valuation for confirmation and writes the
// resolved model year into the draft
func (s *Session) ApplyValuation(valuation *models.FIPEValuation) {
	s.Catalog.Valuation = valuation
	if valuation.AnoModelo != 0 {
		s.Draft.DadosVeiculo.AnoModelo = fmt.Sprintf("%d", valuation.AnoModelo)
	}
	s.UpdatedAt = time.Now().UTC()
}

// ConfirmValuation writes the pending valuation into the draft's vehicle
// value field
func (s *Session) ConfirmValuation() error {
	if s.Catalog.Valuation == nil {
		return errors.New("nenhuma avaliação pendente")
	}
	s.Draft.DadosVeiculo.Valor = s.Catalog.Valuation.Valor
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// RejectValuation discards the pending valuation and clears the catalog
// selections and the draft's brand/model/year/value fields
func (s *Session) RejectValuation() {
	s.Catalog = CatalogSelection{}
	s.Draft.DadosVeiculo.Marca = ""
	s.Draft.DadosVeiculo.Modelo = ""
	s.Draft.DadosVeiculo.AnoModelo = ""
	s.Draft.DadosVeiculo.Valor = ""
	s.UpdatedAt = time.Now().UTC()
}

// Reset clears the draft and returns the wizard to the first step. The
// session id is kept.
func (s *Session) Reset() {
	s.Step = 0
	s.Draft = models.QuoteDraft{}
	s.Touched = make(map[string]bool)
	s.Catalog = CatalogSelection{}
	s.Attachments = make(map[string]Attachment)
	s.UpdatedAt = time.Now().UTC()
}

// field index built once from the draft's JSON tags; a one-level dotted path
// addresses the nested vehicle object, all other names are top-level
var (
	draftFieldIndex   = buildFieldIndex(reflect.TypeOf(models.QuoteDraft{}))
	vehicleFieldIndex = buildFieldIndex(reflect.TypeOf(models.VehicleData{}))
)

func buildFieldIndex(t reflect.Type) map[string]int {
	index := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := strings.Split(field.Tag.Get("json"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}
		if field.Type.Kind() != reflect.String {
			continue
		}
		index[tag] = i
	}
	return index
}

// GetField reads a draft field by dotted path
func GetField(draft *models.QuoteDraft, path string) (string, error) {
	prefix, rest, nested := strings.Cut(path, ".")
	if nested {
		if prefix != "dadosVeiculo" {
			return "", fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		i, ok := vehicleFieldIndex[rest]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		return reflect.ValueOf(&draft.DadosVeiculo).Elem().Field(i).String(), nil
	}

	i, ok := draftFieldIndex[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	return reflect.ValueOf(draft).Elem().Field(i).String(), nil
}

// SetField writes a draft field by dotted path
func SetField(draft *models.QuoteDraft, path, value string) error {
	prefix, rest, nested := strings.Cut(path, ".")
	if nested {
		if prefix != "dadosVeiculo" {
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		i, ok := vehicleFieldIndex[rest]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		reflect.ValueOf(&draft.DadosVeiculo).Elem().Field(i).SetString(value)
		return nil
	}

	i, ok := draftFieldIndex[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	reflect.ValueOf(draft).Elem().Field(i).SetString(value)
	return nil
}
