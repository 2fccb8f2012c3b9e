package models

import "time"

// Quote statuses
const (
	QuoteStatusSubmitted = "submitted"
)

// Attachment keys recognized by the ingestion endpoint, in upload order
var AttachmentKeys = []string{"cnh", "crv", "nf"}

// AttachmentFormFields maps each attachment key to its multipart form field
var AttachmentFormFields = map[string]string{
	"cnh": "imagemCnh",
	"crv": "imagemCrv",
	"nf":  "imagemNF",
}

// QuoteRecord is a stored quote: summary columns for listing plus the full
// submitted payload under data
type QuoteRecord struct {
	ID            string                 `bson:"_id" json:"id"`
	AccountID     string                 `bson:"account_id" json:"account_id"`
	CreatedBy     string                 `bson:"created_by" json:"created_by"`
	Type          string                 `bson:"type" json:"type"`
	Status        string                 `bson:"status" json:"status"`
	CustomerName  *string                `bson:"customer_name" json:"customer_name"`
	CustomerCPF   *string                `bson:"customer_cpf" json:"customer_cpf"`
	CustomerEmail *string                `bson:"customer_email" json:"customer_email"`
	CustomerPhone *string                `bson:"customer_phone" json:"customer_phone"`
	VehiclePlate  *string                `bson:"vehicle_plate" json:"vehicle_plate"`
	VehicleBrand  *string                `bson:"vehicle_brand" json:"vehicle_brand"`
	VehicleModel  *string                `bson:"vehicle_model" json:"vehicle_model"`
	VehicleYear   *int                   `bson:"vehicle_year" json:"vehicle_year"`
	Data          map[string]interface{} `bson:"data" json:"data"`
	CreatedAt     time.Time              `bson:"created_at" json:"created_at"`
}

// Uploads returns the attachment key→path map stored in the payload, if any
func (q *QuoteRecord) Uploads() map[string]string {
	uploads := make(map[string]string)
	raw, ok := q.Data["uploads"].(map[string]interface{})
	if !ok {
		return uploads
	}
	for k, v := range raw {
		if path, ok := v.(string); ok {
			uploads[k] = path
		}
	}
	return uploads
}

// QuoteListUploads carries signed attachment URLs for a listed quote; absent
// attachments are null
type QuoteListUploads struct {
	CNHURL *string `json:"cnhUrl"`
	CRVURL *string `json:"crvUrl"`
	NFURL  *string `json:"nfUrl"`
}

// QuoteListItem is one entry of the list endpoint response
type QuoteListItem struct {
	ID           string           `json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	Status       string           `json:"status"`
	Type         string           `json:"type"`
	CustomerName *string          `json:"customer_name"`
	VehiclePlate *string          `json:"vehicle_plate"`
	VehicleModel *string          `json:"vehicle_model"`
	Uploads      QuoteListUploads `json:"uploads"`
}

// QuoteListResponse wraps the list endpoint items
type QuoteListResponse struct {
	Items []QuoteListItem `json:"items"`
}

// IngestResponse is returned on a successful quote submission
type IngestResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}
