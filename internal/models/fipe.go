package models

// FIPEBrand is one entry of the vehicle brand catalog
type FIPEBrand struct {
	Codigo string `json:"codigo"`
	Nome   string `json:"nome"`
}

// FIPEModel is one vehicle model of a brand
type FIPEModel struct {
	Codigo interface{} `json:"codigo"`
	Nome   string      `json:"nome"`
}

// FIPEModelsResponse wraps the models listing of a brand
type FIPEModelsResponse struct {
	Modelos []FIPEModel `json:"modelos"`
}

// FIPEYear is one model year option
type FIPEYear struct {
	Codigo string `json:"codigo"`
	Nome   string `json:"nome"`
}

// FIPEValuation is the reference valuation of a brand/model/year combination
type FIPEValuation struct {
	Valor            string `json:"Valor"`
	Marca            string `json:"Marca"`
	Modelo           string `json:"Modelo"`
	AnoModelo        int    `json:"AnoModelo"`
	Combustivel      string `json:"Combustivel"`
	CodigoFipe       string `json:"CodigoFipe"`
	MesReferencia    string `json:"MesReferencia"`
	TipoVeiculo      int    `json:"TipoVeiculo"`
	SiglaCombustivel string `json:"SiglaCombustivel"`
}
