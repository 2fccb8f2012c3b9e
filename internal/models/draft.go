package models

// VehicleData holds the vehicle step of a quote draft. Field names follow the
// submitted payload format.
type VehicleData struct {
	ZeroKM        string `json:"zeroKm"`
	Faturado      string `json:"faturado"`
	PrevisaoSaida string `json:"previsaoSaida"`
	Placa         string `json:"placa"`
	Marca         string `json:"marca"`
	Modelo        string `json:"modelo"`
	AnoFabricacao string `json:"anoFabricacao"`
	AnoModelo     string `json:"anoModelo"`
	Renavam       string `json:"renavam"`
	Alienado      string `json:"alienado"`
	Cor           string `json:"cor"`
	TipoVeiculo   string `json:"tipoVeiculo"`
	Segmento      string `json:"segmento"`
	NumeroMotor   string `json:"numeroMotor"`
	Potencia      string `json:"potencia"`
	Cilindradas   string `json:"cilindradas"`
	Valor         string `json:"valor"`
}

// QuoteDraft is the in-progress form state of the auto quote wizard. All
// scalar fields are strings as typed by the customer; masks and validation
// are applied on top.
type QuoteDraft struct {
	// Dados pessoais
	Email               string `json:"email"`
	Celular             string `json:"celular"`
	CPF                 string `json:"cpf"`
	NomeCompleto        string `json:"nomeCompleto"`
	NrCNH               string `json:"nrCnh"`
	Nascimento          string `json:"nascimento"`
	PrimeiraHabilitacao string `json:"primeiraHabilitacao"`

	// Endereço
	CEP        string `json:"cep"`
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Cidade     string `json:"cidade"`
	Estado     string `json:"estado"`

	// Estado civil e cônjuge
	EstadoCivil                string `json:"estadoCivil"`
	ConjugeDirige              string `json:"conjugeDirige"`
	CNHConjuge                 string `json:"cnhConjuge"`
	CPFConjuge                 string `json:"cpfConjuge"`
	NomeConjuge                string `json:"nomeConjuge"`
	NascimentoConjuge          string `json:"nascimentoConjuge"`
	HabilitacaoConjuge         string `json:"habilitacaoConjuge"`
	PrimeiraHabilitacaoConjuge string `json:"primeiraHabilitacaoConjuge"`

	// Residência e uso do veículo
	Residencia      string `json:"residencia"`
	Portao          string `json:"portao"`
	GaragemTrabalho string `json:"garagemTrabalho"`
	Estudante       string `json:"estudante"`
	GaragemFaculdade string `json:"garagemFaculdade"`
	UsoVeiculo      string `json:"usoVeiculo"`
	FinUso          string `json:"finUso"`
	VisitaCliente   string `json:"visitaCliente"`
	VezesSemana     string `json:"vezesSemana"`

	// Seguro e perfil
	Profissao     string `json:"profissao"`
	TipoSeguro    string `json:"tipoSeguro"`
	Seguradora    string `json:"seguradora"`
	FimDeVigencia string `json:"fimDeVigencia"`
	NApolice      string `json:"nApolice"`
	NCI           string `json:"nCi"`
	NomeSeguradora string `json:"nomeSeguradora"`
	Bonus         string `json:"bonus"`
	Sinistro      string `json:"sinistro"`
	SinistroQtd   string `json:"sinistroQtd"`

	// Filhos
	TemFilhos               string `json:"temFilhos"`
	SexoFilhos              string `json:"sexoFilhos"`
	NascimentoFilhoMaisNovo string `json:"nascimentoFilhoMaisNovo"`

	// Indicação
	QuemIndicou string `json:"quemIndicou"`

	// Veículo
	DadosVeiculo VehicleData `json:"dadosVeiculo"`
}
