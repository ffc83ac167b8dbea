package types

import "time"

// Cohort table column names. They double as spreadsheet headers.
const (
	ColNumeroProcesso    = "numero_processo"
	ColClasse            = "classe"
	ColAssunto           = "assunto"
	ColDataAjuizamento   = "data_ajuizamento"
	ColUltimaAtualizacao = "ultima_atualizacao"
	ColFormato           = "formato"
	ColCodigo            = "codigo"
	ColOrgaoJulgador     = "orgao_julgador"
	ColMunicipio         = "municipio"
	ColGrau              = "grau"
	ColMovimentos        = "movimentos"
	ColSituacao          = "situacao"
	ColUltimoMov         = "ultimo_mov"
	ColContagemDias      = "contagem_dias"
	ColJulgado           = "julgado"
)

// CohortColumns is the column order of the raw cohort table.
var CohortColumns = []string{
	ColNumeroProcesso,
	ColClasse,
	ColAssunto,
	ColDataAjuizamento,
	ColUltimaAtualizacao,
	ColFormato,
	ColCodigo,
	ColOrgaoJulgador,
	ColMunicipio,
	ColGrau,
	ColMovimentos,
	ColSituacao,
	ColUltimoMov,
}

// Movement-sheet column names.
const (
	ColMovData      = "data"
	ColMovDescricao = "descricao_movimento"
	ColMovTipo      = "tipo"
	ColMovNomeTipo  = "nome_tipo"
)

var MovementColumns = []string{ColMovData, ColMovDescricao, ColMovTipo, ColMovNomeTipo}

const (
	FormatoFisico     = "físico"
	FormatoEletronico = "eletrônico"
)

type Complement struct {
	Description string
	Name        string
}

type Movement struct {
	Timestamp   time.Time
	RawDate     string
	Name        string
	Complements []Complement
}

// MovementRow is one flattened movement. ComplementType and ComplementName
// are nil when the movement carried no complement.
type MovementRow struct {
	Timestamp      time.Time
	Description    string
	ComplementType *string
	ComplementName *string
}

// Case is the queried case with the metadata needed to pivot on its unit.
type Case struct {
	Number           string
	Class            string
	Subjects         []string
	FilingDate       time.Time
	LastUpdate       time.Time
	Format           string
	UnitCode         string
	UnitName         string
	Degree           string
	MunicipalityCode string
	Movements        []Movement
}

// FirstSubject returns the primary subject or "" when none is listed.
func (c Case) FirstSubject() string {
	if len(c.Subjects) == 0 {
		return ""
	}
	return c.Subjects[0]
}

// CohortRecord is one cohort hit flattened for the table builder.
// Pointer fields are nil when the source lacked the value.
type CohortRecord struct {
	NumeroProcesso    *string
	Classe            *string
	Assunto           *string
	DataAjuizamento   *string
	UltimaAtualizacao *string
	Formato           *string
	Codigo            *string
	OrgaoJulgador     *string
	Municipio         *string
	Grau              *string
	Movimentos        int
	Situacao          *string
	UltimoMov         *string
}

// CohortRow is a cleaned cohort row. ElapsedDays and Judged are filled
// by the metrics stage.
type CohortRow struct {
	Number       string
	Class        string
	Subject      string
	FilingDate   time.Time
	LastUpdate   time.Time
	Format       string
	UnitCode     string
	UnitName     string
	Municipality string
	Degree       string
	Movements    int
	Status       string
	LastMovement time.Time
	ElapsedDays  int
	Judged       bool
}
