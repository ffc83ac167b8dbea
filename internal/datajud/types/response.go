package types

import "encoding/json"

// SearchResponse mirrors the Elasticsearch envelope returned by the
// DataJud public `_search` endpoint.
type SearchResponse struct {
	Took     int          `json:"took"`
	TimedOut bool         `json:"timed_out"`
	Hits     HitsEnvelope `json:"hits"`
}

type HitsEnvelope struct {
	Total HitsTotal `json:"total"`
	Hits  []Hit     `json:"hits"`
}

type HitsTotal struct {
	Value    int    `json:"value"`
	Relation string `json:"relation"`
}

type Hit struct {
	Index  string  `json:"_index"`
	ID     string  `json:"_id"`
	Score  float64 `json:"_score"`
	Source Source  `json:"_source"`
}

type Source struct {
	NumeroProcesso            string         `json:"numeroProcesso"`
	Tribunal                  string         `json:"tribunal"`
	Grau                      string         `json:"grau"`
	NivelSigilo               int            `json:"nivelSigilo"`
	DataAjuizamento           string         `json:"dataAjuizamento"`
	DataHoraUltimaAtualizacao string         `json:"dataHoraUltimaAtualizacao"`
	Classe                    *Named         `json:"classe"`
	Formato                   *Named         `json:"formato"`
	Sistema                   *Named         `json:"sistema"`
	OrgaoJulgador             *OrgaoJulgador `json:"orgaoJulgador"`
	Assuntos                  []Named        `json:"assuntos"`
	// Movimentos is nil when the field is absent from the record.
	Movimentos *[]RawMovement `json:"movimentos"`
}

type Named struct {
	Codigo json.Number `json:"codigo"`
	Nome   string      `json:"nome"`
}

type OrgaoJulgador struct {
	Codigo              json.Number `json:"codigo"`
	Nome                string      `json:"nome"`
	CodigoMunicipioIBGE json.Number `json:"codigoMunicipioIBGE"`
}

type RawMovement struct {
	Codigo                json.Number     `json:"codigo"`
	Nome                  string          `json:"nome"`
	DataHora              string          `json:"dataHora"`
	ComplementosTabelados []RawComplement `json:"complementosTabelados"`
}

type RawComplement struct {
	Codigo    json.Number `json:"codigo"`
	Valor     json.Number `json:"valor"`
	Nome      string      `json:"nome"`
	Descricao string      `json:"descricao"`
}
