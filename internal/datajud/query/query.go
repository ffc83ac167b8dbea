package query

import "encoding/json"

// MaxCohortSize is the largest page the public endpoint serves in one response.
const MaxCohortSize = 10000

type SearchBody struct {
	Size  int            `json:"size,omitempty"`
	Query map[string]any `json:"query"`
	Sort  []SortClause   `json:"sort,omitempty"`
}

type SortClause map[string]SortOrder

type SortOrder struct {
	Order string `json:"order"`
}

// CaseByNumber matches a single case by its normalized number.
func CaseByNumber(numero string) SearchBody {
	return SearchBody{
		Query: map[string]any{
			"term": map[string]any{"numeroProcesso.keyword": numero},
		},
	}
}

// CasesByUnit matches every case of a judging unit, most recently filed first.
// size is clamped to (0, MaxCohortSize].
func CasesByUnit(unitCode string, size int) SearchBody {
	if size <= 0 || size > MaxCohortSize {
		size = MaxCohortSize
	}
	var code any = unitCode
	if n, err := json.Number(unitCode).Int64(); err == nil {
		code = n
	}
	return SearchBody{
		Size: size,
		Query: map[string]any{
			"match": map[string]any{"orgaoJulgador.codigo": code},
		},
		Sort: []SortClause{
			{"dataAjuizamento": SortOrder{Order: "desc"}},
		},
	}
}

func (b SearchBody) Marshal() ([]byte, error) {
	return json.Marshal(b)
}
