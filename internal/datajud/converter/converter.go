package converter

import (
	"errors"
	"strings"

	"github.com/farxc/datajud_wrapper/internal/datajud/movements"
	"github.com/farxc/datajud_wrapper/internal/datajud/types"
	"github.com/farxc/datajud_wrapper/internal/datajud/utils"
	"github.com/go-gota/gota/dataframe"
)

var (
	ErrCaseNotFound            = errors.New("case not found")
	ErrLookupFallbackExhausted = errors.New("no lookup result carries a movement list")
)

// CandidateSlots is the order in which lookup hits are tried for the
// movement history. Metadata always comes from slot 0.
var CandidateSlots = []int{1, 0}

// LookupResult is either Found, carrying the selected hit and its slot,
// or empty.
type LookupResult struct {
	Found bool
	Slot  int
	Hit   types.Hit
}

// FirstUsableResult returns the first candidate slot whose hit exists and
// has a movement list.
func FirstUsableResult(hits []types.Hit) LookupResult {
	for _, slot := range CandidateSlots {
		if slot < 0 || slot >= len(hits) {
			continue
		}
		if hits[slot].Source.Movimentos != nil {
			return LookupResult{Found: true, Slot: slot, Hit: hits[slot]}
		}
	}
	return LookupResult{}
}

// ResolveCase builds the queried case from a lookup response. It returns
// ErrCaseNotFound when there are no hits, and the case together with
// ErrLookupFallbackExhausted when no slot had movements. The latter is
// not fatal: the case comes back with an empty movement list.
func ResolveCase(hits []types.Hit) (types.Case, LookupResult, error) {
	if len(hits) == 0 {
		return types.Case{}, LookupResult{}, ErrCaseNotFound
	}

	c := HitToCase(hits[0])
	result := FirstUsableResult(hits)
	if !result.Found {
		c.Movements = []types.Movement{}
		return c, result, ErrLookupFallbackExhausted
	}

	c.Movements = ToMovements(*result.Hit.Source.Movimentos)
	return c, result, nil
}

// HitToCase maps the metadata of a hit. Movements are left to the caller.
func HitToCase(hit types.Hit) types.Case {
	src := hit.Source
	c := types.Case{
		Number:     utils.NormalizeCaseNumber(src.NumeroProcesso),
		FilingDate: utils.ParseTimestampOrZero(src.DataAjuizamento),
		LastUpdate: utils.ParseTimestampOrZero(src.DataHoraUltimaAtualizacao),
		Degree:     src.Grau,
		Subjects:   subjectNames(src.Assuntos),
	}
	if src.Classe != nil {
		c.Class = src.Classe.Nome
	}
	if src.Formato != nil {
		c.Format = src.Formato.Nome
	}
	if src.OrgaoJulgador != nil {
		c.UnitCode = src.OrgaoJulgador.Codigo.String()
		c.UnitName = src.OrgaoJulgador.Nome
		c.MunicipalityCode = src.OrgaoJulgador.CodigoMunicipioIBGE.String()
	}
	return c
}

func ToMovements(raw []types.RawMovement) []types.Movement {
	out := make([]types.Movement, 0, len(raw))
	for _, m := range raw {
		mv := types.Movement{
			Timestamp: utils.ParseTimestampOrZero(m.DataHora),
			RawDate:   m.DataHora,
			Name:      m.Nome,
		}
		for _, c := range m.ComplementosTabelados {
			mv.Complements = append(mv.Complements, types.Complement{
				Description: c.Descricao,
				Name:        c.Nome,
			})
		}
		out = append(out, mv)
	}
	return out
}

// HitToCohortRecord flattens a cohort hit. The latest movement supplies
// the status and the last-movement timestamp.
func HitToCohortRecord(hit types.Hit) types.CohortRecord {
	src := hit.Source
	rec := types.CohortRecord{
		NumeroProcesso:    optional(utils.NormalizeCaseNumber(src.NumeroProcesso)),
		DataAjuizamento:   optional(src.DataAjuizamento),
		UltimaAtualizacao: optional(src.DataHoraUltimaAtualizacao),
		Grau:              optional(src.Grau),
	}
	if src.Classe != nil {
		rec.Classe = optional(src.Classe.Nome)
	}
	if names := subjectNames(src.Assuntos); len(names) > 0 {
		rec.Assunto = optional(strings.Join(names, ", "))
	}
	if src.Formato != nil {
		rec.Formato = optional(src.Formato.Nome)
	}
	if src.OrgaoJulgador != nil {
		rec.Codigo = optional(src.OrgaoJulgador.Codigo.String())
		rec.OrgaoJulgador = optional(src.OrgaoJulgador.Nome)
		rec.Municipio = optional(src.OrgaoJulgador.CodigoMunicipioIBGE.String())
	}
	if src.Movimentos != nil {
		ms := ToMovements(*src.Movimentos)
		rec.Movimentos = len(ms)
		if latest, ok := movements.Latest(ms); ok {
			rec.Situacao = optional(latest.Name)
			rec.UltimoMov = optional(latest.RawDate)
		}
	}
	return rec
}

// DfRowToCohortRow reads a cleaned cohort row. Date cells hold RFC 3339 UTC text.
func DfRowToCohortRow(df dataframe.DataFrame, rowIdx int) types.CohortRow {
	return types.CohortRow{
		Number:       utils.GetStr(types.ColNumeroProcesso, rowIdx, &df),
		Class:        utils.GetStr(types.ColClasse, rowIdx, &df),
		Subject:      utils.GetStr(types.ColAssunto, rowIdx, &df),
		FilingDate:   utils.ParseTimestampOrZero(utils.GetStr(types.ColDataAjuizamento, rowIdx, &df)),
		LastUpdate:   utils.ParseTimestampOrZero(utils.GetStr(types.ColUltimaAtualizacao, rowIdx, &df)),
		Format:       utils.GetStr(types.ColFormato, rowIdx, &df),
		UnitCode:     utils.GetStr(types.ColCodigo, rowIdx, &df),
		UnitName:     utils.GetStr(types.ColOrgaoJulgador, rowIdx, &df),
		Municipality: utils.GetStr(types.ColMunicipio, rowIdx, &df),
		Degree:       utils.GetStr(types.ColGrau, rowIdx, &df),
		Movements:    utils.GetInt(types.ColMovimentos, rowIdx, &df),
		Status:       utils.GetStr(types.ColSituacao, rowIdx, &df),
		LastMovement: utils.ParseTimestampOrZero(utils.GetStr(types.ColUltimoMov, rowIdx, &df)),
	}
}

func subjectNames(assuntos []types.Named) []string {
	names := make([]string, 0, len(assuntos))
	for _, a := range assuntos {
		if n := strings.TrimSpace(a.Nome); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
