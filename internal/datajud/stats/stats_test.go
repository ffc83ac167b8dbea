package stats

import (
	"testing"
	"time"

	"github.com/farxc/datajud_wrapper/internal/datajud/cohort"
	"github.com/farxc/datajud_wrapper/internal/datajud/types"
)

func utc(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func row(number, class, subject, status string, filed, last time.Time) types.CohortRow {
	return types.CohortRow{
		Number:       number,
		Class:        class,
		Subject:      subject,
		Status:       status,
		Format:       "eletrônico",
		FilingDate:   filed,
		LastMovement: last,
	}
}

func TestIsJudged(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"Baixa Definitiva por Arquivamento", true},
		{"PROCEDÊNCIA EM PARTE", true},
		{"Julgada improcedência do pedido", true},
		{"Trânsito em julgado definitivo", true},
		{"Conclusão", false},
		{"em andamento", false},
		{"", false},
		{"   ", false},
	}
	for _, tt := range tests {
		if got := IsJudged(tt.status); got != tt.want {
			t.Errorf("IsJudged(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestTerminalStatusKeywords_Ordered(t *testing.T) {
	kw := TerminalStatusKeywords.Keywords
	if len(kw) != 13 || kw[0] != "definitivo" || kw[len(kw)-1] != "abandono da causa" {
		t.Fatalf("unexpected keyword list %v", kw)
	}
	if TerminalStatusKeywords.Version == "" || TerminalStatusKeywords.Name == "" {
		t.Fatalf("keyword set must be named and versioned")
	}
}

func TestElapsedDays_JudgedIgnoresNow(t *testing.T) {
	filed := utc(2020, 1, 1)
	last := utc(2020, 6, 1).Add(23 * time.Hour)

	for _, now := range []time.Time{utc(2021, 1, 1), utc(2030, 1, 1)} {
		if got := ElapsedDays(filed, last, true, now); got != 152 {
			t.Fatalf("judged elapsed days = %d, want 152", got)
		}
	}
}

func TestElapsedDays_PendingMonotoneInNow(t *testing.T) {
	filed := utc(2021, 1, 1)
	prev := -1
	for _, now := range []time.Time{utc(2021, 1, 1), utc(2021, 1, 1).Add(12 * time.Hour), utc(2021, 3, 1), utc(2024, 1, 1)} {
		got := ElapsedDays(filed, time.Time{}, false, now)
		if got < prev {
			t.Fatalf("pending elapsed days decreased: %d -> %d", prev, got)
		}
		prev = got
	}
	if got := ElapsedDays(filed, time.Time{}, false, utc(2021, 1, 11)); got != 10 {
		t.Fatalf("expected 10 days, got %d", got)
	}
}

func TestElapsedDays_NormalizesZones(t *testing.T) {
	recife := time.FixedZone("BRT", -3*3600)
	filed := time.Date(2020, 1, 1, 21, 0, 0, 0, recife) // 2020-01-02T00:00Z
	last := utc(2020, 1, 12)
	if got := ElapsedDays(filed, last, true, time.Time{}); got != 10 {
		t.Fatalf("expected 10 days across zones, got %d", got)
	}
}

func TestGroupAverages_JudgedOnlyTruncated(t *testing.T) {
	rows := Derive([]types.CohortRow{
		row("1", "classe a", "dano moral", "baixa definitiva", utc(2020, 1, 1), utc(2020, 1, 11)), // 10
		row("2", "classe a", "dano moral", "procedência", utc(2020, 1, 1), utc(2020, 1, 12)),      // 11
		row("3", "classe b", "bancários", "baixa", utc(2020, 1, 1), utc(2020, 1, 31)),             // 30
		row("4", "classe a", "dano moral", "conclusão", utc(2019, 1, 1), time.Time{}),             // pending
	}, utc(2024, 1, 1))

	got, err := GroupAverages(rows, types.ColAssunto)
	if err != nil {
		t.Fatalf("group averages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %+v", got)
	}
	if got[0].Name != "bancários" || got[0].AverageDays != 30 {
		t.Fatalf("expected bancários first, got %+v", got[0])
	}
	if got[1].Name != "dano moral" || got[1].AverageDays != 10 || got[1].Count != 2 {
		t.Fatalf("expected truncated mean 10 over 2 judged rows, got %+v", got[1])
	}
}

func TestGroupAverages_NoJudgedRows(t *testing.T) {
	rows := Derive([]types.CohortRow{row("1", "c", "s", "conclusão", utc(2020, 1, 1), time.Time{})}, utc(2021, 1, 1))
	got, err := GroupAverages(rows, types.ColClasse)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty averages, got %+v err=%v", got, err)
	}
}

func TestTopGroupAverages_LimitsToMostFrequent(t *testing.T) {
	var rows []types.CohortRow
	// subject "s00" appears once, "s01" twice, ... "s19" twenty times.
	for i := 0; i < 20; i++ {
		name := "s" + string(rune('0'+i/10)) + string(rune('0'+i%10))
		for j := 0; j <= i; j++ {
			rows = append(rows, row(name+"-"+string(rune('a'+j%26)), "c", name, "baixa", utc(2020, 1, 1), utc(2020, 1, 1).AddDate(0, 0, 100-i)))
		}
	}
	rows = Derive(rows, utc(2024, 1, 1))

	top, err := TopGroupAverages(rows, types.ColAssunto, TopN)
	if err != nil {
		t.Fatalf("top averages: %v", err)
	}
	if len(top) != TopN {
		t.Fatalf("expected %d groups, got %d", TopN, len(top))
	}
	for _, g := range top {
		if g.Name < "s05" {
			t.Fatalf("infrequent subject %q should not be in top", g.Name)
		}
	}
	for i := 1; i < len(top); i++ {
		if top[i].AverageDays > top[i-1].AverageDays {
			t.Fatalf("top averages not sorted descending")
		}
	}
}

func TestYearlyComparison_ZeroFillAndInvariant(t *testing.T) {
	rows := Derive([]types.CohortRow{
		row("1", "c", "s", "baixa", utc(2019, 5, 1), utc(2020, 1, 1)),
		row("2", "c", "s", "conclusão", utc(2019, 6, 1), time.Time{}),
		row("3", "c", "s", "conclusão", utc(2021, 6, 1), time.Time{}),
		row("4", "c", "s", "procedência", utc(2021, 7, 1), utc(2022, 1, 1)),
		row("5", "c", "s", "conclusão", utc(2022, 7, 1), time.Time{}),
	}, utc(2024, 1, 1))

	got, err := YearlyComparison(rows)
	if err != nil {
		t.Fatalf("yearly: %v", err)
	}
	want := []YearCount{{2019, 2, 1}, {2021, 2, 1}, {2022, 1, 0}}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: got %+v, want %+v", i, got[i], want[i])
		}
		if got[i].Filed < got[i].Judged {
			t.Fatalf("filed < judged for %d", got[i].Year)
		}
	}
}

func TestSummarize(t *testing.T) {
	rows := []types.CohortRow{
		row("1", "c", "s", "baixa", utc(2019, 1, 1), utc(2019, 1, 11)),
		row("2", "c", "s", "conclusão", utc(2018, 1, 1), time.Time{}),
		row("3", "c", "s", "conclusão", utc(2020, 1, 1), time.Time{}),
		row("4", "c", "s", "procedência", utc(2020, 1, 1), utc(2020, 1, 31)),
	}
	rows[0].Format = "físico"
	rows = Derive(rows, utc(2021, 1, 1))

	s := Summarize(rows)
	if s.Total != 4 || s.Judged != 2 || s.Pending != 2 {
		t.Fatalf("unexpected counts %+v", s)
	}
	if s.JudgedPct != 50 || s.PhysicalPct != 25 {
		t.Fatalf("unexpected percentages %+v", s)
	}
	if s.MeanDaysToJudge != 20 {
		t.Fatalf("expected mean time-to-judge 20, got %v", s.MeanDaysToJudge)
	}
	if s.OldestCase.Number != "2" || s.OldestJudged.Number != "1" || s.OldestPending.Number != "2" {
		t.Fatalf("unexpected oldest cases %+v %+v %+v", s.OldestCase, s.OldestJudged, s.OldestPending)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.OldestCase != nil || s.JudgedPct != 0 {
		t.Fatalf("unexpected empty summary %+v", s)
	}
}

func ptr(s string) *string { return &s }

func cohortRecord(numero, situacao, filed, last string) types.CohortRecord {
	rec := types.CohortRecord{
		NumeroProcesso:    ptr(numero),
		Classe:            ptr("Procedimento Comum Cível"),
		Assunto:           ptr("Indenização por Dano Moral"),
		DataAjuizamento:   ptr(filed),
		UltimaAtualizacao: ptr(last),
		Formato:           ptr("Eletrônico"),
		Codigo:            ptr("5043"),
		OrgaoJulgador:     ptr("1ª Vara Cível"),
		UltimoMov:         ptr(last),
	}
	if situacao != "" {
		rec.Situacao = ptr(situacao)
	}
	return rec
}

func TestCompute_EndToEndScenario(t *testing.T) {
	now := utc(2024, 3, 15)
	df := cohort.Build([]types.CohortRecord{
		cohortRecord("A", "Procedência", "2020-01-01T00:00:00Z", "2020-06-01T00:00:00Z"),
		cohortRecord("B", "em andamento", "2021-01-01T00:00:00Z", "2021-02-01T00:00:00Z"),
		cohortRecord("C", "", "2021-01-01T00:00:00Z", "2021-02-01T00:00:00Z"),
	})
	cleaned, err := cohort.Normalize(df, cohort.Options{})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(cleaned.Rows) != 2 || cleaned.Dropped != 1 {
		t.Fatalf("expected cohort size 2 after dropping missing status, got %d", len(cleaned.Rows))
	}

	m, err := Compute(cleaned.Rows, "A", now)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	byNumber := map[string]types.CohortRow{}
	for _, r := range m.Rows {
		byNumber[r.Number] = r
	}
	if a := byNumber["A"]; !a.Judged || a.ElapsedDays != 152 {
		t.Fatalf("case A: %+v", a)
	}
	wantB := int(now.Sub(utc(2021, 1, 1)).Hours() / 24)
	if b := byNumber["B"]; b.Judged || b.ElapsedDays != wantB {
		t.Fatalf("case B: got %+v, want %d days", b, wantB)
	}
	if !m.Comparison.InCohort || m.Comparison.SubjectAverage == nil || *m.Comparison.SubjectAverage != 152 {
		t.Fatalf("unexpected comparison %+v", m.Comparison)
	}
	if len(m.JudgedDurations) != 1 || m.JudgedDurations[0] != 152 {
		t.Fatalf("unexpected durations %v", m.JudgedDurations)
	}
}
