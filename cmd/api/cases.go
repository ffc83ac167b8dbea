package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/farxc/datajud_wrapper/internal/datajud"
	"github.com/farxc/datajud_wrapper/internal/datajud/client"
	"github.com/farxc/datajud_wrapper/internal/datajud/stats"
	"github.com/farxc/datajud_wrapper/internal/export"
	"github.com/farxc/datajud_wrapper/internal/response"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type GetCaseSummaryResponse = response.APIResponse[CaseSummary]

type CaseView struct {
	Number    string   `json:"number"`
	Class     string   `json:"class"`
	Subjects  []string `json:"subjects"`
	UnitCode  string   `json:"unit_code"`
	UnitName  string   `json:"unit_name"`
	Movements int      `json:"movements"`
}

type CaseSummary struct {
	RunID           string               `json:"run_id"`
	Tribunal        string               `json:"tribunal"`
	Case            CaseView             `json:"case"`
	Summary         stats.Summary        `json:"summary"`
	Comparison      stats.CaseComparison `json:"comparison"`
	SubjectAverages []stats.GroupAverage `json:"subject_averages"`
	ClassAverages   []stats.GroupAverage `json:"class_averages"`
	Yearly          []stats.YearCount    `json:"yearly"`
	Warnings        []string             `json:"warnings,omitempty"`
}

func toCaseSummary(report *datajud.Report) CaseSummary {
	m := report.Metrics
	return CaseSummary{
		RunID:    report.RunID,
		Tribunal: report.Tribunal,
		Case: CaseView{
			Number:    report.Case.Number,
			Class:     report.Case.Class,
			Subjects:  report.Case.Subjects,
			UnitCode:  report.Case.UnitCode,
			UnitName:  report.Case.UnitName,
			Movements: len(report.MovementRows),
		},
		Summary:         m.Summary,
		Comparison:      m.Comparison,
		SubjectAverages: m.SubjectAverages,
		ClassAverages:   m.ClassAverages,
		Yearly:          m.Yearly,
		Warnings:        report.Warnings,
	}
}

// runReport validates the request, runs the pipeline and writes the error
// response itself when it fails.
func (app *application) runReport(w http.ResponseWriter, r *http.Request) (*datajud.Report, bool) {
	const component = "CasesHandler"

	numero, err := datajud.ValidateCaseNumber(chi.URLParam(r, "numero"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	tribunal := strings.ToLower(r.URL.Query().Get("tribunal"))
	if tribunal == "" {
		tribunal = app.config.datajud.tribunal
	}
	if err := app.validate.Var(tribunal, "required,alphanum,lowercase,max=16"); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid tribunal parameter")
		return nil, false
	}

	pipeline := datajud.NewPipeline(app.searcherFor(tribunal), app.logger, datajud.PipelineConfig{
		CohortSize: app.config.datajud.cohortSize,
		Observer:   app.metrics,
	})
	if app.now != nil {
		pipeline.Now = app.now
	}

	report, err := pipeline.Run(r.Context(), numero)
	if err != nil {
		app.metrics.ReportGenerated(false)
		status, message := errorStatus(err)
		app.logger.Warn(component, "Report run failed: numero=%s tribunal=%s status=%d error=%v", numero, tribunal, status, err)
		writeJSONError(w, status, message)
		return nil, false
	}
	report.RunID = uuid.NewString()
	report.Tribunal = tribunal
	return report, true
}

func errorStatus(err error) (int, string) {
	if remote, ok := client.IsRemoteRequestFailed(err); ok {
		return http.StatusBadGateway, fmt.Sprintf("datajud request failed: status=%d body=%s", remote.StatusCode, remote.Body)
	}
	switch {
	case errors.Is(err, datajud.ErrInvalidCaseNumber):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, datajud.ErrCaseNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "failed to build report: " + err.Error()
	}
}

// @Summary		Case summary
// @Description	looks a case up and returns the metrics of its judging unit's cohort
// @Tags			Cases
// @Produce		json
// @Param			numero		path		string	true	"Case number"
// @Param			tribunal	query		string	false	"Tribunal index alias"
// @Success		200			{object}	GetCaseSummaryResponse
// @Failure		400			{object}	response.ErrorResponse
// @Failure		404			{object}	response.ErrorResponse
// @Failure		502			{object}	response.ErrorResponse
// @Router			/cases/{numero}/summary [get]
func (app *application) handleGetCaseSummary(w http.ResponseWriter, r *http.Request) {
	report, ok := app.runReport(w, r)
	if !ok {
		return
	}
	app.metrics.ReportGenerated(true)

	response := &GetCaseSummaryResponse{
		Success: true,
		Data:    toCaseSummary(report),
		Message: "Successfully computed cohort metrics",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Case report
// @Description	builds the xlsx workbook for a case and its cohort
// @Tags			Cases
// @Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param			numero		path	string	true	"Case number"
// @Param			tribunal	query	string	false	"Tribunal index alias"
// @Success		200
// @Failure		400	{object}	response.ErrorResponse
// @Failure		404	{object}	response.ErrorResponse
// @Failure		502	{object}	response.ErrorResponse
// @Router			/cases/{numero}/report [get]
func (app *application) handleGetCaseReport(w http.ResponseWriter, r *http.Request) {
	const component = "CasesHandler"

	report, ok := app.runReport(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, report, export.Options{Charts: app.config.datajud.charts, Logger: app.logger}); err != nil {
		app.metrics.ReportGenerated(false)
		writeJSONError(w, http.StatusInternalServerError, "failed to build workbook: "+err.Error())
		return
	}
	app.metrics.ReportGenerated(true)

	name := export.FileName(report.Case.Number, report.Case.UnitName, report.GeneratedAt)
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		app.logger.Warn(component, "Failed to stream report: numero=%s error=%v", report.Case.Number, err)
	}
}
