package http

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/cmlabs-hris/attendance-import-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-import-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-import-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

// maxUploadBytes bounds the raw batch size before any row is parsed.
const maxUploadBytes = 10 << 20 // 10MB

type AttendanceHandler struct {
	service attendance.ImportService
}

func NewAttendanceHandler(service attendance.ImportService) AttendanceHandler {
	return AttendanceHandler{service: service}
}

// Import accepts a CSV batch (multipart "file" field or raw body) and runs
// it through the batch coordinator.
// POST /api/v1/attendance/import?policy=overwrite&dry_run=false
func (h *AttendanceHandler) Import(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorIDFromContext(r)
	if !ok {
		response.Unauthorized(w, "missing user identity")
		return
	}

	opts := attendance.ImportOptions{
		Policy: attendance.Policy(r.URL.Query().Get("policy")),
		DryRun: r.URL.Query().Get("dry_run") == "true",
	}
	if err := opts.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	body, err := batchBody(w, r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.PayloadTooLarge(w, "batch upload exceeds the size limit")
			return
		}
		response.BadRequest(w, "failed to read batch upload", nil)
		return
	}
	defer body.Close()

	rows, err := readBatchRows(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.PayloadTooLarge(w, "batch upload exceeds the size limit")
			return
		}
		response.BadRequest(w, "malformed CSV: "+err.Error(), nil)
		return
	}

	report, err := h.service.Import(r.Context(), actorID, rows, opts)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, report)
}

// Template serves a CSV matching the batch input shape, prefilled with one
// empty row per employee the actor may submit for.
// GET /api/v1/attendance/import/template
func (h *AttendanceHandler) Template(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorIDFromContext(r)
	if !ok {
		response.Unauthorized(w, "missing user identity")
		return
	}

	rows, err := h.service.Template(r.Context(), actorID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="attendance_template.csv"`)
	writer := csv.NewWriter(w)
	_ = writer.WriteAll(rows)
}

// BatchAudit returns the audit entries recorded for one import batch.
// GET /api/v1/attendance/audit/batches/{batchID}
func (h *AttendanceHandler) BatchAudit(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorIDFromContext(r)
	if !ok {
		response.Unauthorized(w, "missing user identity")
		return
	}

	batchID := chi.URLParam(r, "batchID")
	if validator.IsEmpty(batchID) {
		response.BadRequest(w, "batch ID is required", nil)
		return
	}

	entries, err := h.service.BatchAudit(r.Context(), actorID, batchID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, entries)
}

// List returns the attendance records visible to the actor.
// GET /api/v1/attendance?employee_id=&start_date=&end_date=
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorIDFromContext(r)
	if !ok {
		response.Unauthorized(w, "missing user identity")
		return
	}

	filter, err := listFilterFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	records, err := h.service.List(r.Context(), actorID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, records)
}

// Export streams the actor-visible records as CSV.
// GET /api/v1/attendance/export?employee_id=&start_date=&end_date=
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorIDFromContext(r)
	if !ok {
		response.Unauthorized(w, "missing user identity")
		return
	}

	filter, err := listFilterFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	rows, err := h.service.Export(r.Context(), actorID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="attendance_export.csv"`)
	writer := csv.NewWriter(w)
	_ = writer.WriteAll(rows)
}

// AuditTrail returns the audit entries for one natural key, newest first.
// GET /api/v1/attendance/audit?company_id=&employee_id=&date=
func (h *AttendanceHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorIDFromContext(r)
	if !ok {
		response.Unauthorized(w, "missing user identity")
		return
	}

	query := r.URL.Query()
	var errs validator.ValidationErrors
	if validator.IsEmpty(query.Get("company_id")) {
		errs = append(errs, validator.ValidationError{Field: "company_id", Message: "company_id is required"})
	}
	if validator.IsEmpty(query.Get("employee_id")) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	date, ok := validator.IsValidDate(query.Get("date"))
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"})
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	key := attendance.RecordKey{
		CompanyID:  query.Get("company_id"),
		EmployeeID: query.Get("employee_id"),
		Date:       date,
	}

	entries, err := h.service.AuditTrail(r.Context(), actorID, key)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, entries)
}

// listFilterFromQuery builds the listing filter from employee_id,
// start_date and end_date query parameters. All three are optional.
func listFilterFromQuery(r *http.Request) (attendance.ListFilter, error) {
	query := r.URL.Query()

	var filter attendance.ListFilter
	var errs validator.ValidationErrors

	if v := query.Get("employee_id"); !validator.IsEmpty(v) {
		filter.EmployeeID = &v
	}
	if v := query.Get("start_date"); !validator.IsEmpty(v) {
		date, ok := validator.IsValidDate(v)
		if !ok {
			errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be YYYY-MM-DD"})
		} else {
			filter.StartDate = &date
		}
	}
	if v := query.Get("end_date"); !validator.IsEmpty(v) {
		date, ok := validator.IsValidDate(v)
		if !ok {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be YYYY-MM-DD"})
		} else {
			filter.EndDate = &date
		}
	}

	if len(errs) > 0 {
		return attendance.ListFilter{}, errs
	}
	return filter, nil
}

func actorIDFromContext(r *http.Request) (string, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", false
	}
	actorID, ok := claims["user_id"].(string)
	if !ok || actorID == "" {
		return "", false
	}
	return actorID, true
}

// batchBody returns the CSV payload: the multipart "file" field when
// present, the raw request body otherwise. Both are size-capped.
func batchBody(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		return file, nil
	}

	return r.Body, nil
}

// readBatchRows reads CSV lines into raw rows, numbering data rows from 1.
// A leading header row matching the template is skipped.
func readBatchRows(body io.Reader) ([]attendance.RawRow, error) {
	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []attendance.RawRow
	number := 0
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if number == 0 && len(fields) > 0 && strings.EqualFold(strings.TrimSpace(fields[0]), "employee_id") {
			continue
		}
		number++
		rows = append(rows, attendance.RawRow{Number: number, Fields: fields})
	}

	return rows, nil
}
