/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the payroll service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the payroll and export packages.

ENDPOINTS:
  Employees:
    GET    /api/employees                       List all employees
    POST   /api/employees                       Register employee
    GET    /api/employees/{id}                  Get employee details
    GET    /api/employees/{id}/leaves           Leave records
    POST   /api/employees/{id}/leaves           Register leave
    GET    /api/employees/{id}/deductions       Deduction ledger
    POST   /api/employees/{id}/deductions       Register deduction entry
    GET    /api/employees/{id}/breakdown        Deduction breakdown for a month

  Payroll:
    POST   /api/payroll/{month}/generate        Draft records (nothing persisted)
    POST   /api/payroll/{month}/save            Upsert records, record a run
    GET    /api/payroll/{month}                 Saved records
    POST   /api/payroll/{month}/paid            Mark records paid
    GET    /api/payroll/{month}/export          Mudad XLSX, ?format=csv, or ?archive=true
    GET    /api/payroll/{month}/employees/{id}/payslip  PDF payslip
    GET    /api/payroll/runs                    Run history

  Misc:
    POST   /api/cap/validate                    50% cap check
    GET    /api/scenarios                       List demo scenarios
    POST   /api/scenarios/load                  Load a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (paid record locked, invalid status transition)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/payroll-engine/export"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// ErrArchiveDisabled is returned when archiving is requested without an archiver.
var ErrArchiveDisabled = errors.New("export archiving is not configured")

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter clears all stored data. Scenarios require it.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service        *payroll.Service
	Store          Resetter
	Archiver       export.Archiver // optional
	EmployerNumber string

	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler. archiver may be nil.
func NewHandler(svc *payroll.Service, store Resetter, archiver export.Archiver, employerNumber string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service:        svc,
		Store:          store,
		Archiver:       archiver,
		EmployerNumber: employerNumber,
		logger:         logger.Named("api"),
		validate:       newValidator(),
		now:            time.Now,
	}
}

// newValidator reports field names as their JSON tags.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (h *Handler) currency() generic.Currency { return h.Service.Rules().Currency }

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.Employees(r.Context())
	if err != nil {
		h.fail(w, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.Employee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee registers a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	emp, err := h.Service.RegisterEmployee(r.Context(), req.toDomain(h.currency()))
	if err != nil {
		h.fail(w, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.Leaves(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to list leave", err)
		return
	}
	dtos := make([]LeaveDTO, len(records))
	for i, rec := range records {
		dtos[i] = toLeaveDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	var req CreateLeaveRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := req.toDomain(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Invalid leave", err)
		return
	}
	rec, err = h.Service.RegisterLeave(r.Context(), rec)
	if err != nil {
		h.fail(w, "Failed to register leave", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveDTO(rec))
}

// =============================================================================
// DEDUCTION HANDLERS
// =============================================================================

func (h *Handler) ListDeductions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.Deductions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to list deductions", err)
		return
	}
	dtos := make([]DeductionDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toDeductionDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateDeduction(w http.ResponseWriter, r *http.Request) {
	var req CreateDeductionRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, err := req.toDomain(chi.URLParam(r, "id"), h.currency())
	if err != nil {
		h.fail(w, "Invalid deduction", err)
		return
	}
	entry, err = h.Service.RegisterDeduction(r.Context(), entry)
	if err != nil {
		h.fail(w, "Failed to register deduction", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDeductionDTO(entry))
}

// GetBreakdown computes deductions for one employee and month.
// GET /api/employees/{id}/breakdown?month=YYYY-MM&leave_days=N
func (h *Handler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, err := generic.ParseMonth(q.Get("month"))
	if err != nil {
		h.fail(w, "Invalid month (use YYYY-MM)", err)
		return
	}
	var leaveDays *int
	if raw := q.Get("leave_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(w, "Invalid leave_days", &generic.InvalidInputError{Field: "leave_days", Value: raw, Err: payroll.ErrInvalidLeaveDays})
			return
		}
		leaveDays = &n
	}
	b, err := h.Service.Breakdown(r.Context(), chi.URLParam(r, "id"), month, leaveDays)
	if err != nil {
		h.fail(w, "Failed to calculate deductions", err)
		return
	}
	writeJSON(w, http.StatusOK, toBreakdownDTO(b))
}

// ValidateCap checks a deduction total against the cap.
// POST /api/cap/validate
func (h *Handler) ValidateCap(w http.ResponseWriter, r *http.Request) {
	var req ValidateCapRequest
	if !h.decode(w, r, &req) {
		return
	}
	basic := generic.Amount{Value: req.BasicSalary, Currency: h.currency()}
	total := generic.Amount{Value: req.TotalDeductions, Currency: h.currency()}
	if basic.IsNegative() || total.IsNegative() {
		h.fail(w, "Amounts must not be negative", generic.ErrInvalidAmount)
		return
	}
	writeJSON(w, http.StatusOK, toCapDTO(h.Service.ValidateCap(basic, total)))
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// Generate returns draft records for the month without persisting them.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	month, ok := h.month(w, r)
	if !ok {
		return
	}
	records, err := h.Service.Generate(r.Context(), month)
	if err != nil {
		h.fail(w, "Failed to generate payroll", err)
		return
	}
	writeJSON(w, http.StatusOK, PayrollResponse{
		Month:    month.String(),
		Records:  toRecordDTOs(records),
		TotalNet: payroll.TotalNet(records).Fixed(),
	})
}

// Save generates and persists the month.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	month, ok := h.month(w, r)
	if !ok {
		return
	}
	result, err := h.Service.Save(r.Context(), month)
	if err != nil {
		h.fail(w, "Failed to save payroll", err)
		return
	}
	locked := result.Locked
	if locked == nil {
		locked = []string{}
	}
	writeJSON(w, http.StatusOK, SaveResponse{
		Run:     toRunDTO(result.Run),
		Records: toRecordDTOs(result.Saved),
		Locked:  locked,
	})
}

// ListRecords returns the saved records of a month.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	month, ok := h.month(w, r)
	if !ok {
		return
	}
	records, err := h.Service.Records(r.Context(), month)
	if err != nil {
		h.fail(w, "Failed to list payroll", err)
		return
	}
	writeJSON(w, http.StatusOK, PayrollResponse{
		Month:    month.String(),
		Records:  toRecordDTOs(records),
		TotalNet: payroll.TotalNet(records).Fixed(),
	})
}

// MarkPaid moves saved records to paid. An empty body pays every saved record.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	month, ok := h.month(w, r)
	if !ok {
		return
	}
	var req MarkPaidRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}
	records, err := h.Service.MarkPaid(r.Context(), month, req.EmployeeIDs)
	if err != nil {
		h.fail(w, "Failed to mark payroll paid", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTOs(records))
}

// ListRuns returns the payroll run history.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Service.Runs(r.Context())
	if err != nil {
		h.fail(w, "Failed to list runs", err)
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// EXPORT HANDLERS
// =============================================================================

// Export streams the Mudad workbook (or CSV with ?format=csv), or archives
// the workbook with ?archive=true.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	month, ok := h.month(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("archive") == "true" {
		res, err := h.archiveExport(r.Context(), month)
		if err != nil {
			h.fail(w, "Failed to archive export", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	report, data, err := h.buildExport(r.Context(), month)
	if err != nil {
		h.fail(w, "Failed to export payroll", err)
		return
	}
	contentType, name := export.ContentTypeXLSX, export.FileName(h.EmployerNumber, month)
	if r.URL.Query().Get("format") == "csv" {
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, report); err != nil {
			h.fail(w, "Failed to export payroll", err)
			return
		}
		data = buf.Bytes()
		contentType, name = export.ContentTypeCSV, export.CSVFileName(h.EmployerNumber, month)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// buildExport renders the month's saved records as a Mudad workbook.
func (h *Handler) buildExport(ctx context.Context, month generic.Month) (export.Report, []byte, error) {
	records, err := h.Service.Records(ctx, month)
	if err != nil {
		return export.Report{}, nil, err
	}
	if len(records) == 0 {
		return export.Report{}, nil, fmt.Errorf("no saved payroll for %s: %w", month, generic.ErrRecordNotFound)
	}
	employees, err := h.Service.Employees(ctx)
	if err != nil {
		return export.Report{}, nil, err
	}
	report, err := export.BuildReport(month, records, employees)
	if err != nil {
		return export.Report{}, nil, err
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, report); err != nil {
		return export.Report{}, nil, err
	}
	return report, buf.Bytes(), nil
}

func (h *Handler) archiveExport(ctx context.Context, month generic.Month) (ExportResponse, error) {
	if h.Archiver == nil {
		return ExportResponse{}, ErrArchiveDisabled
	}
	report, data, err := h.buildExport(ctx, month)
	if err != nil {
		return ExportResponse{}, err
	}
	name := export.FileName(h.EmployerNumber, month)
	location, err := h.Archiver.Archive(ctx, month.String()+"/"+name, bytes.NewReader(data), export.ContentTypeXLSX)
	if err != nil {
		return ExportResponse{}, err
	}
	h.logger.Info("payroll export archived",
		zap.String("month", month.String()),
		zap.String("location", location),
		zap.Int("rows", len(report.Rows)))
	return ExportResponse{
		FileName: name,
		Location: location,
		Rows:     len(report.Rows),
		TotalNet: report.Totals.Net.Fixed(),
	}, nil
}

// Payslip renders one saved record as a PDF.
func (h *Handler) Payslip(w http.ResponseWriter, r *http.Request) {
	month, ok := h.month(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := h.Service.Record(r.Context(), id, month)
	if err != nil {
		h.fail(w, "Failed to load payroll record", err)
		return
	}
	emp, err := h.Service.Employee(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to load employee", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WritePayslip(&buf, emp, rec); err != nil {
		h.fail(w, "Failed to render payslip", err)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypePDF)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", export.PayslipName(rec)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) month(w http.ResponseWriter, r *http.Request) (generic.Month, bool) {
	month, err := generic.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		h.fail(w, "Invalid month (use YYYY-MM)", err)
		return generic.Month{}, false
	}
	return month, true
}

// decode reads and validates a JSON body. It writes the error response and
// returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return h.check(w, dst)
}

// decodeOptional is decode for bodies that may be empty.
func (h *Handler) decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return h.check(w, dst)
}

func (h *Handler) check(w http.ResponseWriter, dst any) bool {
	err := h.validate.Struct(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, len(verrs))
		for i, fe := range verrs {
			fields[i] = fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag())
		}
		writeError(w, http.StatusBadRequest, "Validation failed", errors.New(strings.Join(fields, "; ")))
		return false
	}
	writeError(w, http.StatusBadRequest, "Validation failed", err)
	return false
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, payroll.ErrRecordLocked), errors.Is(err, payroll.ErrInvalidStatusTransition):
		return http.StatusConflict
	case generic.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, ErrArchiveDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with the status its kind maps to.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, zap.Error(err))
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func amount(v float64, currency generic.Currency) generic.Amount {
	return generic.Amount{Value: decimal.NewFromFloat(v), Currency: currency}
}
