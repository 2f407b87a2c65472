package sheets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"loadsheet/infrastructure/rbac"
	"loadsheet/infrastructure/sheet"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes. current, when
// non-nil, is echoed back so the client can re-render after a rejected cell.
func writeError(d Deps, w http.ResponseWriter, r *http.Request, op string, err error, current *sheet.SheetData) {
	var (
		validation *sheet.ValidationError
		contract   *sheet.CellContractViolation
		conflict   *sheet.ConflictError
		transition *sheet.TransitionError
	)
	status := http.StatusInternalServerError
	body := errorResponse{Error: "operation failed, please retry"}

	switch {
	case errors.As(err, &validation):
		status = http.StatusUnprocessableEntity
		body = errorResponse{Error: "sheet is not ready", Violations: validation.Violations}
	case errors.As(err, &contract):
		d.Metrics.CellRejected()
		status = http.StatusUnprocessableEntity
		body = errorResponse{Error: contract.Error(), Violations: []string{contract.Error()}, Sheet: current}
	case errors.Is(err, sheet.ErrInvalidCellValue), errors.Is(err, sheet.ErrSlotDisabled), errors.Is(err, sheet.ErrUnknownItem):
		status = http.StatusUnprocessableEntity
		body = errorResponse{Error: err.Error()}
	case errors.As(err, &conflict):
		d.Metrics.Conflict(op)
		status = http.StatusConflict
		body = errorResponse{Error: conflict.Reason}
	case errors.As(err, &transition):
		status = http.StatusConflict
		body = errorResponse{Error: transition.Error()}
	case errors.Is(err, sheet.ErrNotFound):
		status = http.StatusNotFound
		body = errorResponse{Error: "sheet not found"}
	default:
		d.logger().Error("sheet operation failed",
			zap.String("op", op),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	d.Metrics.RequestError(strconv.Itoa(status))
	writeJSON(w, status, body)
}

func writeForbidden(w http.ResponseWriter, g rbac.GuardResult) {
	writeJSON(w, http.StatusForbidden, errorResponse{Error: g.Reason})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func decodeJSONQuiet(r *http.Request, dst any) bool {
	return json.NewDecoder(r.Body).Decode(dst) == nil
}
