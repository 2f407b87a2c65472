package sheets

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	sessioncontext "loadsheet/frontend/shared/context"
	"loadsheet/infrastructure/rbac"
	"loadsheet/infrastructure/sheet"
)

func actorFrom(r *http.Request) sheet.Actor {
	actor, _ := sessioncontext.GetActorFromContext(r.Context())
	return actor
}

func sheetID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}

func sheetListFilter(r *http.Request) sheet.ListFilter {
	return sheet.ListFilter{Status: sheet.Status(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))}
}

// ListSheetsQueryHandler lists sheet summaries, optionally by ?status=.
func ListSheetsQueryHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := sheetListFilter(r)
		switch filter.Status {
		case "", sheet.StatusDraft, sheet.StatusLocked, sheet.StatusCompleted:
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown status filter"})
			return
		}
		list, err := d.Sheets.List(r.Context(), filter)
		if err != nil {
			writeError(d, w, r, "list", err, nil)
			return
		}
		out := make([]sheetSummary, 0, len(list))
		for _, s := range list {
			out = append(out, summarize(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetSheetQueryHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Sheets.Get(r.Context(), sheetID(r))
		if err != nil {
			writeError(d, w, r, "get", err, nil)
			return
		}
		writeJSON(w, http.StatusOK, respond(s))
	}
}

func CreateSheetCommandHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		if g := rbac.CanTransition(actor.Role, "", sheet.StatusDraft); !g.Allowed {
			writeForbidden(w, g)
			return
		}
		var req draftRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		s, err := d.Sheets.Create(r.Context(), actor, req.input())
		if err != nil {
			writeError(d, w, r, "create", err, nil)
			return
		}
		d.Metrics.Transition(string(sheet.StatusDraft))
		writeJSON(w, http.StatusCreated, respond(s))
	}
}

func SaveDraftCommandHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		if g := rbac.CanTransition(actor.Role, sheet.StatusDraft, sheet.StatusDraft); !g.Allowed {
			writeForbidden(w, g)
			return
		}
		var req draftRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		s, err := d.Sheets.SaveDraft(r.Context(), actor, sheetID(r), req.input())
		if err != nil {
			writeError(d, w, r, "save_draft", err, nil)
			return
		}
		writeJSON(w, http.StatusOK, respond(s))
	}
}

func LockSheetCommandHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		if g := rbac.CanTransition(actor.Role, sheet.StatusDraft, sheet.StatusLocked); !g.Allowed {
			writeForbidden(w, g)
			return
		}
		s, err := d.Sheets.Lock(r.Context(), actor, sheetID(r))
		if err != nil {
			writeError(d, w, r, "lock", err, nil)
			return
		}
		d.Metrics.Transition(string(sheet.StatusLocked))
		writeJSON(w, http.StatusOK, respond(s))
	}
}

func CompleteSheetCommandHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		if g := rbac.CanTransition(actor.Role, sheet.StatusLocked, sheet.StatusCompleted); !g.Allowed {
			writeForbidden(w, g)
			return
		}
		s, err := d.Sheets.Complete(r.Context(), actor, sheetID(r))
		if err != nil {
			writeError(d, w, r, "complete", err, nil)
			return
		}
		d.Metrics.Transition(string(sheet.StatusCompleted))
		writeJSON(w, http.StatusOK, respond(s))
	}
}

// EditCellCommandHandler applies one grid edit. A rejected full-pallet value
// answers 422 and carries the sheet with the cleared cell.
func EditCellCommandHandler(d Deps) http.HandlerFunc {
	return loadingEdit(d, "edit_cell", func(r *http.Request, actor sheet.Actor, id string) (sheet.SheetData, bool, error) {
		var req cellEditRequest
		if !decodeJSONQuiet(r, &req) {
			return sheet.SheetData{}, false, nil
		}
		s, err := d.Sheets.EditCell(r.Context(), actor, id, sheet.CellEdit{
			SkuSrNo: req.SkuSrNo,
			Row:     req.Row,
			Col:     req.Col,
			Value:   req.Value,
			Commit:  req.commit(),
		})
		return s, true, err
	})
}

func EditLooseCommandHandler(d Deps) http.HandlerFunc {
	return loadingEdit(d, "edit_loose", func(r *http.Request, actor sheet.Actor, id string) (sheet.SheetData, bool, error) {
		var req looseEditRequest
		if !decodeJSONQuiet(r, &req) {
			return sheet.SheetData{}, false, nil
		}
		s, err := d.Sheets.EditLoose(r.Context(), actor, id, req.SkuSrNo, req.Value)
		return s, true, err
	})
}

func EditAdditionalCommandHandler(d Deps) http.HandlerFunc {
	return loadingEdit(d, "edit_additional", func(r *http.Request, actor sheet.Actor, id string) (sheet.SheetData, bool, error) {
		var req additionalEditRequest
		if !decodeJSONQuiet(r, &req) {
			return sheet.SheetData{}, false, nil
		}
		s, err := d.Sheets.EditAdditional(r.Context(), actor, id, sheet.AdditionalEdit{
			ID:      req.ID,
			SkuName: req.SkuName,
			Slot:    req.Slot,
			Value:   req.Value,
		})
		return s, true, err
	})
}

func UpdateLoadingHeaderCommandHandler(d Deps) http.HandlerFunc {
	return loadingEdit(d, "edit_loading_header", func(r *http.Request, actor sheet.Actor, id string) (sheet.SheetData, bool, error) {
		var req sheet.LoadingHeader
		if !decodeJSONQuiet(r, &req) {
			return sheet.SheetData{}, false, nil
		}
		s, err := d.Sheets.UpdateLoadingHeader(r.Context(), actor, id, req)
		return s, true, err
	})
}

type loadingEditFunc func(r *http.Request, actor sheet.Actor, id string) (sheet.SheetData, bool, error)

func loadingEdit(d Deps, op string, apply loadingEditFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		if g := rbac.CanEditLoading(actor.Role); !g.Allowed {
			writeForbidden(w, g)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		s, decoded, err := apply(r, actor, sheetID(r))
		if !decoded {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		if err != nil {
			var current *sheet.SheetData
			if s.ID != "" {
				current = &s
			}
			writeError(d, w, r, op, err, current)
			return
		}
		writeJSON(w, http.StatusOK, respond(s))
	}
}

func AddCommentCommandHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		if g := rbac.CanAnnotate(actor.Role); !g.Allowed {
			writeForbidden(w, g)
			return
		}
		var req commentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		s, err := d.Sheets.AddComment(r.Context(), actor, sheetID(r), req.Text)
		if err != nil {
			writeError(d, w, r, "comment", err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, respond(s))
	}
}

// UploadImageCommandHandler accepts a multipart "image" field.
func UploadImageCommandHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		if g := rbac.CanAnnotate(actor.Role); !g.Allowed {
			writeForbidden(w, g)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes+(1<<20))
		if err := r.ParseMultipartForm(MaxImageBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid upload"})
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "image file is required"})
			return
		}
		defer file.Close()
		blob, err := io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read image"})
			return
		}
		if len(blob) > MaxImageBytes {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "image is too large"})
			return
		}
		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = http.DetectContentType(blob)
		}
		if !strings.HasPrefix(mimeType, "image/") {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "only image uploads are accepted"})
			return
		}
		s, meta, err := d.Sheets.AttachImage(r.Context(), actor, sheetID(r), header.Filename, mimeType, blob)
		if err != nil {
			writeError(d, w, r, "attach_image", err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, struct {
			Image sheet.CapturedImage `json:"image"`
			sheetResponse
		}{Image: meta, sheetResponse: respond(s)})
	}
}

func ImageQueryHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, err := d.Images.Image(r.Context(), sheetID(r), chi.URLParam(r, "imageID"))
		if err != nil {
			writeError(d, w, r, "image", err, nil)
			return
		}
		w.Header().Set("Content-Type", img.MIMEType)
		w.Header().Set("Content-Length", strconv.Itoa(len(img.Blob)))
		w.Header().Set("Cache-Control", "private, max-age=3600")
		_, _ = w.Write(img.Blob)
	}
}

func DeleteSheetCommandHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r)
		if g := rbac.CanDelete(actor.Role); !g.Allowed {
			writeForbidden(w, g)
			return
		}
		var req deleteRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		id := sheetID(r)
		if err := d.Sheets.Delete(r.Context(), actor, id, req.Reason); err != nil {
			writeError(d, w, r, "delete", err, nil)
			return
		}
		d.logger().Info("sheet deleted", zap.String("sheet_id", id), zap.String("actor", actor.Name))
		w.WriteHeader(http.StatusNoContent)
	}
}

func AuditTrailQueryHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := d.Activity.Trail(r.Context(), sheetID(r))
		if err != nil {
			writeError(d, w, r, "audit", err, nil)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

func NotificationsQueryHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		rows, err := d.Activity.Feed(r.Context(), limit)
		if err != nil {
			writeError(d, w, r, "notifications", err, nil)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}
