package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	adminusers "loadsheet/frontend/adminUsers"
	"loadsheet/frontend/exports"
	"loadsheet/frontend/sheets"
	"loadsheet/infrastructure/rbac"
	"loadsheet/infrastructure/sheet"
)

var (
	everyone = rbac.Roles()
	stagers  = []sheet.Role{sheet.RoleAdmin, sheet.RoleStagingSupervisor}
	loaders  = []sheet.Role{sheet.RoleAdmin, sheet.RoleLoadingSupervisor}
	admins   = []sheet.Role{sheet.RoleAdmin}
)

func (s *Server) sheetDeps() sheets.Deps {
	return sheets.Deps{
		Sheets:   s.Sheets,
		Images:   s.Store,
		Activity: s.Audit,
		Metrics:  s.Metrics,
		Log:      s.Log,
	}
}

// RegisterSheetRoutes registers the JSON sheet API.
func (s *Server) RegisterSheetRoutes(r chi.Router) {
	d := s.sheetDeps()

	s.Rbac.AddAll(everyone, "SHEETS_LIST", http.MethodGet, "/api/sheets")
	r.Get("/api/sheets", sheets.ListSheetsQueryHandler(d))
	s.Rbac.AddAll(stagers, "SHEETS_CREATE", http.MethodPost, "/api/sheets")
	r.Post("/api/sheets", sheets.CreateSheetCommandHandler(d))

	s.Rbac.AddAll(everyone, "SHEET_VIEW", http.MethodGet, "/api/sheets/*")
	r.Get("/api/sheets/{id}", sheets.GetSheetQueryHandler(d))
	s.Rbac.AddAll(stagers, "SHEET_DRAFT_SAVE", http.MethodPut, "/api/sheets/*")
	r.Put("/api/sheets/{id}", sheets.SaveDraftCommandHandler(d))
	s.Rbac.AddAll(admins, "SHEET_DELETE", http.MethodDelete, "/api/sheets/*")
	r.Delete("/api/sheets/{id}", sheets.DeleteSheetCommandHandler(d))

	s.Rbac.AddAll(stagers, "SHEET_LOCK", http.MethodPost, "/api/sheets/*/lock")
	r.Post("/api/sheets/{id}/lock", sheets.LockSheetCommandHandler(d))
	s.Rbac.AddAll(loaders, "SHEET_COMPLETE", http.MethodPost, "/api/sheets/*/complete")
	r.Post("/api/sheets/{id}/complete", sheets.CompleteSheetCommandHandler(d))

	s.Rbac.AddAll(loaders, "LOADING_CELL_EDIT", http.MethodPut, "/api/sheets/*/loading/cells")
	r.Put("/api/sheets/{id}/loading/cells", sheets.EditCellCommandHandler(d))
	s.Rbac.AddAll(loaders, "LOADING_LOOSE_EDIT", http.MethodPut, "/api/sheets/*/loading/loose")
	r.Put("/api/sheets/{id}/loading/loose", sheets.EditLooseCommandHandler(d))
	s.Rbac.AddAll(loaders, "LOADING_ADDITIONAL_EDIT", http.MethodPut, "/api/sheets/*/loading/additional")
	r.Put("/api/sheets/{id}/loading/additional", sheets.EditAdditionalCommandHandler(d))
	s.Rbac.AddAll(loaders, "LOADING_HEADER_EDIT", http.MethodPut, "/api/sheets/*/loading/header")
	r.Put("/api/sheets/{id}/loading/header", sheets.UpdateLoadingHeaderCommandHandler(d))

	s.Rbac.AddAll(everyone, "SHEET_COMMENT", http.MethodPost, "/api/sheets/*/comments")
	r.Post("/api/sheets/{id}/comments", sheets.AddCommentCommandHandler(d))
	s.Rbac.AddAll(everyone, "SHEET_IMAGE_UPLOAD", http.MethodPost, "/api/sheets/*/images")
	r.Post("/api/sheets/{id}/images", sheets.UploadImageCommandHandler(d))
	s.Rbac.AddAll(everyone, "SHEET_IMAGE_VIEW", http.MethodGet, "/api/sheets/*/images/*")
	r.Get("/api/sheets/{id}/images/{imageID}", sheets.ImageQueryHandler(d))
	s.Rbac.AddAll(everyone, "SHEET_AUDIT_VIEW", http.MethodGet, "/api/sheets/*/audit")
	r.Get("/api/sheets/{id}/audit", sheets.AuditTrailQueryHandler(d))

	s.Rbac.AddAll(everyone, "NOTIFICATIONS_VIEW", http.MethodGet, "/api/notifications")
	r.Get("/api/notifications", sheets.NotificationsQueryHandler(d))
}

// RegisterPageRoutes registers the read-only HTML views.
func (s *Server) RegisterPageRoutes(r chi.Router) {
	d := s.sheetDeps()

	s.Rbac.AddAll(everyone, "SHEETS_PAGE", http.MethodGet, "/sheets")
	r.Get("/sheets", sheets.SheetsIndexPageQueryHandler(d))
	s.Rbac.AddAll(everyone, "SHEET_PAGE", http.MethodGet, "/sheets/*")
	r.Get("/sheets/{id}", sheets.SheetPageQueryHandler(d))
}

func (s *Server) RegisterExportRoutes(r chi.Router) {
	d := exports.Deps{Sheets: s.Sheets, DB: s.DB, Metrics: s.Metrics, Log: s.Log}

	s.Rbac.AddAll(admins, "EXPORT_SUMMARY", http.MethodGet, "/exports/sheets.csv")
	r.Get("/exports/sheets.csv", exports.SheetsSummaryCSVHandler(d))
	s.Rbac.AddAll(everyone, "EXPORT_SHEET", http.MethodGet, "/exports/sheets/*/*")
	r.Get("/exports/sheets/{id}/{format}", exports.SheetExportHandler(d))
}

// RegisterAdminRoutes registers admin-only account management.
func (s *Server) RegisterAdminRoutes(r chi.Router) {
	s.Rbac.AddAll(admins, "ADMIN_USERS_LIST", http.MethodGet, "/api/admin/users")
	r.Get("/api/admin/users", adminusers.UsersQueryHandler(s.Users, s.Log))
	s.Rbac.AddAll(admins, "ADMIN_USERS_CREATE", http.MethodPost, "/api/admin/users")
	r.Post("/api/admin/users", adminusers.CreateUserCommandHandler(s.Users, s.Log))
}
