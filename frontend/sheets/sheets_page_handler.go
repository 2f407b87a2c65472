package sheets

import "net/http"

// SheetsIndexPageQueryHandler renders the sheet list as HTML.
func SheetsIndexPageQueryHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Sheets.List(r.Context(), sheetListFilter(r))
		if err != nil {
			http.Error(w, "failed to load sheets", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := SheetsIndexPage(list).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render sheets page", http.StatusInternalServerError)
			return
		}
	}
}

// SheetPageQueryHandler renders one sheet as HTML.
func SheetPageQueryHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Sheets.Get(r.Context(), sheetID(r))
		if err != nil {
			writeError(d, w, r, "page", err, nil)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := SheetPage(s).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render sheet page", http.StatusInternalServerError)
			return
		}
	}
}
