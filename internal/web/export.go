package web

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/dimbox/dimbox/pkg/httpx"
	"github.com/dimbox/dimbox/pkg/slogx"
)

// ExportHandler passes the backend's CSV through as a download.
type ExportHandler struct {
	API     API
	Session Session
}

func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	export, err := h.API.ExportCSV(r.Context())
	if err != nil {
		if expired(w, r, h.Session, err) {
			return
		}
		slogx.FromContext(r.Context()).Warn("export failed", "error", err)
		http.Error(w, errorMessage(err), errorStatus(err))
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}
