package web

import (
	"errors"
	"net/http"

	"github.com/dimbox/dimbox/pkg/financesdk"
	"github.com/dimbox/dimbox/pkg/httpx"
	"github.com/dimbox/dimbox/pkg/slogx"
)

// TransactionsHandler creates, updates and deletes transactions. Rejected
// submissions re-render the dashboard with the form as it was filled in.
type TransactionsHandler struct {
	API       API
	Session   Session
	Dashboard *DashboardHandler
}

func (h *TransactionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	form, in, err := parseTransactionForm(r)
	if err == nil {
		_, err = h.API.CreateTransaction(r.Context(), in)
	}
	h.finish(w, r, &form, err, "created")
}

func (h *TransactionsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	form, in, err := parseTransactionForm(r)
	if err == nil {
		var id int64
		if id, err = pathID(r); err == nil {
			_, err = h.API.UpdateTransaction(r.Context(), id, in)
		}
	}
	h.finish(w, r, &form, err, "updated")
}

func (h *TransactionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = h.API.DeleteTransaction(r.Context(), id)
	}
	h.finish(w, r, nil, err, "deleted")
}

func (h *TransactionsHandler) finish(w http.ResponseWriter, r *http.Request, form *transactionForm, err error, notice string) {
	if err == nil {
		httpx.SeeOther(w, r, DefaultPath+"?notice="+notice)
		return
	}
	if expired(w, r, h.Session, err) {
		return
	}

	slogx.FromContext(r.Context()).Info("transaction change rejected", "path", r.URL.Path, "error", err)

	status := errorStatus(err)
	if errors.Is(err, financesdk.ErrInvalidID) {
		status = http.StatusNotFound
	}
	h.Dashboard.render(w, r, status, form, err)
}
