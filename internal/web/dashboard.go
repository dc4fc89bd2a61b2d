package web

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/dimbox/dimbox/internal/ledger"
	"github.com/dimbox/dimbox/pkg/financesdk"
	"github.com/dimbox/dimbox/pkg/slogx"
	"golang.org/x/sync/errgroup"
)

type dashboardPage struct {
	Layout
	Summary         ledger.Summary
	Goal            ledger.GoalProgress
	Categories      []ledger.CategoryAmount
	Months          []ledger.MonthOverview
	Transactions    []financesdk.Transaction
	Filter          filterForm
	Form            transactionForm
	CategoryOptions []financesdk.Category
}

// DashboardHandler renders the summary, the breakdowns and the transaction
// list of the signed-in user.
type DashboardHandler struct {
	API     API
	Session Session
	Views   *Renderer
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, nil, nil)
}

// render loads the profile and the transactions concurrently. The filter
// is applied here as well as sent to the backend, so the figures match the
// list whether or not the backend honours it. form and formErr carry a
// rejected editor submission back to the user.
func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, status int, form *transactionForm, formErr error) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	page := dashboardPage{
		Layout:          layout(r, h.Session, "Dashboard"),
		CategoryOptions: financesdk.Categories,
	}

	filterView, filter, filterErr := parseFilter(r)
	page.Filter = filterView
	if filterErr != nil {
		page.Fail(filterErr)
		status = http.StatusBadRequest
	}

	var (
		profile *financesdk.UserProfile
		all     []financesdk.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := h.API.GetProfile(gctx)
		profile = p
		return err
	})
	g.Go(func() error {
		txs, err := h.API.ListTransactions(gctx, filter)
		all = txs
		return err
	})
	if err := g.Wait(); err != nil {
		if expired(w, r, h.Session, err) {
			return
		}
		log.Warn("failed to load dashboard", "error", err)
		page.Fail(err)
		h.Views.Render(w, r, errorStatus(err), "dashboard.html", page)
		return
	}

	view := ledger.Filter(all, filter)
	sort.SliceStable(view, func(i, j int) bool {
		if !view[i].Date.Time().Equal(view[j].Date.Time()) {
			return view[i].Date.After(view[j].Date)
		}
		return view[i].ID > view[j].ID
	})

	page.Summary = ledger.Summarize(view)
	page.Goal = ledger.Goal(profile, ledger.Summarize(all))
	page.Categories = ledger.ByCategory(view)
	page.Months = ledger.ByMonth(view)
	page.Transactions = view

	switch {
	case form != nil:
		page.Form = *form
	default:
		page.Form = newTransactionForm()
		if raw := r.URL.Query().Get("edit"); raw != "" {
			id, _ := strconv.ParseInt(raw, 10, 64)
			for _, tx := range all {
				if tx.ID == id {
					page.Form = editTransactionForm(tx)
					break
				}
			}
		}
	}
	if formErr != nil {
		page.Fail(formErr)
	}

	h.Views.Render(w, r, status, "dashboard.html", page)
}
