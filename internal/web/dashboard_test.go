package web_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signIn(t, "A1", alice)

	rec := e.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	body := rec.Body.String()
	require.Contains(t, body, "1000.00")
	require.Contains(t, body, "150.50")
	require.Contains(t, body, "849.50")
	require.Contains(t, body, "<h2>Trip</h2>")
	require.Contains(t, body, "(42.5%)")
	require.Contains(t, body, "<td>Food</td><td>120.50</td><td>80.1%</td>")
	require.Contains(t, body, "Jan 2025")
	require.Contains(t, body, "groceries")
	require.NotContains(t, body, `href="/admin"`, "no admin link for users")

	require.Equal(t, 1, e.backend.count("GET /profile/"))
	require.Equal(t, 1, e.backend.count("GET /transactions/"))
}

func TestDashboardFilter(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signIn(t, "A1", alice)

	rec := e.get("/?type=in&from=2025-01-01")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "groceries")
	require.Contains(t, rec.Body.String(), "(42.5%)", "the goal is measured on every transaction")

	q := e.backend.query("GET /transactions/")
	require.Equal(t, "IN", q.Get("transaction_type"))
	require.Equal(t, "2025-01-01", q.Get("date_from"))

	rec = e.get("/?type=sideways")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "transaction type must be INCOME or EXPENSE")
	require.Contains(t, rec.Body.String(), "groceries", "an invalid filter shows everything")
}

func TestDashboardEditPrefillsForm(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signIn(t, "A1", alice)

	body := e.get("/?edit=2").Body.String()
	require.Contains(t, body, `action="/transactions/2"`)
	require.Contains(t, body, `value="120.50"`)
	require.Contains(t, body, `value="2025-01-10"`)
}

func TestCreateTransaction(t *testing.T) {
	t.Parallel()

	t.Run("non-positive amount sends nothing", func(t *testing.T) {
		e := newEnv(t)
		e.signIn(t, "A1", alice)

		for _, amount := range []string{"0", "-5"} {
			rec := e.post("/transactions", url.Values{
				"date": {"2025-03-01"}, "amount": {amount}, "transaction_type": {"OUT"}, "category": {"AL"},
			})
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			require.Contains(t, rec.Body.String(), "amount must be greater than zero")
			require.Contains(t, rec.Body.String(), `value="`+amount+`"`, "the form keeps what was typed")
		}
		require.Zero(t, e.backend.count("POST /transactions/"))
	})

	t.Run("unparsable amount", func(t *testing.T) {
		e := newEnv(t)
		e.signIn(t, "A1", alice)

		rec := e.post("/transactions", url.Values{
			"date": {"2025-03-01"}, "amount": {"twelve"}, "transaction_type": {"OUT"}, "category": {"AL"},
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Zero(t, e.backend.count("POST /transactions/"))
	})

	t.Run("expense without category", func(t *testing.T) {
		e := newEnv(t)
		e.signIn(t, "A1", alice)

		rec := e.post("/transactions", url.Values{
			"date": {"2025-03-01"}, "amount": {"5"}, "transaction_type": {"OUT"},
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Contains(t, rec.Body.String(), "category is required for expenses")
		require.Zero(t, e.backend.count("POST /transactions/"))
	})

	t.Run("expense", func(t *testing.T) {
		e := newEnv(t)
		e.signIn(t, "A1", alice)

		rec := e.post("/transactions", url.Values{
			"date": {"2025-03-01"}, "amount": {"12.5"}, "transaction_type": {"OUT"},
			"category": {"al"}, "description": {" coffee "},
		})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/?notice=created", rec.Header().Get("Location"))

		sent := e.backend.body("POST /transactions/")
		require.Equal(t, "OUT", sent["transaction_type"])
		require.Equal(t, "12.5", sent["amount"])
		require.Equal(t, "2025-03-01", sent["date"])
		require.Equal(t, "AL", sent["category"])
		require.Equal(t, "coffee", sent["description"])

		require.Contains(t, e.get("/?notice=created").Body.String(), "Transaction saved.")
	})

	t.Run("income drops the category", func(t *testing.T) {
		e := newEnv(t)
		e.signIn(t, "A1", alice)

		rec := e.post("/transactions", url.Values{
			"date": {"2025-03-01"}, "amount": {"100"}, "transaction_type": {"IN"}, "category": {"AL"},
		})
		require.Equal(t, http.StatusSeeOther, rec.Code)

		sent := e.backend.body("POST /transactions/")
		require.Equal(t, "IN", sent["transaction_type"])
		require.Contains(t, sent, "category")
		require.Nil(t, sent["category"])
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signIn(t, "A1", alice)

	rec := e.post("/transactions/2", url.Values{
		"date": {"2025-01-10"}, "amount": {"99"}, "transaction_type": {"IN"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/?notice=updated", rec.Header().Get("Location"))
	require.Equal(t, 1, e.backend.count("PUT /transactions/2/"))

	rec = e.post("/transactions/0", url.Values{
		"date": {"2025-01-10"}, "amount": {"99"}, "transaction_type": {"IN"},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTransaction(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signIn(t, "A1", alice)

	rec := e.post("/transactions/2/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/?notice=deleted", rec.Header().Get("Location"))
	require.Equal(t, 1, e.backend.count("DELETE /transactions/2/"))

	rec = e.post("/transactions/99/delete", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Not found.")

	rec = e.post("/transactions/abc/delete", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Zero(t, e.backend.count("DELETE /transactions/abc/"))
}

func TestExport(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signIn(t, "A1", alice)

	rec := e.get("/export.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	require.Equal(t, "attachment; filename=transactions-2025.csv", rec.Header().Get("Content-Disposition"))
	require.Equal(t, "date,amount\n2025-01-05,1000.00\n", rec.Body.String())
}

func TestProfile(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signIn(t, "A1", alice)

	rec := e.get("/profile")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `value="Trip"`)
	require.Contains(t, rec.Body.String(), `value="2000"`)

	rec = e.post("/profile", url.Values{"name": {"Alice"}, "goal_amount": {"-5"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "goal amount cannot be negative")
	require.Zero(t, e.backend.count("PUT /profile/"))

	rec = e.post("/profile", url.Values{"name": {"Alice"}, "goal_name": {"Car"}, "goal_amount": {"5000"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/profile?notice=profile", rec.Header().Get("Location"))

	sent := e.backend.body("PUT /profile/")
	require.Equal(t, "Car", sent["goal_name"])
	require.Equal(t, "5000", sent["goal_amount"])
	require.Equal(t, 1, e.backend.count("GET /me/"), "the session is reloaded after saving")
}
