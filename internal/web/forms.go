package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dimbox/dimbox/pkg/financesdk"
	"github.com/shopspring/decimal"
)

// formError is a form value that could not be parsed at all, before the
// client-side validation of the finance client gets to see it.
type formError struct {
	Field string
	Err   error
}

func (e *formError) Error() string { return e.Field + ": " + e.Err.Error() }
func (e *formError) Unwrap() error { return e.Err }

// transactionForm is the transaction editor as the user filled it in.
type transactionForm struct {
	Action      string
	Editing     bool
	Date        string
	Amount      string
	Type        string
	Category    string
	Description string
}

func newTransactionForm() transactionForm {
	return transactionForm{Action: "/transactions", Type: financesdk.Expense.Code()}
}

func editTransactionForm(tx financesdk.Transaction) transactionForm {
	return transactionForm{
		Action:      "/transactions/" + strconv.FormatInt(tx.ID, 10),
		Editing:     true,
		Date:        tx.Date.String(),
		Amount:      tx.Amount.StringFixed(2),
		Type:        tx.Type.Code(),
		Category:    string(tx.Category),
		Description: tx.Description,
	}
}

// parseTransactionForm reads the editor fields. The category of an income is
// dropped, since the form shows a single category select for both types.
func parseTransactionForm(r *http.Request) (transactionForm, financesdk.TransactionInput, error) {
	form := transactionForm{
		Action:      r.URL.Path,
		Editing:     r.URL.Path != "/transactions",
		Date:        strings.TrimSpace(r.PostFormValue("date")),
		Amount:      strings.TrimSpace(r.PostFormValue("amount")),
		Type:        strings.TrimSpace(r.PostFormValue("transaction_type")),
		Category:    strings.ToUpper(strings.TrimSpace(r.PostFormValue("category"))),
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}

	var in financesdk.TransactionInput
	in.Description = form.Description

	typ, err := financesdk.ParseTransactionType(form.Type)
	if err != nil {
		return form, in, &formError{Field: "transaction_type", Err: financesdk.ErrInvalidType}
	}
	in.Type = typ
	form.Type = typ.Code()

	if form.Amount != "" {
		amount, err := decimal.NewFromString(form.Amount)
		if err != nil {
			return form, in, &formError{Field: "amount", Err: financesdk.ErrInvalidAmount}
		}
		in.Amount = amount
	}

	if form.Date != "" {
		date, err := financesdk.ParseDate(form.Date)
		if err != nil {
			return form, in, &formError{Field: "date", Err: financesdk.ErrInvalidDate}
		}
		in.Date = date
	}

	if typ == financesdk.Income {
		form.Category = ""
	} else {
		in.Category = financesdk.Category(form.Category)
	}
	return form, in, nil
}

// filterForm is the dashboard filter as given in the query string.
type filterForm struct {
	Type     string
	Category string
	From     string
	To       string
}

func parseFilter(r *http.Request) (filterForm, financesdk.TransactionFilter, error) {
	q := r.URL.Query()
	form := filterForm{
		Type:     strings.ToUpper(strings.TrimSpace(q.Get("type"))),
		Category: strings.ToUpper(strings.TrimSpace(q.Get("category"))),
		From:     strings.TrimSpace(q.Get("from")),
		To:       strings.TrimSpace(q.Get("to")),
	}

	var f financesdk.TransactionFilter
	if form.Type != "" {
		typ, err := financesdk.ParseTransactionType(form.Type)
		if err != nil {
			return filterForm{}, f, &formError{Field: "type", Err: financesdk.ErrInvalidType}
		}
		f.Type = typ
		form.Type = typ.Code()
	}
	if form.Category != "" {
		f.Category = financesdk.Category(form.Category)
		if !f.Category.Valid() {
			return filterForm{}, financesdk.TransactionFilter{}, &formError{Field: "category", Err: financesdk.ErrInvalidCategory}
		}
	}
	for _, d := range []struct {
		raw    string
		target *financesdk.Date
		field  string
	}{{form.From, &f.From, "from"}, {form.To, &f.To, "to"}} {
		if d.raw == "" {
			continue
		}
		date, err := financesdk.ParseDate(d.raw)
		if err != nil {
			return filterForm{}, financesdk.TransactionFilter{}, &formError{Field: d.field, Err: financesdk.ErrInvalidDate}
		}
		*d.target = date
	}
	return form, f, nil
}

// profileForm is the editable part of the profile page.
type profileForm struct {
	Name       string
	GoalName   string
	GoalAmount string
}

func profileFormOf(p *financesdk.UserProfile) profileForm {
	if p == nil {
		return profileForm{}
	}
	form := profileForm{Name: p.Name, GoalName: p.GoalName}
	if !p.GoalAmount.IsZero() {
		form.GoalAmount = p.GoalAmount.String()
	}
	return form
}

func parseProfileForm(r *http.Request) (profileForm, financesdk.ProfileUpdate, error) {
	form := profileForm{
		Name:       strings.TrimSpace(r.PostFormValue("name")),
		GoalName:   strings.TrimSpace(r.PostFormValue("goal_name")),
		GoalAmount: strings.TrimSpace(r.PostFormValue("goal_amount")),
	}
	update := financesdk.ProfileUpdate{Name: form.Name, GoalName: form.GoalName}
	if form.GoalAmount != "" {
		amount, err := decimal.NewFromString(form.GoalAmount)
		if err != nil {
			return form, update, &formError{Field: "goal_amount", Err: financesdk.ErrInvalidGoal}
		}
		update.GoalAmount = amount
	}
	return form, update, nil
}

// pathID parses the {id} wildcard.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, financesdk.ErrInvalidID
	}
	return id, nil
}
