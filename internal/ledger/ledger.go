// Package ledger computes the dashboard figures from a list of transactions.
// All functions are pure.
package ledger

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dimbox/dimbox/pkg/financesdk"
	"github.com/shopspring/decimal"
)

// DefaultGoalName is shown when the user never named their goal.
const DefaultGoalName = "Savings goal"

var hundred = decimal.NewFromInt(100)

// Summary is the totals over a set of transactions.
type Summary struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
	Count   int
}

// Summarize totals income and expense. Balance is income minus expense.
func Summarize(txs []financesdk.Transaction) Summary {
	var s Summary
	for _, tx := range txs {
		switch tx.Type {
		case financesdk.Income:
			s.Income = s.Income.Add(tx.Amount)
		case financesdk.Expense:
			s.Expense = s.Expense.Add(tx.Amount)
		default:
			continue
		}
		s.Count++
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}

// CategoryAmount is the expense total of one category.
type CategoryAmount struct {
	Category financesdk.Category
	Label    string
	Amount   decimal.Decimal
	// Share is the percentage of all expenses, rounded to one decimal.
	Share decimal.Decimal
}

// ByCategory groups expenses by category, largest first. Ties are broken by
// category code. Expenses without a category count as Other.
func ByCategory(txs []financesdk.Transaction) []CategoryAmount {
	totals := make(map[financesdk.Category]decimal.Decimal)
	var all decimal.Decimal
	for _, tx := range txs {
		if tx.Type != financesdk.Expense {
			continue
		}
		cat := tx.Category
		if cat == "" {
			cat = financesdk.CategoryOther
		}
		totals[cat] = totals[cat].Add(tx.Amount)
		all = all.Add(tx.Amount)
	}

	out := make([]CategoryAmount, 0, len(totals))
	for cat, amount := range totals {
		share := decimal.Zero
		if all.IsPositive() {
			share = amount.Mul(hundred).Div(all).Round(1)
		}
		out = append(out, CategoryAmount{Category: cat, Label: cat.Label(), Amount: amount, Share: share})
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MonthOverview is income and expense within one calendar month.
type MonthOverview struct {
	Year    int
	Month   time.Month
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Net is income minus expense.
func (m MonthOverview) Net() decimal.Decimal { return m.Income.Sub(m.Expense) }

// Label formats the month as "Jan 2025".
func (m MonthOverview) Label() string {
	return m.Month.String()[:3] + " " + strconv.Itoa(m.Year)
}

// ByMonth buckets transactions by calendar month in ascending order.
// Transactions without a date are skipped.
func ByMonth(txs []financesdk.Transaction) []MonthOverview {
	type key struct {
		year  int
		month time.Month
	}
	buckets := make(map[key]*MonthOverview)

	for _, tx := range txs {
		if tx.Date.IsZero() {
			continue
		}
		k := key{tx.Date.Year(), tx.Date.Month()}
		m, ok := buckets[k]
		if !ok {
			m = &MonthOverview{Year: k.year, Month: k.month}
			buckets[k] = m
		}
		switch tx.Type {
		case financesdk.Income:
			m.Income = m.Income.Add(tx.Amount)
		case financesdk.Expense:
			m.Expense = m.Expense.Add(tx.Amount)
		}
	}

	out := make([]MonthOverview, 0, len(buckets))
	for _, m := range buckets {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// GoalProgress is how far the balance is toward the savings goal.
type GoalProgress struct {
	Name      string
	Target    decimal.Decimal
	Saved     decimal.Decimal
	Remaining decimal.Decimal
	// Percent is in [0, 100] and rounded to one decimal.
	Percent decimal.Decimal
}

// Reached reports whether the target is set and met.
func (g GoalProgress) Reached() bool {
	return g.Target.IsPositive() && g.Saved.GreaterThanOrEqual(g.Target)
}

// Goal measures the balance of s against the profile's goal. A negative
// balance counts as nothing saved; a target of zero or less is 0%.
func Goal(profile *financesdk.UserProfile, s Summary) GoalProgress {
	g := GoalProgress{Name: DefaultGoalName}
	if profile != nil {
		if name := strings.TrimSpace(profile.GoalName); name != "" {
			g.Name = name
		}
		g.Target = profile.GoalAmount
	}

	g.Saved = decimal.Max(s.Balance, decimal.Zero)
	g.Remaining = decimal.Max(g.Target.Sub(g.Saved), decimal.Zero)

	if g.Target.IsPositive() {
		pct := g.Saved.Mul(hundred).Div(g.Target)
		g.Percent = decimal.Min(decimal.Max(pct, decimal.Zero), hundred).Round(1)
	}
	return g
}

// Filter keeps the transactions matching every set field of f. Dates are
// inclusive.
func Filter(txs []financesdk.Transaction, f financesdk.TransactionFilter) []financesdk.Transaction {
	out := make([]financesdk.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Type.Valid() && tx.Type != f.Type {
			continue
		}
		if f.Category != "" && tx.Category != f.Category {
			continue
		}
		if !f.From.IsZero() && tx.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && tx.Date.After(f.To) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
