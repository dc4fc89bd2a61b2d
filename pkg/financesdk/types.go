package financesdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ============================================================================
// Tokens
// ============================================================================

// TokenPair is the credential pair issued by POST /token/. Either half may be
// empty; the refresh endpoint only returns Access.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// LoginResult carries everything a successful login produced, so the caller
// can persist it in one step.
type LoginResult struct {
	Tokens  TokenPair
	Profile *UserProfile
}

// ============================================================================
// Users
// ============================================================================

// Role is the backend's authorization role.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Elevated reports whether r grants access to admin-only views.
// The is_staff and is_superuser flags are not consulted.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Assignable reports whether an admin may set r through set-role.
func (r Role) Assignable() bool {
	return r == RoleUser || r == RoleAdmin
}

// Plan is the subscription plan, sent on the wire as "subscription".
type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanPremium Plan = "PREMIUM"
)

func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPremium
}

// UserProfile is the authenticated user as returned by /me/ and /profile/.
// Those payloads carry no active flag; it only exists on AdminUser.
type UserProfile struct {
	ID          int64           `json:"id"`
	Username    string          `json:"username"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Role        Role            `json:"role"`
	Plan        Plan            `json:"subscription"`
	GoalName    string          `json:"goal_name"`
	GoalAmount  decimal.Decimal `json:"goal_amount"`
	RecordCount int             `json:"record_count"`
	IsStaff     bool            `json:"is_staff"`
	IsSuperuser bool            `json:"is_superuser"`
}

// IsElevated reports whether the user may open admin-only views.
func (u *UserProfile) IsElevated() bool {
	return u != nil && u.Role.Elevated()
}

// DisplayName returns Name, falling back to Username.
func (u *UserProfile) DisplayName() string {
	if u == nil {
		return ""
	}
	if n := strings.TrimSpace(u.Name); n != "" {
		return n
	}
	return u.Username
}

// ProfileUpdate is the settable part of a profile (PUT /profile/).
type ProfileUpdate struct {
	Name       string          `json:"name"`
	GoalName   string          `json:"goal_name"`
	GoalAmount decimal.Decimal `json:"goal_amount"`
}

// Validate checks the update before it is sent.
func (p ProfileUpdate) Validate() error {
	if p.GoalAmount.IsNegative() {
		return invalid("goal_amount", ErrInvalidGoal)
	}
	return nil
}

// RegisterRequest is the body of POST /register/.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Validate checks the required fields.
func (r RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return invalid("username", ErrMissingCredentials)
	}
	if r.Password == "" {
		return invalid("password", ErrMissingCredentials)
	}
	return nil
}

// ============================================================================
// Transactions
// ============================================================================

// TransactionType is the normalized kind of a transaction. It is decided from
// the backend's transaction_type field only.
type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Code returns the backend code, IN or OUT.
func (t TransactionType) Code() string {
	switch t {
	case Income:
		return "IN"
	case Expense:
		return "OUT"
	}
	return ""
}

// ParseTransactionType accepts IN, OUT, INCOME and EXPENSE in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IN", "INCOME":
		return Income, nil
	case "OUT", "EXPENSE":
		return Expense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

func (t TransactionType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, string(t))
	}
	return json.Marshal(t.Code())
}

func (t *TransactionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidType, data)
	}
	parsed, err := ParseTransactionType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Category is a backend expense category code.
type Category string

const (
	CategoryFood      Category = "AL"
	CategoryTransport Category = "TR"
	CategoryUtilities Category = "SE"
	CategoryHousing   Category = "VI"
	CategoryLeisure   Category = "OC"
	CategoryHealth    Category = "SA"
	CategoryEducation Category = "ED"
	CategoryOther     Category = "OT"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFood, CategoryTransport, CategoryUtilities, CategoryHousing,
	CategoryLeisure, CategoryHealth, CategoryEducation, CategoryOther,
}

var categoryLabels = map[Category]string{
	CategoryFood:      "Food",
	CategoryTransport: "Transport",
	CategoryUtilities: "Utilities",
	CategoryHousing:   "Housing",
	CategoryLeisure:   "Leisure",
	CategoryHealth:    "Health",
	CategoryEducation: "Education",
	CategoryOther:     "Other",
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human readable name, or the raw code if unknown.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// MarshalJSON writes null for the empty category so an update can clear it.
func (c Category) MarshalJSON() ([]byte, error) {
	if c == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

func (c *Category) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = Category(strings.ToUpper(strings.TrimSpace(s)))
	return nil
}

// Date is a civil date serialized as YYYY-MM-DD.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

// NewDate returns the date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the civil date of t in its own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Date())
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{t: t}, nil
}

func (d Date) IsZero() bool { return d.t.IsZero() }
func (d Date) Time() time.Time { return d.t }
func (d Date) Year() int { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Transaction is a stored income or expense record.
type Transaction struct {
	ID          int64           `json:"id"`
	Type        TransactionType `json:"transaction_type"`
	Amount      decimal.Decimal `json:"amount"`
	Date        Date            `json:"date"`
	Category    Category        `json:"category"`
	Description string          `json:"description,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
}

// MaxDescriptionLen bounds TransactionInput.Description in characters.
const MaxDescriptionLen = 500

// TransactionInput is the body of a create or update.
type TransactionInput struct {
	Date        Date            `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"transaction_type"`
	Category    Category        `json:"category"`
	Description string          `json:"description"`
}

// Validate rejects input the backend would refuse, so that no request is
// sent for it.
func (in TransactionInput) Validate() error {
	if !in.Amount.IsPositive() {
		return invalid("amount", ErrInvalidAmount)
	}
	if in.Date.IsZero() {
		return invalid("date", ErrMissingDate)
	}
	if !in.Type.Valid() {
		return invalid("transaction_type", ErrInvalidType)
	}
	switch in.Type {
	case Expense:
		if in.Category == "" {
			return invalid("category", ErrCategoryRequired)
		}
		if !in.Category.Valid() {
			return invalid("category", ErrInvalidCategory)
		}
	case Income:
		if in.Category != "" {
			return invalid("category", ErrCategoryNotAllowed)
		}
	}
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLen {
		return invalid("description", ErrDescriptionTooLong)
	}
	return nil
}

// TransactionFilter narrows GET /transactions/. Zero fields are not sent.
type TransactionFilter struct {
	Type     TransactionType
	Category Category
	From     Date
	To       Date
}

func (f TransactionFilter) values() url.Values {
	v := url.Values{}
	if f.Type.Valid() {
		v.Set("transaction_type", f.Type.Code())
	}
	if f.Category != "" {
		v.Set("category", string(f.Category))
	}
	if !f.From.IsZero() {
		v.Set("date_from", f.From.String())
	}
	if !f.To.IsZero() {
		v.Set("date_to", f.To.String())
	}
	return v
}

// Export is a downloaded CSV file.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ============================================================================
// Admin
// ============================================================================

// AdminStats is the aggregate returned by /admin/stats/.
type AdminStats struct {
	Total   int `json:"total"`
	Premium int `json:"premium"`
	Free    int `json:"free"`
	Active  int `json:"active"`
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// ListUsersParams filters and paginates /admin/users/.
type ListUsersParams struct {
	Query    string
	Plan     Plan
	Active   *bool
	Page     int
	PageSize int
}

// Validate rejects an unknown plan filter.
func (p ListUsersParams) Validate() error {
	if p.Plan != "" && !p.Plan.Valid() {
		return invalid("plan", ErrInvalidPlan)
	}
	return nil
}

func (p ListUsersParams) values() url.Values {
	v := url.Values{}
	if q := strings.TrimSpace(p.Query); q != "" {
		v.Set("q", q)
	}
	if p.Plan != "" {
		v.Set("plan", string(p.Plan))
	}
	if p.Active != nil {
		v.Set("active", strconv.FormatBool(*p.Active))
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(min(p.PageSize, MaxPageSize)))
	}
	return v
}

// AdminUser is one row of the admin user list.
type AdminUser struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        Role   `json:"role"`
	Plan        Plan   `json:"subscription"`
	IsActive    bool   `json:"is_active"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
	RecordCount int    `json:"record_count"`
	DateJoined  string `json:"date_joined,omitempty"`
}

// UserPage is one page of /admin/users/.
type UserPage struct {
	Count   int         `json:"count"`
	Results []AdminUser `json:"results"`
}

// Pages returns the number of pages for the given page size.
func (p UserPage) Pages(pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if p.Count == 0 {
		return 1
	}
	return (p.Count + pageSize - 1) / pageSize
}

// AdminUserResult is the response of every admin set-* action.
type AdminUserResult struct {
	OK   bool      `json:"ok"`
	User AdminUser `json:"user"`
}
