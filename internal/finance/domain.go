package finance

import "time"

// EntryKind distinguishes money coming in from money going out.
type EntryKind string

const (
	KindIncome  EntryKind = "income"
	KindExpense EntryKind = "expense"
)

// ValidKind reports whether k is a known entry kind.
func ValidKind(k EntryKind) bool {
	return k == KindIncome || k == KindExpense
}

// Entry is a financial movement imported from the external system.
type Entry struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	ExternalRef string    `json:"external_ref"`
	Kind        EntryKind `json:"kind"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary aggregates entries into income, expense and balance.
type Summary struct {
	IncomeCents  int64 `json:"income_cents"`
	ExpenseCents int64 `json:"expense_cents"`
	BalanceCents int64 `json:"balance_cents"`
}

// SyncResult reports the outcome of one import run.
type SyncResult struct {
	Fetched  int       `json:"fetched"`
	Imported int       `json:"imported"`
	Cursor   time.Time `json:"cursor"`
}
