package ramp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a monetary value that the Ramp API encodes two ways: either a
// plain JSON number already in major currency units, or an object
// {"amount": minor, "minor_unit_conversion_rate": rate} where the major-unit
// value is minor/rate. A missing rate means cents, i.e. 100.
type Money struct {
	value decimal.Decimal
}

type minorUnitAmount struct {
	Amount                  json.Number `json:"amount"`
	MinorUnitConversionRate json.Number `json:"minor_unit_conversion_rate"`
}

// UnmarshalJSON accepts both amount encodings. Null and absent values both
// decode to zero rather than an error; incomplete records are weeded out
// later by the normalizer's skip policies, not here.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		m.value = decimal.Zero
		return nil
	}

	if data[0] == '{' {
		var obj minorUnitAmount
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("failed to parse amount object: %w", err)
		}
		minor, err := decimal.NewFromString(jsonNumberOrZero(obj.Amount))
		if err != nil {
			return fmt.Errorf("failed to parse minor amount %q: %w", obj.Amount, err)
		}
		rate := decimal.NewFromInt(100)
		if obj.MinorUnitConversionRate != "" {
			rate, err = decimal.NewFromString(obj.MinorUnitConversionRate.String())
			if err != nil {
				return fmt.Errorf("failed to parse conversion rate %q: %w", obj.MinorUnitConversionRate, err)
			}
		}
		if rate.IsZero() {
			rate = decimal.NewFromInt(100)
		}
		m.value = minor.Div(rate)
		return nil
	}

	value, err := decimal.NewFromString(strings.Trim(string(data), `"`))
	if err != nil {
		return fmt.Errorf("failed to parse amount %s: %w", data, err)
	}
	m.value = value
	return nil
}

// MarshalJSON renders the major-unit value as a plain number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.value.String()), nil
}

// Decimal returns the major-unit value.
func (m Money) Decimal() decimal.Decimal {
	return m.value
}

// IsZero reports whether the value is zero (including the never-set case).
func (m Money) IsZero() bool {
	return m.value.IsZero()
}

func jsonNumberOrZero(n json.Number) string {
	if n == "" {
		return "0"
	}
	return n.String()
}

// Code is an accounting code that some Ramp tenants store as a JSON string
// and others as a bare number.
type Code string

// UnmarshalJSON accepts both representations.
func (c *Code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	*c = Code(strings.TrimSpace(strings.Trim(string(data), `"`)))
	return nil
}

// String returns the trimmed code.
func (c Code) String() string {
	return string(c)
}

// Empty reports whether the code is usable as a G/L account number. The API
// has been observed to return the literal strings "None" and "null" for
// uncoded records.
func (c Code) Empty() bool {
	s := string(c)
	return s == "" || s == "None" || s == "null"
}

// CategoryInfo describes the accounting field a selection belongs to.
type CategoryInfo struct {
	Type       string `json:"type"`
	ExternalID string `json:"external_id"`
}

// AccountingFieldSelection is one tagged accounting entry on a line item:
// a G/L account, a department, or an activity code, discriminated by Type
// or by CategoryInfo depending on the resource kind.
type AccountingFieldSelection struct {
	Type         string       `json:"type"`
	ExternalCode Code         `json:"external_code"`
	CategoryInfo CategoryInfo `json:"category_info"`
}

// LineItem is a sub-entry of a transaction, bill, or reimbursement.
type LineItem struct {
	Memo                      string                     `json:"memo"`
	Amount                    Money                      `json:"amount"`
	AccountingFieldSelections []AccountingFieldSelection `json:"accounting_field_selections"`
}

// User identifies the employee a record belongs to.
type User struct {
	Name string `json:"name"`
}

// Vendor identifies the counterparty on a bill.
type Vendor struct {
	Name string `json:"name"`
}

// Card identifies the card a statement covers.
type Card struct {
	LastFour string `json:"last_four"`
}

// Transaction is a Ramp card transaction. Its amount arrives as a plain
// number in major units, unlike bills and cashbacks.
type Transaction struct {
	ID                  string     `json:"id"`
	Amount              Money      `json:"amount"`
	UserTransactionTime string     `json:"user_transaction_time"`
	Memo                string     `json:"memo"`
	MerchantName        string     `json:"merchant_name"`
	State               string     `json:"state"`
	LineItems           []LineItem `json:"line_items"`

	// Possible sync-flag locations; see IsAlreadySynced.
	Synced     *bool          `json:"synced"`
	SyncStatus map[string]any `json:"sync_status"`
	Metadata   map[string]any `json:"metadata"`
	Attributes map[string]any `json:"attributes"`
}

// Bill is a vendor invoice awaiting or past payment.
type Bill struct {
	ID        string     `json:"id"`
	Amount    Money      `json:"amount"`
	BillDate  string     `json:"bill_date"`
	CreatedAt string     `json:"created_at"`
	Memo      string     `json:"memo"`
	Vendor    Vendor     `json:"vendor"`
	LineItems []LineItem `json:"line_items"`
}

// Reimbursement is an employee expense reimbursement. Amounts and accounting
// coding live on the line items, not the record.
type Reimbursement struct {
	ID        string     `json:"id"`
	CreatedAt string     `json:"created_at"`
	Memo      string     `json:"memo"`
	User      User       `json:"user"`
	LineItems []LineItem `json:"line_items"`
}

// Cashback is a card reward credit.
type Cashback struct {
	ID          string `json:"id"`
	Amount      Money  `json:"amount"`
	EarnedAt    string `json:"earned_at"`
	Description string `json:"description"`
}

// Statement summarizes one card billing period.
type Statement struct {
	ID            string `json:"id"`
	TotalAmount   Money  `json:"total_amount"`
	StatementDate string `json:"statement_date"`
	Card          Card   `json:"card"`
}

// ResourceType names one of the five exportable Ramp collections. The value
// doubles as the API endpoint path segment.
type ResourceType string

const (
	ResourceTransactions   ResourceType = "transactions"
	ResourceBills          ResourceType = "bills"
	ResourceReimbursements ResourceType = "reimbursements"
	ResourceCashbacks      ResourceType = "cashbacks"
	ResourceStatements     ResourceType = "statements"
)

// AllResourceTypes lists the exportable collections in their canonical
// processing order.
var AllResourceTypes = []ResourceType{
	ResourceTransactions,
	ResourceBills,
	ResourceReimbursements,
	ResourceCashbacks,
	ResourceStatements,
}

// ParseResourceType validates a user-supplied resource type name.
func ParseResourceType(s string) (ResourceType, error) {
	for _, rt := range AllResourceTypes {
		if string(rt) == s {
			return rt, nil
		}
	}
	return "", fmt.Errorf("unknown resource type %q", s)
}
