// Package journal converts Ramp records into Business Central general
// journal lines. Each normalizer emits single-sided rows: the monetary
// amount sits on exactly one of the debit/credit columns and the batch
// balances across the Account / Bal. Account pair.
package journal

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// AccountTypeGL is the account type used on both sides of every line.
const AccountTypeGL = "G/L Account"

// lineNoStep is the Business Central convention for journal line numbers:
// multiples of 1000 leave room to insert lines later without renumbering.
const lineNoStep = 1000

// Columns is the canonical Business Central general journal column order.
// Every export uses this exact order regardless of which resource types
// contributed rows, so heterogeneous batches concatenate cleanly.
var Columns = []string{
	"Journal Template Name",
	"Journal Batch Name",
	"Line No.",
	"Posting Date",
	"Document Type",
	"Document No.",
	"Account Type",
	"Account No.",
	"Description",
	"Debit Amount",
	"Credit Amount",
	"Bal. Account Type",
	"Bal. Account No.",
	"Department Code",
	"Activity Code",
}

// Line is one Business Central general journal row.
type Line struct {
	TemplateName   string
	BatchName      string
	LineNo         int
	PostingDate    string
	DocumentType   string
	DocumentNo     string
	AccountType    string
	AccountNo      string
	Description    string
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	BalAccountType string
	BalAccountNo   string
	DepartmentCode string
	ActivityCode   string
}

// Record renders the line in canonical column order. Amounts are rounded to
// two decimal places here, at emission, not during intermediate computation.
func (l Line) Record() []string {
	return []string{
		l.TemplateName,
		l.BatchName,
		strconv.Itoa(l.LineNo),
		l.PostingDate,
		l.DocumentType,
		l.DocumentNo,
		l.AccountType,
		l.AccountNo,
		l.Description,
		l.Debit.StringFixed(2),
		l.Credit.StringFixed(2),
		l.BalAccountType,
		l.BalAccountNo,
		l.DepartmentCode,
		l.ActivityCode,
	}
}

// Result is the outcome of one normalizer call.
type Result struct {
	Lines []Line
	// Skipped counts records (or, for reimbursements, line items) dropped
	// for missing required G/L coding.
	Skipped int
}
