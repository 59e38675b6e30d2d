package journal

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nwafound/ramp-bc-export/internal/config"
	"github.com/nwafound/ramp-bc-export/internal/ramp"
)

// Per-type batch names used when the config leaves batch_name empty.
const (
	batchTransactions   = "RAMP_IMPORT"
	batchBills          = "RAMP_BILLS"
	batchReimbursements = "RAMP_REIMB"
	batchCashbacks      = "RAMP_CASHBACK"
	batchStatements     = "RAMP_STMTS"
)

func batchName(cfg *config.Config, fallback string) string {
	if cfg.BusinessCentral.BatchName != "" {
		return cfg.BusinessCentral.BatchName
	}
	return fallback
}

func docNo(prefix, id string, index int) string {
	if id == "" {
		return fmt.Sprintf("%s-%d", prefix, index)
	}
	return fmt.Sprintf("%s-%s", prefix, id)
}

// TransactionLines converts card transactions into journal lines using the
// G/L account already coded on the transaction. Transactions are payments:
// debit the coded expense account, credit the card clearing account. A
// transaction without a G/L code is skipped with a warning; it never aborts
// the batch.
func TransactionLines(transactions []ramp.Transaction, cfg *config.Config, logger *zap.Logger) Result {
	var res Result
	if len(transactions) == 0 {
		return res
	}

	logger.Info("Transforming transactions",
		zap.Int("count", len(transactions)))

	bc := cfg.BusinessCentral
	lineNo := lineNoStep

	for i, t := range transactions {
		no := docNo("RAMP", t.ID, i)

		dims := scanSelections(firstItemSelections(t.LineItems), false)
		if dims.glAccount.Empty() {
			logger.Warn("Transaction is missing a G/L account code, skipping",
				zap.String("document_no", no))
			res.Skipped++
			continue
		}

		description := t.Memo
		if description == "" {
			description = t.MerchantName
		}
		if description == "" {
			description = "Ramp Transaction"
		}

		amount := t.Amount.Decimal()

		res.Lines = append(res.Lines, Line{
			TemplateName:   bc.TemplateName,
			BatchName:      batchName(cfg, batchTransactions),
			LineNo:         lineNo,
			PostingDate:    postingDate(t.UserTransactionTime),
			DocumentType:   "Payment",
			DocumentNo:     no,
			AccountType:    AccountTypeGL,
			AccountNo:      dims.glAccount.String(),
			Description:    description,
			Debit:          amount,
			Credit:         decimal.Zero,
			BalAccountType: AccountTypeGL,
			BalAccountNo:   bc.RampCardAccount,
			DepartmentCode: dims.department,
			ActivityCode:   dims.activity,
		})
		lineNo += lineNoStep
	}

	return res
}

// BillLines converts bills into journal lines. Bills are vendor invoices:
// debit the coded expense account (or the vendor payable account when the
// bill carries no coding), credit vendor payable. Bills are never skipped.
func BillLines(bills []ramp.Bill, cfg *config.Config, logger *zap.Logger) Result {
	var res Result
	if len(bills) == 0 {
		return res
	}

	logger.Info("Transforming bills",
		zap.Int("count", len(bills)))

	bc := cfg.BusinessCentral
	lineNo := lineNoStep

	for i, b := range bills {
		no := docNo("BILL", b.ID, i)

		dims := scanSelections(firstItemSelections(b.LineItems), true)
		expenseAccount := dims.glAccount.String()
		if dims.glAccount.Empty() {
			expenseAccount = bc.VendorPayableAccount
		}

		description := b.Memo
		if description == "" && len(b.LineItems) > 0 {
			description = b.LineItems[0].Memo
		}
		if description == "" {
			vendor := b.Vendor.Name
			if vendor == "" {
				vendor = "Unknown Vendor"
			}
			description = "Bill from " + vendor
		}

		res.Lines = append(res.Lines, Line{
			TemplateName:   bc.TemplateName,
			BatchName:      batchName(cfg, batchBills),
			LineNo:         lineNo,
			PostingDate:    postingDate(b.BillDate, b.CreatedAt),
			DocumentType:   "Invoice",
			DocumentNo:     no,
			AccountType:    AccountTypeGL,
			AccountNo:      expenseAccount,
			Description:    description,
			Debit:          b.Amount.Decimal(),
			Credit:         decimal.Zero,
			BalAccountType: AccountTypeGL,
			BalAccountNo:   bc.VendorPayableAccount,
			DepartmentCode: dims.department,
			ActivityCode:   dims.activity,
		})
		lineNo += lineNoStep
	}

	return res
}

// ReimbursementLines converts reimbursements into journal lines, one per
// line item, using the employee's own expense coding: debit the coded
// account, credit the bank account the reimbursement was paid from. Line
// items without a G/L code are skipped individually; the rest of the
// reimbursement still exports.
func ReimbursementLines(reimbursements []ramp.Reimbursement, cfg *config.Config, logger *zap.Logger) Result {
	var res Result
	if len(reimbursements) == 0 {
		return res
	}

	logger.Info("Transforming reimbursements",
		zap.Int("count", len(reimbursements)))

	bc := cfg.BusinessCentral
	lineNo := lineNoStep

	for i, r := range reimbursements {
		no := docNo("REIMB", r.ID, i)

		employee := r.User.Name
		if employee == "" {
			employee = "Employee"
		}

		if len(r.LineItems) == 0 {
			logger.Warn("Reimbursement has no line items, skipping",
				zap.String("document_no", no))
			res.Skipped++
			continue
		}

		for li, item := range r.LineItems {
			dims := scanSelections(item.AccountingFieldSelections, false)
			if dims.glAccount.Empty() {
				logger.Warn("Reimbursement line is missing a G/L account code, skipping line",
					zap.String("document_no", no),
					zap.Int("line_index", li))
				res.Skipped++
				continue
			}

			description := r.Memo
			if description == "" {
				description = "Reimbursement for " + employee
			}

			res.Lines = append(res.Lines, Line{
				TemplateName:   bc.TemplateName,
				BatchName:      batchName(cfg, batchReimbursements),
				LineNo:         lineNo,
				PostingDate:    postingDate(r.CreatedAt),
				DocumentType:   "Payment",
				DocumentNo:     no,
				AccountType:    AccountTypeGL,
				AccountNo:      dims.glAccount.String(),
				Description:    description,
				Debit:          item.Amount.Decimal(),
				Credit:         decimal.Zero,
				BalAccountType: AccountTypeGL,
				BalAccountNo:   bc.BankAccount,
				DepartmentCode: dims.department,
				ActivityCode:   dims.activity,
			})
			lineNo += lineNoStep
		}
	}

	return res
}

// CashbackLines converts cashbacks into journal lines: debit other income,
// credit the bank account. Cashbacks carry no coding and are never skipped.
func CashbackLines(cashbacks []ramp.Cashback, cfg *config.Config, logger *zap.Logger) Result {
	var res Result
	if len(cashbacks) == 0 {
		return res
	}

	logger.Info("Transforming cashbacks",
		zap.Int("count", len(cashbacks)))

	bc := cfg.BusinessCentral
	lineNo := lineNoStep

	for i, cb := range cashbacks {
		description := cb.Description
		if description == "" {
			description = "Credit card cashback"
		}

		res.Lines = append(res.Lines, Line{
			TemplateName:   bc.TemplateName,
			BatchName:      batchName(cfg, batchCashbacks),
			LineNo:         lineNo,
			PostingDate:    postingDate(cb.EarnedAt),
			DocumentType:   "Payment",
			DocumentNo:     docNo("CASHBACK", cb.ID, i),
			AccountType:    AccountTypeGL,
			AccountNo:      bc.OtherIncomeAccount,
			Description:    "Cashback reward - " + description,
			Debit:          cb.Amount.Decimal(),
			Credit:         decimal.Zero,
			BalAccountType: AccountTypeGL,
			BalAccountNo:   bc.BankAccount,
		})
		lineNo += lineNoStep
	}

	return res
}

// StatementLines converts statements into credit-only informational lines
// against the card clearing account, for period reconciliation. They carry
// no document type and no balancing account, and are never skipped.
func StatementLines(statements []ramp.Statement, cfg *config.Config, logger *zap.Logger) Result {
	var res Result
	if len(statements) == 0 {
		return res
	}

	logger.Info("Transforming statements",
		zap.Int("count", len(statements)))

	bc := cfg.BusinessCentral
	lineNo := lineNoStep

	for i, s := range statements {
		lastFour := s.Card.LastFour
		if lastFour == "" {
			lastFour = "XXXX"
		}

		res.Lines = append(res.Lines, Line{
			TemplateName: bc.TemplateName,
			BatchName:    batchName(cfg, batchStatements),
			LineNo:       lineNo,
			PostingDate:  postingDate(s.StatementDate),
			DocumentNo:   docNo("STMT", s.ID, i),
			AccountType:  AccountTypeGL,
			AccountNo:    bc.RampCardAccount,
			Description:  "Credit card statement - " + lastFour,
			Debit:        decimal.Zero,
			Credit:       s.TotalAmount.Decimal(),
		})
		lineNo += lineNoStep
	}

	return res
}
