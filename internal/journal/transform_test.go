package journal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nwafound/ramp-bc-export/internal/config"
	"github.com/nwafound/ramp-bc-export/internal/ramp"
)

func testConfig() *config.Config {
	return &config.Config{
		BusinessCentral: config.BusinessCentralConfig{
			TemplateName:         "GENERAL",
			VendorPayableAccount: "20000",
			BankAccount:          "11005",
			OtherIncomeAccount:   "40000",
			RampCardAccount:      "26100",
		},
	}
}

func glSelection(code string) ramp.AccountingFieldSelection {
	var sel ramp.AccountingFieldSelection
	raw := `{"type": "GL_ACCOUNT", "external_code": "` + code + `"}`
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		panic(err)
	}
	return sel
}

func codedItem(code string) ramp.LineItem {
	return ramp.LineItem{
		AccountingFieldSelections: []ramp.AccountingFieldSelection{glSelection(code)},
	}
}

func moneyFromJSON(t *testing.T, raw string) ramp.Money {
	t.Helper()
	var m ramp.Money
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestTransactionLines(t *testing.T) {
	cfg := testConfig()
	logger := zap.NewNop()

	t.Run("coded transaction produces the documented row", func(t *testing.T) {
		transactions := []ramp.Transaction{
			{
				ID:                  "42",
				Amount:              moneyFromJSON(t, `19.5`),
				UserTransactionTime: "2024-03-15T10:22:31Z",
				Memo:                "Office supplies",
				LineItems:           []ramp.LineItem{codedItem("60100")},
			},
		}

		res := TransactionLines(transactions, cfg, logger)
		require.Len(t, res.Lines, 1)
		assert.Equal(t, 0, res.Skipped)

		line := res.Lines[0]
		assert.Equal(t, "GENERAL", line.TemplateName)
		assert.Equal(t, 1000, line.LineNo)
		assert.Equal(t, "2024-03-15", line.PostingDate)
		assert.Equal(t, "Payment", line.DocumentType)
		assert.Equal(t, "RAMP-42", line.DocumentNo)
		assert.Equal(t, "60100", line.AccountNo)
		assert.Equal(t, "19.50", line.Debit.StringFixed(2))
		assert.True(t, line.Credit.IsZero())
		assert.Equal(t, "26100", line.BalAccountNo)
	})

	t.Run("missing GL coding skips the record without aborting", func(t *testing.T) {
		transactions := []ramp.Transaction{
			{ID: "1", Amount: moneyFromJSON(t, `10`), LineItems: []ramp.LineItem{codedItem("60100")}},
			{ID: "2", Amount: moneyFromJSON(t, `20`)},
			{ID: "3", Amount: moneyFromJSON(t, `30`), LineItems: []ramp.LineItem{codedItem("60200")}},
		}

		res := TransactionLines(transactions, cfg, logger)
		require.Len(t, res.Lines, 2)
		assert.Equal(t, 1, res.Skipped)
		assert.Equal(t, "RAMP-1", res.Lines[0].DocumentNo)
		assert.Equal(t, "RAMP-3", res.Lines[1].DocumentNo)
	})

	t.Run("uncoded record is skipped even when amount is present", func(t *testing.T) {
		transactions := []ramp.Transaction{
			{
				ID:     "9",
				Amount: moneyFromJSON(t, `55.5`),
				LineItems: []ramp.LineItem{
					{AccountingFieldSelections: []ramp.AccountingFieldSelection{
						{Type: "GL_ACCOUNT", ExternalCode: ramp.Code("None")},
					}},
				},
			},
		}

		res := TransactionLines(transactions, cfg, logger)
		assert.Empty(t, res.Lines)
		assert.Equal(t, 1, res.Skipped)
	})

	t.Run("department and activity tags land on the row", func(t *testing.T) {
		var dept, activity ramp.AccountingFieldSelection
		require.NoError(t, json.Unmarshal([]byte(
			`{"type": "OTHER", "external_code": "OPS", "category_info": {"external_id": "Department"}}`), &dept))
		require.NoError(t, json.Unmarshal([]byte(
			`{"type": "OTHER", "external_code": "A-7", "category_info": {"external_id": "Activity Code"}}`), &activity))

		transactions := []ramp.Transaction{
			{
				ID:     "5",
				Amount: moneyFromJSON(t, `12`),
				LineItems: []ramp.LineItem{
					{AccountingFieldSelections: []ramp.AccountingFieldSelection{glSelection("60100"), dept, activity}},
				},
			},
		}

		res := TransactionLines(transactions, cfg, logger)
		require.Len(t, res.Lines, 1)
		assert.Equal(t, "OPS", res.Lines[0].DepartmentCode)
		assert.Equal(t, "A-7", res.Lines[0].ActivityCode)
	})

	t.Run("empty input is an empty result, not an error", func(t *testing.T) {
		res := TransactionLines(nil, cfg, logger)
		assert.Empty(t, res.Lines)
		assert.Equal(t, 0, res.Skipped)
	})
}

func TestBillLines(t *testing.T) {
	cfg := testConfig()
	logger := zap.NewNop()

	t.Run("coded bill debits the coded account", func(t *testing.T) {
		var sel ramp.AccountingFieldSelection
		require.NoError(t, json.Unmarshal([]byte(
			`{"external_code": "61000", "category_info": {"type": "GL_ACCOUNT"}}`), &sel))

		bills := []ramp.Bill{
			{
				ID:       "b1",
				Amount:   moneyFromJSON(t, `{"amount": 12345, "minor_unit_conversion_rate": 100}`),
				BillDate: "2024-02-01T00:00:00Z",
				Memo:     "Hosting",
				LineItems: []ramp.LineItem{
					{AccountingFieldSelections: []ramp.AccountingFieldSelection{sel}},
				},
			},
		}

		res := BillLines(bills, cfg, logger)
		require.Len(t, res.Lines, 1)
		line := res.Lines[0]
		assert.Equal(t, "Invoice", line.DocumentType)
		assert.Equal(t, "BILL-b1", line.DocumentNo)
		assert.Equal(t, "61000", line.AccountNo)
		assert.Equal(t, "123.45", line.Debit.StringFixed(2))
		assert.Equal(t, "20000", line.BalAccountNo)
	})

	t.Run("uncoded bill falls back to vendor payable, never skipped", func(t *testing.T) {
		bills := []ramp.Bill{
			{
				ID:     "b2",
				Amount: moneyFromJSON(t, `{"amount": 5000}`),
				Vendor: ramp.Vendor{Name: "Acme"},
			},
		}

		res := BillLines(bills, cfg, logger)
		require.Len(t, res.Lines, 1)
		assert.Equal(t, 0, res.Skipped)
		assert.Equal(t, "20000", res.Lines[0].AccountNo)
		assert.Equal(t, "50.00", res.Lines[0].Debit.StringFixed(2))
		assert.Equal(t, "Bill from Acme", res.Lines[0].Description)
	})

	t.Run("missing amount is treated as zero, not skipped", func(t *testing.T) {
		bills := []ramp.Bill{{ID: "b3"}}

		res := BillLines(bills, cfg, logger)
		require.Len(t, res.Lines, 1)
		assert.True(t, res.Lines[0].Debit.IsZero())
		assert.Equal(t, "Bill from Unknown Vendor", res.Lines[0].Description)
	})
}

func TestReimbursementLines(t *testing.T) {
	cfg := testConfig()
	logger := zap.NewNop()

	t.Run("one line per coded line item", func(t *testing.T) {
		item1 := codedItem("62000")
		item1.Amount = moneyFromJSON(t, `{"amount": 2500, "minor_unit_conversion_rate": 100}`)
		item2 := ramp.LineItem{Amount: moneyFromJSON(t, `{"amount": 900}`)} // uncoded
		item3 := codedItem("62100")
		item3.Amount = moneyFromJSON(t, `{"amount": 1000}`)

		reimbursements := []ramp.Reimbursement{
			{
				ID:        "r1",
				CreatedAt: "2024-01-20T08:00:00Z",
				User:      ramp.User{Name: "Dana"},
				LineItems: []ramp.LineItem{item1, item2, item3},
			},
		}

		res := ReimbursementLines(reimbursements, cfg, logger)
		require.Len(t, res.Lines, 2)
		assert.Equal(t, 1, res.Skipped)

		assert.Equal(t, "REIMB-r1", res.Lines[0].DocumentNo)
		assert.Equal(t, "62000", res.Lines[0].AccountNo)
		assert.Equal(t, "25.00", res.Lines[0].Debit.StringFixed(2))
		assert.Equal(t, "11005", res.Lines[0].BalAccountNo)
		assert.Equal(t, "Reimbursement for Dana", res.Lines[0].Description)

		assert.Equal(t, "62100", res.Lines[1].AccountNo)
		assert.Equal(t, 2000, res.Lines[1].LineNo)
	})

	t.Run("reimbursement with no line items is skipped", func(t *testing.T) {
		reimbursements := []ramp.Reimbursement{{ID: "r2"}}

		res := ReimbursementLines(reimbursements, cfg, logger)
		assert.Empty(t, res.Lines)
		assert.Equal(t, 1, res.Skipped)
	})
}

func TestCashbackLines(t *testing.T) {
	cfg := testConfig()
	logger := zap.NewNop()

	cashbacks := []ramp.Cashback{
		{
			ID:       "c1",
			Amount:   moneyFromJSON(t, `{"amount": 1550, "minor_unit_conversion_rate": 100}`),
			EarnedAt: "2024-04-30T12:00:00Z",
		},
	}

	res := CashbackLines(cashbacks, cfg, logger)
	require.Len(t, res.Lines, 1)
	line := res.Lines[0]
	assert.Equal(t, "CASHBACK-c1", line.DocumentNo)
	assert.Equal(t, "40000", line.AccountNo)
	assert.Equal(t, "15.50", line.Debit.StringFixed(2))
	assert.Equal(t, "11005", line.BalAccountNo)
	assert.Equal(t, "Cashback reward - Credit card cashback", line.Description)
	assert.Equal(t, 0, res.Skipped)
}

func TestStatementLines(t *testing.T) {
	cfg := testConfig()
	logger := zap.NewNop()

	statements := []ramp.Statement{
		{
			ID:            "s1",
			TotalAmount:   moneyFromJSON(t, `{"amount": 250000}`),
			StatementDate: "2024-05-31",
			Card:          ramp.Card{LastFour: "4242"},
		},
	}

	res := StatementLines(statements, cfg, logger)
	require.Len(t, res.Lines, 1)
	line := res.Lines[0]
	assert.Equal(t, "STMT-s1", line.DocumentNo)
	assert.Equal(t, "", line.DocumentType)
	assert.Equal(t, "26100", line.AccountNo)
	assert.True(t, line.Debit.IsZero())
	assert.Equal(t, "2500.00", line.Credit.StringFixed(2))
	assert.Equal(t, "", line.BalAccountType)
	assert.Equal(t, "", line.BalAccountNo)
	assert.Equal(t, "Credit card statement - 4242", line.Description)
}

func TestLineNumbersStepByThousand(t *testing.T) {
	cfg := testConfig()
	logger := zap.NewNop()

	transactions := make([]ramp.Transaction, 5)
	for i := range transactions {
		transactions[i] = ramp.Transaction{
			ID:        string(rune('a' + i)),
			Amount:    moneyFromJSON(t, `1`),
			LineItems: []ramp.LineItem{codedItem("60100")},
		}
	}

	res := TransactionLines(transactions, cfg, logger)
	require.Len(t, res.Lines, 5)
	for i, line := range res.Lines {
		assert.Equal(t, (i+1)*1000, line.LineNo)
	}
}

func TestExactlyOneSideNonzero(t *testing.T) {
	cfg := testConfig()
	logger := zap.NewNop()

	var lines []Line
	lines = append(lines, TransactionLines([]ramp.Transaction{
		{ID: "t", Amount: moneyFromJSON(t, `10`), LineItems: []ramp.LineItem{codedItem("60100")}},
	}, cfg, logger).Lines...)
	lines = append(lines, BillLines([]ramp.Bill{
		{ID: "b", Amount: moneyFromJSON(t, `{"amount": 100}`)},
	}, cfg, logger).Lines...)
	item := codedItem("62000")
	item.Amount = moneyFromJSON(t, `{"amount": 100}`)
	lines = append(lines, ReimbursementLines([]ramp.Reimbursement{
		{ID: "r", LineItems: []ramp.LineItem{item}},
	}, cfg, logger).Lines...)
	lines = append(lines, CashbackLines([]ramp.Cashback{
		{ID: "c", Amount: moneyFromJSON(t, `{"amount": 100}`)},
	}, cfg, logger).Lines...)
	lines = append(lines, StatementLines([]ramp.Statement{
		{ID: "s", TotalAmount: moneyFromJSON(t, `{"amount": 100}`)},
	}, cfg, logger).Lines...)

	require.Len(t, lines, 5)
	for _, line := range lines {
		debitSet := !line.Debit.IsZero()
		creditSet := !line.Credit.IsZero()
		assert.NotEqual(t, debitSet, creditSet,
			"line %s must have exactly one nonzero side", line.DocumentNo)
	}
}

func TestNormalizersAreIdempotent(t *testing.T) {
	cfg := testConfig()
	logger := zap.NewNop()

	transactions := []ramp.Transaction{
		{ID: "t1", Amount: moneyFromJSON(t, `3.33`), UserTransactionTime: "2024-06-01T00:00:00Z",
			LineItems: []ramp.LineItem{codedItem("60100")}},
		{ID: "t2", Amount: moneyFromJSON(t, `4.44`)},
	}

	first := TransactionLines(transactions, cfg, logger)
	second := TransactionLines(transactions, cfg, logger)

	require.Equal(t, first.Skipped, second.Skipped)
	require.Len(t, second.Lines, len(first.Lines))
	for i := range first.Lines {
		assert.Equal(t, first.Lines[i].Record(), second.Lines[i].Record())
	}
}

func TestRecordMatchesColumnOrder(t *testing.T) {
	var line Line
	assert.Len(t, line.Record(), len(Columns))
	assert.Equal(t, "Journal Template Name", Columns[0])
	assert.Equal(t, "Activity Code", Columns[len(Columns)-1])
}
