package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/finflow/internal/api"
	"github.com/Veraticus/finflow/internal/ledger"
	"github.com/Veraticus/finflow/internal/model"
	"github.com/Veraticus/finflow/internal/prefs"
)

var (
	food   = model.Category{ID: "c1", Name: "Food", Type: model.TypeExpense}
	salary = model.Category{ID: "c2", Name: "Salary", Type: model.TypeIncome}
)

func fixtures() []model.Transaction {
	return []model.Transaction{
		{ID: "t1", Type: model.TypeExpense, Amount: decimal.NewFromInt(50000), Category: food, Date: "2024-03-01", Description: "lunch"},
		{ID: "t2", Type: model.TypeIncome, Amount: decimal.NewFromInt(900000), Category: salary, Date: "2024-02-28", Description: "payday"},
	}
}

type harness struct {
	mock     *api.MockClient
	prefPath string
}

// newHarness points every command at a mock server and a temporary
// preference database.
func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		mock:     api.NewMockClient(),
		prefPath: filepath.Join(t.TempDir(), "prefs.db"),
	}
	h.mock.ListCategoriesFn = func(context.Context) ([]model.Category, error) {
		return []model.Category{food, salary}, nil
	}
	h.mock.ListTransactionsFn = func(context.Context) ([]model.Transaction, error) {
		return fixtures(), nil
	}

	orig := newApp
	newApp = func(cmd *cobra.Command) (*app, error) {
		store, err := prefs.Open(h.prefPath, "http://localhost:8080")
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(cmd.Context()); err != nil {
			return nil, err
		}
		return &app{
			store:  store,
			ledger: ledger.New(h.mock),
			out:    cmd.OutOrStdout(),
			errOut: cmd.ErrOrStderr(),
			in:     cmd.InOrStdin(),
		}, nil
	}
	t.Cleanup(func() { newApp = orig })

	return h
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--config", filepath.Join("testdata", "config.yaml")))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "finflow dev\n", out)
}

func TestTransactionsList(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name: "all",
			args: []string{"transactions", "list"},
			want: []string{"lunch", "payday", "-50,000 Rial", "Balance:  850,000 Rial"},
		},
		{
			name:    "by month",
			args:    []string{"transactions", "list", "--month", "2024-02"},
			want:    []string{"payday", "Expenses: 0 Rial"},
			notWant: []string{"lunch"},
		},
		{
			name:    "by category",
			args:    []string{"tx", "list", "--category", "c1"},
			want:    []string{"lunch"},
			notWant: []string{"payday"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			out, err := h.run(t, "", tt.args...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			for _, notWant := range tt.notWant {
				assert.NotContains(t, out, notWant)
			}
		})
	}
}

func TestOfflineDiagnostic(t *testing.T) {
	h := newHarness(t)
	h.mock.ListCategoriesFn = func(context.Context) ([]model.Category, error) {
		return nil, errors.New("dial tcp 127.0.0.1:8080: connect: connection refused")
	}

	out, err := h.run(t, "", "transactions", "list")
	require.ErrorIs(t, err, errOffline)
	assert.Contains(t, out, "OFFLINE or BLOCKED")
	assert.Contains(t, out, "http://localhost:8080")
	assert.Contains(t, out, "connection refused")
	assert.Zero(t, h.mock.CallCount("ListTransactions"))
}

func TestTransactionsAdd(t *testing.T) {
	t.Run("default category of the type", func(t *testing.T) {
		h := newHarness(t)

		out, err := h.run(t, "", "transactions", "add", "--amount", "50000", "--date", "2024-03-01", "--description", "lunch")
		require.NoError(t, err)

		require.Len(t, h.mock.CreateTransactionCalls, 1)
		req := h.mock.CreateTransactionCalls[0]
		assert.Equal(t, model.TypeExpense, req.Type)
		assert.Equal(t, model.ID("c1"), req.CategoryID)
		assert.Equal(t, "50000", req.Amount.String())
		assert.Contains(t, out, "Added expense of 50,000 Rial in Food (ID: new)")
	})

	t.Run("explicit income category", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.run(t, "", "transactions", "add", "--type", "income", "--amount", "1200.50", "--category", "c2", "--date", "2024-03-02")
		require.NoError(t, err)
		require.Len(t, h.mock.CreateTransactionCalls, 1)
		assert.Equal(t, model.ID("c2"), h.mock.CreateTransactionCalls[0].CategoryID)
	})

	t.Run("new category", func(t *testing.T) {
		h := newHarness(t)

		out, err := h.run(t, "", "transactions", "add", "--amount", "1200", "--date", "2024-03-03", "--new-category", "Rent")
		require.NoError(t, err)

		assert.Equal(t, []model.CategoryDraft{{Name: "Rent", Type: model.TypeExpense}}, h.mock.CreateCategoryCalls)
		require.Len(t, h.mock.CreateTransactionCalls, 1)
		assert.Equal(t, model.ID("new"), h.mock.CreateTransactionCalls[0].CategoryID)
		assert.Equal(t, []string{"ListCategories", "ListTransactions", "CreateCategory", "CreateTransaction"}, h.mock.Calls)
		assert.Contains(t, out, "in Rent")
	})

	t.Run("new category rejected by server", func(t *testing.T) {
		h := newHarness(t)
		h.mock.CreateCategoryFn = func(context.Context, model.CategoryDraft) (model.Category, error) {
			return model.Category{}, errors.New("Duplicate category")
		}

		_, err := h.run(t, "", "transactions", "add", "--amount", "1200", "--new-category", "Food")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create category: Duplicate category")
		assert.Equal(t, 1, h.mock.CallCount("CreateCategory"))
		assert.Zero(t, h.mock.CallCount("CreateTransaction"))
	})

	failures := []struct {
		name string
		args []string
		want string
	}{
		{name: "bad amount", args: []string{"--amount", "abc"}, want: "invalid amount"},
		{name: "negative amount", args: []string{"--amount", "-5"}, want: "amount must not be negative"},
		{name: "bad type", args: []string{"--amount", "5", "--type", "transfer"}, want: "invalid transaction type"},
		{name: "bad date", args: []string{"--amount", "5", "--date", "03/01/2024"}, want: "date must be a date in YYYY-MM-DD form"},
		{name: "unknown category", args: []string{"--amount", "5", "--category", "c9"}, want: `category "c9" not found`},
		{name: "both category flags", args: []string{"--amount", "5", "--category", "c1", "--new-category", "Rent"}, want: "not both"},
		{name: "blank new category", args: []string{"--amount", "5", "--new-category", " "}, want: "name is required"},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.run(t, "", append([]string{"transactions", "add"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Zero(t, h.mock.CallCount("CreateTransaction"))
		})
	}
}

func TestTransactionsUpdate(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "transactions", "update", "t1", "--amount", "60000")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated transaction t1")

	require.Len(t, h.mock.UpdateTransactionCalls, 1)
	call := h.mock.UpdateTransactionCalls[0]
	assert.Equal(t, model.ID("t1"), call.ID)
	assert.Equal(t, "60000", call.Request.Amount.String())
	assert.Equal(t, "lunch", call.Request.Description)
	assert.Equal(t, model.ID("c1"), call.Request.CategoryID)
	assert.Equal(t, "2024-03-01", call.Request.Date)

	_, err = h.run(t, "", "transactions", "update", "t1")
	assert.Error(t, err)

	_, err = h.run(t, "", "transactions", "update", "missing", "--amount", "1")
	assert.EqualError(t, err, `transaction "missing" not found`)
}

func TestTransactionsDelete(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "n\n", "transactions", "delete", "t1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deletion cancelled.")
	assert.Zero(t, h.mock.CallCount("DeleteTransaction"))

	out, err = h.run(t, "y\n", "transactions", "delete", "t1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted transaction t1")

	_, err = h.run(t, "", "transactions", "delete", "t2", "--force")
	require.NoError(t, err)
	assert.Equal(t, []model.ID{"t1", "t2"}, h.mock.DeleteTransactionCalls)
}

func TestCategories(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.run(t, "", "categories", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "Food")
		assert.Contains(t, out, "Salary")
	})

	t.Run("add", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.run(t, "", "categories", "add", "Rent")
		require.NoError(t, err)
		assert.Equal(t, []model.CategoryDraft{{Name: "Rent", Type: model.TypeExpense}}, h.mock.CreateCategoryCalls)
		assert.Contains(t, out, `Created expense category "Rent" (ID: new)`)
	})

	t.Run("add blank name", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run(t, "", "categories", "add", "  ")
		require.Error(t, err)
		assert.Zero(t, h.mock.CallCount("CreateCategory"))
	})

	t.Run("update keeps unspecified fields", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run(t, "", "categories", "update", "c1", "--name", "Groceries")
		require.NoError(t, err)
		assert.Equal(t, []model.Category{{ID: "c1", Name: "Groceries", Type: model.TypeExpense}}, h.mock.UpdateCategoryCalls)
	})

	t.Run("delete in use is rejected locally", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run(t, "", "categories", "delete", "c1", "--force")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "this category is used by existing transactions and cannot be deleted")
		assert.Zero(t, h.mock.CallCount("DeleteCategory"))
	})

	t.Run("delete unused", func(t *testing.T) {
		h := newHarness(t)
		h.mock.ListTransactionsFn = func(context.Context) ([]model.Transaction, error) {
			return nil, nil
		}
		_, err := h.run(t, "", "categories", "delete", "c1", "--force")
		require.NoError(t, err)
		assert.Equal(t, []model.ID{"c1"}, h.mock.DeleteCategoryCalls)
	})
}

func TestSummaryAndMonths(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "summary", "--chart", "bar")
	require.NoError(t, err)
	assert.Contains(t, out, "Income:   900,000 Rial")
	assert.Contains(t, out, "Expenses by category (bar)")

	out, err = h.run(t, "", "summary", "--month", "2024-02")
	require.NoError(t, err)
	assert.Contains(t, out, "No expenses to chart.")

	_, err = h.run(t, "", "summary", "--chart", "radar")
	assert.Error(t, err)

	out, err = h.run(t, "", "months")
	require.NoError(t, err)
	assert.Equal(t, "2024-03\n2024-02\n", out)
}

func TestSettings(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "IRR (Rial)")
	assert.Contains(t, out, "Preferences: "+h.prefPath)

	_, err = h.run(t, "", "settings", "set", "--currency", "usd", "--chart", "line")
	require.NoError(t, err)

	out, err = h.run(t, "", "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "USD (Dollar)")
	assert.Contains(t, out, "line")

	out, err = h.run(t, "", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Expenses by category (line)")
	assert.Contains(t, out, "Dollar")

	_, err = h.run(t, "", "settings", "set")
	assert.Error(t, err)
	_, err = h.run(t, "", "settings", "set", "--currency", "GBP")
	assert.Error(t, err)
}

func TestServer(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "server", "set", " http://10.0.0.2:8080/ ")
	require.NoError(t, err)
	assert.Contains(t, out, "Server address saved: http://10.0.0.2:8080")
	assert.Contains(t, out, "online")
	assert.Equal(t, 1, h.mock.CallCount("ListCategories"))

	out, err = h.run(t, "", "server", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Server:  http://10.0.0.2:8080")
	assert.Contains(t, out, "Default: http://localhost:8080")

	out, err = h.run(t, "", "server", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Server address reset to http://localhost:8080")

	_, err = h.run(t, "", "server", "set", "/")
	assert.ErrorIs(t, err, prefs.ErrEmptyBaseURL)
}

func TestStatus(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Server: http://localhost:8080")
	assert.Contains(t, out, "online")
	assert.Contains(t, out, "Health check:")
	assert.Contains(t, out, "Loaded 2 transactions in 2 categories")
	assert.Equal(t, []string{"CheckConnection", "ListCategories", "ListTransactions"}, h.mock.Calls)
}

func TestStatus_Unreachable(t *testing.T) {
	h := newHarness(t)
	h.mock.CheckConnectionFn = func(context.Context) bool { return false }
	h.mock.ListCategoriesFn = func(context.Context) ([]model.Category, error) {
		return nil, errors.New("dial tcp 127.0.0.1:8080: connect: connection refused")
	}

	out, err := h.run(t, "", "status")
	require.ErrorIs(t, err, errOffline)
	assert.Contains(t, out, "Health check:")
	assert.Contains(t, out, "offline")
	assert.Contains(t, out, "OFFLINE or BLOCKED")
	assert.NotContains(t, out, "Loaded")
}

const importOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240331120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240301120000[0:GMT]
<TRNAMT>-50000
<FITID>MAR01
<NAME>lunch
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240305120000[0:GMT]
<TRNAMT>-12.50
<FITID>MAR05
<NAME>POS PURCHASE CORNER BAKERY
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240331120000[0:GMT]
<TRNAMT>900000
<FITID>MAR31
<NAME>ACME PAYROLL
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240331120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func writeOFX(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "march.qfx")
	require.NoError(t, os.WriteFile(path, []byte(importOFX), 0o600))
	return path
}

func TestImportOFX(t *testing.T) {
	t.Run("creates new lines and skips existing ones", func(t *testing.T) {
		h := newHarness(t)

		out, err := h.run(t, "", "import-ofx", writeOFX(t))
		require.NoError(t, err)

		require.Len(t, h.mock.CreateTransactionCalls, 2)
		bakery := h.mock.CreateTransactionCalls[0]
		assert.Equal(t, model.TypeExpense, bakery.Type)
		assert.Equal(t, model.ID("c1"), bakery.CategoryID)
		assert.Equal(t, "CORNER BAKERY", bakery.Description)
		assert.Equal(t, "2024-03-05", bakery.Date)

		payroll := h.mock.CreateTransactionCalls[1]
		assert.Equal(t, model.TypeIncome, payroll.Type)
		assert.Equal(t, model.ID("c2"), payroll.CategoryID)

		assert.Contains(t, out, "Import Complete")
		assert.Contains(t, out, "Created: 2")
		assert.Contains(t, out, "Skipped: 1")
	})

	t.Run("dry run", func(t *testing.T) {
		h := newHarness(t)

		out, err := h.run(t, "", "import-ofx", "--dry-run", writeOFX(t))
		require.NoError(t, err)
		assert.Zero(t, h.mock.CallCount("CreateTransaction"))
		assert.Contains(t, out, "Would create: 2")
	})

	t.Run("unknown category", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.run(t, "", "import-ofx", "--expense-category", "c9", writeOFX(t))
		assert.EqualError(t, err, `category "c9" not found`)
	})

	t.Run("server rejects a line", func(t *testing.T) {
		h := newHarness(t)
		h.mock.CreateTransactionFn = func(context.Context, model.TransactionRequest) (model.Transaction, error) {
			return model.Transaction{}, errors.New("boom")
		}

		_, err := h.run(t, "", "import-ofx", writeOFX(t))
		assert.EqualError(t, err, "2 of 3 statement lines could not be imported")
	})

	t.Run("no files", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.run(t, "", "import-ofx", filepath.Join(t.TempDir(), "*.qfx"))
		assert.EqualError(t, err, "no files found to import")
	})
}
