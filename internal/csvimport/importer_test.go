package csvimport

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satangapp/satang/internal/engine"
	"github.com/satangapp/satang/internal/service"
	"github.com/satangapp/satang/internal/testutil"
)

const header = "date,type,amount,account_id,category_id,description,note,tags\n"

func newTestImporter(t *testing.T) (*Importer, *engine.Engine, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	eng, err := engine.New(db.Storage)
	require.NoError(t, err)
	importer, err := NewImporter(eng, nil)
	require.NoError(t, err)
	return importer, eng, db
}

func TestImporter_Import(t *testing.T) {
	importer, eng, db := newTestImporter(t)
	ctx := context.Background()
	account := db.SeedAccount(testutil.TestUserID, "Checking", 1000)

	input := header +
		fmt.Sprintf("2026-03-01,income,30000,%s,,Salary,,work\n", account.ID) +
		fmt.Sprintf("2026-03-05,expense,1200.50,%s,,Groceries,weekly run,food|household\n", account.ID) +
		fmt.Sprintf("05/03/2026,expense,99.50,%s,,Coffee,,\n", account.ID)

	result, err := importer.Import(ctx, testutil.TestUserID, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 3, result.Total)

	balance, err := db.Storage.GetBalance(ctx, account.ID, testutil.TestUserID)
	require.NoError(t, err)
	assert.Equal(t, 29700.0, balance)

	page, err := eng.List(ctx, testutil.TestUserID, service.TransactionFilter{Search: "Groceries"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, []string{"food", "household"}, page.Transactions[0].Tags)
	assert.Equal(t, "weekly run", page.Transactions[0].Note)
}

func TestImporter_Import_BadRowAborts(t *testing.T) {
	importer, eng, db := newTestImporter(t)
	ctx := context.Background()
	account := db.SeedAccount(testutil.TestUserID, "Checking", 0)

	input := header +
		fmt.Sprintf("2026-03-01,income,100,%s,,,,\n", account.ID) +
		fmt.Sprintf("2026-03-02,income,not-a-number,%s,,,,\n", account.ID) +
		fmt.Sprintf("2026-03-03,income,100,%s,,,,\n", account.ID)

	result, err := importer.Import(ctx, testutil.TestUserID, strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 3, result.Total)

	// Only the row before the failure landed.
	balance, err := db.Storage.GetBalance(ctx, account.ID, testutil.TestUserID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, balance)

	page, err := eng.List(ctx, testutil.TestUserID, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestImporter_Import_InvalidTransactionAborts(t *testing.T) {
	importer, _, db := newTestImporter(t)
	ctx := context.Background()
	account := db.SeedAccount(testutil.TestUserID, "Checking", 0)

	input := header +
		fmt.Sprintf("2026-03-01,transfer,100,%s,,,,\n", account.ID)

	result, err := importer.Import(ctx, testutil.TestUserID, strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Equal(t, 0, result.Imported)
}

func TestImporter_Import_HeaderValidation(t *testing.T) {
	importer, _, _ := newTestImporter(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "wrong column count",
			input: "date,type,amount\n2026-03-01,income,100\n",
		},
		{
			name:  "wrong column name",
			input: "date,kind,amount,account_id,category_id,description,note,tags\n",
		},
		{
			name:  "empty input",
			input: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := importer.Import(ctx, testutil.TestUserID, strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestImporter_Import_HeaderCaseInsensitive(t *testing.T) {
	importer, _, db := newTestImporter(t)
	ctx := context.Background()
	account := db.SeedAccount(testutil.TestUserID, "Checking", 0)

	input := "Date,Type,Amount,Account_ID,Category_ID,Description,Note,Tags\n" +
		fmt.Sprintf("2026-03-01,income,100,%s,,,,\n", account.ID)

	result, err := importer.Import(ctx, testutil.TestUserID, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
}

func TestImporter_Import_EmptyBody(t *testing.T) {
	importer, _, _ := newTestImporter(t)
	ctx := context.Background()

	result, err := importer.Import(ctx, testutil.TestUserID, strings.NewReader(header))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 0, result.Total)
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "food", want: []string{"food"}},
		{name: "multiple", in: "food|household", want: []string{"food", "household"}},
		{name: "padded", in: " food | household ", want: []string{"food", "household"}},
		{name: "blank segments dropped", in: "food||", want: []string{"food"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTags(tt.in))
		})
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2026-03-01", "01/03/2026", "2026-03-01T09:30:00Z"} {
		got, err := parseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, 2026, got.Year())
		assert.Equal(t, 1, got.Day())
	}

	_, err := parseDate("March 1st")
	assert.Error(t, err)

	// Americans put the month first; we do not.
	got, err := parseDate("03/01/2026")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Day())
}
