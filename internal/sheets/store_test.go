package sheets

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agile-analytics/internal/report"
)

type doneTicket struct {
	key string
	at  time.Time
}

func (d doneTicket) IssueKey() string                    { return d.key }
func (d doneTicket) Started() (report.Transition, bool) { return report.Transition{}, false }
func (d doneTicket) Ended() (report.Transition, bool) {
	return report.Transition{State: "Done", EnteredAt: d.at}, true
}

func weeklyReport(t *testing.T, start, end time.Time, completions ...time.Time) report.Report {
	t.Helper()
	var tickets []report.Ticket
	for i, at := range completions {
		tickets = append(tickets, doneTicket{key: string(rune('A' + i)), at: at})
	}
	rep, err := report.NewThroughputReporter("Weekly Throughput", report.PeriodWeekly, start, end).ReportOn(tickets)
	require.NoError(t, err)
	return rep
}

func openSQLite(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "sheets.db")
	store, err := Open(context.Background(), SQLiteBackend, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func date(m time.Month, d int) time.Time {
	return time.Date(2016, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, PostgresBackend, b)

	b, err = ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, NoneBackend, b)

	_, err = ParseBackend("gsheets")
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

func TestStore_UpsertCreatesSheet(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	rep := weeklyReport(t, date(5, 15), date(5, 28), date(5, 16), date(5, 24), date(5, 25))
	runID, err := store.Upsert(ctx, "Throughput", rep)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	names, err := store.Sheets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Throughput"}, names)

	rows, err := store.Rows(ctx, "Throughput")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Week", "Completed"},
		{"2016-05-15", "1"},
		{"2016-05-22", "2"},
	}, rows)
}

func TestStore_UpsertReplacesAndKeepsRows(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	first := weeklyReport(t, date(5, 15), date(5, 28), date(5, 16))
	_, err := store.Upsert(ctx, "Throughput", first)
	require.NoError(t, err)

	// A later run overlapping one week and adding a new one
	second := weeklyReport(t, date(5, 22), date(6, 4), date(5, 23), date(5, 24), date(6, 1))
	_, err = store.Upsert(ctx, "Throughput", second)
	require.NoError(t, err)

	rows, err := store.Rows(ctx, "Throughput")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Week", "Completed"},
		{"2016-05-15", "1"},
		{"2016-05-22", "2"},
		{"2016-05-29", "1"},
	}, rows)
}

func TestStore_EmptySheetName(t *testing.T) {
	store := openSQLite(t)
	_, err := store.Upsert(context.Background(), " ", weeklyReport(t, date(5, 15), date(5, 21)))
	assert.ErrorIs(t, err, ErrEmptySheetName)
}

func TestStore_NoneBackend(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, NoneBackend, "")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Upsert(ctx, "Throughput", weeklyReport(t, date(5, 15), date(5, 21)))
	require.NoError(t, err)

	rows, err := store.Rows(ctx, "Throughput")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMigrate_DownAndUp(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "sheets.db")
	require.NoError(t, Migrate(SQLiteBackend, dsn, -1))
	require.NoError(t, Migrate(SQLiteBackend, dsn, -1)) // no change is fine
	require.NoError(t, Migrate(SQLiteBackend, dsn, 0))
	require.NoError(t, Migrate(SQLiteBackend, dsn, 1))

	assert.Error(t, Migrate(NoneBackend, "", -1))
}

func TestRebind(t *testing.T) {
	pg := &Store{backend: PostgresBackend}
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))

	lite := &Store{backend: SQLiteBackend}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}
