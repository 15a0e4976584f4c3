package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/neuron/internal/cli/formatter"
	"github.com/alexanderramin/neuron/internal/dates"
	"github.com/alexanderramin/neuron/internal/domain"
	"github.com/alexanderramin/neuron/internal/legacy"
	"github.com/alexanderramin/neuron/internal/repository"
	"github.com/alexanderramin/neuron/internal/service"
	"github.com/alexanderramin/neuron/internal/testutil"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow is Monday 19/10/2026.
var fixedNow = time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
// 02/11/2026 is a holiday.
func testApp(t *testing.T) *App {
	t.Helper()
	database := testutil.NewTestDB(t)

	store := service.NewDemandStore(
		repository.NewSQLiteDemandRepo(database),
		repository.NewSQLiteCompletionRepo(database),
		repository.NewSQLiteMetadataRepo(database),
		testutil.NewTestUoW(database),
		service.WithStoreClock(fixedClock),
	)
	rules := dates.NewRules(dates.WeekendForward, dates.HolidayNextDay, []dates.Holiday{
		{Date: dates.MustParse("02/11/2026"), Description: "Finados"},
	})

	return &App{
		Store:     store,
		Dates:     dates.NewReadyEngine(rules, dates.WithClock(fixedClock)),
		Deadlines: dates.DefaultDeadlineSettings(),
		Urgency:   formatter.DefaultUrgency(),
		Plain:     true,
	}
}

// seedDemands stores three demands and marks 300 complete.
func seedDemands(t *testing.T, app *App) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, app.Store.PutMany(ctx, []*domain.Demand{
		testutil.NewTestDemand("100", testutil.WithPrazoText("20/10/2026"), testutil.WithResponsaveis("Ana")),
		testutil.NewTestDemand("200", testutil.WithPrazoText("30/11/2026"), testutil.WithResponsaveis("Ana")),
		testutil.NewTestDemand("300", testutil.WithPrazoText("21/10/2026"), testutil.WithResponsaveis("Bruno")),
	}))
	require.NoError(t, app.Store.MarkComplete(ctx, "300", true))
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// --- date ---

func TestDateParse(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "date", "parse", "25/12/2026 às 10h")
	require.NoError(t, err)
	assert.Equal(t, "25/12/2026 Friday\n", out)

	out, err = executeCmd(t, app, "date", "parse", "02/11/2026")
	require.NoError(t, err)
	assert.Contains(t, out, "holiday: Finados")
}

func TestDateParse_Invalid(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "date", "parse", "2026-12-25")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want DD/MM/YYYY")
}

func TestDateAdjust(t *testing.T) {
	app := testApp(t)

	// Saturday -> Monday holiday -> Tuesday.
	out, err := executeCmd(t, app, "date", "adjust", "31/10/2026")
	require.NoError(t, err)
	assert.Equal(t, "03/11/2026\n", out)

	out, err = executeCmd(t, app, "date", "adjust", "31/10/2026", "--weekend", "modo1")
	require.NoError(t, err)
	assert.Equal(t, "30/10/2026\n", out)

	_, err = executeCmd(t, app, "date", "adjust", "31/10/2026", "--holiday", "sideways")
	assert.Error(t, err)
}

func TestDateAdd(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "date", "add", "19/10/2026", "--days=-5")
	require.NoError(t, err)
	assert.Equal(t, "14/10/2026\n", out)

	out, err = executeCmd(t, app, "date", "business", "30/10/2026", "--days", "1")
	require.NoError(t, err)
	assert.Equal(t, "03/11/2026\n", out)

	_, err = executeCmd(t, app, "date", "add", "19/10/2026")
	assert.Error(t, err, "--days is required")
}

func TestDateRemaining(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "date", "remaining", "21/10/2026")
	require.NoError(t, err)
	assert.Equal(t, "(in 2 days)\n", out)

	_, err = executeCmd(t, app, "date", "remaining", "soon")
	assert.Error(t, err)
}

func TestDateHoliday(t *testing.T) {
	app := testApp(t)

	tests := []struct {
		date string
		want string
	}{
		{"02/11/2026", "02/11/2026 is a holiday: Finados\n"},
		{"24/10/2026", "24/10/2026 is a weekend day\n"},
		{"20/10/2026", "20/10/2026 is a business day\n"},
	}
	for _, tt := range tests {
		out, err := executeCmd(t, app, "date", "holiday", tt.date)
		require.NoError(t, err)
		assert.Equal(t, tt.want, out)
	}
}

// --- deadline ---

func TestDeadlinePlan_Calendar(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "deadline", "plan", "30/10/2026")
	require.NoError(t, err)
	assert.Contains(t, out, "26/10/2026", "25/10 is a Sunday, moved forward")
	assert.Contains(t, out, "27/10/2026")
	assert.Contains(t, out, "30/11/2026")
}

func TestDeadlinePlan_BusinessAndExtended(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "deadline", "plan", "30/10/2026", "--mode", "diasUteis", "--situacao", "Prorrogada")
	require.NoError(t, err)
	assert.Contains(t, out, "23/10/2026")
	assert.Contains(t, out, "27/10/2026")
	assert.Contains(t, out, "already extended")
	assert.NotContains(t, out, "30/11/2026")
}

func TestDeadlinePlan_OffsetFlags(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "deadline", "plan", "30/10/2026", "--internal=-1", "--non-extendable", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "29/10/2026")
	// 02/11 is a holiday, so the last extension day moves to 03/11.
	assert.Contains(t, out, "03/11/2026")

	_, err = executeCmd(t, app, "deadline", "plan", "30/10/2026", "--non-extendable", "0")
	assert.Error(t, err)
}

// --- demand ---

func TestDemandPutAndGet(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "demand", "put",
		"--numero", "777",
		"--prazo", "30/10/2026",
		"--situacao", "Em andamento",
		"--responsavel", "Ana",
		"--responsavel", "Bruno",
		"--observacao",
		"--href", "https://portal/777",
	)
	require.NoError(t, err)
	assert.Equal(t, "Stored demand 777\n", out)

	out, err = executeCmd(t, app, "demand", "get", "777")
	require.NoError(t, err)
	assert.Contains(t, out, "DEMAND 777")
	assert.Contains(t, out, "Ana, Bruno")
	assert.Contains(t, out, "(in 11 days)")
	assert.Contains(t, out, "26/10/2026")
	assert.Contains(t, out, "OBS")

	out, err = executeCmd(t, app, "demand", "get", "777", "--json")
	require.NoError(t, err)
	var rec legacy.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "777", rec.Numero)
	assert.Equal(t, []string{"Ana", "Bruno"}, rec.Responsaveis)
	assert.True(t, rec.PossivelObservacao)
}

func TestDemandPut_RequiresNumero(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "demand", "put", "--prazo", "30/10/2026")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--numero")
}

func TestDemandGet_NotFound(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "demand", "get", "999")
	require.Error(t, err)
	assert.Equal(t, "demand 999 not found", err.Error())
}

func TestDemandImport(t *testing.T) {
	app := testApp(t)
	path := filepath.Join(t.TempDir(), "demands.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"numero": "1", "prazo": "20/10/2026", "situacao": "Em andamento", "responsaveis": ["Ana"]},
		{"numero": "2", "prazo": "25/10/2026", "situacao": "Complementada", "possivelRespondida": true}
	]`), 0o644))

	out, err := executeCmd(t, app, "demand", "import", path)
	require.NoError(t, err)
	assert.Equal(t, "Imported 2 demands\n", out)

	all, err := app.Store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[1].PossivelRespondida)
	assert.Equal(t, []string{}, all[1].Responsaveis)
}

func TestDemandImport_RejectsMissingNumero(t *testing.T) {
	app := testApp(t)
	path := filepath.Join(t.TempDir(), "demands.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"numero": "1"}, {"prazo": "20/10/2026"}]`), 0o644))

	_, err := executeCmd(t, app, "demand", "import", path)
	require.Error(t, err)

	n, err := app.Store.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, n, "nothing is stored when the batch is rejected")
}

func TestDemandList(t *testing.T) {
	app := testApp(t)
	seedDemands(t, app)

	out, err := executeCmd(t, app, "demand", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "100")
	assert.Contains(t, out, "200")
	assert.Contains(t, out, "300")
	assert.Contains(t, out, "3 demands, 1 need attention")

	out, err = executeCmd(t, app, "demand", "list", "--pending")
	require.NoError(t, err)
	assert.NotContains(t, out, "300")

	out, err = executeCmd(t, app, "demand", "list", "--relevant")
	require.NoError(t, err)
	assert.Contains(t, out, "1 demands")

	out, err = executeCmd(t, app, "demand", "list", "--prazo-from", "01/11/2026")
	require.NoError(t, err)
	assert.Contains(t, out, "200")
	assert.Contains(t, out, "1 demands")

	out, err = executeCmd(t, app, "demand", "list", "--assignee", "bruno")
	require.NoError(t, err)
	assert.Contains(t, out, "300")
	assert.NotContains(t, out, "100")

	_, err = executeCmd(t, app, "demand", "list", "--prazo-to", "tomorrow")
	assert.Error(t, err)
}

func TestDemandDelete(t *testing.T) {
	app := testApp(t)
	seedDemands(t, app)

	out, err := executeCmd(t, app, "demand", "delete", "100")
	require.NoError(t, err)
	assert.Equal(t, "Deleted demand 100\n", out)

	_, err = executeCmd(t, app, "demand", "delete", "100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDemandCompleteAndReopen(t *testing.T) {
	app := testApp(t)
	seedDemands(t, app)

	_, err := executeCmd(t, app, "demand", "complete", "100")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "demand", "completed")
	require.NoError(t, err)
	assert.Equal(t, "✔ 100\n✔ 300\n", out)

	_, err = executeCmd(t, app, "demand", "reopen", "300")
	require.NoError(t, err)

	done, err := app.Store.IsComplete(context.Background(), "300")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestDemandClear(t *testing.T) {
	app := testApp(t)
	seedDemands(t, app)
	ctx := context.Background()

	out, err := executeCmd(t, app, "demand", "clear")
	require.NoError(t, err)
	assert.Equal(t, "Cleared demands\n", out)
	set, err := app.Store.GetCompletedSet(ctx)
	require.NoError(t, err)
	assert.Len(t, set, 1, "clearing demands keeps completion marks")

	_, err = executeCmd(t, app, "demand", "clear", "--completions")
	require.NoError(t, err)
	set, err = app.Store.GetCompletedSet(ctx)
	require.NoError(t, err)
	assert.Empty(t, set)

	_, err = executeCmd(t, app, "demand", "clear", "--completions", "--all")
	assert.Error(t, err)
}

// --- stats and notify ---

func TestStats(t *testing.T) {
	app := testApp(t)
	seedDemands(t, app)

	out, err := executeCmd(t, app, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "3 total")
	assert.Contains(t, out, "1 completed")

	out, err = executeCmd(t, app, "stats", "--json")
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.EqualValues(t, 3, payload["total"])
	assert.EqualValues(t, 1, payload["concluidas"])
	assert.EqualValues(t, 33, payload["taxaConclusao"])
}

func TestNotifyCount(t *testing.T) {
	app := testApp(t)
	seedDemands(t, app)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"everyone", nil, "1\n"},
		{"assigned user", []string{"--user", " ANA "}, "1\n"},
		{"user with only completed work", []string{"--user", "bruno"}, "0\n"},
		{"all users overrides user", []string{"--user", "bruno", "--all-users"}, "1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeCmd(t, app, append([]string{"notify", "count"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

// --- migrate and export ---

func TestMigrate(t *testing.T) {
	app := testApp(t)
	path := filepath.Join(t.TempDir(), "legacy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"neuronDemandasMestra": {
			"500": {"numero": "500", "prazo": "22/10/2026", "situacao": "Em andamento", "responsaveis": ["Ana"]}
		},
		"neuronDemandasConcluidas": ["500"]
	}`), 0o644))

	out, err := executeCmd(t, app, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "not migrated")

	out, err = executeCmd(t, app, "migrate", "run", "--from", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 demands, 1 completion marks")

	out, err = executeCmd(t, app, "migrate", "run", "--from", path)
	require.NoError(t, err)
	assert.Contains(t, out, "already migrated")

	out, err = executeCmd(t, app, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Legacy store migrated")
}

func TestMigrateRun_MissingFileLeavesMigrationPending(t *testing.T) {
	tests := []struct {
		name       string
		legacyFile bool
	}{
		{name: "explicit --from"},
		{name: "configured legacy file", legacyFile: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := testApp(t)
			missing := filepath.Join(t.TempDir(), "nope.json")
			args := []string{"migrate", "run"}
			if tt.legacyFile {
				app.LegacyFile = missing
			} else {
				args = append(args, "--from", missing)
			}

			_, err := executeCmd(t, app, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "legacy file")

			needs, err := app.Store.NeedsMigration(context.Background())
			require.NoError(t, err)
			assert.True(t, needs)
		})
	}
}

func TestMigrateRun_UsesConfiguredLegacyFile(t *testing.T) {
	app := testApp(t)
	app.LegacyFile = filepath.Join(t.TempDir(), "legacy.json")
	require.NoError(t, os.WriteFile(app.LegacyFile,
		[]byte(`{"neuronDemandasMestra": {"9": {"numero": "9"}}}`), 0o644))

	out, err := executeCmd(t, app, "migrate", "run")
	require.NoError(t, err)
	assert.Contains(t, out, "1 demands, 0 completion marks")
}

func TestMigrateStatus_ShowsStoredCount(t *testing.T) {
	app := testApp(t)
	seedDemands(t, app)

	out, err := executeCmd(t, app, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "not migrated")
	assert.Contains(t, out, "3 demands")
}

func TestMigrateRun_NoSource(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "migrate", "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--from")
}

func TestExport_Stdout(t *testing.T) {
	app := testApp(t)
	seedDemands(t, app)

	out, err := executeCmd(t, app, "export")
	require.NoError(t, err)

	snap, err := legacy.Decode(bytes.NewReader([]byte(out)))
	require.NoError(t, err)
	assert.Len(t, snap.Demands, 3)
	assert.Equal(t, []string{"300"}, snap.Completed)
}

func TestExport_CompressedFileRoundTrip(t *testing.T) {
	app := testApp(t)
	seedDemands(t, app)
	path := filepath.Join(t.TempDir(), "backup.json.zst")

	_, err := executeCmd(t, app, "export", "--out", path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, raw[:4])

	fresh := testApp(t)
	out, err := executeCmd(t, fresh, "migrate", "run", "--from", path)
	require.NoError(t, err)
	assert.Contains(t, out, "3 demands, 1 completion marks")
}
