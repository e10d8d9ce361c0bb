package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipcheck/internal/db"
	"ipcheck/internal/models"
	"ipcheck/internal/probe"
	"ipcheck/internal/reconcile"
	"ipcheck/server"
)

func TestMain(m *testing.M) {
	pterm.DisableColor()
	os.Exit(m.Run())
}

type evenAlive struct{}

func (evenAlive) Sweep(_ context.Context, t probe.Target) ([]probe.Result, error) {
	out := make([]probe.Result, 0, 254)
	for i, ip := range t.Addresses() {
		if i%2 == 0 {
			out = append(out, probe.Result{IP: ip, Alive: true, Time: probe.KnownLatency(2), Min: "2.000", Max: "2.000", Avg: "2", PacketLoss: "0"})
		} else {
			out = append(out, probe.Result{IP: ip, Time: probe.UnknownLatency(), Min: probe.Unknown, Max: probe.Unknown, Avg: probe.NoValue, PacketLoss: "100"})
		}
	}
	return out, nil
}

func startServer(t *testing.T) string {
	t.Helper()
	d, err := db.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	sqlDB, err := d.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(d))

	app := &server.App{}
	require.NoError(t, app.Mount(d, evenAlive{}))
	srv := httptest.NewServer(app.Router)
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--server", url, "--operator", "tester"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSweepFiltersAndCounts(t *testing.T) {
	url := startServer(t)

	out, err := run(t, url, "sweep", "10.2.3", "--status", "alive", "--search", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "10.2.3.5")
	assert.NotContains(t, out, "10.2.3.4 ")
	assert.Contains(t, out, "1 of 254 rows shown, 127 alive")

	out, err = run(t, url, "sweep", "10.2.3", "--status", "dead", "--search", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "no rows match")
}

func TestSweepRejectsBadFlags(t *testing.T) {
	url := startServer(t)

	_, err := run(t, url, "sweep", "10.2.3", "--status", "sleeping")
	assert.ErrorContains(t, err, "unknown status")

	_, err = run(t, url, "sweep", "10.2.3", "--sort", "hostname")
	assert.ErrorContains(t, err, "unknown sort key")

	_, err = run(t, url, "sweep", "10.2")
	assert.ErrorContains(t, err, "400")
}

func TestEditThenDelete(t *testing.T) {
	url := startServer(t)

	_, err := run(t, url, "site", "set", "HQ.main", "Head office")
	require.NoError(t, err)
	_, err = run(t, url, "assign", "10.2.3.7", "HQ.main")
	require.NoError(t, err)

	out, err := run(t, url, "edit", "10.2.3.7", "--mac", "aabb.ccdd.eeff", "--device", "printer")
	require.NoError(t, err)
	assert.Contains(t, out, "AA:BB:CC:DD:EE:FF")
	assert.Contains(t, out, "HQ.main")
	assert.Contains(t, out, "10.2.3.7 saved")

	// повтор с теми же значениями — ничего не пишется
	out, err = run(t, url, "edit", "10.2.3.7", "--device", "printer")
	require.NoError(t, err)
	assert.Contains(t, out, "no changes")

	_, err = run(t, url, "edit", "10.2.3.7", "--mac", "not-a-mac")
	assert.ErrorIs(t, err, reconcile.ErrInvalidMAC)

	_, err = run(t, url, "edit", "10.2.3.7")
	assert.ErrorContains(t, err, "nothing to edit")

	out, err = run(t, url, "delete", "10.2.3.7")
	require.NoError(t, err)
	assert.Contains(t, out, "10.2.3.7 deleted")

	_, err = run(t, url, "delete", "10.2.3.7")
	assert.ErrorIs(t, err, reconcile.ErrNotInInventory)
}

func TestEditEmptyFlagWithoutRecordWritesNothing(t *testing.T) {
	url := startServer(t)

	out, err := run(t, url, "edit", "10.2.3.8", "--comment", "")
	require.NoError(t, err)
	assert.Contains(t, out, "no changes")

	_, err = run(t, url, "delete", "10.2.3.8")
	assert.ErrorIs(t, err, reconcile.ErrNotInInventory)
}

func TestSiteCommands(t *testing.T) {
	url := startServer(t)

	out, err := run(t, url, "site", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no sites")

	_, err = run(t, url, "site", "set", "BR.kzn", "Kazan branch")
	require.NoError(t, err)
	out, err = run(t, url, "site", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Kazan branch")

	_, err = run(t, url, "assign", "10.2.3.9", "nowhere")
	assert.ErrorContains(t, err, "Invalid sitename")

	_, err = run(t, url, "site", "delete", "BR.kzn")
	require.NoError(t, err)
}

func TestTableData(t *testing.T) {
	rows := []reconcile.Row{
		{IP: "10.0.0.1", Alive: true, Time: probe.KnownLatency(1.5), PacketLoss: "0", MACAddress: models.Ptr("AA:BB:CC:DD:EE:FF")},
		{IP: "10.0.0.2", Time: probe.UnknownLatency(), PacketLoss: "100"},
	}
	td := tableData(rows, "")
	require.Len(t, td, 3)
	assert.Equal(t, rowHeader, td[0])
	assert.Equal(t, "alive", strings.TrimSpace(td[1][1]))
	assert.Equal(t, "1.5", strings.TrimSpace(td[1][2]))
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", strings.TrimSpace(td[1][7]))
	assert.Equal(t, "dead", strings.TrimSpace(td[2][1]))
	assert.Equal(t, "unknown", strings.TrimSpace(td[2][2]))
}

func TestParseHelpers(t *testing.T) {
	s, err := parseStatus("ALIVE")
	require.NoError(t, err)
	assert.Equal(t, "true", s)

	f, err := parseSearchField("mac")
	require.NoError(t, err)
	assert.Equal(t, reconcile.SearchMAC, f)

	k, err := parseSortKey("ip")
	require.NoError(t, err)
	assert.Equal(t, reconcile.SortByIP, k)
}
