package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ipcheck/internal/api"
	"ipcheck/internal/db"
	"ipcheck/internal/models"
	"ipcheck/internal/probe"
)

type aliveEven struct{}

func (aliveEven) Sweep(_ context.Context, t probe.Target) ([]probe.Result, error) {
	var out []probe.Result
	for i, ip := range t.Addresses() {
		if i%2 == 0 {
			out = append(out, probe.Result{IP: ip, Alive: true, Time: probe.KnownLatency(1.5), PacketLoss: "0"})
		} else {
			out = append(out, probe.Result{IP: ip, Time: probe.UnknownLatency(), PacketLoss: "100"})
		}
	}
	return out, nil
}

func newTestApp(t *testing.T) (*App, *gorm.DB) {
	t.Helper()
	d, err := db.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	sqlDB, err := d.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(d))

	a := &App{}
	require.NoError(t, a.Mount(d, aliveEven{}))
	return a, d
}

func call(t *testing.T, a *App, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestInventoryRoundTrip(t *testing.T) {
	a, _ := newTestApp(t)

	require.Equal(t, http.StatusOK, call(t, a, http.MethodPost, "/api/site", `{"sitename":"HQ.main","sitefullname":"Head office"}`).Code)

	rec := call(t, a, http.MethodPost, "/api/ipcheck", `{"ip":"10.0.0.5","sitename":"HQ.main","device":"nas","modifiedby":"alice"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ack api.IPCheckAck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	require.NotNil(t, ack.Record)
	assert.Equal(t, "nas", *ack.Record.Device)
	assert.Nil(t, ack.Record.MACAddress)

	// частичное обновление не затирает device
	rec = call(t, a, http.MethodPost, "/api/ipcheck", `{"ip":"10.0.0.5","comment":"rack 2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "nas", *ack.Record.Device)
	assert.Equal(t, "rack 2", *ack.Record.Comment)

	rec = call(t, a, http.MethodGet, "/api/assigned?ipaddress=10.0.0.5", "")
	assert.JSONEq(t, `[{"ipaddress":"10.0.0.5","sitename":"HQ.main"}]`, rec.Body.String())

	rec = call(t, a, http.MethodDelete, "/api/ipcheck?ip=10.0.0.5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"IP deleted successfully","affectedRows":2}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, call(t, a, http.MethodDelete, "/api/ipcheck?ip=10.0.0.5", "").Code)
	assert.Equal(t, http.StatusNotFound, call(t, a, http.MethodGet, "/api/assigned?ipaddress=10.0.0.5", "").Code)
}

func TestUnknownSiteRejectedAndNothingWritten(t *testing.T) {
	a, _ := newTestApp(t)

	rec := call(t, a, http.MethodPost, "/api/ipcheck", `{"ip":"10.0.0.7","sitename":"ghost","device":"cam"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid sitename")

	rec = call(t, a, http.MethodGet, "/api/ipcheck", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestDeleteRollbackKeepsBothRecords(t *testing.T) {
	a, d := newTestApp(t)
	require.Equal(t, http.StatusOK, call(t, a, http.MethodPost, "/api/site", `{"sitename":"HQ.main"}`).Code)
	require.Equal(t, http.StatusOK, call(t, a, http.MethodPost, "/api/ipcheck", `{"ip":"10.0.0.5","sitename":"HQ.main","device":"nas"}`).Code)

	require.NoError(t, d.Callback().Delete().Before("gorm:delete").Register("test:fail_assigned", func(tx *gorm.DB) {
		if tx.Statement.Table == "tb_assignedip" {
			_ = tx.AddError(errors.New("injected failure"))
		}
	}))

	rec := call(t, a, http.MethodDelete, "/api/ipcheck?ip=10.0.0.5", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "injected failure")

	var n int64
	require.NoError(t, d.Model(&models.IPCheck{}).Where("ipaddress = ?", "10.0.0.5").Count(&n).Error)
	assert.EqualValues(t, 1, n)
	require.NoError(t, d.Model(&models.AssignedIP{}).Where("ipaddress = ?", "10.0.0.5").Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestStatusThroughMiddleware(t *testing.T) {
	a, _ := newTestApp(t)

	rec := call(t, a, http.MethodGet, "/api/status?ipRange=192.168.1.0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var results []probe.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 254)
	assert.Equal(t, "192.168.1.1", results[0].IP)
	assert.True(t, results[0].Time.Known)
	assert.Equal(t, "unknown", results[1].Time.String())
}

func TestHealthMounted(t *testing.T) {
	a, _ := newTestApp(t)
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/readyz", "").Code)
}

func TestWriteTimeout(t *testing.T) {
	assert.Equal(t, 15*time.Second, writeTimeout(2*time.Second))
	assert.Equal(t, 40*time.Second, writeTimeout(30*time.Second))
}
