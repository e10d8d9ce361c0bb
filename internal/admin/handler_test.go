package admin_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ipcheck/internal/db"
	"ipcheck/internal/models"
	"ipcheck/internal/probe"
	"ipcheck/server"
)

type firstAlive struct{}

func (firstAlive) Sweep(_ context.Context, t probe.Target) ([]probe.Result, error) {
	var out []probe.Result
	for i, ip := range t.Addresses() {
		r := probe.Result{IP: ip, Time: probe.UnknownLatency(), PacketLoss: "100"}
		if i == 0 {
			r = probe.Result{IP: ip, Alive: true, Time: probe.KnownLatency(4), PacketLoss: "0"}
		}
		out = append(out, r)
	}
	return out, nil
}

func newApp(t *testing.T) (*server.App, *gorm.DB) {
	t.Helper()
	d, err := db.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	sqlDB, err := d.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(d))

	a := &server.App{}
	require.NoError(t, a.Mount(d, firstAlive{}))
	return a, d
}

func get(a *server.App, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func postForm(a *server.App, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestSweepPageRendersRows(t *testing.T) {
	a, _ := newApp(t)

	rec := get(a, "/admin/sweep?ipRange=10.9.8")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "254 of 254 rows shown, 1 alive")
	assert.Contains(t, body, `<tr class="alive">`)
	assert.Contains(t, body, "10.9.8.254")

	rec = get(a, "/admin/sweep?ipRange=10.9.8&status=alive")
	assert.Contains(t, rec.Body.String(), "1 of 254 rows shown")

	rec = get(a, "/admin/sweep?ipRange=bogus")
	assert.Contains(t, rec.Body.String(), `class="banner error"`)
}

func TestSortLinksToggle(t *testing.T) {
	a, _ := newApp(t)

	body := get(a, "/admin/sweep?ipRange=10.9.8").Body.String()
	// первый клик: IP по убыванию, MAC по возрастанию
	assert.Contains(t, body, "dir=desc&amp;ipRange=10.9.8&amp;sort=ip")
	assert.Contains(t, body, "dir=asc&amp;ipRange=10.9.8&amp;sort=mac")

	body = get(a, "/admin/sweep?ipRange=10.9.8&sort=ip&dir=desc").Body.String()
	assert.Contains(t, body, "dir=asc&amp;ipRange=10.9.8&amp;sort=ip")
	assert.Less(t, strings.Index(body, "10.9.8.254"), strings.Index(body, "10.9.8.1<"))
}

func TestSaveRowWritesOnlyChangedFields(t *testing.T) {
	a, d := newApp(t)
	back := url.Values{"ipRange": {"10.9.8"}}.Encode()

	rec := postForm(a, "/admin/rows/10.9.8.1", url.Values{
		"back":       {back},
		"macaddress": {"aa:bb:cc:dd:ee:01"},
		"device":     {"switch"},
		"location":   {""},
		"comment":    {""},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	assert.Contains(t, loc, "saved=10.9.8.1")
	assert.Contains(t, loc, "ipRange=10.9.8")

	var got models.IPCheck
	require.NoError(t, d.Where("ipaddress = ?", "10.9.8.1").Take(&got).Error)
	assert.Equal(t, "AA:BB:CC:DD:EE:01", *got.MACAddress)
	assert.Equal(t, "switch", *got.Device)
	assert.Nil(t, got.Location)
	assert.Nil(t, got.Comment)
	assert.Equal(t, "web", *got.ModifiedBy)

	// те же значения — запись не трогаем
	rec = postForm(a, "/admin/rows/10.9.8.1", url.Values{"back": {back}, "macaddress": {"AA:BB:CC:DD:EE:01"}, "device": {"switch"}})
	assert.Contains(t, rec.Header().Get("Location"), "no+changes")

	rec = postForm(a, "/admin/rows/10.9.8.1", url.Values{"back": {back}, "macaddress": {"abc"}})
	assert.Contains(t, rec.Header().Get("Location"), "err=")

	body := get(a, "/admin/sweep?ipRange=10.9.8&saved=10.9.8.1").Body.String()
	assert.Contains(t, body, `<tr class="alive saved">`)
	assert.Contains(t, body, "/admin/rows/10.9.8.1/delete")
}

func TestDeleteRow(t *testing.T) {
	a, d := newApp(t)
	require.Equal(t, http.StatusSeeOther, postForm(a, "/admin/rows/10.9.8.3", url.Values{"device": {"cam"}}).Code)

	rec := postForm(a, "/admin/rows/10.9.8.3/delete", url.Values{})
	assert.Contains(t, rec.Header().Get("Location"), "deleted")

	var n int64
	require.NoError(t, d.Model(&models.IPCheck{}).Count(&n).Error)
	assert.Zero(t, n)

	rec = postForm(a, "/admin/rows/10.9.8.3/delete", url.Values{})
	assert.Contains(t, rec.Header().Get("Location"), "IP+not+found")
}

func TestDeleteRowRejectsMalformedIP(t *testing.T) {
	a, _ := newApp(t)

	rec := postForm(a, "/admin/rows/10.9.8.999/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "Invalid+IP+address")
	assert.NotContains(t, rec.Header().Get("Location"), "not+found")
}

func TestSavedRowKeepsPreEditLiveness(t *testing.T) {
	a, _ := newApp(t)
	back := url.Values{"ipRange": {"10.9.8"}}.Encode()

	// 10.9.8.2 на момент правки отвечал, следующий sweep его уже не видит
	rec := postForm(a, "/admin/rows/10.9.8.2", url.Values{"back": {back}, "alive": {"true"}, "device": {"printer"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	assert.Contains(t, loc, "alive=true")
	assert.Contains(t, loc, "saved=10.9.8.2")

	body := get(a, loc).Body.String()
	assert.Contains(t, body, `<tr class="alive saved">`)
	assert.Contains(t, body, "254 of 254 rows shown, 2 alive")

	// без alive в редиректе берётся результат sweep
	body = get(a, "/admin/sweep?ipRange=10.9.8&saved=10.9.8.2").Body.String()
	assert.Contains(t, body, `<tr class="dead saved">`)
}

func TestSitesPage(t *testing.T) {
	a, _ := newApp(t)

	assert.Contains(t, get(a, "/admin/sites").Body.String(), "no sites")

	rec := postForm(a, "/admin/sites", url.Values{"sitename": {"HQ.main"}, "sitefullname": {"Head office"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, get(a, "/admin/sites").Body.String(), "Head office")

	rec = postForm(a, "/admin/sites", url.Values{"sitename": {"  "}})
	assert.Contains(t, rec.Header().Get("Location"), "err=")
}
