package admin

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"ipcheck/internal/api"
	"ipcheck/internal/logs"
	"ipcheck/internal/middleware"
	"ipcheck/internal/models"
	"ipcheck/internal/probe"
	"ipcheck/internal/reconcile"
)

type Handler struct {
	d Dependencies
	t pageTemplates
}

func (h *Handler) redirect(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, http.StatusFound)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	t, ok := h.t[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		logs.Logger.WithField("reqid", middleware.GetRequestID(r)).Errorf("admin: render %s: %v", page, err)
	}
}

// ---------- Sweep ----------

type pageRow struct {
	reconcile.Row
	HasRecord bool
	Saved     bool
}

type sweepPage struct {
	Title   string
	IPRange string
	Status  string
	Field   string
	Query   string
	Back    string
	SortIP  string
	SortMAC string
	Rows    []pageRow
	Total   int
	Alive   int
	Error   string
	Notice  string
}

// viewParams — всё, что определяет вид таблицы; сохраняется между POST-ами формы.
var viewParams = []string{"ipRange", "status", "field", "q", "sort", "dir"}

func keepParams(q url.Values) url.Values {
	out := url.Values{}
	for _, k := range viewParams {
		if v := q.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}

// sortLink — ссылка заголовка: повторный клик меняет направление,
// первый клик по IP сортирует по убыванию, по MAC — по возрастанию.
func sortLink(q url.Values, key string) string {
	next := url.Values{}
	for k, v := range keepParams(q) {
		next[k] = v
	}
	dir := "desc"
	if key == "mac" {
		dir = "asc"
	}
	if q.Get("sort") == key {
		if q.Get("dir") == "asc" {
			dir = "desc"
		} else {
			dir = "asc"
		}
	}
	next.Set("sort", key)
	next.Set("dir", dir)
	return "/admin/sweep?" + next.Encode()
}

func (h *Handler) SweepPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := sweepPage{
		Title:   "Sweep",
		IPRange: q.Get("ipRange"),
		Status:  q.Get("status"),
		Field:   q.Get("field"),
		Query:   q.Get("q"),
		Back:    keepParams(q).Encode(),
		SortIP:  sortLink(q, "ip"),
		SortMAC: sortLink(q, "mac"),
		Error:   q.Get("err"),
		Notice:  q.Get("msg"),
	}
	if page.Status == "" {
		page.Status = "all"
	}
	if page.Field == "" {
		page.Field = string(reconcile.SearchIP)
	}
	if page.IPRange == "" {
		h.render(w, r, "sweep.tmpl", page)
		return
	}

	t, err := probe.ParseTarget(page.IPRange)
	if err != nil {
		page.Error = err.Error()
		h.render(w, r, "sweep.tmpl", page)
		return
	}
	results, err := h.d.Sweeper.Sweep(r.Context(), t)
	if err != nil {
		page.Error = "Failed to check IPs: " + err.Error()
		h.render(w, r, "sweep.tmpl", page)
		return
	}

	// без инвентаря таблица строится из одних результатов пинга
	var ix reconcile.DeviceIndex
	devs, err := h.d.Store.ListIPChecks(r.Context())
	if err == nil {
		var assigned []models.AssignedIP
		if assigned, err = h.d.Store.ListAssigned(r.Context()); err == nil {
			ix = reconcile.IndexDevices(devs, assigned)
		}
	}
	if err != nil {
		page.Error = "Failed to fetch data: " + err.Error()
	}

	rows := reconcile.Merge(results, ix)
	saved := q.Get("saved")
	// сохранённая строка показывается с живостью до правки, а не нового sweep
	if alive, err := strconv.ParseBool(q.Get("alive")); err == nil {
		for i := range rows {
			if rows[i].IP == saved {
				rows[i].Alive = alive
			}
		}
	}
	switch q.Get("sort") {
	case "ip":
		rows = reconcile.SortRows(rows, reconcile.SortByIP, q.Get("dir") == "asc")
	case "mac":
		rows = reconcile.SortRows(rows, reconcile.SortByMAC, q.Get("dir") == "asc")
	}
	alive := page.Status
	if alive == "alive" {
		alive = "true"
	} else if alive == "dead" {
		alive = "false"
	}
	visible := reconcile.FilterRows(rows, reconcile.Filter{Alive: alive, Field: reconcile.SearchField(page.Field), Term: page.Query})

	for _, row := range visible {
		_, has := ix.Lookup(row.IP)
		page.Rows = append(page.Rows, pageRow{Row: row, HasRecord: has, Saved: row.IP == saved})
	}
	page.Total = len(rows)
	for _, row := range rows {
		if row.Alive {
			page.Alive++
		}
	}
	h.render(w, r, "sweep.tmpl", page)
}

// backTo возвращает на таблицу с теми же параметрами вида.
func backTo(w http.ResponseWriter, r *http.Request, extra url.Values) {
	back, _ := url.ParseQuery(r.PostFormValue("back"))
	q := keepParams(back)
	for k, v := range extra {
		q[k] = v
	}
	http.Redirect(w, r, "/admin/sweep?"+q.Encode(), http.StatusSeeOther)
}

// SaveRow — правка строки из формы: пишем только изменённые поля.
func (h *Handler) SaveRow(w http.ResponseWriter, r *http.Request) {
	ip := mux.Vars(r)["ip"]
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if !models.ValidIPv4(ip) {
		backTo(w, r, url.Values{"err": {fmt.Sprintf("Invalid IP address %q", ip)}})
		return
	}

	devs, err := h.d.Store.ListIPChecks(r.Context())
	if err != nil {
		backTo(w, r, url.Values{"err": {"Failed to fetch data: " + err.Error()}})
		return
	}
	original := reconcile.Merge([]probe.Result{{IP: ip}}, reconcile.IndexDevices(devs, nil))[0]

	// форма всегда присылает все поля: пустое поле без записи в БД — «не задано»
	current := map[reconcile.Field]*string{
		reconcile.FieldMAC:      original.MACAddress,
		reconcile.FieldDevice:   original.Device,
		reconcile.FieldLocation: original.Location,
		reconcile.FieldComment:  original.Comment,
	}
	edited := original
	for _, f := range reconcile.EditableFields {
		if _, ok := r.PostForm[string(f)]; !ok {
			continue
		}
		v := strings.TrimSpace(r.PostFormValue(string(f)))
		if v == "" && current[f] == nil {
			continue
		}
		switch f {
		case reconcile.FieldMAC:
			v = reconcile.FormatMAC(v)
			edited.MACAddress = &v
		case reconcile.FieldDevice:
			edited.Device = &v
		case reconcile.FieldLocation:
			edited.Location = &v
		case reconcile.FieldComment:
			edited.Comment = &v
		}
	}

	patch := reconcile.Diff(original, edited)
	if len(patch) == 0 {
		backTo(w, r, url.Values{"msg": {ip + ": no changes"}})
		return
	}
	if err := patch.Validate(); err != nil {
		backTo(w, r, url.Values{"err": {err.Error()}})
		return
	}

	req := api.IPCheckRequest{IP: ip, ModifiedBy: models.Ptr(h.operator(r))}
	for f, v := range patch {
		switch f {
		case reconcile.FieldMAC:
			req.MACAddress = models.Ptr(v)
		case reconcile.FieldDevice:
			req.Device = models.Ptr(v)
		case reconcile.FieldLocation:
			req.Location = models.Ptr(v)
		case reconcile.FieldComment:
			req.Comment = models.Ptr(v)
		}
	}
	if _, err := h.d.Store.UpsertIPCheck(r.Context(), req); err != nil {
		logs.Logger.WithField("reqid", middleware.GetRequestID(r)).Errorf("admin: save %s: %v", ip, err)
		backTo(w, r, url.Values{"err": {"Failed to upsert data: " + err.Error()}})
		return
	}
	done := url.Values{"saved": {ip}, "msg": {ip + " saved"}}
	if alive, err := strconv.ParseBool(r.PostFormValue("alive")); err == nil {
		done.Set("alive", strconv.FormatBool(alive))
	}
	backTo(w, r, done)
}

func (h *Handler) operator(r *http.Request) string {
	if by := strings.TrimSpace(r.PostFormValue("modifiedby")); by != "" {
		return by
	}
	return h.d.Operator
}

func (h *Handler) DeleteRow(w http.ResponseWriter, r *http.Request) {
	ip := mux.Vars(r)["ip"]
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if !models.ValidIPv4(ip) {
		backTo(w, r, url.Values{"err": {fmt.Sprintf("Invalid IP address %q", ip)}})
		return
	}
	_, err := h.d.Store.DeleteIPCheck(r.Context(), ip)
	switch {
	case errors.Is(err, api.ErrNotFound):
		backTo(w, r, url.Values{"err": {"IP not found"}})
	case err != nil:
		backTo(w, r, url.Values{"err": {"Failed to delete IP: " + err.Error()}})
	default:
		backTo(w, r, url.Values{"msg": {ip + " deleted"}})
	}
}

// ---------- Sites ----------

func (h *Handler) SitesPage(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Title": "Sites", "Error": r.URL.Query().Get("err")}
	sites, err := h.d.Store.ListSites(r.Context())
	if err != nil {
		data["Error"] = "Failed to fetch data: " + err.Error()
	}
	data["Rows"] = sites
	h.render(w, r, "sites.tmpl", data)
}

func (h *Handler) SaveSite(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.PostFormValue("sitename"))
	if name == "" {
		http.Redirect(w, r, "/admin/sites?err="+url.QueryEscape("sitename is required"), http.StatusSeeOther)
		return
	}
	if _, err := h.d.Store.UpsertSite(r.Context(), models.Site{SiteName: name, SiteFullName: r.PostFormValue("sitefullname")}); err != nil {
		http.Redirect(w, r, "/admin/sites?err="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/admin/sites", http.StatusSeeOther)
}
