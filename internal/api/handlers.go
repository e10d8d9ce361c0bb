package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"ipcheck/internal/logs"
	"ipcheck/internal/middleware"
	"ipcheck/internal/models"
	"ipcheck/internal/probe"
)

type Handler struct {
	store   Store
	sweeper Sweeper
}

func NewHandler(store Store, sweeper Sweeper) *Handler {
	return &Handler{store: store, sweeper: sweeper}
}

func logFor(r *http.Request) *logrus.Entry {
	return logs.Logger.WithField("reqid", middleware.GetRequestID(r))
}

// fail пишет ошибку в лог целиком, клиенту — {error, details}.
func fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	details := ""
	if err != nil {
		details = err.Error()
		logFor(r).Errorf("%s: %v", msg, err)
	}
	models.WriteError(w, status, msg, details)
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(v)
}

// ---------- /api/status ----------

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	t, err := probe.ParseTarget(r.URL.Query().Get("ipRange"))
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, "Invalid ipRange", err.Error())
		return
	}

	results, err := h.sweeper.Sweep(r.Context(), t)
	if errors.Is(err, context.Canceled) {
		// клиент ушёл или начал новый sweep — ответ никому не нужен
		logFor(r).Debugf("sweep %s cancelled by client", t)
		return
	}
	if err != nil {
		fail(w, r, http.StatusInternalServerError, "Failed to check IPs", err)
		return
	}
	models.WriteJSON(w, http.StatusOK, results)
}

// ---------- /api/site ----------

func (h *Handler) ListSites(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("sitename"); name != "" {
		site, err := h.store.GetSite(r.Context(), name)
		if errors.Is(err, ErrNotFound) {
			models.WriteAck(w, http.StatusNotFound, "Site not found", 0)
			return
		}
		if err != nil {
			fail(w, r, http.StatusInternalServerError, "Failed to fetch data", err)
			return
		}
		models.WriteJSON(w, http.StatusOK, []models.Site{*site})
		return
	}

	rows, err := h.store.ListSites(r.Context())
	if err != nil {
		fail(w, r, http.StatusInternalServerError, "Failed to fetch data", err)
		return
	}
	models.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) UpsertSite(w http.ResponseWriter, r *http.Request) {
	var req SiteRequest
	if err := decodeJSON(r, &req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	req.SiteName = strings.TrimSpace(req.SiteName)
	if req.SiteName == "" {
		models.WriteError(w, http.StatusBadRequest, "sitename is required", "")
		return
	}

	n, err := h.store.UpsertSite(r.Context(), models.Site{SiteName: req.SiteName, SiteFullName: req.SiteFullName})
	if err != nil {
		fail(w, r, http.StatusInternalServerError, "Failed to upsert data", err)
		return
	}
	models.WriteAck(w, http.StatusOK, "Data upserted successfully", n)
}

func (h *Handler) DeleteSite(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("sitename")
	if name == "" {
		var req SiteRequest
		if err := decodeJSON(r, &req); err != nil {
			models.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}
		name = strings.TrimSpace(req.SiteName)
	}
	if name == "" {
		models.WriteError(w, http.StatusBadRequest, "sitename is required", "")
		return
	}

	n, err := h.store.DeleteSite(r.Context(), name)
	if errors.Is(err, ErrNotFound) {
		models.WriteAck(w, http.StatusNotFound, "Site not found", 0)
		return
	}
	if err != nil {
		fail(w, r, http.StatusInternalServerError, "Failed to delete site", err)
		return
	}
	models.WriteAck(w, http.StatusOK, "Site deleted successfully", n)
}

// ---------- /api/assigned ----------

func (h *Handler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	if ip := r.URL.Query().Get("ipaddress"); ip != "" {
		a, err := h.store.GetAssigned(r.Context(), ip)
		if errors.Is(err, ErrNotFound) {
			models.WriteAck(w, http.StatusNotFound, "IP address not found", 0)
			return
		}
		if err != nil {
			fail(w, r, http.StatusInternalServerError, "Failed to fetch data", err)
			return
		}
		models.WriteJSON(w, http.StatusOK, []models.AssignedIP{*a})
		return
	}

	rows, err := h.store.ListAssigned(r.Context())
	if err != nil {
		fail(w, r, http.StatusInternalServerError, "Failed to fetch data", err)
		return
	}
	models.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handler) UpsertAssigned(w http.ResponseWriter, r *http.Request) {
	var req AssignedRequest
	if err := decodeJSON(r, &req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if !models.ValidIPv4(req.IPAddress) {
		models.WriteError(w, http.StatusBadRequest, "Invalid IP address", req.IPAddress)
		return
	}
	if strings.TrimSpace(req.SiteName) == "" {
		models.WriteError(w, http.StatusBadRequest, "sitename is required", "")
		return
	}

	n, err := h.store.UpsertAssigned(r.Context(), models.AssignedIP{IPAddress: req.IPAddress, SiteName: req.SiteName})
	if errors.Is(err, ErrInvalidSite) {
		models.WriteError(w, http.StatusBadRequest, "Invalid sitename", req.SiteName)
		return
	}
	if err != nil {
		fail(w, r, http.StatusInternalServerError, "Failed to upsert data", err)
		return
	}
	models.WriteAck(w, http.StatusOK, "Data upserted successfully", n)
}

func (h *Handler) DeleteAssigned(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ipaddress")
	if ip == "" {
		var req AssignedRequest
		if err := decodeJSON(r, &req); err != nil {
			models.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}
		ip = req.IPAddress
	}
	if !models.ValidIPv4(ip) {
		models.WriteError(w, http.StatusBadRequest, "Invalid IP address", ip)
		return
	}

	n, err := h.store.DeleteAssigned(r.Context(), ip)
	if errors.Is(err, ErrNotFound) {
		models.WriteAck(w, http.StatusNotFound, "IP address not found", 0)
		return
	}
	if err != nil {
		fail(w, r, http.StatusInternalServerError, "Failed to delete data", err)
		return
	}
	models.WriteAck(w, http.StatusOK, "IP address deleted successfully", n)
}

// ---------- /api/ipcheck ----------

func (h *Handler) ListIPChecks(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListIPChecks(r.Context())
	if err != nil {
		fail(w, r, http.StatusInternalServerError, "Failed to fetch data", err)
		return
	}
	models.WriteJSON(w, http.StatusOK, rows)
}

// UpsertIPCheck — привязка к площадке и запись устройства одной транзакцией.
func (h *Handler) UpsertIPCheck(w http.ResponseWriter, r *http.Request) {
	var req IPCheckRequest
	if err := decodeJSON(r, &req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if !models.ValidIPv4(req.IP) {
		models.WriteError(w, http.StatusBadRequest, "Invalid IP address", req.IP)
		return
	}
	if req.MACAddress != nil && !models.ValidMAC(*req.MACAddress) {
		models.WriteError(w, http.StatusBadRequest, "MAC address is not valid", *req.MACAddress)
		return
	}

	rec, err := h.store.UpsertIPCheck(r.Context(), req)
	if errors.Is(err, ErrInvalidSite) {
		models.WriteError(w, http.StatusBadRequest, "Invalid sitename", err.Error())
		return
	}
	if err != nil {
		fail(w, r, http.StatusInternalServerError, "Failed to upsert data", err)
		return
	}
	models.WriteJSON(w, http.StatusOK, IPCheckAck{Message: "Data upserted successfully", Record: rec})
}

func (h *Handler) DeleteIPCheck(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip")
	if ip == "" {
		models.WriteError(w, http.StatusBadRequest, "IP address is required", "")
		return
	}
	if !models.ValidIPv4(ip) {
		models.WriteError(w, http.StatusBadRequest, "Invalid IP address", ip)
		return
	}

	n, err := h.store.DeleteIPCheck(r.Context(), ip)
	if errors.Is(err, ErrNotFound) {
		models.WriteAck(w, http.StatusNotFound, "IP not found", 0)
		return
	}
	if err != nil {
		fail(w, r, http.StatusInternalServerError, "Failed to delete IP", err)
		return
	}
	models.WriteAck(w, http.StatusOK, "IP deleted successfully", n)
}
