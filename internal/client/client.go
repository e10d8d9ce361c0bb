package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"ipcheck/internal/api"
	"ipcheck/internal/middleware"
	"ipcheck/internal/models"
	"ipcheck/internal/probe"
	"ipcheck/internal/reconcile"
)

// ErrNotFound — сервер ответил 404.
var ErrNotFound = errors.New("not found")

// APIError — ответ сервера со статусом >= 400.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Client ходит в HTTP API ipcheck. Реализует reconcile.Sweeper и reconcile.Inventory.
type Client struct {
	http    *http.Client
	baseURL string
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

var (
	_ reconcile.Sweeper   = (*Client)(nil)
	_ reconcile.Inventory = (*Client)(nil)
)

// ---------- reconcile.Sweeper ----------

// SweepRange — GET /api/status. Отмена ctx обрывает запрос, сервер отменяет свои пинги.
func (c *Client) SweepRange(ctx context.Context, ipRange string) ([]probe.Result, error) {
	var out []probe.Result
	if err := c.do(ctx, http.MethodGet, "/api/status?ipRange="+url.QueryEscape(ipRange), nil, &out); err != nil {
		return nil, fmt.Errorf("sweep %s: %w", ipRange, err)
	}
	return out, nil
}

// ---------- reconcile.Inventory ----------

func (c *Client) ListDevices(ctx context.Context) ([]models.IPCheck, error) {
	var out []models.IPCheck
	if err := c.do(ctx, http.MethodGet, "/api/ipcheck", nil, &out); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return out, nil
}

func (c *Client) ListAssigned(ctx context.Context) ([]models.AssignedIP, error) {
	var out []models.AssignedIP
	if err := c.do(ctx, http.MethodGet, "/api/assigned", nil, &out); err != nil {
		return nil, fmt.Errorf("list assigned: %w", err)
	}
	return out, nil
}

// UpdateDevice отправляет только поля из patch; остальные сервер не трогает.
func (c *Client) UpdateDevice(ctx context.Context, ip string, patch reconcile.Patch, by string) (*models.IPCheck, error) {
	req := api.IPCheckRequest{IP: ip}
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
	if by != "" {
		req.ModifiedBy = models.Ptr(by)
	}

	var ack api.IPCheckAck
	if err := c.do(ctx, http.MethodPost, "/api/ipcheck", req, &ack); err != nil {
		return nil, fmt.Errorf("update device %s: %w", ip, err)
	}
	return ack.Record, nil
}

func (c *Client) DeleteDevice(ctx context.Context, ip string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/ipcheck?ip="+url.QueryEscape(ip), nil, nil); err != nil {
		return fmt.Errorf("delete device %s: %w", ip, err)
	}
	return nil
}

// ---------- справочники ----------

func (c *Client) ListSites(ctx context.Context) ([]models.Site, error) {
	var out []models.Site
	if err := c.do(ctx, http.MethodGet, "/api/site", nil, &out); err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	return out, nil
}

func (c *Client) UpsertSite(ctx context.Context, name, fullName string) error {
	body := api.SiteRequest{SiteName: name, SiteFullName: fullName}
	if err := c.do(ctx, http.MethodPost, "/api/site", body, nil); err != nil {
		return fmt.Errorf("upsert site %s: %w", name, err)
	}
	return nil
}

func (c *Client) DeleteSite(ctx context.Context, name string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/site?sitename="+url.QueryEscape(name), nil, nil); err != nil {
		return fmt.Errorf("delete site %s: %w", name, err)
	}
	return nil
}

func (c *Client) Assign(ctx context.Context, ip, site string) error {
	body := api.AssignedRequest{IPAddress: ip, SiteName: site}
	if err := c.do(ctx, http.MethodPost, "/api/assigned", body, nil); err != nil {
		return fmt.Errorf("assign %s to %s: %w", ip, site, err)
	}
	return nil
}

func (c *Client) Unassign(ctx context.Context, ip string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/assigned?ipaddress="+url.QueryEscape(ip), nil, nil); err != nil {
		return fmt.Errorf("unassign %s: %w", ip, err)
	}
	return nil
}

// do выполняет запрос; out == nil — тело ответа не нужно.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(middleware.RequestIDHeader, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	e := &APIError{Status: resp.StatusCode}

	// ошибки приходят как {error, details}, 404 — как {message}
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		e.Message, e.Details = body.Error, body.Details
		if e.Message == "" {
			e.Message = body.Message
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(raw))
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
