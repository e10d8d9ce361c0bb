package api

import (
	"context"
	"errors"
	"time"

	"ipcheck/internal/models"
	"ipcheck/internal/probe"
)

// Ошибки, которые Store обязан отдавать вместо ошибок драйвера.
var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidSite = errors.New("invalid sitename")
)

// Store — контракт хранилища для HTTP-слоя (реализуется адаптером над repo).
type Store interface {
	ListSites(ctx context.Context) ([]models.Site, error)
	GetSite(ctx context.Context, name string) (*models.Site, error)
	UpsertSite(ctx context.Context, s models.Site) (int64, error)
	DeleteSite(ctx context.Context, name string) (int64, error)

	ListAssigned(ctx context.Context) ([]models.AssignedIP, error)
	GetAssigned(ctx context.Context, ip string) (*models.AssignedIP, error)
	UpsertAssigned(ctx context.Context, a models.AssignedIP) (int64, error)
	DeleteAssigned(ctx context.Context, ip string) (int64, error)

	ListIPChecks(ctx context.Context) ([]models.IPCheck, error)
	UpsertIPCheck(ctx context.Context, in IPCheckRequest) (*models.IPCheck, error)
	DeleteIPCheck(ctx context.Context, ip string) (int64, error)
}

// Sweeper — оркестратор проверок.
type Sweeper interface {
	Sweep(ctx context.Context, t probe.Target) ([]probe.Result, error)
}

type SiteRequest struct {
	SiteName     string `json:"sitename"`
	SiteFullName string `json:"sitefullname"`
}

type AssignedRequest struct {
	SiteName  string `json:"sitename"`
	IPAddress string `json:"ipaddress"`
}

// IPCheckRequest — тело POST /api/ipcheck. Отсутствующие поля не перезаписываются.
type IPCheckRequest struct {
	IP           string     `json:"ip"`
	SiteName     *string    `json:"sitename,omitempty"`
	MACAddress   *string    `json:"macaddress,omitempty"`
	Device       *string    `json:"device,omitempty"`
	Location     *string    `json:"location,omitempty"`
	Comment      *string    `json:"comment,omitempty"`
	ModifiedDate *time.Time `json:"modifieddate,omitempty"`
	ModifiedBy   *string    `json:"modifiedby,omitempty"`
}

// IPCheckAck — подтверждение upsert вместе с итоговой записью.
type IPCheckAck struct {
	Message string          `json:"message"`
	Record  *models.IPCheck `json:"record,omitempty"`
}
