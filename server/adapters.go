package server

import (
	"context"
	"errors"

	"ipcheck/internal/api"
	"ipcheck/internal/models"
	"ipcheck/internal/repo"
)

// storeAdapter реализует api.Store поверх трёх repo-стора
// и переводит ошибки repo в ошибки HTTP-слоя.
type storeAdapter struct {
	sites    *repo.SiteStore
	assigned *repo.AssignedStore
	checks   *repo.IPCheckStore
}

func newStoreAdapter(sites *repo.SiteStore, assigned *repo.AssignedStore, checks *repo.IPCheckStore) api.Store {
	return &storeAdapter{sites: sites, assigned: assigned, checks: checks}
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return api.ErrNotFound
	case errors.Is(err, repo.ErrUnknownSite):
		return api.ErrInvalidSite
	default:
		return err
	}
}

func (a *storeAdapter) ListSites(ctx context.Context) ([]models.Site, error) {
	rows, err := a.sites.List(ctx)
	return rows, mapErr(err)
}

func (a *storeAdapter) GetSite(ctx context.Context, name string) (*models.Site, error) {
	s, err := a.sites.Get(ctx, name)
	return s, mapErr(err)
}

func (a *storeAdapter) UpsertSite(ctx context.Context, s models.Site) (int64, error) {
	n, err := a.sites.Upsert(ctx, s)
	return n, mapErr(err)
}

func (a *storeAdapter) DeleteSite(ctx context.Context, name string) (int64, error) {
	n, err := a.sites.Delete(ctx, name)
	return n, mapErr(err)
}

func (a *storeAdapter) ListAssigned(ctx context.Context) ([]models.AssignedIP, error) {
	rows, err := a.assigned.List(ctx)
	return rows, mapErr(err)
}

func (a *storeAdapter) GetAssigned(ctx context.Context, ip string) (*models.AssignedIP, error) {
	row, err := a.assigned.Get(ctx, ip)
	return row, mapErr(err)
}

func (a *storeAdapter) UpsertAssigned(ctx context.Context, row models.AssignedIP) (int64, error) {
	n, err := a.assigned.Upsert(ctx, row)
	return n, mapErr(err)
}

func (a *storeAdapter) DeleteAssigned(ctx context.Context, ip string) (int64, error) {
	n, err := a.assigned.Delete(ctx, ip)
	return n, mapErr(err)
}

func (a *storeAdapter) ListIPChecks(ctx context.Context) ([]models.IPCheck, error) {
	rows, err := a.checks.List(ctx)
	return rows, mapErr(err)
}

func (a *storeAdapter) UpsertIPCheck(ctx context.Context, in api.IPCheckRequest) (*models.IPCheck, error) {
	rec, err := a.checks.Upsert(ctx, repo.UpsertInput{
		IP:           in.IP,
		SiteName:     in.SiteName,
		MACAddress:   in.MACAddress,
		Device:       in.Device,
		Location:     in.Location,
		Comment:      in.Comment,
		ModifiedDate: in.ModifiedDate,
		ModifiedBy:   in.ModifiedBy,
	})
	return rec, mapErr(err)
}

func (a *storeAdapter) DeleteIPCheck(ctx context.Context, ip string) (int64, error) {
	n, err := a.checks.Delete(ctx, ip)
	return n, mapErr(err)
}
