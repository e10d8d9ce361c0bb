package repo

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ipcheck/internal/db"
	"ipcheck/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	d, err := db.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	sqlDB, err := d.DB()
	require.NoError(t, err)
	// in-memory sqlite живёт в пределах одного соединения
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(d))
	return d
}

func seedSite(t *testing.T, d *gorm.DB, name string) {
	t.Helper()
	_, err := NewSiteStore(d).Upsert(context.Background(), models.Site{SiteName: name, SiteFullName: name + " full"})
	require.NoError(t, err)
}

func TestSiteStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewSiteStore(newTestDB(t))

	_, err := s.Upsert(ctx, models.Site{SiteName: "HQ.main", SiteFullName: "Head office"})
	require.NoError(t, err)
	_, err = s.Upsert(ctx, models.Site{SiteName: "HQ.main", SiteFullName: "Head office, 2nd floor"})
	require.NoError(t, err)

	rows, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Head office, 2nd floor", rows[0].SiteFullName)

	got, err := s.Get(ctx, "HQ.main")
	require.NoError(t, err)
	assert.Equal(t, "HQ.main", got.SiteName)

	n, err := s.Delete(ctx, "HQ.main")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.Delete(ctx, "HQ.main")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "HQ.main")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignedStoreOneSitePerIP(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedSite(t, d, "A.one")
	seedSite(t, d, "B.two")
	s := NewAssignedStore(d)

	_, err := s.Upsert(ctx, models.AssignedIP{IPAddress: "10.0.0.5", SiteName: "A.one"})
	require.NoError(t, err)
	_, err = s.Upsert(ctx, models.AssignedIP{IPAddress: "10.0.0.5", SiteName: "B.two"})
	require.NoError(t, err)

	rows, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "B.two", rows[0].SiteName)

	_, err = s.Upsert(ctx, models.AssignedIP{IPAddress: "10.0.0.6", SiteName: "nope"})
	assert.ErrorIs(t, err, ErrUnknownSite)

	_, err = s.Delete(ctx, "10.0.0.5")
	require.NoError(t, err)
	_, err = s.Delete(ctx, "10.0.0.5")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIPCheckUpsertPartial(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedSite(t, d, "A.one")
	s := NewIPCheckStore(d)

	rec, err := s.Upsert(ctx, UpsertInput{
		IP:         "10.0.0.5",
		SiteName:   models.Ptr("A.one"),
		MACAddress: models.Ptr("AA:BB:CC:DD:EE:FF"),
		Device:     models.Ptr("printer"),
		ModifiedBy: models.Ptr("ops"),
	})
	require.NoError(t, err)
	require.NotNil(t, rec.ModifiedDate)
	assert.Nil(t, rec.Comment)

	rec, err = s.Upsert(ctx, UpsertInput{IP: "10.0.0.5", Comment: models.Ptr("2nd floor")})
	require.NoError(t, err)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", *rec.MACAddress)
	assert.Equal(t, "printer", *rec.Device)
	assert.Equal(t, "2nd floor", *rec.Comment)

	a, err := NewAssignedStore(d).Get(ctx, "10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, "A.one", a.SiteName)
}

func TestIPCheckUpsertUnknownSiteWritesNothing(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	s := NewIPCheckStore(d)

	_, err := s.Upsert(ctx, UpsertInput{IP: "10.0.0.9", SiteName: models.Ptr("ghost"), Device: models.Ptr("x")})
	assert.ErrorIs(t, err, ErrUnknownSite)

	_, err = s.Get(ctx, "10.0.0.9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIPCheckDeleteBoth(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedSite(t, d, "A.one")
	s := NewIPCheckStore(d)

	_, err := s.Upsert(ctx, UpsertInput{IP: "10.0.0.5", SiteName: models.Ptr("A.one"), Device: models.Ptr("nas")})
	require.NoError(t, err)

	n, err := s.Delete(ctx, "10.0.0.5")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = s.Get(ctx, "10.0.0.5")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = NewAssignedStore(d).Get(ctx, "10.0.0.5")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Delete(ctx, "10.0.0.5")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIPCheckDeleteRollsBackOnSecondStatement(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedSite(t, d, "A.one")
	s := NewIPCheckStore(d)

	_, err := s.Upsert(ctx, UpsertInput{IP: "10.0.0.5", SiteName: models.Ptr("A.one"), Device: models.Ptr("nas")})
	require.NoError(t, err)

	// ломаем удаление из tb_assignedip — первое удаление должно откатиться
	require.NoError(t, d.Callback().Delete().Before("gorm:delete").Register("test:fail_assigned", func(tx *gorm.DB) {
		if tx.Statement.Table == "tb_assignedip" {
			_ = tx.AddError(errors.New("injected failure"))
		}
	}))

	_, err = s.Delete(ctx, "10.0.0.5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected failure")

	rec, err := s.Get(ctx, "10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, "nas", *rec.Device)
	_, err = NewAssignedStore(d).Get(ctx, "10.0.0.5")
	assert.NoError(t, err)
}

func TestIPCheckDeleteRollbackSQLMock(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	d, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "tb_ipcheck" WHERE ipaddress = $1`)).
		WithArgs("10.0.0.5").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "tb_assignedip" WHERE ipaddress = $1`)).
		WithArgs("10.0.0.5").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err = NewIPCheckStore(d).Delete(context.Background(), "10.0.0.5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
