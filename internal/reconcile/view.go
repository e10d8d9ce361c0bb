package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"ipcheck/internal/models"
	"ipcheck/internal/probe"
)

var (
	// ErrSuperseded — результаты sweep устарели: уже запущен более новый.
	ErrSuperseded     = errors.New("sweep superseded by a newer request")
	ErrNotInInventory = errors.New("ip has no device record")
	ErrUnknownRow     = errors.New("ip is not in the current table")
)

const recentlySavedTTL = 5 * time.Second

// Sweeper — источник живых результатов (HTTP /api/status или probe.Sweeper).
type Sweeper interface {
	SweepRange(ctx context.Context, ipRange string) ([]probe.Result, error)
}

// Inventory — четыре узких операции над хранилищем.
type Inventory interface {
	ListDevices(ctx context.Context) ([]models.IPCheck, error)
	ListAssigned(ctx context.Context) ([]models.AssignedIP, error)
	UpdateDevice(ctx context.Context, ip string, patch Patch, by string) (*models.IPCheck, error)
	DeleteDevice(ctx context.Context, ip string) error
}

type sortState struct {
	key SortKey
	asc bool
}

// View — состояние таблицы сверки для одного оператора.
// Текущим может быть только один sweep: каждый Refresh получает новое
// поколение и отменяет предыдущий; результаты чужого поколения отбрасываются.
type View struct {
	sweeper  Sweeper
	inv      Inventory
	log      *logrus.Logger
	operator string

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	rows     []Row
	index    DeviceIndex
	sessions map[string]*RowEditSession
	filter   Filter
	sort     sortState
	nextAsc  map[SortKey]bool
	lastErr  error
	saved    *Row
	savedAt  time.Time
	now      func() time.Time
}

func NewView(sw Sweeper, inv Inventory, operator string, log *logrus.Logger) *View {
	v := &View{
		sweeper:  sw,
		inv:      inv,
		log:      log,
		operator: operator,
		sessions: map[string]*RowEditSession{},
		filter:   Filter{Alive: "all", Field: SearchIP},
		now:      time.Now,
	}
	// первый клик по IP — по убыванию (sweep и так идёт по возрастанию), по MAC — по возрастанию
	v.nextAsc = map[SortKey]bool{SortByIP: false, SortByMAC: true}
	return v
}

// LoadInventory обновляет снимок инвентаря. При ошибке старый снимок остаётся.
func (v *View) LoadInventory(ctx context.Context) error {
	devs, err := v.inv.ListDevices(ctx)
	if err == nil {
		var assigned []models.AssignedIP
		assigned, err = v.inv.ListAssigned(ctx)
		if err == nil {
			v.mu.Lock()
			v.index = IndexDevices(devs, assigned)
			v.lastErr = nil
			v.mu.Unlock()
			return nil
		}
	}
	v.fail(fmt.Errorf("load inventory: %w", err))
	return err
}

// Refresh запускает sweep цели и, если он всё ещё актуален, заменяет строки.
func (v *View) Refresh(ctx context.Context, ipRange string) ([]Row, error) {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	if v.cancel != nil {
		v.cancel()
	}
	sctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.mu.Unlock()
	defer cancel()

	results, err := v.sweeper.SweepRange(sctx, ipRange)
	return v.apply(gen, results, err)
}

func (v *View) apply(gen uint64, results []probe.Result, err error) ([]Row, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		v.log.Debugf("dropping results of sweep generation %d (current %d)", gen, v.gen)
		return nil, ErrSuperseded
	}
	v.cancel = nil
	if err != nil {
		v.lastErr = err
		return nil, err
	}

	v.rows = Merge(results, v.index)
	v.sessions = map[string]*RowEditSession{}
	v.lastErr = nil
	return v.visibleLocked(), nil
}

// Generation — номер последнего запущенного sweep.
func (v *View) Generation() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gen
}

// Rows — все строки в порядке sweep.
func (v *View) Rows() []Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	return cloneRows(v.rows)
}

// Visible — строки с учётом текущей сортировки и фильтра.
func (v *View) Visible() []Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visibleLocked()
}

func (v *View) visibleLocked() []Row {
	rows := v.rows
	if v.sort.key != SortNone {
		rows = SortRows(rows, v.sort.key, v.sort.asc)
	}
	return cloneRows(FilterRows(rows, v.filter))
}

func (v *View) SetFilter(f Filter) {
	v.mu.Lock()
	v.filter = f
	v.mu.Unlock()
}

// ToggleSort — клик по заголовку: сортирует и меняет направление следующего клика.
func (v *View) ToggleSort(key SortKey) (asc bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	asc = v.nextAsc[key]
	v.sort = sortState{key: key, asc: asc}
	v.nextAsc[key] = !asc
	return asc
}

// HasRecord — есть ли запись устройства (только такие строки можно удалить).
func (v *View) HasRecord(ip string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.index.Lookup(ip)
	return ok
}

// ---------- Правка строк ----------

func (v *View) Begin(ip string) (*RowEditSession, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.findLocked(ip)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRow, ip)
	}
	s := newSession(v.rows[i])
	s.gen = v.gen
	v.sessions[ip] = s
	return s, nil
}

func (v *View) Set(ip string, f Field, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.sessions[ip]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSession, ip)
	}
	return s.Set(f, value)
}

func (v *View) Cancel(ip string) {
	v.mu.Lock()
	delete(v.sessions, ip)
	v.mu.Unlock()
}

// Editing — открытые сессии правки.
func (v *View) Editing(ip string) (*RowEditSession, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.sessions[ip]
	return s, ok
}

// Commit сохраняет правку строки. Без изменений — ничего не пишет и
// возвращает written=false. Невалидный MAC — ErrInvalidMAC, сессия остаётся.
// После записи строка = снимок ⊕ правка, alive берётся из снимка. Если за
// время записи завершился новый sweep, правка ложится на его строку.
func (v *View) Commit(ctx context.Context, ip string) (row Row, written bool, err error) {
	v.mu.Lock()
	s, ok := v.sessions[ip]
	if !ok {
		v.mu.Unlock()
		return Row{}, false, fmt.Errorf("%w: %s", ErrNoSession, ip)
	}
	patch := s.Diff()
	if len(patch) == 0 {
		delete(v.sessions, ip)
		v.mu.Unlock()
		return s.Original.clone(), false, nil
	}
	if err := patch.Validate(); err != nil {
		v.mu.Unlock()
		return Row{}, false, err
	}
	original := s.Original.clone()
	gen := s.gen
	v.mu.Unlock()

	rec, err := v.inv.UpdateDevice(ctx, ip, patch, v.operator)
	if err != nil {
		v.fail(fmt.Errorf("save %s: %w", ip, err))
		return Row{}, false, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	i := v.findLocked(ip)
	updated := original.clone()
	if gen != v.gen && i >= 0 {
		// пока шла запись, таблицу заменил новый sweep: его probe-поля главнее снимка
		updated = v.rows[i].clone()
	}
	patch.apply(&updated)
	if rec != nil {
		applyDevice(&updated, *rec)
	}
	updated.IP = ip

	if i >= 0 {
		v.rows[i] = updated
	}
	v.index.put(v.recordFor(ip, patch, rec))
	delete(v.sessions, ip)
	saved := updated.clone()
	v.saved, v.savedAt = &saved, v.now()
	v.lastErr = nil
	return updated, true, nil
}

// Delete удаляет запись устройства и привязку; строка остаётся в таблице
// без сохранённых полей.
func (v *View) Delete(ctx context.Context, ip string) error {
	if !v.HasRecord(ip) {
		return fmt.Errorf("%w: %s", ErrNotInInventory, ip)
	}
	if err := v.inv.DeleteDevice(ctx, ip); err != nil {
		v.fail(fmt.Errorf("delete %s: %w", ip, err))
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.index.remove(ip)
	if i := v.findLocked(ip); i >= 0 {
		clearDevice(&v.rows[i])
	}
	delete(v.sessions, ip)
	v.lastErr = nil
	return nil
}

// LastError — текст баннера ошибки; таблица при этом остаётся прежней.
func (v *View) LastError() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

// RecentlySaved — последняя сохранённая строка, показывается 5 секунд.
func (v *View) RecentlySaved() (Row, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.saved == nil || v.now().Sub(v.savedAt) > recentlySavedTTL {
		return Row{}, false
	}
	return v.saved.clone(), true
}

func (v *View) recordFor(ip string, patch Patch, rec *models.IPCheck) models.IPCheck {
	if rec != nil {
		return *rec
	}
	d, _ := v.index.Lookup(ip)
	d.IPAddress = ip
	var r Row
	patch.apply(&r)
	if r.MACAddress != nil {
		d.MACAddress = r.MACAddress
	}
	if r.Device != nil {
		d.Device = r.Device
	}
	if r.Location != nil {
		d.Location = r.Location
	}
	if r.Comment != nil {
		d.Comment = r.Comment
	}
	return d
}

func (v *View) findLocked(ip string) int {
	for i := range v.rows {
		if v.rows[i].IP == ip {
			return i
		}
	}
	return -1
}

func (v *View) fail(err error) {
	v.log.Error(err)
	v.mu.Lock()
	v.lastErr = err
	v.mu.Unlock()
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i := range rows {
		out[i] = rows[i].clone()
	}
	return out
}
