package reconcile

import (
	"time"

	"ipcheck/internal/models"
	"ipcheck/internal/probe"
)

// Row — объединённая строка таблицы: живые поля из sweep + сохранённые поля
// устройства по тому же IP. Отсутствующие поля остаются nil.
type Row struct {
	IP         string        `json:"ip"`
	Alive      bool          `json:"alive"`
	Time       probe.Latency `json:"time,omitzero"`
	Min        string        `json:"min,omitempty"`
	Max        string        `json:"max,omitempty"`
	Avg        string        `json:"avg,omitempty"`
	PacketLoss string        `json:"packetLoss,omitempty"`

	MACAddress   *string    `json:"macaddress,omitempty"`
	Device       *string    `json:"device,omitempty"`
	Location     *string    `json:"location,omitempty"`
	Comment      *string    `json:"comment,omitempty"`
	ModifiedDate *time.Time `json:"modifieddate,omitempty"`
	ModifiedBy   *string    `json:"modifiedby,omitempty"`
	SiteName     *string    `json:"sitename,omitempty"`
}

// Status — цвет строки: alive, dead (100% потерь) или degraded.
func (r Row) Status() string {
	switch {
	case r.Alive:
		return "alive"
	case r.PacketLoss == "100":
		return "dead"
	default:
		return "degraded"
	}
}

func (r Row) clone() Row {
	out := r
	out.MACAddress = cloneStr(r.MACAddress)
	out.Device = cloneStr(r.Device)
	out.Location = cloneStr(r.Location)
	out.Comment = cloneStr(r.Comment)
	out.ModifiedBy = cloneStr(r.ModifiedBy)
	out.SiteName = cloneStr(r.SiteName)
	if r.ModifiedDate != nil {
		t := *r.ModifiedDate
		out.ModifiedDate = &t
	}
	return out
}

// DeviceIndex — снимок инвентаря, ключ — IP.
type DeviceIndex struct {
	devices map[string]models.IPCheck
	sites   map[string]string
}

func IndexDevices(devices []models.IPCheck, assigned []models.AssignedIP) DeviceIndex {
	ix := DeviceIndex{
		devices: make(map[string]models.IPCheck, len(devices)),
		sites:   make(map[string]string, len(assigned)),
	}
	for _, d := range devices {
		ix.devices[d.IPAddress] = d
	}
	for _, a := range assigned {
		ix.sites[a.IPAddress] = a.SiteName
	}
	return ix
}

func (ix DeviceIndex) Lookup(ip string) (models.IPCheck, bool) {
	d, ok := ix.devices[ip]
	return d, ok
}

func (ix DeviceIndex) Site(ip string) (string, bool) {
	s, ok := ix.sites[ip]
	return s, ok
}

func (ix DeviceIndex) Len() int { return len(ix.devices) }

func (ix *DeviceIndex) put(d models.IPCheck) {
	if ix.devices == nil {
		ix.devices = map[string]models.IPCheck{}
	}
	ix.devices[d.IPAddress] = d
}

func (ix *DeviceIndex) remove(ip string) {
	delete(ix.devices, ip)
	delete(ix.sites, ip)
}

// Source — владелец поля строки.
type Source int

const (
	FromProbe  Source = iota // живой sweep
	FromDevice               // TB_IPCheck
	FromSite                 // TB_AssignedIP
)

type mergeInput struct {
	probe  *probe.Result
	device *models.IPCheck
	site   *string
}

type fieldRule struct {
	Field string
	Owner Source
	set   func(r *Row, in mergeInput)
}

// precedence — таблица владения полями Row.
// Поле заполняется только из своего источника; если источника нет
// (устройство не в инвентаре), поле остаётся пустым.
// ip и alive принадлежат sweep всегда: сохранённые данные их не перекрывают.
var precedence = []fieldRule{
	{"ip", FromProbe, func(r *Row, in mergeInput) { r.IP = in.probe.IP }},
	{"alive", FromProbe, func(r *Row, in mergeInput) { r.Alive = in.probe.Alive }},
	{"time", FromProbe, func(r *Row, in mergeInput) { r.Time = in.probe.Time }},
	{"min", FromProbe, func(r *Row, in mergeInput) { r.Min = in.probe.Min }},
	{"max", FromProbe, func(r *Row, in mergeInput) { r.Max = in.probe.Max }},
	{"avg", FromProbe, func(r *Row, in mergeInput) { r.Avg = in.probe.Avg }},
	{"packetLoss", FromProbe, func(r *Row, in mergeInput) { r.PacketLoss = in.probe.PacketLoss }},
	{"macaddress", FromDevice, func(r *Row, in mergeInput) { r.MACAddress = cloneStr(in.device.MACAddress) }},
	{"device", FromDevice, func(r *Row, in mergeInput) { r.Device = cloneStr(in.device.Device) }},
	{"location", FromDevice, func(r *Row, in mergeInput) { r.Location = cloneStr(in.device.Location) }},
	{"comment", FromDevice, func(r *Row, in mergeInput) { r.Comment = cloneStr(in.device.Comment) }},
	{"modifieddate", FromDevice, func(r *Row, in mergeInput) { r.ModifiedDate = cloneTime(in.device.ModifiedDate) }},
	{"modifiedby", FromDevice, func(r *Row, in mergeInput) { r.ModifiedBy = cloneStr(in.device.ModifiedBy) }},
	{"sitename", FromSite, func(r *Row, in mergeInput) { r.SiteName = cloneStr(in.site) }},
}

// Precedence возвращает владельца каждого поля Row (для документации и тестов).
func Precedence() map[string]Source {
	out := make(map[string]Source, len(precedence))
	for _, f := range precedence {
		out[f.Field] = f.Owner
	}
	return out
}

// Merge строит ровно одну Row на каждый результат sweep в том же порядке.
// Чистая функция: одинаковый вход — одинаковый выход.
func Merge(results []probe.Result, ix DeviceIndex) []Row {
	rows := make([]Row, 0, len(results))
	for i := range results {
		rows = append(rows, mergeOne(&results[i], ix))
	}
	return rows
}

func mergeOne(p *probe.Result, ix DeviceIndex) Row {
	in := mergeInput{probe: p}
	if d, ok := ix.devices[p.IP]; ok {
		in.device = &d
	}
	if s, ok := ix.sites[p.IP]; ok {
		in.site = &s
	}

	var row Row
	for _, f := range precedence {
		switch f.Owner {
		case FromProbe:
			f.set(&row, in)
		case FromDevice:
			if in.device != nil {
				f.set(&row, in)
			}
		case FromSite:
			if in.site != nil {
				f.set(&row, in)
			}
		}
	}
	return row
}

// applyDevice накладывает сохранённые поля поверх строки (после записи).
func applyDevice(r *Row, d models.IPCheck) {
	in := mergeInput{device: &d}
	for _, f := range precedence {
		if f.Owner == FromDevice {
			f.set(r, in)
		}
	}
}

func clearDevice(r *Row) {
	r.MACAddress, r.Device, r.Location, r.Comment = nil, nil, nil, nil
	r.ModifiedDate, r.ModifiedBy, r.SiteName = nil, nil, nil
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
