package reconcile

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"ipcheck/internal/models"
)

var (
	ErrInvalidMAC  = errors.New("MAC address is not valid")
	ErrNotEditable = errors.New("field is not editable")
	ErrNoSession   = errors.New("row is not being edited")
)

// Field — редактируемое поле строки (имя совпадает с ключом JSON API).
type Field string

const (
	FieldMAC      Field = "macaddress"
	FieldDevice   Field = "device"
	FieldLocation Field = "location"
	FieldComment  Field = "comment"
)

var EditableFields = []Field{FieldMAC, FieldDevice, FieldLocation, FieldComment}

func ParseField(s string) (Field, error) {
	for _, f := range EditableFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotEditable, s)
}

var nonHex = regexp.MustCompile(`[^0-9A-Fa-f]`)

// FormatMAC: выкидываем всё кроме hex, верхний регистр, двоеточие через каждые две цифры.
// "aabb.ccdd.eeff" -> "AA:BB:CC:DD:EE:FF".
func FormatMAC(s string) string {
	hex := strings.ToUpper(nonHex.ReplaceAllString(s, ""))
	var b strings.Builder
	for i := 0; i < len(hex); i++ {
		if i > 0 && i%2 == 0 {
			b.WriteByte(':')
		}
		b.WriteByte(hex[i])
	}
	return b.String()
}

// Patch — только изменённые и заданные поля.
type Patch map[Field]string

func (p Patch) Validate() error {
	if mac, ok := p[FieldMAC]; ok && !models.ValidMAC(mac) {
		return fmt.Errorf("%w: %q", ErrInvalidMAC, mac)
	}
	return nil
}

func (p Patch) apply(r *Row) {
	for f, v := range p {
		switch f {
		case FieldMAC:
			r.MACAddress = &v
		case FieldDevice:
			r.Device = &v
		case FieldLocation:
			r.Location = &v
		case FieldComment:
			r.Comment = &v
		}
	}
}

// RowEditSession — правка одной строки: снимок до правки и черновик.
type RowEditSession struct {
	IP       string
	Original Row
	Draft    Row

	gen uint64 // поколение sweep, из которого взят снимок
}

func newSession(r Row) *RowEditSession {
	return &RowEditSession{IP: r.IP, Original: r.clone(), Draft: r.clone()}
}

// Set меняет поле черновика. MAC сразу форматируется. Пустое значение для
// поля, которого нет в записи, означает «не задано», а не пустую строку.
func (s *RowEditSession) Set(f Field, v string) error {
	if f == FieldMAC {
		v = FormatMAC(v)
	}
	val := &v
	if v == "" && fieldOf(s.Original, f) == nil {
		val = nil
	}
	switch f {
	case FieldMAC:
		s.Draft.MACAddress = val
	case FieldDevice:
		s.Draft.Device = val
	case FieldLocation:
		s.Draft.Location = val
	case FieldComment:
		s.Draft.Comment = val
	default:
		return fmt.Errorf("%w: %q", ErrNotEditable, f)
	}
	return nil
}

// Diff сравнивает черновик со снимком.
func (s *RowEditSession) Diff() Patch {
	return Diff(s.Original, s.Draft)
}

// Diff — пополевое сравнение редактируемых полей; nil в правке = «не задано».
func Diff(original, edited Row) Patch {
	p := Patch{}
	for _, f := range EditableFields {
		was, now := fieldOf(original, f), fieldOf(edited, f)
		if now == nil {
			continue
		}
		if was == nil || *was != *now {
			p[f] = *now
		}
	}
	return p
}

func fieldOf(r Row, f Field) *string {
	switch f {
	case FieldMAC:
		return r.MACAddress
	case FieldDevice:
		return r.Device
	case FieldLocation:
		return r.Location
	case FieldComment:
		return r.Comment
	}
	return nil
}
