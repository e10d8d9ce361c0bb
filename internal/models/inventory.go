package models

import (
	"net/netip"
	"regexp"
	"time"
)

// Site — площадка (TB_Site).
type Site struct {
	SiteName     string `gorm:"column:sitename;primaryKey;size:64" json:"sitename"`
	SiteFullName string `gorm:"column:sitefullname;size:255" json:"sitefullname"`
}

func (Site) TableName() string { return "tb_site" }

// AssignedIP — привязка IP к площадке (TB_AssignedIP). Ключ — ipaddress,
// поэтому у адреса не бывает двух площадок.
type AssignedIP struct {
	IPAddress string `gorm:"column:ipaddress;primaryKey;size:15" json:"ipaddress"`
	SiteName  string `gorm:"column:sitename;size:64;index" json:"sitename"`
}

func (AssignedIP) TableName() string { return "tb_assignedip" }

// IPCheck — метаданные устройства по IP (TB_IPCheck).
// Nullable-поля — указатели: «нет значения» отличается от пустой строки.
type IPCheck struct {
	IPAddress    string     `gorm:"column:ipaddress;primaryKey;size:15" json:"ipaddress"`
	MACAddress   *string    `gorm:"column:macaddress;size:17" json:"macaddress"`
	Device       *string    `gorm:"column:device;size:255" json:"device"`
	Location     *string    `gorm:"column:location;size:255" json:"location"`
	Comment      *string    `gorm:"column:comment;size:1024" json:"comment"`
	ModifiedDate *time.Time `gorm:"column:modifieddate" json:"modifieddate"`
	ModifiedBy   *string    `gorm:"column:modifiedby;size:64" json:"modifiedby"`
}

func (IPCheck) TableName() string { return "tb_ipcheck" }

// ValidIPv4 — строгая проверка dotted-quad.
func ValidIPv4(s string) bool {
	a, err := netip.ParseAddr(s)
	return err == nil && a.Is4()
}

var macRe = regexp.MustCompile(`^([0-9A-Fa-f]{2}:){5}[0-9A-Fa-f]{2}$`)

// ValidMAC — пустая строка допустима, иначе шесть hex-октетов через двоеточие.
func ValidMAC(s string) bool { return s == "" || macRe.MatchString(s) }

// Ptr — хелпер для nullable-полей.
func Ptr[T any](v T) *T { return &v }
