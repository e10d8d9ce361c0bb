package reconcile

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// SearchField — по какому полю ищем.
type SearchField string

const (
	SearchIP      SearchField = "ip"
	SearchMAC     SearchField = "macaddress"
	SearchDevice  SearchField = "device"
	SearchComment SearchField = "comment"
)

// Filter: Alive — "all" | "true" | "false"; Term пустой — без поиска.
type Filter struct {
	Alive string
	Field SearchField
	Term  string
}

func (f Filter) Match(r Row) bool {
	if f.Alive != "" && f.Alive != "all" && strconv.FormatBool(r.Alive) != f.Alive {
		return false
	}
	if f.Term == "" {
		return true
	}
	switch f.Field {
	case SearchIP, "":
		return lastOctetText(r.IP) == f.Term
	case SearchMAC:
		return containsFold(r.MACAddress, f.Term)
	case SearchDevice:
		return containsFold(r.Device, f.Term)
	case SearchComment:
		return containsFold(r.Comment, f.Term)
	default:
		return false
	}
}

func FilterRows(rows []Row, f Filter) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

type SortKey int

const (
	SortNone SortKey = iota
	SortByIP
	SortByMAC
)

// SortRows — стабильная сортировка копии.
// IP — по числовому значению последнего октета; MAC — строки с учётом
// регистра, пустые MAC всегда в конце независимо от направления.
func SortRows(rows []Row, key SortKey, asc bool) []Row {
	out := slices.Clone(rows)
	switch key {
	case SortByIP:
		slices.SortStableFunc(out, func(a, b Row) int {
			c := cmp.Compare(lastOctet(a.IP), lastOctet(b.IP))
			if !asc {
				c = -c
			}
			return c
		})
	case SortByMAC:
		slices.SortStableFunc(out, func(a, b Row) int {
			ma, mb := deref(a.MACAddress), deref(b.MACAddress)
			switch {
			case ma == "" && mb == "":
				return 0
			case ma == "":
				return 1
			case mb == "":
				return -1
			}
			c := strings.Compare(ma, mb)
			if !asc {
				c = -c
			}
			return c
		})
	}
	return out
}

func lastOctetText(ip string) string {
	if i := strings.LastIndexByte(ip, '.'); i >= 0 {
		return ip[i+1:]
	}
	return ip
}

func lastOctet(ip string) int {
	n, err := strconv.Atoi(lastOctetText(ip))
	if err != nil {
		return -1
	}
	return n
}

func containsFold(s *string, term string) bool {
	if s == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*s), strings.ToLower(term))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
