package probe

import (
	"errors"
	"fmt"
	"strings"

	"ipcheck/internal/models"
)

// SingleHostMarker — префикс ipRange, обозначающий один адрес: "num10.0.0.5".
const SingleHostMarker = "num"

var ErrBadTarget = errors.New("bad sweep target")

// Target — либо один адрес (Host), либо /24 по первым трём октетам (Prefix).
type Target struct {
	Prefix string
	Host   string
}

// ParseTarget разбирает значение ipRange.
//
//	"num10.0.0.5" -> один адрес
//	"10.0.0"      -> 10.0.0.1 … 10.0.0.254
//	"10.0.0.0"    -> как "10.0.0"
//	"10.0.0.5"    -> один адрес
//
// Списки через запятую не поддерживаются.
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if host, ok := strings.CutPrefix(s, SingleHostMarker); ok {
		if !models.ValidIPv4(host) {
			return Target{}, fmt.Errorf("%w: %q is not an IPv4 address", ErrBadTarget, host)
		}
		return Target{Host: host}, nil
	}

	switch strings.Count(s, ".") {
	case 2:
		if !models.ValidIPv4(s + ".0") {
			return Target{}, fmt.Errorf("%w: %q is not a 3-octet prefix", ErrBadTarget, s)
		}
		return Target{Prefix: s}, nil
	case 3:
		if !models.ValidIPv4(s) {
			return Target{}, fmt.Errorf("%w: %q is not an IPv4 address", ErrBadTarget, s)
		}
		if prefix, last := splitLast(s); last == "0" {
			return Target{Prefix: prefix}, nil
		}
		return Target{Host: s}, nil
	default:
		return Target{}, fmt.Errorf("%w: %q", ErrBadTarget, s)
	}
}

func (t Target) IsSingle() bool { return t.Host != "" }

// Addresses — адреса в порядке перебора; этот же порядок у результатов sweep.
func (t Target) Addresses() []string {
	if t.IsSingle() {
		return []string{t.Host}
	}
	if t.Prefix == "" {
		return nil
	}
	out := make([]string, 0, 254)
	for i := 1; i <= 254; i++ {
		out = append(out, fmt.Sprintf("%s.%d", t.Prefix, i))
	}
	return out
}

// String — каноническое значение для параметра ipRange.
func (t Target) String() string {
	if t.IsSingle() {
		return SingleHostMarker + t.Host
	}
	return t.Prefix
}

func splitLast(ip string) (string, string) {
	i := strings.LastIndexByte(ip, '.')
	return ip[:i], ip[i+1:]
}
