package probe

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// Маркеры, которые видит клиент вместо чисел.
const (
	Unknown = "unknown" // задержка не измерена
	NoValue = "-"       // провайдер не дал значения
)

// Result — итог проверки одного адреса. Живёт только в рамках одного sweep.
type Result struct {
	IP         string  `json:"ip"`
	Alive      bool    `json:"alive"`
	Time       Latency `json:"time,omitzero"`
	Min        string  `json:"min,omitempty"`
	Max        string  `json:"max,omitempty"`
	Avg        string  `json:"avg,omitempty"`
	PacketLoss string  `json:"packetLoss,omitempty"`
}

// Latency — число миллисекунд либо "unknown". Нулевое значение = поле отсутствует.
type Latency struct {
	Millis float64
	Known  bool
	Set    bool
}

func KnownLatency(ms float64) Latency { return Latency{Millis: ms, Known: true, Set: true} }
func UnknownLatency() Latency         { return Latency{Set: true} }

// IsZero — для тега omitzero.
func (l Latency) IsZero() bool { return !l.Set }

func (l Latency) String() string {
	switch {
	case !l.Set:
		return ""
	case !l.Known:
		return Unknown
	default:
		return strconv.FormatFloat(l.Millis, 'f', -1, 64)
	}
}

func (l Latency) MarshalJSON() ([]byte, error) {
	switch {
	case !l.Set:
		return []byte("null"), nil
	case !l.Known:
		return json.Marshal(Unknown)
	default:
		return json.Marshal(l.Millis)
	}
}

func (l *Latency) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch vv := v.(type) {
	case nil:
		*l = Latency{}
	case float64:
		*l = KnownLatency(vv)
	case string:
		// бывает и число строкой
		if f, err := strconv.ParseFloat(vv, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			*l = KnownLatency(f)
		} else {
			*l = UnknownLatency()
		}
	default:
		*l = UnknownLatency()
	}
	return nil
}

// Normalize приводит статистику pro-bing к Result.
// avg и packetLoss округляются до целого; без данных — "-".
func Normalize(ip string, st *probing.Statistics) Result {
	res := Result{IP: ip}
	if st == nil {
		return res
	}
	res.Alive = st.PacketsRecv > 0

	if res.Alive {
		res.Time = KnownLatency(millis(st.AvgRtt))
		res.Min = formatMillis(st.MinRtt)
		res.Max = formatMillis(st.MaxRtt)
		res.Avg = roundString(millis(st.AvgRtt))
	} else {
		res.Time = UnknownLatency()
		res.Min = Unknown
		res.Max = Unknown
		res.Avg = NoValue
	}

	if st.PacketsSent > 0 {
		res.PacketLoss = roundString(st.PacketLoss)
	} else {
		res.PacketLoss = NoValue
	}
	return res
}

func millis(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

func formatMillis(d time.Duration) string {
	return strconv.FormatFloat(millis(d), 'f', 3, 64)
}

func roundString(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NoValue
	}
	return strconv.Itoa(int(math.Round(v)))
}
