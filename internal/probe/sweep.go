package probe

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"
)

// Sweeper — fan-out по адресам цели и ожидание всех проверок.
// Пул не ограничен: до 254 одновременных проверок на sweep.
type Sweeper struct {
	prober Prober
	log    *logrus.Logger
}

func NewSweeper(p Prober, log *logrus.Logger) *Sweeper {
	return &Sweeper{prober: p, log: log}
}

// Sweep возвращает по одному Result на адрес в порядке Target.Addresses().
// Ошибка одного адреса превращается в alive=false и не влияет на остальные.
// Если ctx отменён, результаты возвращаются вместе с ctx.Err().
func (s *Sweeper) Sweep(ctx context.Context, t Target) ([]Result, error) {
	addrs := t.Addresses()
	if len(addrs) == 0 {
		return []Result{}, nil
	}

	m := iter.Mapper[string, Result]{MaxGoroutines: len(addrs)}
	results := m.Map(addrs, func(ip *string) Result {
		return s.probeOne(ctx, *ip)
	})

	alive := 0
	for _, r := range results {
		if r.Alive {
			alive++
		}
	}
	s.log.WithFields(logrus.Fields{"target": t.String(), "total": len(results), "alive": alive}).Info("sweep finished")

	return results, ctx.Err()
}

// SweepRange — то же по сырому значению ipRange.
func (s *Sweeper) SweepRange(ctx context.Context, ipRange string) ([]Result, error) {
	t, err := ParseTarget(ipRange)
	if err != nil {
		return nil, err
	}
	return s.Sweep(ctx, t)
}

func (s *Sweeper) probeOne(ctx context.Context, ip string) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Errorf("probe %s panicked: %v", ip, rec)
			res = Result{IP: ip}
		}
	}()

	st, err := s.prober.Probe(ctx, ip)
	if err != nil {
		s.log.Debugf("probe %s unreachable: %v", ip, err)
		return Result{IP: ip}
	}
	return Normalize(ip, st)
}
