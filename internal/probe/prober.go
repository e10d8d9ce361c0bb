package probe

import (
	"context"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
	"github.com/sirupsen/logrus"
)

// Prober проверяет один адрес. Реализация без состояния, один вызов — один адрес.
type Prober interface {
	Probe(ctx context.Context, host string) (*probing.Statistics, error)
}

type PingConfig struct {
	Network    string // ip|ip4|ip6
	Privileged bool
	Count      int
	Interval   time.Duration
	Timeout    time.Duration
}

// PingProber — ICMP echo через pro-bing.
type PingProber struct {
	cfg PingConfig
	log *logrus.Logger
}

func NewPingProber(cfg PingConfig, log *logrus.Logger) *PingProber {
	if cfg.Count <= 0 {
		cfg.Count = 1
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.Network == "" {
		cfg.Network = "ip4"
	}
	return &PingProber{cfg: cfg, log: log}
}

func (p *PingProber) Probe(ctx context.Context, host string) (*probing.Statistics, error) {
	pr := probing.New(host)
	pr.SetNetwork(p.cfg.Network)

	if err := pr.Resolve(); err != nil {
		return nil, fmt.Errorf("resolve '%s': %w", host, err)
	}

	pr.RecordRtts = false
	pr.Interval = p.cfg.Interval
	pr.Count = p.cfg.Count
	pr.Timeout = p.cfg.Timeout
	pr.SetPrivileged(p.cfg.Privileged)
	pr.SetLogger(p.log.WithField("host", host))

	if err := pr.RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging host '%s' (ip %s): %w", pr.Addr(), pr.IPAddr(), err)
	}

	stats := pr.Statistics()
	p.log.Debugf("ping stats for host '%s': sent=%d recv=%d loss=%.0f%% avg=%s",
		host, stats.PacketsSent, stats.PacketsRecv, stats.PacketLoss, stats.AvgRtt)
	return stats, nil
}
