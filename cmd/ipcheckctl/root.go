package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ipcheck/config"
	"ipcheck/internal/client"
	"ipcheck/internal/logs"
	"ipcheck/internal/probe"
	"ipcheck/internal/reconcile"
)

// cli — общее состояние команд: конфиг грузится в PersistentPreRunE.
type cli struct {
	cfgFile  string
	operator string
	cfg      *config.Config
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		pterm.Error.Println(err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "ipcheckctl",
		Short: "Сверка живых адресов подсети с инвентарём",
		Long: `ipcheckctl пингует подсеть /24 (или один адрес), накладывает результат
на инвентарь устройств и позволяет править записи.

Примеры:
  ipcheckctl sweep 192.168.1 --status alive --sort ip
  ipcheckctl sweep num192.168.1.20
  ipcheckctl edit 192.168.1.20 --mac aa-bb-cc-dd-ee-ff --device printer
  ipcheckctl site set HQ.main "Head office"
  ipcheckctl assign 192.168.1.20 HQ.main`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "путь к config.yaml (иначе CONFIG_FILE или поиск по умолчанию)")
	pf.String("server", "", "адрес API, например http://localhost:8070")
	pf.String("log-level", "", "уровень логов (debug, info, warning, error)")
	pf.StringVar(&c.operator, "operator", os.Getenv("USER"), "кто правит записи (modifiedby)")

	_ = viper.BindPFlag("client.base_url", pf.Lookup("server"))
	_ = viper.BindPFlag("logs.level", pf.Lookup("log-level"))

	root.AddCommand(
		newSweepCmd(c),
		newEditCmd(c),
		newDeleteCmd(c),
		newSiteCmd(c),
		newAssignCmd(c),
		newUnassignCmd(c),
	)
	return root
}

func (c *cli) load(cmd *cobra.Command) error {
	if c.cfgFile != "" {
		if err := os.Setenv("CONFIG_FILE", c.cfgFile); err != nil {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c.cfg = cfg

	// без явного --log-level CLI пишет в stderr только warning и выше
	level := "warning"
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		level = cfg.Logging.Level
	}
	logs.Logger = logs.New(logs.Options{Level: level, Format: "text"}, os.Stderr)
	return nil
}

func (c *cli) client() *client.Client {
	return client.New(c.cfg.Client.BaseURL, c.cfg.Client.Timeout)
}

// view собирает таблицу сверки. local — пинговать с этой машины, а не через сервер.
func (c *cli) view(local bool) *reconcile.View {
	cl := c.client()
	var sw reconcile.Sweeper = cl
	if local {
		prober := probe.NewPingProber(probe.PingConfig{
			Network:    c.cfg.Probe.Network,
			Privileged: c.cfg.Probe.Privileged,
			Count:      c.cfg.Probe.Count,
			Interval:   c.cfg.Probe.Interval,
			Timeout:    c.cfg.Probe.Timeout,
		}, logs.Logger)
		sw = probe.NewSweeper(prober, logs.Logger)
	}
	return reconcile.NewView(sw, cl, c.operator, logs.Logger)
}

func info(w io.Writer, format string, a ...any) {
	pterm.Info.WithWriter(w).Println(fmt.Sprintf(format, a...))
}

func success(w io.Writer, format string, a ...any) {
	pterm.Success.WithWriter(w).Println(fmt.Sprintf(format, a...))
}

func warn(w io.Writer, format string, a ...any) {
	pterm.Warning.WithWriter(w).Println(fmt.Sprintf(format, a...))
}
