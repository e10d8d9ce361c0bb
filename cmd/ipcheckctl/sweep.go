package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ipcheck/internal/reconcile"
)

type sweepOptions struct {
	status string
	field  string
	search string
	sort   []string
	local  bool
}

func parseStatus(s string) (string, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return "all", nil
	case "alive", "true":
		return "true", nil
	case "dead", "false":
		return "false", nil
	}
	return "", fmt.Errorf("unknown status %q (all, alive, dead)", s)
}

func parseSearchField(s string) (reconcile.SearchField, error) {
	switch f := reconcile.SearchField(strings.ToLower(s)); f {
	case reconcile.SearchIP, reconcile.SearchMAC, reconcile.SearchDevice, reconcile.SearchComment:
		return f, nil
	case "mac":
		return reconcile.SearchMAC, nil
	}
	return "", fmt.Errorf("unknown search field %q (ip, macaddress, device, comment)", s)
}

func parseSortKey(s string) (reconcile.SortKey, error) {
	switch strings.ToLower(s) {
	case "ip":
		return reconcile.SortByIP, nil
	case "mac", "macaddress":
		return reconcile.SortByMAC, nil
	}
	return reconcile.SortNone, fmt.Errorf("unknown sort key %q (ip, mac)", s)
}

func newSweepCmd(c *cli) *cobra.Command {
	opts := &sweepOptions{}

	cmd := &cobra.Command{
		Use:   "sweep <target>",
		Short: "Пинг подсети и сверка с инвентарём",
		Long: `Цель: "a.b.c" или "a.b.c.0" — адреса .1-.254; "a.b.c.d" или "numa.b.c.d" — один адрес.
--sort можно повторить: каждое повторение меняет направление, как клик по заголовку.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alive, err := parseStatus(opts.status)
			if err != nil {
				return err
			}
			field, err := parseSearchField(opts.field)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			v := c.view(opts.local)

			// без инвентаря таблица всё равно строится, только без полей устройства
			if err := v.LoadInventory(ctx); err != nil {
				warn(out, "inventory unavailable: %v", err)
			}
			rows, err := v.Refresh(ctx, args[0])
			if err != nil {
				return err
			}

			v.SetFilter(reconcile.Filter{Alive: alive, Field: field, Term: opts.search})
			for _, s := range opts.sort {
				key, err := parseSortKey(s)
				if err != nil {
					return err
				}
				v.ToggleSort(key)
			}

			visible := v.Visible()
			if err := renderRows(out, visible, ""); err != nil {
				return err
			}
			info(out, "%d of %d rows shown, %d alive", len(visible), len(rows), countAlive(rows))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.status, "status", "all", "фильтр по доступности: all, alive, dead")
	flags.StringVar(&opts.field, "field", "ip", "поле поиска: ip (последний октет), macaddress, device, comment")
	flags.StringVarP(&opts.search, "search", "s", "", "строка поиска")
	flags.StringSliceVar(&opts.sort, "sort", nil, "сортировка: ip или mac; повтор меняет направление")
	flags.BoolVar(&opts.local, "local", false, "пинговать с этой машины, а не через сервер")
	return cmd
}

func countAlive(rows []reconcile.Row) int {
	n := 0
	for _, r := range rows {
		if r.Alive {
			n++
		}
	}
	return n
}
