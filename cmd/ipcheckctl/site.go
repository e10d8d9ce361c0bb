package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newSiteCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Справочник площадок",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Список площадок",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sites, err := c.client().ListSites(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sites) == 0 {
				warn(out, "no sites")
				return nil
			}
			td := pterm.TableData{{"Site", "Full name"}}
			for _, s := range sites {
				td = append(td, []string{s.SiteName, s.SiteFullName})
			}
			tbl, err := pterm.DefaultTable.WithHasHeader(true).WithBoxed(false).WithData(td).Srender()
			if err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}
			_, err = fmt.Fprintln(out, tbl)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <sitename> [full name]",
		Short: "Создать или переименовать площадку",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			full := ""
			if len(args) == 2 {
				full = args[1]
			}
			if err := c.client().UpsertSite(cmd.Context(), args[0], full); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "site %s saved", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <sitename>",
		Short: "Удалить площадку",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.client().DeleteSite(cmd.Context(), args[0]); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "site %s deleted", args[0])
			return nil
		},
	})
	return cmd
}

func newAssignCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <ip> <sitename>",
		Short: "Привязать адрес к площадке",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.client().Assign(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "%s assigned to %s", args[0], args[1])
			return nil
		},
	}
}

func newUnassignCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <ip>",
		Short: "Снять привязку адреса к площадке",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.client().Unassign(cmd.Context(), args[0]); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "%s unassigned", args[0])
			return nil
		},
	}
}
