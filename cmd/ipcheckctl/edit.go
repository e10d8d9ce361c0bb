package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ipcheck/internal/models"
	"ipcheck/internal/probe"
	"ipcheck/internal/reconcile"
)

// loadRow — инвентарь плюс живой статус одного адреса.
func loadRow(cmd *cobra.Command, v *reconcile.View, ip string) error {
	if !models.ValidIPv4(ip) {
		return fmt.Errorf("invalid IP address %q", ip)
	}
	if err := v.LoadInventory(cmd.Context()); err != nil {
		return err
	}
	_, err := v.Refresh(cmd.Context(), probe.SingleHostMarker+ip)
	return err
}

func newEditCmd(c *cli) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "edit <ip>",
		Short: "Правка записи устройства (пишутся только изменённые поля)",
		Example: `  ipcheckctl edit 10.0.0.5 --mac aabb.ccdd.eeff
  ipcheckctl edit 10.0.0.5 --comment "" --location "rack 3"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ip := args[0]
			out := cmd.OutOrStdout()

			type change struct {
				flag  string
				field reconcile.Field
			}
			var changes []change
			for _, ch := range []change{
				{"mac", reconcile.FieldMAC},
				{"device", reconcile.FieldDevice},
				{"location", reconcile.FieldLocation},
				{"comment", reconcile.FieldComment},
			} {
				if cmd.Flags().Changed(ch.flag) {
					changes = append(changes, ch)
				}
			}
			if len(changes) == 0 {
				return errors.New("nothing to edit: set at least one of --mac, --device, --location, --comment")
			}

			v := c.view(local)
			if err := loadRow(cmd, v, ip); err != nil {
				return err
			}
			if _, err := v.Begin(ip); err != nil {
				return err
			}
			for _, ch := range changes {
				val, _ := cmd.Flags().GetString(ch.flag)
				if err := v.Set(ip, ch.field, val); err != nil {
					return err
				}
			}

			row, written, err := v.Commit(cmd.Context(), ip)
			if err != nil {
				return err
			}
			if !written {
				info(out, "%s: no changes", ip)
				return nil
			}
			if err := renderRows(out, []reconcile.Row{row}, ip); err != nil {
				return err
			}
			success(out, "%s saved", ip)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("mac", "", "MAC-адрес, любой разделитель (aa-bb-cc-dd-ee-ff, aabb.ccdd.eeff)")
	flags.String("device", "", "устройство")
	flags.String("location", "", "расположение")
	flags.String("comment", "", "комментарий")
	flags.BoolVar(&local, "local", false, "пинговать с этой машины, а не через сервер")
	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <ip>",
		Short: "Удалить запись устройства и привязку к площадке",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ip := args[0]
			v := c.view(false)
			if err := loadRow(cmd, v, ip); err != nil {
				return err
			}
			if err := v.Delete(cmd.Context(), ip); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "%s deleted", ip)
			return nil
		},
	}
}
