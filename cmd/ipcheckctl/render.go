package main

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"ipcheck/internal/reconcile"
)

var rowHeader = []string{"IP", "Status", "Time", "Min", "Max", "Avg", "Loss %", "MAC", "Device", "Location", "Comment", "Site", "Modified", "By"}

var statusStyle = map[string]*pterm.Style{
	"alive":    pterm.NewStyle(pterm.FgGreen),
	"dead":     pterm.NewStyle(pterm.FgRed),
	"degraded": pterm.NewStyle(pterm.FgYellow),
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func rowCells(r reconcile.Row) []string {
	modified := ""
	if r.ModifiedDate != nil {
		modified = r.ModifiedDate.Local().Format("2006-01-02 15:04")
	}
	return []string{
		r.IP,
		r.Status(),
		r.Time.String(),
		r.Min,
		r.Max,
		r.Avg,
		r.PacketLoss,
		str(r.MACAddress),
		str(r.Device),
		str(r.Location),
		str(r.Comment),
		str(r.SiteName),
		modified,
		str(r.ModifiedBy),
	}
}

// tableData — строки с цветом по статусу; savedIP подсвечивается как только что сохранённая.
func tableData(rows []reconcile.Row, savedIP string) pterm.TableData {
	td := pterm.TableData{rowHeader}
	for _, r := range rows {
		cells := rowCells(r)
		style := statusStyle[r.Status()]
		if r.IP == savedIP {
			style = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
		}
		for i := range cells {
			cells[i] = style.Sprint(cells[i])
		}
		td = append(td, cells)
	}
	return td
}

func renderRows(w io.Writer, rows []reconcile.Row, savedIP string) error {
	if len(rows) == 0 {
		warn(w, "no rows match")
		return nil
	}
	s, err := pterm.DefaultTable.
		WithHasHeader(true).
		WithBoxed(false).
		WithData(tableData(rows, savedIP)).
		Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	_, err = fmt.Fprintln(w, s)
	return err
}
