// Package report renders the monthly financial report as an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fuego/backoffice/restaurant"
)

const (
	sheetSummary = "Resumo"
	sheetDaily   = "Diário"
	sheetOrders  = "Pedidos"
)

// Monthly writes a workbook with three sheets: the revenue summary, the
// daily revenue of the current month, and the current month's orders.
func Monthly(w io.Writer, orders []restaurant.Order, now time.Time) error {
	stats := restaurant.Financials(orders, now)

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	// Summary
	index, err := f.NewSheet(sheetSummary)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	f.SetCellValue(sheetSummary, "A1", fmt.Sprintf("Relatório %s", now.Format("01/2006")))
	rows := [][]any{
		{"Faturamento do mês", stats.CurrentRevenue.InexactFloat64()},
		{"Mês anterior", stats.PreviousRevenue.InexactFloat64()},
		{"Crescimento (%)", stats.GrowthPercent},
	}
	for i, row := range rows {
		if err := f.SetSheetRow(sheetSummary, fmt.Sprintf("A%d", i+3), &row); err != nil {
			return err
		}
	}
	f.SetColWidth(sheetSummary, "A", "A", 25)
	f.SetColWidth(sheetSummary, "B", "B", 15)

	// Daily histogram
	if _, err := f.NewSheet(sheetDaily); err != nil {
		return err
	}
	f.SetSheetRow(sheetDaily, "A1", &[]any{"Dia", "Faturamento"})
	f.SetCellStyle(sheetDaily, "A1", "B1", header)
	for day, v := range stats.DailyRevenue {
		cell, _ := excelize.CoordinatesToCellName(1, day+2)
		f.SetSheetRow(sheetDaily, cell, &[]any{day + 1, v.InexactFloat64()})
	}

	// Orders of the current month
	if _, err := f.NewSheet(sheetOrders); err != nil {
		return err
	}
	f.SetSheetRow(sheetOrders, "A1", &[]any{"Pedido", "Cliente", "Telefone", "Status", "Total", "Criado em"})
	f.SetCellStyle(sheetOrders, "A1", "F1", header)

	y, m, _ := now.Date()
	row := 2
	for _, o := range orders {
		at := time.UnixMilli(o.CreatedAt).In(now.Location())
		if oy, om, _ := at.Date(); oy != y || om != m {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		f.SetSheetRow(sheetOrders, cell, &[]any{
			o.ID.Value, o.ClientName, o.ClientPhone, string(o.Status),
			o.Total.InexactFloat64(), at.Format("02/01/2006 15:04"),
		})
		row++
	}
	f.SetColWidth(sheetOrders, "A", "A", 38)
	f.SetColWidth(sheetOrders, "B", "F", 18)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
