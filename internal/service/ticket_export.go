package service

import (
	"fmt"
	"io"
	"strings"

	"neela-data/internal/search"

	"github.com/xuri/excelize/v2"
)

// TicketExportHeader 导出表头
var TicketExportHeader = []string{
	"ID",
	"Created",
	"Tenant",
	"Category",
	"Description",
	"Priority",
	"Status",
	"Assigned To",
	"Updates",
	"Attachments",
}

const ticketSheet = "Maintenance"

// ExportTickets 把过滤后的工单写成 xlsx
func (s *MaintenanceService) ExportTickets(q search.TicketQuery, w io.Writer) error {
	items := s.List(q)

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ticketSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E7FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range TicketExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(ticketSheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(TicketExportHeader), 1)
	if err := f.SetCellStyle(ticketSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	if err := f.SetColWidth(ticketSheet, "E", "E", 50); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	for i, m := range items {
		attachments := make([]string, 0, len(m.CompletionAttachments))
		for _, a := range m.CompletionAttachments {
			attachments = append(attachments, a.Name)
		}
		row := []any{
			m.ID,
			m.CreatedAt.String(),
			m.TenantName,
			m.Category,
			m.Description,
			string(m.Priority),
			string(m.Status),
			m.AssignedTo,
			len(m.Updates),
			strings.Join(attachments, ", "),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(ticketSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}
