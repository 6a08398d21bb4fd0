package reports

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

// BalancePDF renders the aggregate balance sheet for a scope, or for the
// whole institution when scopeID is empty.
func (s *Service) BalancePDF(ctx context.Context, scopeID string, w io.Writer) error {
	rows, err := s.Store.BalanceRows(ctx, scopeID)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Leave Balance Report")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Generated "+time.Now().UTC().Format("2006-01-02 15:04 MST"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(60, 8, "Member", "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 8, "Designation", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, "Unit", "1", 0, "L", false, 0, "")
	pdf.CellFormat(22, 8, "Granted", "1", 0, "R", false, 0, "")
	pdf.CellFormat(22, 8, "Remaining", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(60, 7, row.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 7, row.Designation, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, row.ScopeName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(22, 7, fmt.Sprintf("%.2f", row.AggregateGranted), "1", 0, "R", false, 0, "")
		pdf.CellFormat(22, 7, fmt.Sprintf("%.2f", row.AggregateRemaining), "1", 1, "R", false, 0, "")
	}

	return pdf.Output(w)
}

// EntriesCSV streams booked entries for a date window as CSV.
func (s *Service) EntriesCSV(ctx context.Context, scopeID string, from, to time.Time, w io.Writer) error {
	rows, err := s.Store.EntryRows(ctx, scopeID, from, to)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"member", "category", "day", "slot", "from", "to", "booked_at"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.MemberName,
			row.Category,
			row.Day.Format("2006-01-02"),
			row.Slot,
			formatClock(row.FromSec),
			formatClock(row.ToSec),
			row.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatClock(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", seconds/3600, (seconds%3600)/60)
}
