package invoicing

import (
	"encoding/csv"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// formatAmount renders a money value with thousands separators, e.g.
// 12,450.00.
func formatAmount(v float64) string {
	return amountPrinter.Sprintf("%.2f", v)
}

// ExportRow pairs an invoice with its settlement figures for export.
type ExportRow struct {
	Invoice        Invoice
	Reconciliation Reconciliation
}

// WriteInvoiceCSV serialises a period's invoices with their balances to CSV.
func WriteInvoiceCSV(w io.Writer, rows []ExportRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{
		"Number", "Type", "Status", "Issued", "Total", "Paid", "Balance",
	}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			row.Invoice.Number,
			string(row.Invoice.Type),
			string(row.Invoice.Status),
			row.Invoice.IssuedAt.Format(time.DateOnly),
			formatAmount(row.Invoice.Total),
			formatAmount(row.Reconciliation.TotalPaid),
			formatAmount(row.Reconciliation.RemainingBalance),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
