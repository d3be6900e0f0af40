package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

func ParseFormat(raw string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatJSON:
		return FormatJSON, true
	case FormatCSV:
		return FormatCSV, true
	case FormatXLSX:
		return FormatXLSX, true
	case FormatPDF:
		return FormatPDF, true
	}
	return "", false
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// Row is one exported event.
type Row struct {
	EmployeeID   string
	EmployeeName string
	Day          string
	Sequence     int
	ClockTime    string
	Status       string
	ResolvedBy   string
	RecordID     string
}

var rowHeader = []string{"employee_id", "employee_name", "day", "sequence", "clock_time", "status", "resolved_by", "record_id"}

func (r Row) values() []string {
	return []string{r.EmployeeID, r.EmployeeName, r.Day, strconv.Itoa(r.Sequence), r.ClockTime, r.Status, r.ResolvedBy, r.RecordID}
}

// Rows flattens the report by employee, then day, then bucket order.
// Sequence starts at 1 within each day.
func (r MonthlyReport) Rows() []Row {
	var out []Row
	for _, employee := range r.Employees() {
		for _, day := range r.Days(employee) {
			for i, event := range r[employee][day] {
				out = append(out, Row{
					EmployeeID:   employee,
					EmployeeName: event.EmployeeName,
					Day:          day,
					Sequence:     i + 1,
					ClockTime:    clockOrDefault(event.ClockTime),
					Status:       string(event.Status),
					ResolvedBy:   event.ResolvedBy,
					RecordID:     event.RecordID,
				})
			}
		}
	}
	return out
}

// Meta labels an export.
type Meta struct {
	Tenant string
	Year   int
	Month  time.Month
}

// Filename keeps letters, digits, dash and underscore of the tenant key.
func (m Meta) Filename(format Format) string {
	return fmt.Sprintf("report-%s-%04d-%02d.%s", filenameSafe(m.Tenant), m.Year, int(m.Month), format)
}

func filenameSafe(value string) string {
	value = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(value))
	if value == "" {
		return "default"
	}
	return value
}

func (r MonthlyReport) Write(w io.Writer, format Format, meta Meta) error {
	switch format {
	case FormatCSV:
		return r.WriteCSV(w)
	case FormatXLSX:
		return r.WriteXLSX(w, meta)
	case FormatPDF:
		return r.WritePDF(w, meta)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func (r MonthlyReport) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(rowHeader); err != nil {
		return err
	}
	for _, row := range r.Rows() {
		if err := writer.Write(row.values()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

const xlsxSheet = "Sheet1"

func (r MonthlyReport) WriteXLSX(w io.Writer, meta Meta) error {
	f := excelize.NewFile()
	defer f.Close()

	title := fmt.Sprintf("%s %04d-%02d", meta.Tenant, meta.Year, int(meta.Month))
	if err := f.SetCellValue(xlsxSheet, "A1", title); err != nil {
		return err
	}
	for i, name := range rowHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(xlsxSheet, cell, name); err != nil {
			return err
		}
	}
	for rowIdx, row := range r.Rows() {
		for colIdx, value := range row.values() {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+3)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(xlsxSheet, cell, value); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

func (r MonthlyReport) WritePDF(w io.Writer, meta Meta) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Monthly attendance report")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Site: %s", meta.Tenant))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %04d-%02d", meta.Year, int(meta.Month)))
	pdf.Ln(10)

	if r.Count() == 0 {
		pdf.Cell(0, 8, "No approved clock events in this period.")
		return pdf.Output(w)
	}

	for _, summary := range r.Summaries() {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 7, fmt.Sprintf("%s  %s  (%d events)", summary.EmployeeID, summary.Day, summary.Events))
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 10)
		var clocks []string
		for _, event := range r[summary.EmployeeID][summary.Day] {
			clocks = append(clocks, clockOrDefault(event.ClockTime))
		}
		pdf.MultiCell(0, 5, strings.Join(clocks, "  "), "", "L", false)
		pdf.Ln(2)
	}
	return pdf.Output(w)
}
