package reports

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Hugozera/apontamento/internal/domain/attendance"
)

func sampleReport() MonthlyReport {
	return MonthlyReport{
		"e2": {
			"2024-12-02": {
				{ID: "f3", RecordID: "p3", Status: attendance.StatusApproved, EmployeeID: "e2", ClockTime: "08:00:00", ResolvedBy: "sup"},
			},
		},
		"e1": {
			"2024-12-02": {
				{ID: "f1", RecordID: "p1", Status: attendance.StatusApproved, EmployeeID: "e1", EmployeeName: "Ana", ClockTime: "07:30:00", ResolvedBy: "sup"},
				{ID: "f2", RecordID: "p2", Status: attendance.StatusApproved, EmployeeID: "e1", EmployeeName: "Ana"},
			},
		},
	}
}

var sampleMeta = Meta{Tenant: "colinas", Year: 2024, Month: time.December}

func TestRowsAreDeterministic(t *testing.T) {
	rows := sampleReport().Rows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].EmployeeID != "e1" || rows[0].Sequence != 1 || rows[1].Sequence != 2 || rows[2].EmployeeID != "e2" {
		t.Fatalf("unexpected row order %+v", rows)
	}
	if rows[1].ClockTime != "00:00:00" {
		t.Fatalf("missing clock time must export as 00:00:00, got %q", rows[1].ClockTime)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleReport().Write(&buf, FormatCSV, sampleMeta); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(lines) != 4 || lines[0][0] != "employee_id" || lines[1][4] != "07:30:00" || lines[3][7] != "p3" {
		t.Fatalf("unexpected csv %v", lines)
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleReport().Write(&buf, FormatXLSX, sampleMeta); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	title, err := f.GetCellValue(xlsxSheet, "A1")
	if err != nil || title != "colinas 2024-12" {
		t.Fatalf("unexpected title %q (%v)", title, err)
	}
	employee, err := f.GetCellValue(xlsxSheet, "A3")
	if err != nil || employee != "e1" {
		t.Fatalf("unexpected first row %q (%v)", employee, err)
	}
}

func TestWritePDF(t *testing.T) {
	for _, report := range []MonthlyReport{sampleReport(), {}} {
		var buf bytes.Buffer
		if err := report.Write(&buf, FormatPDF, sampleMeta); err != nil {
			t.Fatalf("write: %v", err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
			t.Fatal("expected a PDF document")
		}
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatJSON, "CSV": FormatCSV, " xlsx ": FormatXLSX, "pdf": FormatPDF}
	for raw, want := range cases {
		got, ok := ParseFormat(raw)
		if !ok || got != want {
			t.Fatalf("expected %q for %q, got %q", want, raw, got)
		}
	}
	if _, ok := ParseFormat("docx"); ok {
		t.Fatal("expected docx to be rejected")
	}
	if got := sampleMeta.Filename(FormatCSV); got != "report-colinas-2024-12.csv" {
		t.Fatalf("unexpected filename %q", got)
	}
}

func TestFilenameStripsUnsafeTenantCharacters(t *testing.T) {
	cases := []struct {
		tenant string
		want   string
	}{
		{`x"; filename=evil.exe`, "report-x___filename_evil_exe-2024-12.pdf"},
		{"../../etc", "report-______etc-2024-12.pdf"},
		{"  ", "report-default-2024-12.pdf"},
		{"colinas_25-b", "report-colinas_25-b-2024-12.pdf"},
	}
	for _, tc := range cases {
		meta := Meta{Tenant: tc.tenant, Year: 2024, Month: time.December}
		if got := meta.Filename(FormatPDF); got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.tenant, tc.want, got)
		}
	}
}
