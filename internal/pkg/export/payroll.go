package export

import (
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/payroll"
	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	summarySheet = "Summary"
	recordsSheet = "Records"
)

var recordHeaders = []string{
	"Worker ID", "Worker Email", "Worker Name", "Payment Type",
	"Total Hours", "Total Mileage", "Mileage Pay", "Commission", "Gross Pay", "Net Pay", "Formula",
}

// RunWorkbook renders a run and its records as an XLSX workbook.
func RunWorkbook(run payroll.Run, records []payroll.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, eris.Wrap(err, "rename summary sheet")
	}
	index, err := f.NewSheet(recordsSheet)
	if err != nil {
		return nil, eris.Wrap(err, "create records sheet")
	}

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, eris.Wrap(err, "create header style")
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{
		NumFmt: 4, // #,##0.00
	})
	if err != nil {
		return nil, eris.Wrap(err, "create money style")
	}

	// Summary
	summary := [][2]interface{}{
		{"Run ID", run.ID},
		{"Status", string(run.Status)},
		{"Period Start", run.StartDate.Format("2006-01-02")},
		{"Period End", run.EndDate.Format("2006-01-02")},
		{"Pay Schedule", string(run.PaySchedule)},
		{"Total Employees", run.TotalEmployees},
		{"Processed", run.ProcessedCount},
		{"Failed", run.FailedCount},
		{"Total Gross Pay", run.TotalGrossPay.InexactFloat64()},
	}
	for i, row := range summary {
		r := i + 1
		if err := setRow(f, summarySheet, r, row[0], row[1]); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", cell(1, len(summary)), boldStyle); err != nil {
		return nil, eris.Wrap(err, "style summary")
	}
	if err := f.SetCellStyle(summarySheet, cell(2, len(summary)), cell(2, len(summary)), moneyStyle); err != nil {
		return nil, eris.Wrap(err, "style summary total")
	}

	// Records
	header := make([]interface{}, len(recordHeaders))
	for i, h := range recordHeaders {
		header[i] = h
	}
	if err := setRow(f, recordsSheet, 1, header...); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(recordsSheet, "A1", cell(len(recordHeaders), 1), boldStyle); err != nil {
		return nil, eris.Wrap(err, "style records header")
	}

	row := 2
	for _, rec := range records {
		if err := setRow(f, recordsSheet, row,
			rec.WorkerID,
			rec.WorkerEmail,
			rec.WorkerName,
			rec.PaymentType,
			rec.TotalHours.InexactFloat64(),
			rec.TotalMileage.InexactFloat64(),
			rec.MileagePay.InexactFloat64(),
			rec.CommissionEarned.InexactFloat64(),
			rec.GrossPay.InexactFloat64(),
			rec.NetPay.InexactFloat64(),
			rec.CalculationDetails.Formula,
		); err != nil {
			return nil, err
		}
		row++
	}

	// Totals
	if err := setRow(f, recordsSheet, row, "TOTAL"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(recordsSheet, cell(9, row), run.TotalGrossPay.InexactFloat64()); err != nil {
		return nil, eris.Wrap(err, "write total")
	}
	if err := f.SetCellStyle(recordsSheet, cell(1, row), cell(len(recordHeaders), row), boldStyle); err != nil {
		return nil, eris.Wrap(err, "style totals")
	}
	if err := f.SetCellStyle(recordsSheet, cell(7, 2), cell(10, row), moneyStyle); err != nil {
		return nil, eris.Wrap(err, "style money columns")
	}

	if err := f.SetColWidth(recordsSheet, "A", "D", 24); err != nil {
		return nil, eris.Wrap(err, "set column width")
	}
	f.SetActiveSheet(index)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, eris.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	for i, v := range values {
		if err := f.SetCellValue(sheet, cell(i+1, row), v); err != nil {
			return eris.Wrapf(err, "write %s row %d", sheet, row)
		}
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
