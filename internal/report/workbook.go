package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/coffee-trend-service/internal/pipeline"
)

// Sheet names of the exported workbook.
const (
	SheetSeries      = "Series"
	SheetModel       = "Model"
	SheetForecast    = "Forecast"
	SheetRecords     = "Records"
	SheetDiagnostics = "Diagnostics"
)

// WriteWorkbook exports an analysis as an XLSX workbook.
func WriteWorkbook(w io.Writer, a pipeline.Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSeries); err != nil {
		return err
	}
	for _, name := range []string{SheetModel, SheetForecast, SheetRecords, SheetDiagnostics} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	fitted := make(map[int]float64, len(a.Fitted))
	for _, p := range a.Fitted {
		fitted[p.Year] = p.Value
	}
	series := make([][]any, 0, len(a.Series))
	for _, p := range a.Series {
		row := []any{p.Year, p.Total}
		if v, ok := fitted[p.Year]; ok {
			row = append(row, v)
		}
		series = append(series, row)
	}
	if err := writeTable(f, SheetSeries, []string{"Year", "Value", "Trend"}, series); err != nil {
		return err
	}

	if err := writeTable(f, SheetModel, []string{"Field", "Value"}, modelRows(a)); err != nil {
		return err
	}

	forecast := make([][]any, 0, len(a.Forecast))
	for _, p := range a.Forecast {
		forecast = append(forecast, []any{p.Year, p.Value})
	}
	if err := writeTable(f, SheetForecast, []string{"Year", "Trend"}, forecast); err != nil {
		return err
	}

	records := make([][]any, 0, len(a.Records))
	for _, r := range a.Records {
		records = append(records, []any{r.CommodityCode, r.CountryCode, r.MarketYear, r.CalendarYear, r.Month, r.AttributeID, r.UnitID, r.Value})
	}
	if err := writeTable(f, SheetRecords, []string{"commodityCode", "countryCode", "marketYear", "calendarYear", "month", "attributeId", "unitId", "value"}, records); err != nil {
		return err
	}

	diags := make([][]any, 0, len(a.Diagnostics))
	for _, d := range a.Diagnostics {
		diags = append(diags, []any{d.Year, d.Country, d.Message})
	}
	if err := writeTable(f, SheetDiagnostics, []string{"Year", "Country", "Message"}, diags); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func modelRows(a pipeline.Analysis) [][]any {
	rows := [][]any{
		{"Title", a.Title()},
		{"Country", a.CountryName},
		{"Attribute", a.AttributeLabel},
		{"Unit", a.Unit},
		{"From", a.Query.FromYear},
		{"To", a.Query.ToYear},
	}
	for _, w := range a.Warnings {
		rows = append(rows, []any{"Warning", string(w)})
	}
	if !a.HasTrend() {
		return rows
	}
	return append(rows,
		[]any{"Slope", a.Model.Slope},
		[]any{"Intercept", a.Model.Intercept},
		[]any{"R² Score", a.Model.R2},
		[]any{"Equation", a.Equation},
		[]any{"Slope Coefficient", "Expected annual growth rate"},
		[]any{"Intercept (meaning)", "Theoretical baseline value for year zero"},
		[]any{"R² Score (meaning)", "Goodness of fit (0-100%)"},
	)
}

func writeTable(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("%s header: %w", sheet, err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("%s row %d: %w", sheet, r+2, err)
			}
		}
	}
	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 18)
}
