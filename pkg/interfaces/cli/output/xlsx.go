package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/vsinha/rollalloc/pkg/application/dto"
)

// WorkbookFile is the name of the xlsx report
const WorkbookFile = "simulation.xlsx"

const summarySheet = "Summary"

func generateWorkbook(report *dto.SimulationReport, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for xlsx format")
	}
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := BuildWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	filename := filepath.Join(config.OutputDir, WorkbookFile)
	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "Workbook saved to: %s\n", filename)
	}
	return nil
}

// BuildWorkbook lays the report out as a Summary sheet followed by Runs, Days and Actions tables
func BuildWorkbook(report *dto.SimulationReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	summary := [][]any{
		{"runs", len(report.Runs)},
		{"average profit", report.AverageProfit.InexactFloat64()},
		{"average solve seconds", report.AverageSolveTime.Seconds()},
	}
	if len(report.Runs) > 0 {
		summary = append(summary, []any{"method", report.Runs[0].Method})
	}
	for i, row := range summary {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return nil, err
		}
	}

	for _, sheet := range tables(report) {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, err
		}
		header := make([]any, len(sheet.header))
		for i, column := range sheet.header {
			header[i] = column
		}
		if err := setRow(f, sheet.name, 1, header); err != nil {
			return nil, err
		}
		for i, row := range sheet.rows {
			cells := make([]any, len(row))
			for j, cell := range row {
				cells[j] = sheetCell(cell)
			}
			if err := setRow(f, sheet.name, i+2, cells); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
