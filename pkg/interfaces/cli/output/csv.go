package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vsinha/rollalloc/pkg/application/dto"
)

// CSV file names written by the csv format
const (
	RunsFile    = "runs.csv"
	DaysFile    = "days.csv"
	ActionsFile = "actions.csv"
)

func generateCSVOutput(report *dto.SimulationReport, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	names := map[string]string{"Runs": RunsFile, "Days": DaysFile, "Actions": ActionsFile}
	for _, t := range tables(report) {
		filename := filepath.Join(config.OutputDir, names[t.name])
		if err := writeCSV(filename, t.header, t.rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", names[t.name], err)
		}
		if config.Verbose {
			fmt.Fprintf(config.writer(), "CSV results saved to: %s\n", filename)
		}
	}
	return nil
}

func writeCSV(filename string, header []string, rows [][]any) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = textCell(cell)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}
