package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/rollalloc/pkg/application/dto"
	"github.com/vsinha/rollalloc/pkg/domain/entities"
)

func sampleReport(t *testing.T) *dto.SimulationReport {
	t.Helper()
	internal, err := entities.NewInternalAction(30, "OSLO", 0, "NORD", 0, entities.Salmon1To2, 0)
	require.NoError(t, err)
	external, err := entities.NewExternalAction(5, "PARIS", 1, entities.Salmon1To2, 1)
	require.NoError(t, err)

	run := dto.RunReport{
		RunID:      "run-1",
		OutcomeSet: 3,
		Method:     "stochastic",
		EndDay:     1,
		Days: []dto.DayReport{
			{
				Day:             0,
				Actions:         []entities.Action{*internal},
				Profit:          dto.ProfitBreakdown{Profit: decimal.RequireFromString("120.5")},
				InternalVolume:  30,
				SupplyAvailable: 100,
				DemandDeparting: 30,
				Diagnostics:     &dto.SolveDiagnostics{Status: "optimal", ObjectiveValue: 300, Scenarios: 9},
			},
			{
				Day:            1,
				Actions:        []entities.Action{*external},
				Profit:         dto.ProfitBreakdown{Profit: decimal.NewFromInt(-40)},
				ExternalVolume: 5,
			},
		},
		Total:     dto.ProfitBreakdown{Profit: decimal.RequireFromString("80.5")},
		SolveTime: 1500 * time.Millisecond,
	}
	return dto.NewSimulationReport([]dto.RunReport{run})
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	err := Generate(sampleReport(t), Config{Format: "text", Verbose: true, Writer: &buf})
	require.NoError(t, err)

	text := buf.String()
	assert.Contains(t, text, "Runs: 1")
	assert.Contains(t, text, "Average profit: 80.50")
	assert.Contains(t, text, "Outcome set 3 (stochastic, run run-1)")
	assert.Contains(t, text, "300.00")
	assert.Contains(t, text, "day 0: 30 x SALMON_1_2 NORD/0 -> OSLO/0")
	assert.Contains(t, text, "day 1: 5 x SALMON_1_2 external -> PARIS/1")
}

func TestGenerate_JSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(sampleReport(t), Config{Format: "json", OutputDir: dir}))

	data, err := os.ReadFile(filepath.Join(dir, "simulation.json"))
	require.NoError(t, err)
	var report dto.SimulationReport
	require.NoError(t, json.Unmarshal(data, &report))
	require.Len(t, report.Runs, 1)
	assert.Len(t, report.Runs[0].Days, 2)
	assert.Nil(t, report.Runs[0].Days[1].Diagnostics)
	assert.True(t, report.AverageProfit.Equal(decimal.RequireFromString("80.5")))
}

func TestGenerate_CSV(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(sampleReport(t), Config{Format: "csv", OutputDir: dir}))

	tests := []struct {
		file   string
		header []string
		rows   int
	}{
		{RunsFile, runsHeader, 1},
		{DaysFile, daysHeader, 2},
		{ActionsFile, actionsHeader, 2},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			f, err := os.Open(filepath.Join(dir, tt.file))
			require.NoError(t, err)
			defer f.Close()

			records, err := csv.NewReader(f).ReadAll()
			require.NoError(t, err)
			require.Len(t, records, tt.rows+1)
			assert.Equal(t, tt.header, records[0])
		})
	}

	f, err := os.Open(filepath.Join(dir, DaysFile))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "120.5", records[1][2])
	assert.Equal(t, "skipped", records[2][8])
}

func TestGenerate_CSVNeedsDirectory(t *testing.T) {
	err := Generate(sampleReport(t), Config{Format: "csv"})
	assert.Error(t, err)
}

func TestBuildWorkbook(t *testing.T) {
	f, err := BuildWorkbook(sampleReport(t))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, "Runs", "Days", "Actions"}, f.GetSheetList())

	days, err := f.GetRows("Days")
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, daysHeader, days[0])
	assert.Equal(t, "optimal", days[1][8])

	actions, err := f.GetRows("Actions")
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.Equal(t, "OSLO", actions[1][2])
	assert.Equal(t, "NORD", actions[1][7])

	runs, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Equal(t, "runs", runs[0][0])
}

func TestGenerate_Workbook(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(sampleReport(t), Config{Format: "xlsx", OutputDir: dir}))

	f, err := excelize.OpenFile(filepath.Join(dir, WorkbookFile))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Runs")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestGeneratePlan(t *testing.T) {
	action, err := entities.NewExternalAction(5, "PARIS", 1, entities.Salmon1To2, 0)
	require.NoError(t, err)
	plan := &dto.PlanReport{
		EndDay:      2,
		Actions:     []entities.Action{*action},
		Diagnostics: dto.SolveDiagnostics{WindowEnd: 2, Scenarios: 9, Status: "optimal", VariableCount: 12},
		Profit:      dto.ProfitBreakdown{Profit: decimal.NewFromInt(25)},
	}

	var buf bytes.Buffer
	require.NoError(t, GeneratePlan(plan, Config{Writer: &buf}))
	assert.Contains(t, buf.String(), "Window [0, 2]: 9 scenarios, 12 variables")
	assert.Contains(t, buf.String(), "external")
	assert.Contains(t, buf.String(), "Profit of today's actions: 25.00")

	buf.Reset()
	require.NoError(t, GeneratePlan(&dto.PlanReport{}, Config{Writer: &buf}))
	assert.Contains(t, buf.String(), "No actions.")

	err = GeneratePlan(plan, Config{Format: "csv"})
	assert.Error(t, err)
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	err := Generate(sampleReport(t), Config{Format: "html"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format: html")
}
