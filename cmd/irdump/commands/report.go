package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/Herbstein/iracing-driver-data-dump/internal/components/assert"
	"github.com/Herbstein/iracing-driver-data-dump/internal/components/chrono"
	"github.com/Herbstein/iracing-driver-data-dump/internal/components/telemetry"
	"github.com/Herbstein/iracing-driver-data-dump/internal/iracing"
	"github.com/Herbstein/iracing-driver-data-dump/internal/license"
	"github.com/Herbstein/iracing-driver-data-dump/internal/report"
)

const report_run = "run"

type reportOptions struct {
	Discipline  license.Discipline
	Missing     license.MissingPolicy
	DriversPath string
	ConfigPath  string
	Client      iracing.ClientOptions

	Stdout    io.Writer
	Prompter  prompter
	Clock     chrono.API
	Telemetry telemetry.API
}

// runReport reads the driver list, looks every driver up and writes the
// report as a table to Stdout and as a csv next to the driver list.
// It returns the path of the csv.
func runReport(ctx context.Context, opts reportOptions) (string, error) {
	assert.NotEmptyStr(opts.DriversPath, "drivers path")
	assert.NotNil(opts.Stdout, "stdout")
	assert.NotNil(opts.Clock, "clock")
	assert.NotNil(opts.Telemetry, "telemetry")

	drivers, err := report.ReadDriversFile(opts.DriversPath)
	if err != nil {
		return "", err
	}

	summaries := []report.Summary{}
	if len(drivers) == 0 {
		opts.Telemetry.ReportWarning(report_run, fmt.Errorf("no drivers in %s", opts.DriversPath))
	} else {
		summaries, err = fetchSummaries(ctx, opts, report.DriverIds(drivers))
		if err != nil {
			return "", err
		}
	}

	report.RenderTable(opts.Stdout, summaries)

	exportPath := report.ExportPath(opts.DriversPath, opts.Clock.Now())
	err = report.ExportCsv(exportPath, summaries)
	if err != nil {
		return "", fmt.Errorf("export csv: %w", err)
	}
	return exportPath, nil
}

func fetchSummaries(ctx context.Context, opts reportOptions, ids []uint32) ([]report.Summary, error) {
	creds, err := resolveCredentials(opts.ConfigPath, opts.Prompter, opts.Telemetry)
	if err != nil {
		return nil, err
	}

	clientOpts := opts.Client
	if clientOpts.Telemetry == nil {
		clientOpts.Telemetry = opts.Telemetry
	}
	client, err := iracing.Login(ctx, creds.Email, creds.Password, clientOpts)
	if err != nil {
		return nil, err
	}
	opts.Telemetry.ReportDebug("logged in", "email", creds.Email, "base_url", client.BaseUrl().String())

	members, err := client.GetMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(members) != len(ids) {
		opts.Telemetry.ReportWarning(
			report_run,
			fmt.Errorf("requested %d drivers but got %d members back", len(ids), len(members)),
		)
	}

	selections, err := license.SelectAll(members, opts.Discipline, opts.Missing, opts.Telemetry)
	if err != nil {
		return nil, err
	}
	return report.Summarize(selections), nil
}
