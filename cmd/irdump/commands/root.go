package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Herbstein/iracing-driver-data-dump/internal/components/chrono"
	"github.com/Herbstein/iracing-driver-data-dump/internal/components/telemetry"
	"github.com/Herbstein/iracing-driver-data-dump/internal/iracing"
	"github.com/Herbstein/iracing-driver-data-dump/internal/license"
	"github.com/Herbstein/iracing-driver-data-dump/lib/restyutil"
	"github.com/Herbstein/iracing-driver-data-dump/lib/serviceutil"
	libtelemetry "github.com/Herbstein/iracing-driver-data-dump/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	mode        *string
	driversPath *string
	configPath  *string
	missing     *string
	verbose     *bool
	dumpHttp    *string
	baseUrl     *string
)

func init() {
	disciplines := make([]string, len(license.Disciplines))
	for i, d := range license.Disciplines {
		disciplines[i] = string(d)
	}

	flags := rootCmd.Flags()
	mode = flags.StringP("mode", "m", "", fmt.Sprintf("The license to report on, one of: %s.", strings.Join(disciplines, ", ")))
	driversPath = flags.StringP("drivers", "d", "drivers.csv", "A csv file with an `id` column of customer ids.")
	configPath = flags.String("config", "config.json5", "The config file holding iRacing credentials.")
	missing = flags.String("missing", string(license.MissingFail), "What to do with drivers missing the license: fail, skip or zero.")
	verbose = flags.BoolP("verbose", "v", false, "Log debug messages.")
	dumpHttp = flags.String("dump-http", "", "Write every request/response pair into this directory.")
	baseUrl = flags.String("base-url", iracing.DefaultBaseUrl, "The base url of the iRacing data api.")

	rootCmd.MarkFlagRequired("mode")
	flags.MarkHidden("base-url")
}

var rootCmd = &cobra.Command{
	Use:   "irdump --mode <discipline> [--drivers <path/to/drivers.csv>]",
	Short: "irdump fetches iRating, license class and safety rating for a list of iRacing drivers.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)

		discipline, err := license.ParseDiscipline(*mode)
		if err != nil {
			serviceutil.Fatal("invalid --mode", err)
		}
		policy, err := license.ParseMissingPolicy(*missing)
		if err != nil {
			serviceutil.Fatal("invalid --missing", err)
		}

		ctx := cmd.Context()
		otel, err := libtelemetry.SetupFromEnv(ctx, "irdump")
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("no telemetry config found, exporting nothing")
		} else if err != nil {
			slog.Warn("failed to setup telemetry", "err", err)
		}

		opts := reportOptions{
			Discipline:  discipline,
			Missing:     policy,
			DriversPath: *driversPath,
			ConfigPath:  *configPath,
			Client: iracing.ClientOptions{
				BaseUrl: *baseUrl,
			},
			Stdout:    cmd.OutOrStdout(),
			Prompter:  newStdioPrompter(cmd.ErrOrStderr()),
			Clock:     chrono.NewStandardImpl(),
			Telemetry: telemetry.NewScopedAPI("irdump", telemetry.SlogAPI{}),
		}
		if *dumpHttp != "" {
			output, err := restyutil.NewFilesystemOutput(*dumpHttp)
			if err != nil {
				serviceutil.Fatal("failed to create http dump directory", err)
			}
			opts.Client.InstrumentOutput = output
		}

		exportPath, err := runReport(ctx, opts)
		shutdownErr := otel.Shutdown(context.Background())
		if shutdownErr != nil {
			slog.Warn("failed to flush telemetry", "err", shutdownErr)
		}
		if err != nil {
			serviceutil.Fatal("failed to build report", err)
		}
		slog.Info("wrote report", "path", exportPath)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
