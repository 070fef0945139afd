package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// cli holds the state shared by the commands of one invocation.
type cli struct {
	logger   *slog.Logger
	logLevel *slog.LevelVar
	config   *Config

	configPath string
	level      string
	workers    int
	outputDir  string
}

// NewRootCommand builds the command tree. The configuration is loaded before
// any subcommand runs and logLevel is set from it.
func NewRootCommand(logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	c := &cli{logger: logger, logLevel: logLevel}

	root := &cobra.Command{
		Use:   "reflect",
		Short: "GNSS reflectometry processing for drone-borne receivers",
		Long: `reflect turns receiver NMEA logs and flight recorder GPX logs into
specular reflection points and Fresnel zones.

Every stage writes one artifact into the output directory:
  ublox      <base>_ublox.sqlite   satellite observations
  flightlog  <base>_gpx.sqlite     flight track
  specular   <base>_SP.sqlite      joined samples with specular points
  fresnel    <base>_FZ.kml         Fresnel zones of one satellite band
  export     <base>_SP.csv|xlsx    tabular export of a specular table

Examples:
  reflect ublox data/2021-04-27_10-15.txt
  reflect flightlog data/flight.gpx
  reflect specular --track out/flight_gpx.sqlite --observations out/2021-04-27_10-15_ublox.sqlite
  reflect fresnel out/flight_SP.sqlite --prn 5 --band L1
  reflect run --ublox data/2021-04-27_10-15.txt --flightlog data/flight.gpx`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.loadConfig,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "path to the YAML configuration file")
	pf.StringVar(&c.level, "log-level", "", "log level override (debug, info, warn, error)")
	pf.IntVar(&c.workers, "workers", 0, "number of parallel workers, 0 uses all CPUs")
	pf.StringVarP(&c.outputDir, "output", "o", "", "output directory override")

	root.AddCommand(
		c.ubloxCommand(),
		c.flightlogCommand(),
		c.specularCommand(),
		c.fresnelCommand(),
		c.exportCommand(),
		c.datasetsCommand(),
		c.runCommand(),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context, logger *slog.Logger, logLevel *slog.LevelVar) error {
	return NewRootCommand(logger, logLevel).ExecuteContext(ctx)
}

func (c *cli) loadConfig(cmd *cobra.Command, _ []string) error {
	cfg := NewConfig()
	if c.configPath != "" {
		var err error
		if cfg, err = LoadConfig(c.configPath); err != nil {
			return fmt.Errorf("failed to load configuration file: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Settings.LogLevel = c.level
	}
	if flags.Changed("workers") {
		cfg.Settings.Workers = c.workers
	}
	if flags.Changed("output") {
		cfg.Storage.OutputDirectory = c.outputDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.logLevel.Set(cfg.LogLevel())
	c.config = cfg
	return nil
}

func (c *cli) orchestrator() *Orchestrator {
	return NewOrchestrator(c.config, c.logger)
}

func (c *cli) ubloxCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ublox [receiver log]...",
		Short: "Parse receiver NMEA logs into observation tables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.orchestrator().ProcessReceiverLogs(cmd.Context(), args)
			return err
		},
	}
}

func (c *cli) flightlogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "flightlog [gpx file]...",
		Short: "Convert GPX flight logs into track tables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.orchestrator().ProcessFlightLogs(cmd.Context(), args)
			return err
		},
	}
}

func (c *cli) specularCommand() *cobra.Command {
	var trackDB, observationsDB string

	cmd := &cobra.Command{
		Use:   "specular",
		Short: "Join a track with observations and compute specular points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := c.orchestrator().Specular(cmd.Context(), trackDB, observationsDB)
			return err
		},
	}
	cmd.Flags().StringVarP(&trackDB, "track", "t", "", "flight track artifact (<base>_gpx.sqlite)")
	cmd.Flags().StringVarP(&observationsDB, "observations", "u", "", "observation artifact (<base>_ublox.sqlite)")
	_ = cmd.MarkFlagRequired("track")
	_ = cmd.MarkFlagRequired("observations")
	return cmd
}

type satelliteFlags struct {
	prn  int64
	band string
}

func (f *satelliteFlags) register(cmd *cobra.Command, required bool) {
	cmd.Flags().Int64Var(&f.prn, "prn", 0, "satellite PRN")
	cmd.Flags().StringVar(&f.band, "band", "", "frequency band, compared on its first two characters (e.g. L1, E5)")
	if required {
		_ = cmd.MarkFlagRequired("prn")
		_ = cmd.MarkFlagRequired("band")
	}
}

func (c *cli) fresnelCommand() *cobra.Command {
	var sat satelliteFlags

	cmd := &cobra.Command{
		Use:   "fresnel [specular artifact]",
		Short: "Write the Fresnel zones of one satellite band as KML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.orchestrator().Fresnel(cmd.Context(), args[0], sat.prn, sat.band)
			return err
		},
	}
	sat.register(cmd, true)
	return cmd
}

func (c *cli) exportCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export [specular artifact]",
		Short: "Export a specular table as CSV or XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.orchestrator().Export(cmd.Context(), args[0], strings.ToLower(format))
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", FormatCSV, "output format [csv, xlsx]")
	return cmd
}

func (c *cli) datasetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets [artifact]",
		Short: "List the tables stored in an artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, err := c.orchestrator().Datasets(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, ds := range datasets {
				fmt.Fprintf(w, "%-32s %-6s %12s rows  %s  %s\n",
					ds.Name, ds.Kind, humanize.Comma(ds.Rows), humanize.Time(ds.CreatedAt), ds.Source)
			}
			return nil
		},
	}
}

func (c *cli) runCommand() *cobra.Command {
	var receiverLog, flightLog string
	var sat satelliteFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every stage for one receiver log and one flight log",
		Long: `run parses both logs concurrently, computes specular points and, when
--prn and --band are given, writes the Fresnel zone KML of that satellite band.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			o := c.orchestrator()

			var trackDB, observationsDB []string
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() (err error) {
				observationsDB, err = o.ProcessReceiverLogs(gctx, []string{receiverLog})
				return err
			})
			g.Go(func() (err error) {
				trackDB, err = o.ProcessFlightLogs(gctx, []string{flightLog})
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			specularDB, err := o.Specular(ctx, trackDB[0], observationsDB[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("prn") && sat.band != "" {
				if _, err = o.Fresnel(ctx, specularDB, sat.prn, sat.band); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&receiverLog, "ublox", "u", "", "receiver NMEA log")
	cmd.Flags().StringVarP(&flightLog, "flightlog", "g", "", "GPX flight log")
	_ = cmd.MarkFlagRequired("ublox")
	_ = cmd.MarkFlagRequired("flightlog")
	sat.register(cmd, false)
	return cmd
}
