package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iwvelando/rent-vs-buy/internal/config"
	"github.com/iwvelando/rent-vs-buy/internal/optimizer"
	"github.com/iwvelando/rent-vs-buy/internal/server"
	"github.com/iwvelando/rent-vs-buy/internal/simulation"
	"github.com/iwvelando/rent-vs-buy/internal/sweep"
	"github.com/iwvelando/rent-vs-buy/pkg/constants"
	"github.com/iwvelando/rent-vs-buy/pkg/output"
	"github.com/iwvelando/rent-vs-buy/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
}

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
	case "json":
		zapConfig = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)

	// Logs go to stderr so report output on stdout stays clean.
	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "rent-vs-buy",
		Short:         "Compare buying a home against renting and investing, month by month over historical data",
		SilenceUsage:  true,
		SilenceErrors: false,
		Version:       version,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newSimulateCmd(opts),
		newSweepCmd(opts),
		newBreakevenCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// loadConfig reads the configuration file. A missing default file falls
// back to the built-in defaults; an explicitly named file must exist.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Configuration, error) {
	if _, err := os.Stat(opts.configPath); errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.Default(), nil
	}
	conf, err := config.LoadConfiguration(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration at %s: %w", opts.configPath, err)
	}
	return conf, nil
}

// setup loads the configuration, builds the logger and reports
// configuration warnings.
func setup(cmd *cobra.Command, opts *rootOptions) (*config.Configuration, *zap.Logger, error) {
	conf, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, nil, err
	}
	logger, err := initializeLogger(conf.Logging, opts.logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return conf, logger, nil
}

func warnConfiguration(logger *zap.Logger, conf *config.Configuration) {
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}
}

type paramFlags struct {
	startYear     int
	endYear       int
	city          string
	downPayment   float64
	amortization  int
	taxRate       float64
	relocateEvery int
	priceModel    string
	rent          float64
	feeRate       float64
	taxDrag       float64
	negative      string
}

func (f *paramFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVar(&f.startYear, "start-year", 0, "first simulated year")
	flags.IntVar(&f.endYear, "end-year", 0, "last simulated year")
	flags.StringVar(&f.city, "city", "", "city whose prices, rents and transfer taxes apply")
	flags.Float64Var(&f.downPayment, "down-payment", 0, "down payment as a percentage of the price")
	flags.IntVar(&f.amortization, "amortization", 0, "amortization period in years")
	flags.Float64Var(&f.taxRate, "tax-rate", 0, "marginal tax rate as a fraction")
	flags.IntVar(&f.relocateEvery, "relocate-every", 0, "relocate every N years (0 never)")
	flags.StringVar(&f.priceModel, "price-model", "", "house price model: annual or seasonal")
	flags.Float64Var(&f.rent, "rent", 0, "starting monthly rent override")
	flags.Float64Var(&f.feeRate, "fee-rate", 0, "annual portfolio fee as a fraction")
	flags.Float64Var(&f.taxDrag, "tax-drag", 0, "annual tax drag on the taxable account as a fraction")
	flags.StringVar(&f.negative, "negative-contributions", "", "negative contribution policy: ignore or withdraw")
}

// apply overrides params with the flags the user actually set.
func (f *paramFlags) apply(cmd *cobra.Command, params *simulation.Params) {
	flags := cmd.Flags()
	if flags.Changed("start-year") {
		params.StartYear = f.startYear
	}
	if flags.Changed("end-year") {
		params.EndYear = f.endYear
	}
	if flags.Changed("city") {
		params.City = f.city
	}
	if flags.Changed("down-payment") {
		params.DownPaymentPct = f.downPayment
	}
	if flags.Changed("amortization") {
		params.AmortizationYears = f.amortization
	}
	if flags.Changed("tax-rate") {
		params.MarginalTaxRate = f.taxRate
	}
	if flags.Changed("relocate-every") {
		params.RelocateEveryYears = f.relocateEvery
	}
	if flags.Changed("price-model") {
		params.PriceModel = f.priceModel
	}
	if flags.Changed("rent") {
		rent := f.rent
		params.InitialRent = &rent
	}
	if flags.Changed("fee-rate") {
		params.FeeRate = f.feeRate
	}
	if flags.Changed("tax-drag") {
		params.TaxDragRate = f.taxDrag
	}
	if flags.Changed("negative-contributions") {
		params.NegativeContributions = f.negative
	}
}

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	var (
		params       paramFlags
		outputFormat string
		outputFile   string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one buy-versus-rent simulation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			params.apply(cmd, &conf.Simulation)
			if cmd.Flags().Changed("output-format") {
				conf.Output.Format = outputFormat
			}
			if cmd.Flags().Changed("output-file") {
				conf.Output.File = outputFile
			}
			if conf.Output.Format == "" {
				conf.Output.Format = constants.OutputFormatPretty
			}
			if err := validation.ValidateOutputFormat(conf.Output.Format); err != nil {
				return err
			}
			warnConfiguration(logger, conf)

			provider, err := conf.Provider()
			if err != nil {
				return err
			}
			result, err := simulation.Run(cmd.Context(), logger, provider, conf.Simulation)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), conf.Output, result)
		},
	}
	params.register(cmd)
	cmd.Flags().StringVar(&outputFormat, "output-format", "", "output format: pretty, csv, json, pdf")
	cmd.Flags().StringVar(&outputFile, "output-file", "", "write output to a file instead of stdout")
	return cmd
}

func writeResult(stdout io.Writer, out config.OutputConfig, result *simulation.Result) error {
	var buf bytes.Buffer
	switch out.Format {
	case constants.OutputFormatPretty:
		output.PrettyFormat(&buf, result)
	case constants.OutputFormatCSV:
		if err := output.CsvFormat(&buf, result); err != nil {
			return err
		}
	case constants.OutputFormatJSON:
		if err := output.JSONFormat(&buf, result); err != nil {
			return err
		}
	case constants.OutputFormatPDF:
		pdf, err := output.PDFReport(result)
		if err != nil {
			return err
		}
		if out.File == "" {
			return errors.New("pdf output requires --output-file")
		}
		buf.Write(pdf)
	}

	if out.File != "" {
		return os.WriteFile(out.File, buf.Bytes(), 0644)
	}
	_, err := stdout.Write(buf.Bytes())
	return err
}

func newSweepCmd(opts *rootOptions) *cobra.Command {
	var (
		params       paramFlags
		startYears   []int
		downPayments []float64
		parallelism  int
		outputFormat string
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run simulations across start years and down payments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			params.apply(cmd, &conf.Simulation)
			if cmd.Flags().Changed("start-years") {
				conf.Sweep.StartYears = startYears
			}
			if cmd.Flags().Changed("down-payments") {
				conf.Sweep.DownPaymentPcts = downPayments
			}
			if cmd.Flags().Changed("parallelism") {
				conf.Sweep.Parallelism = parallelism
			}
			provider, err := conf.Provider()
			if err != nil {
				return err
			}
			if len(conf.Sweep.StartYears) == 0 && len(conf.Sweep.DownPaymentPcts) == 0 {
				minYear, maxYear := provider.YearRange()
				for year := minYear; year <= maxYear && year <= conf.Simulation.EndYear; year++ {
					conf.Sweep.StartYears = append(conf.Sweep.StartYears, year)
				}
			}
			warnConfiguration(logger, conf)
			rows, err := sweep.Run(cmd.Context(), logger, provider, conf.Simulation, conf.Sweep)
			if err != nil {
				return err
			}

			format := outputFormat
			if format == "" {
				format = conf.Output.Format
			}
			switch format {
			case constants.OutputFormatCSV:
				return output.SweepCsv(cmd.OutOrStdout(), rows)
			case constants.OutputFormatJSON:
				return output.JSONFormat(cmd.OutOrStdout(), rows)
			default:
				output.SweepPretty(cmd.OutOrStdout(), rows)
				return nil
			}
		},
	}
	params.register(cmd)
	cmd.Flags().IntSliceVar(&startYears, "start-years", nil, "start years to simulate (default: every year with data)")
	cmd.Flags().Float64SliceVar(&downPayments, "down-payments", nil, "down payment percentages to simulate")
	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "concurrent simulations (default: GOMAXPROCS)")
	cmd.Flags().StringVar(&outputFormat, "output-format", "", "output format: pretty, csv, json")
	return cmd
}

func newBreakevenCmd(opts *rootOptions) *cobra.Command {
	var (
		params        paramFlags
		low, high     float64
		tolerance     float64
		maxIterations int
		outputFormat  string
	)
	cmd := &cobra.Command{
		Use:   "breakeven",
		Short: "Find the starting rent at which buying and renting finish level",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			params.apply(cmd, &conf.Simulation)
			if cmd.Flags().Changed("low") {
				conf.Breakeven.Low = &low
			}
			if cmd.Flags().Changed("high") {
				conf.Breakeven.High = &high
			}
			if cmd.Flags().Changed("tolerance") {
				conf.Breakeven.Tolerance = tolerance
			}
			if cmd.Flags().Changed("max-iterations") {
				conf.Breakeven.MaxIterations = maxIterations
			}
			warnConfiguration(logger, conf)

			provider, err := conf.Provider()
			if err != nil {
				return err
			}
			runner, err := optimizer.NewRunner(logger, provider, conf.Simulation, conf.Breakeven)
			if err != nil {
				return err
			}
			summary, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			if outputFormat == constants.OutputFormatJSON {
				return output.JSONFormat(cmd.OutOrStdout(), summary)
			}
			output.BreakevenPretty(cmd.OutOrStdout(), conf.Simulation.WithDefaults(), summary)
			return nil
		},
	}
	params.register(cmd)
	cmd.Flags().Float64Var(&low, "low", constants.DefaultBreakevenLow, "lowest monthly rent searched")
	cmd.Flags().Float64Var(&high, "high", constants.DefaultBreakevenHigh, "highest monthly rent searched")
	cmd.Flags().Float64Var(&tolerance, "tolerance", constants.DefaultBreakevenTolerance, "stop once the rent bracket is this narrow")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", constants.DefaultMaxIterations, "maximum bisection steps")
	cmd.Flags().StringVar(&outputFormat, "output-format", "", "output format: pretty, json")
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		serverConfigPath string
		address          string
		maxUploadSize    string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulation API and web UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			serverConfig, err := server.LoadConfig(serverConfigPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("address") {
				serverConfig.Address = address
			}
			if cmd.Flags().Changed("max-upload-size") {
				size, err := server.ParseSize(maxUploadSize)
				if err != nil {
					return err
				}
				serverConfig.SetUploadSizeBytes(size)
			}

			logger, err := initializeLogger(serverConfig.Logging, opts.logLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			provider, err := serverConfig.Provider()
			if err != nil {
				return err
			}

			handler := server.NewHandler(logger, provider, serverConfig.UploadSizeBytes(), version,
				server.WithMaxSweepRuns(serverConfig.MaxSweepRuns))
			srv := &http.Server{
				Addr:              serverConfig.Address,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server listening",
					zap.String("op", "main.serve"),
					zap.String("address", serverConfig.Address),
					zap.Int64("max_upload_bytes", serverConfig.UploadSizeBytes()),
				)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down", zap.String("op", "main.serve"))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&serverConfigPath, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().StringVar(&address, "address", constants.DefaultServerAddress, "listen address")
	cmd.Flags().StringVar(&maxUploadSize, "max-upload-size", "", "maximum request size, e.g. 256K or 1M")
	return cmd
}
