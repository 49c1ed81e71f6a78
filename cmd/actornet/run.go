package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/actornet/config"
	"github.com/sarchlab/actornet/datarecording"
	"github.com/sarchlab/actornet/monitoring"
	"github.com/sarchlab/actornet/tracing"
)

type runOptions struct {
	envFiles    []string
	ticks       int
	parallel    bool
	monitor     bool
	port        int
	openBrowser bool
	record      string
	logLevel    string
	wait        bool
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and print the traffic of every actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.envFiles, _ = cmd.Flags().GetStringSlice("env")

			return runScenario(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.ticks, "ticks", -1,
		"number of ticks to run, overriding the scenario")
	cmd.Flags().BoolVar(&opts.parallel, "parallel", false,
		"run computers concurrently")
	cmd.Flags().BoolVar(&opts.monitor, "monitor", false,
		"serve the monitoring API while running")
	cmd.Flags().IntVar(&opts.port, "port", 0,
		"port of the monitoring API, random if unset")
	cmd.Flags().BoolVar(&opts.openBrowser, "open-browser", false,
		"open the monitoring API in a browser")
	cmd.Flags().StringVar(&opts.record, "record", "",
		"record every message into <path>.sqlite3")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "",
		"trace, debug, info, warn or error")
	cmd.Flags().BoolVar(&opts.wait, "wait", false,
		"keep the monitoring API up after the run until interrupted")

	return cmd
}

func runScenario(cmd *cobra.Command, path string, opts runOptions) error {
	env, err := config.LoadEnv(opts.envFiles...)
	if err != nil {
		return err
	}

	applyRunFlags(cmd, &env, opts)

	logger := env.NewLogger(cmd.ErrOrStderr())

	scenario, err := config.LoadScenario(path)
	if err != nil {
		return err
	}

	network, err := config.Build(scenario, env)
	if err != nil {
		return err
	}

	ticks := network.Ticks
	if opts.ticks >= 0 {
		ticks = opts.ticks
	}

	counts := tracing.NewCountTracer()
	tracing.CollectTrace(network.World, counts)
	tracing.CollectTrace(network.World, tracing.NewLogTracer(logger))

	if env.RecordPath != "" {
		recorder := datarecording.New(env.RecordPath)
		defer recorder.Close()

		tracer := tracing.NewDBTracer(network.World, recorder)
		tracing.CollectTrace(network.World, tracer)
		logger.Info("recording", "session", tracer.Session())
	}

	var monitor *monitoring.Monitor
	if opts.monitor {
		monitor = startMonitor(network, counts, env, opts)
		defer monitor.StopServer(context.Background())
	}

	logger.Info("running scenario",
		"world", network.World.Name(),
		"actors", len(network.Names()),
		"ticks", ticks,
		"parallel", network.World.Parallel())

	tickErr := runTicks(network, monitor, ticks)

	printTraffic(cmd.OutOrStdout(), network, counts)

	if monitor != nil && opts.wait {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		logger.Info("run finished, waiting for interrupt", "url", monitor.URL())
		<-ctx.Done()
	}

	if tickErr != nil {
		return fmt.Errorf("some actors failed: %w", tickErr)
	}

	return nil
}

func applyRunFlags(cmd *cobra.Command, env *config.Env, opts runOptions) {
	flags := cmd.Flags()

	if flags.Changed("parallel") {
		env.Parallel = opts.parallel
	}

	if flags.Changed("port") {
		env.MonitorPort = opts.port
	}

	if flags.Changed("record") {
		env.RecordPath = opts.record
	}

	if flags.Changed("log-level") {
		env.LogLevel = opts.logLevel
	}
}

func startMonitor(
	network *config.Network,
	counts *tracing.CountTracer,
	env config.Env,
	opts runOptions,
) *monitoring.Monitor {
	monitor := monitoring.NewMonitor().WithPortNumber(env.MonitorPort)
	monitor.RegisterWorld(network.World)
	monitor.RegisterCountTracer(counts)
	monitor.StartServer()

	if opts.openBrowser {
		if err := monitor.OpenInBrowser(); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
		}
	}

	return monitor
}

func runTicks(
	network *config.Network,
	monitor *monitoring.Monitor,
	ticks int,
) error {
	var bar *monitoring.ProgressBar
	if monitor != nil {
		bar = monitor.CreateProgressBar(network.World.Name(), uint64(ticks))
		defer monitor.CompleteProgressBar(bar)
	}

	var errs []error

	for i := 0; i < ticks; i++ {
		if err := network.World.Tick(); err != nil {
			errs = append(errs, err)
		}

		if bar != nil {
			bar.IncrementFinished(1)
		}
	}

	return errors.Join(errs...)
}

func printTraffic(
	out io.Writer,
	network *config.Network,
	counts *tracing.CountTracer,
) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTOR\tID\tSENT\tRECEIVED\tFAILURES")

	for _, name := range network.Names() {
		actorID, _ := network.ID(name)
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n",
			name,
			actorID,
			counts.Sent(actorID),
			counts.Received(actorID),
			counts.Failures(actorID))
	}

	tw.Flush()
}
