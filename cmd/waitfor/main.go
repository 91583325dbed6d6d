// waitfor blocks until HTTP endpoints, TCP ports, DNS records or
// commands report ready.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bjaus/waiter"
	"github.com/bjaus/waiter/internal/plan"
	"github.com/bjaus/waiter/probe"
	"github.com/bjaus/waiter/waiterprom"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	registry = prometheus.NewRegistry()
	metrics  = waiterprom.New(registry)
)

var (
	logLevel    string
	metricsAddr string

	// Strategy flags shared by all wait commands
	maxAttempts int
	backoffName string
	backoffBase string
	backoffCap  string
	backoffMin  string
	jitterFrac  float64
	timeoutFlag string

	// HTTP flags
	method   string
	status   int
	jsonPath string
	equals   string
	contains string

	// DNS flags
	server    string
	record    string
	rcodeName string
	answer    string

	// Cmd flags
	exitCode int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "waitfor",
		Short: "waitfor - block until a target is ready",
		Long: `waitfor polls a target until it reports ready, with bounded attempts
and configurable backoff. The exit status is zero once the condition
is met and non-zero when attempts run out.

Examples:

  # Wait for an HTTP health endpoint to answer 200
  waitfor http http://localhost:8080/healthz --timeout 2m

  # Wait for readiness reported inside a JSON body
  waitfor http http://localhost:8080/status --json-path status --equals ready

  # Wait for a TCP port with exponential backoff
  waitfor tcp localhost:5432 --backoff exponential --base 500ms --cap 10s

  # Wait for a DNS record to appear
  waitfor dns svc.internal --server 10.0.0.1:53 --record A

  # Wait for a command to exit zero
  waitfor cmd -- pg_isready -h localhost

  # Run every wait in a plan file concurrently
  waitfor plan ./waits.yaml`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			setupLogging()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while waiting")
	rootCmd.PersistentFlags().IntVar(&maxAttempts, "max-attempts", 10, "polling attempt limit")
	rootCmd.PersistentFlags().StringVar(&backoffName, "backoff", "constant", "backoff between attempts: none, constant, linear or exponential")
	rootCmd.PersistentFlags().StringVar(&backoffBase, "base", "1s", "base delay for the backoff")
	rootCmd.PersistentFlags().StringVar(&backoffCap, "cap", "", "upper bound on any delay")
	rootCmd.PersistentFlags().StringVar(&backoffMin, "min", "", "lower bound on any delay")
	rootCmd.PersistentFlags().Float64Var(&jitterFrac, "jitter", 0, "spread each delay by up to this fraction of itself")
	rootCmd.PersistentFlags().StringVar(&timeoutFlag, "timeout", "", "overall deadline for the wait, e.g. 2m")

	httpCmd := &cobra.Command{
		Use:   "http <url>",
		Short: "Wait for an HTTP endpoint",
		Long: `Wait for an HTTP endpoint to answer with the expected response.

Any response counts as an attempt, whatever its status; transport
errors are retried. With no expectation flags the wait is for a 200.`,
		Args: cobra.ExactArgs(1),
		RunE: runHTTP,
	}
	httpCmd.Flags().StringVarP(&method, "method", "X", "GET", "request method")
	httpCmd.Flags().IntVar(&status, "status", 200, "expected response status")
	httpCmd.Flags().StringVar(&jsonPath, "json-path", "", "dotted path into a JSON body, e.g. status or checks.0.ok")
	httpCmd.Flags().StringVar(&equals, "equals", "", "required value at --json-path")
	httpCmd.Flags().StringVar(&contains, "contains", "", "required substring of the value at --json-path, or of the body")
	rootCmd.AddCommand(httpCmd)

	tcpCmd := &cobra.Command{
		Use:   "tcp <host:port>",
		Short: "Wait for a TCP port to accept connections",
		Args:  cobra.ExactArgs(1),
		RunE:  runTCP,
	}
	rootCmd.AddCommand(tcpCmd)

	dnsCmd := &cobra.Command{
		Use:   "dns <name>",
		Short: "Wait for a DNS record",
		Long: `Wait for a DNS name to resolve with the expected rcode and answers.

By default the wait is for NOERROR with at least one answer. Waiting
for NXDOMAIN instead ("--rcode NXDOMAIN") blocks until the name is
gone.`,
		Args: cobra.ExactArgs(1),
		RunE: runDNS,
	}
	dnsCmd.Flags().StringVar(&server, "server", "127.0.0.1:53", "DNS server to query")
	dnsCmd.Flags().StringVar(&record, "record", "A", "record type to query")
	dnsCmd.Flags().StringVar(&rcodeName, "rcode", "", "expected rcode, e.g. NOERROR or NXDOMAIN")
	dnsCmd.Flags().StringVar(&answer, "answer", "", "required record data in the answer")
	rootCmd.AddCommand(dnsCmd)

	cmdCmd := &cobra.Command{
		Use:   "cmd -- <command> [args...]",
		Short: "Wait for a command to exit with the expected code",
		Long: `Run a command until it exits with the expected code.

Other exit codes mean not ready yet and are retried; failing to start
the command at all aborts the wait.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCmdWait,
	}
	cmdCmd.Flags().IntVar(&exitCode, "exit-code", 0, "expected exit code")
	rootCmd.AddCommand(cmdCmd)

	planCmd := &cobra.Command{
		Use:   "plan <file>",
		Short: "Run every wait in a plan file",
		Long: `Run all waits declared in a YAML plan file concurrently and block
until every one of them is satisfied.`,
		Args: cobra.ExactArgs(1),
		RunE: runPlan,
	}
	rootCmd.AddCommand(planCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("waitfor %s\n", Version)
			fmt.Printf("  Commit:     %s\n", Commit)
			fmt.Printf("  Build Time: %s\n", BuildTime)
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runHTTP(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()
	startMetrics(metricsAddr)

	accs := plan.HTTPAcceptors(plan.Expect{
		Status:   status,
		JSONPath: jsonPath,
		Equals:   equals,
		Contains: contains,
	})
	op := probe.HTTP(http.DefaultClient, strings.ToUpper(method), args[0])
	return runOne(ctx, args[0], flagSettings(), op, accs)
}

func runTCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()
	startMetrics(metricsAddr)

	return runOne(ctx, args[0], flagSettings(), probe.TCP(nil, args[0]), plan.TCPAcceptors())
}

func runDNS(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()
	startMetrics(metricsAddr)

	rt, err := plan.RecordType(record)
	if err != nil {
		return err
	}
	accs, err := plan.DNSAcceptors(plan.Expect{Rcode: rcodeName, Answer: answer})
	if err != nil {
		return err
	}
	return runOne(ctx, args[0], flagSettings(), probe.DNS(server, args[0], rt), accs)
}

func runCmdWait(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()
	startMetrics(metricsAddr)

	name := strings.Join(args, " ")
	op := probe.Command(args[0], args[1:]...)
	return runOne(ctx, name, flagSettings(), op, plan.CmdAcceptors(plan.Expect{ExitCode: exitCode}))
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()
	startMetrics(metricsAddr)

	p, err := plan.Load(args[0])
	if err != nil {
		return err
	}

	log.Info().Str("plan", args[0]).Int("waits", len(p.Waits)).Msg("running plan")

	errs := make([]error, len(p.Waits))
	var wg sync.WaitGroup
	for i := range p.Waits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = runPlanWait(ctx, &p.Waits[i])
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return err
	}
	log.Info().Int("waits", len(p.Waits)).Msg("all waits satisfied")
	return nil
}

func runPlanWait(ctx context.Context, w *plan.Wait) error {
	var err error
	switch w.Type {
	case plan.TypeHTTP:
		err = runOne(ctx, w.Name, w.Settings, probe.HTTP(http.DefaultClient, w.Method, w.Target), plan.HTTPAcceptors(w.Expect))
	case plan.TypeTCP:
		err = runOne(ctx, w.Name, w.Settings, probe.TCP(nil, w.Target), plan.TCPAcceptors())
	case plan.TypeDNS:
		err = runDNSWait(ctx, w)
	case plan.TypeCmd:
		err = runOne(ctx, w.Name, w.Settings, probe.Command(w.Target, w.Args...), plan.CmdAcceptors(w.Expect))
	default:
		err = fmt.Errorf("unknown type %q", w.Type)
	}
	if err != nil {
		return fmt.Errorf("wait %q: %w", w.Name, err)
	}
	return nil
}

func runDNSWait(ctx context.Context, w *plan.Wait) error {
	rt, err := plan.RecordType(w.Record)
	if err != nil {
		return err
	}
	accs, err := plan.DNSAcceptors(w.Expect)
	if err != nil {
		return err
	}
	return runOne(ctx, w.Name, w.Settings, probe.DNS(w.Server, w.Target, rt), accs)
}

// runOne executes a single wait with logging and metrics hooks
// attached.
func runOne[T any](ctx context.Context, name string, settings plan.Settings, op waiter.Operation[T], accs []waiter.Acceptor[T]) error {
	strat, err := settings.Strategy()
	if err != nil {
		return err
	}
	deadline, err := settings.Deadline()
	if err != nil {
		return err
	}
	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	opts := []waiter.Option[T]{
		waiter.WithStrategy[T](strat),
		waiter.WithAcceptors(accs...),
	}
	opts = append(opts, logHooks[T](name)...)
	opts = append(opts, waiterprom.Options[T](metrics, name)...)

	w, err := waiter.New(name, opts...)
	if err != nil {
		return err
	}
	_, err = w.Run(ctx, op)
	return err
}

// logHooks reports waiter progress through its hook points, so the
// engine itself stays silent.
func logHooks[T any](name string) []waiter.Option[T] {
	return []waiter.Option[T]{
		waiter.OnAttempt[T](func(_ context.Context, attempt int) {
			log.Debug().Str("wait", name).Int("attempt", attempt).Msg("probing")
		}),
		waiter.OnRetry[T](func(_ context.Context, attempt int, delay time.Duration) {
			log.Debug().Str("wait", name).Int("attempt", attempt).Dur("delay", delay).Msg("not ready, backing off")
		}),
		waiter.OnSuccess[T](func(_ context.Context, attempts int) {
			log.Info().Str("wait", name).Int("attempts", attempts).Msg("condition met")
		}),
		waiter.OnFailure[T](func(_ context.Context, attempts int, err error) {
			log.Warn().Str("wait", name).Int("attempts", attempts).Err(err).Msg("giving up")
		}),
	}
}

// flagSettings assembles the strategy flags into plan settings so the
// flag and plan paths build strategies the same way.
func flagSettings() plan.Settings {
	return plan.Settings{
		MaxAttempts: maxAttempts,
		Backoff: plan.BackoffSpec{
			Type:   backoffName,
			Base:   backoffBase,
			Cap:    backoffCap,
			Min:    backoffMin,
			Jitter: jitterFrac,
		},
		Timeout: timeoutFlag,
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func startMetrics(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	go func() {
		log.Info().Str("listen", addr).Msg("metrics server started")
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Str("run", uuid.NewString()[:8]).Logger()
}
