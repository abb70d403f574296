// Command trafficlight drives the example traffic light interactively.
//
// Environment:
//
//	TRAFFICLIGHT_AUTO          cycle colors on timers (default false)
//	TRAFFICLIGHT_GREEN         green duration (default 8s)
//	TRAFFICLIGHT_ORANGE        orange duration (default 2s)
//	TRAFFICLIGHT_RED           red duration (default 6s)
//	TRAFFICLIGHT_METRICS_ADDR  serve Prometheus metrics on this address
//
// Logging and tracing follow LOG_* and OTEL_* as described in the logger and
// telemetry packages. Logs go to stderr so they do not garble the prompt.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/amp-labs/amp-fsm/cli"
	"github.com/amp-labs/amp-fsm/envutil"
	"github.com/amp-labs/amp-fsm/examples/trafficlight"
	"github.com/amp-labs/amp-fsm/logger"
	"github.com/amp-labs/amp-fsm/shutdown"
	"github.com/amp-labs/amp-fsm/statemachine"
	"github.com/amp-labs/amp-fsm/statemachine/visualizer"
	"github.com/amp-labs/amp-fsm/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	appName = "trafficlight"

	choiceDiagram = "[diagram]"
	choiceQuit    = "[quit]"

	shutdownTimeout = 5 * time.Second
)

func main() {
	ctx := shutdown.SetupHandler(context.Background())

	logger.ConfigureLogging(ctx, appName, logger.WithOutput(os.Stderr))

	if err := run(ctx); err != nil {
		logger.Get(ctx).Error("trafficlight failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	otelConfig, err := telemetry.LoadConfigFromEnv(ctx)
	if err != nil {
		return err
	}

	if err := telemetry.Initialize(ctx, otelConfig); err != nil {
		return err
	}

	if handler := telemetry.SlogHandler(appName); handler != nil {
		logger.ConfigureLogging(ctx, appName, logger.WithOutput(os.Stderr), logger.WithHandler(handler))
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Get(ctx).Warn("telemetry shutdown failed", "error", err)
		}
	}()

	if addr := envutil.String("TRAFFICLIGHT_METRICS_ADDR", envutil.Default("")).ValueOrElse(""); addr != "" {
		stopMetrics := serveMetrics(ctx, addr)
		defer stopMetrics()
	}

	light, err := newLight(ctx)
	if err != nil {
		return err
	}
	defer light.Close()

	// A SIGTERM while the prompt is open stops the timers right away.
	shutdown.BeforeShutdown(light.Close)

	m := light.Machine()

	m.OnActionCall(func(e statemachine.ActionCallEvent) {
		switch {
		case e.Err != nil:
			fmt.Printf("  %s in %s: %v\n", e.Action, e.State, e.Err) //nolint:forbidigo
		case !e.Handled:
			fmt.Printf("  %s in %s: ignored\n", e.Action, e.State) //nolint:forbidigo
		}
	})

	m.OnStateChanged(func(e statemachine.StateChangedEvent) {
		fmt.Printf("  light: %s -> %s\n", e.Previous, e.State) //nolint:forbidigo
	})

	fmt.Print(cli.Banner("amp-fsm traffic light", cli.DefaultTerminalWidth, cli.AlignCenter)) //nolint:forbidigo

	if err := printDiagram(m); err != nil {
		return err
	}

	return loop(ctx, light, cli.Terminal{})
}

func newLight(ctx context.Context) (*trafficlight.TrafficLight, error) {
	defaults := trafficlight.DefaultTimings()

	timings := trafficlight.Timings{
		Green:  envutil.Duration("TRAFFICLIGHT_GREEN", envutil.Default(defaults.Green)).ValueOrElse(defaults.Green),
		Orange: envutil.Duration("TRAFFICLIGHT_ORANGE", envutil.Default(defaults.Orange)).ValueOrElse(defaults.Orange),
		Red:    envutil.Duration("TRAFFICLIGHT_RED", envutil.Default(defaults.Red)).ValueOrElse(defaults.Red),
	}

	return trafficlight.New(ctx,
		trafficlight.WithAutoAdvance(envutil.Bool("TRAFFICLIGHT_AUTO", envutil.Default(false)).ValueOrElse(false)),
		trafficlight.WithTimings(timings),
		trafficlight.WithMachineOptions(statemachine.WithName(appName)),
	)
}

func printDiagram(m *statemachine.Machine) error {
	diagram, err := visualizer.GenerateMermaidWithOptions(m,
		visualizer.DefaultOptions().WithEdges(trafficlight.Edges()...))
	if err != nil {
		return err
	}

	fmt.Println(diagram) //nolint:forbidigo

	return nil
}

// loop prompts for actions until the user quits or ctx ends.
func loop(ctx context.Context, light *trafficlight.TrafficLight, prompter cli.Prompter) error {
	m := light.Machine()
	choices := append(m.Actions(), choiceDiagram, choiceQuit)

	for ctx.Err() == nil {
		choice, err := prompter.Select(fmt.Sprintf("Light is %s", light.State()), choices...)
		if err != nil {
			if cli.IsInterrupt(err) {
				return nil
			}

			return err
		}

		switch choice {
		case choiceQuit:
			return nil
		case choiceDiagram:
			if err := printDiagram(m); err != nil {
				return err
			}
		default:
			// Errors are reported by the actioncall subscriber.
			_, _ = m.Action(choice)(ctx)
		}
	}

	return nil
}

func serveMetrics(ctx context.Context, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}

	go func() {
		logger.Get(ctx).Info("serving metrics", "addr", addr)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get(ctx).Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)
	}
}
