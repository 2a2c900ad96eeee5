package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/los-sampler/core"
	"github.com/signalsfoundry/los-sampler/internal/config"
	"github.com/signalsfoundry/los-sampler/internal/logging"
	"github.com/signalsfoundry/los-sampler/internal/observability"
	"github.com/signalsfoundry/los-sampler/internal/publish"
	"github.com/signalsfoundry/los-sampler/internal/sampler"
	"github.com/signalsfoundry/los-sampler/internal/statusapi"
	"github.com/signalsfoundry/los-sampler/timectrl"
)

type runOptions struct {
	configPath  string
	frames      uint64
	accelerated bool
	height      float64

	// httpAddr overrides LOS_HTTP_ADDR when set. "-" disables the status API.
	httpAddr string
	registry prometheus.Registerer
}

func main() {
	var opts runOptions
	flag.StringVar(&opts.configPath, "config", "configs/scenario.yaml", "Path to the scenario YAML (empty for the built-in scene)")
	flag.Uint64Var(&opts.frames, "frames", 0, "Number of frames to run (0 runs until interrupted)")
	flag.BoolVar(&opts.accelerated, "accelerated", false, "Emit frames as fast as possible instead of on the scenario tick")
	flag.Float64Var(&opts.height, "height", -1, "Observer height slider value 0-100 (negative keeps the scenario value)")
	flag.StringVar(&opts.httpAddr, "http-addr", "", "Status API address (overrides LOS_HTTP_ADDR, - disables)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctx, log := logging.WithRunLogger(ctx, logging.NewFromEnv())

	snap, err := run(ctx, opts, log)
	if err != nil {
		log.Error(ctx, "sampler exited", logging.Err(err))
		os.Exit(1)
	}
	log.Info(ctx, "sampler stopped",
		logging.Any("frame", snap.Frame),
		logging.String("visibility", snap.Visibility.String()),
	)
}

// run wires the sampler and drives it until the requested frames have been
// emitted or ctx is cancelled.
func run(ctx context.Context, opts runOptions, log logging.Logger) (sampler.Snapshot, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return sampler.Snapshot{}, err
	}
	if opts.httpAddr != "" {
		env.HTTPAddr = opts.httpAddr
	}

	scenario := config.DefaultScenario()
	if opts.configPath != "" {
		if scenario, err = config.Load(opts.configPath); err != nil {
			return sampler.Snapshot{}, err
		}
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return sampler.Snapshot{}, fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	metrics, err := observability.NewSamplerCollector(opts.registry)
	if err != nil {
		return sampler.Snapshot{}, fmt.Errorf("init metrics: %w", err)
	}

	loop, err := scenario.Loop()
	if err != nil {
		return sampler.Snapshot{}, err
	}
	easing, err := core.EasingByName(scenario.Easing)
	if err != nil {
		return sampler.Snapshot{}, err
	}
	animator := core.NewPathAnimator()
	if err := animator.Configure(loop, scenario.FramesPerSegment, core.WithEasing(easing)); err != nil {
		return sampler.Snapshot{}, err
	}

	publisher := publish.Noop()
	if env.MQTTURL != "" {
		mp, err := publish.NewMQTTPublisher(publish.MQTTConfig{
			URL:         env.MQTTURL,
			ClientID:    env.MQTTClientID,
			Username:    env.MQTTUsername,
			Password:    env.MQTTPassword,
			TopicPrefix: env.MQTTTopicPrefix,
		}, log)
		if err != nil {
			return sampler.Snapshot{}, err
		}
		publisher = mp
	}
	defer publisher.Close()

	s, err := sampler.New(sampler.Options{
		Animator:  animator,
		Tracker:   core.NewVisibilityTracker(),
		Oracle:    scenario.Oracle(),
		Observer:  scenario.ObserverPoint(),
		Metrics:   metrics,
		Publisher: publisher,
		Logger:    log,
		RunID:     logging.RunIDFromContext(ctx),
	})
	if err != nil {
		return sampler.Snapshot{}, err
	}
	if opts.height >= 0 {
		p := s.SetObserverHeight(opts.height, scenario.HeightRange.Min, scenario.HeightRange.Max)
		log.Info(ctx, "observer height set", logging.Float("z", p.Z))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.Run(runCtx)

	if env.HTTPAddr != "-" {
		api := statusapi.NewHandler(s, log)
		go func() {
			if err := statusapi.Serve(runCtx, env.HTTPAddr, api.Router(metrics.Handler()), log); err != nil {
				log.Error(ctx, "status api exited", logging.Err(err))
			}
		}()
	}

	mode := timectrl.RealTime
	if opts.accelerated {
		mode = timectrl.Accelerated
	}
	tc := timectrl.NewTimeController(scenario.Tick, mode)
	tc.AddListener(s.OnFrame)

	log.Info(ctx, "sampler starting",
		logging.Int("waypoints", len(loop)),
		logging.Int("framesPerSegment", scenario.FramesPerSegment),
		logging.String("mode", mode.String()),
	)
	<-tc.Start(runCtx, opts.frames)

	return s.Snapshot(), nil
}
