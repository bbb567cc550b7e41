package main

import (
	"context"

	"github.com/rs/zerolog"

	"vision-worker-go/internal/config"
	"vision-worker-go/internal/services/detection"
	"vision-worker-go/internal/services/detection/remote"
	"vision-worker-go/internal/services/detection/yolo"
)

// newFactory registers every engine kind the worker can run. A request with
// simulation_mode set gets the simulated engine whatever kind it names.
func newFactory(cfg *config.Config, logger zerolog.Logger) *detection.Factory {
	catalog := detection.NewCatalog(cfg.ModelPaths, cfg.ModelOrder)

	simulated := func(_ context.Context, p detection.Params) (detection.Engine, error) {
		return detection.NewSimulated(detection.SimulatedOptions{
			Catalog:    catalog,
			ClassNames: cfg.ClassNames,
			Model:      p.Model,
		}), nil
	}

	yoloLoader := yolo.NewLoader(yolo.Options{
		InputSize:    cfg.ModelInputSize,
		NMSThreshold: float32(cfg.NMSThreshold),
	})
	remoteLoader := remote.NewLoader(remote.Options{
		Endpoint:    cfg.RemoteGRPCURL,
		Timeout:     cfg.RemoteTimeout,
		JPEGQuality: cfg.JPEGQuality,
		Logger:      logger.With().Str("engine", string(detection.KindRemote)).Logger(),
	})

	live := func(kind detection.Kind, loaderFor func(detection.Params) detection.Loader) detection.Constructor {
		return func(ctx context.Context, p detection.Params) (detection.Engine, error) {
			if p.Simulation {
				return simulated(ctx, p)
			}
			return detection.NewLive(ctx, kind, loaderFor(p), detection.LiveOptions{
				Catalog:    catalog,
				ClassNames: cfg.ClassNames,
				Model:      p.Model,
				Logger:     logger.With().Str("engine", string(kind)).Logger(),
			})
		}
	}

	f := detection.NewFactory()
	f.Register(detection.KindSimulated, simulated)
	f.Register(detection.KindYOLO, live(detection.KindYOLO, func(detection.Params) detection.Loader {
		return yoloLoader
	}))
	f.Register(detection.KindRemote, live(detection.KindRemote, func(p detection.Params) detection.Loader {
		return remoteLoader.WithEndpoint(p.Endpoint)
	}))
	return f
}
