package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"voxelworld/internal/config"
	"voxelworld/internal/physics"
	"voxelworld/internal/spatial"
	"voxelworld/internal/terrain"
	"voxelworld/internal/world"
)

func main() {
	var (
		cfgPath      string
		previewPath  string
		writeDefault string
	)
	flag.StringVar(&cfgPath, "config", "", "path to world generation configuration file")
	flag.StringVar(&previewPath, "preview", "", "write a top-down PNG preview of the world to this path")
	flag.StringVar(&writeDefault, "write-default", "", "write the default configuration to this path and exit")
	flag.Parse()

	if writeDefault != "" {
		if err := config.WriteDefault(writeDefault); err != nil {
			log.Fatalf("write default config: %v", err)
		}
		return
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("initialise logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signalContext(logger)
	defer cancel()

	if err := run(ctx, cfg, previewPath, logger); err != nil {
		logger.Fatal("world generation failed", zap.Error(err))
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zapCfg.Build()
}

func run(ctx context.Context, cfg *config.Config, previewPath string, logger *zap.Logger) error {
	gen, err := terrain.NewGenerator(cfg.Terrain, terrain.WithLogger(logger.Named("terrain")))
	if err != nil {
		return err
	}
	if cfg.Terrain.Full {
		err = gen.GenerateAll()
	} else {
		err = gen.Generate(spatial.Point2(cfg.Terrain.FocusX, cfg.Terrain.FocusZ))
	}
	if err != nil {
		return errors.Wrap(err, "generate terrain")
	}
	logStats(logger, "terrain", gen.Tree().Stats())

	if err := ctx.Err(); err != nil {
		return err
	}

	table, err := world.NewBlockTable(cfg.Blocks)
	if err != nil {
		return errors.Wrap(err, "build block table")
	}
	surface, err := table.ID(cfg.World.SurfaceBlock)
	if err != nil {
		return err
	}
	fill, err := table.ID(cfg.World.FillBlock)
	if err != nil {
		return err
	}

	w, err := world.New(cfg.World, table, world.WithLogger(logger.Named("world")))
	if err != nil {
		return err
	}
	// The world and the terrain map share their centre; map positions scale
	// with the ratio of their sizes.
	scale := cfg.Terrain.Size / cfg.World.Size
	heights := func(x, z float64) (float64, bool) {
		return gen.Height(x*scale, z*scale)
	}
	if err := w.Populate(heights, surface, fill); err != nil {
		return errors.Wrap(err, "populate world")
	}
	logStats(logger, "world", w.Stats())

	storage, err := world.OpenStorage(cfg.Storage, logger.Named("storage"))
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer func() {
		if err := storage.Close(); err != nil {
			logger.Warn("close storage", zap.Error(err))
		}
	}()
	if err := w.Save(storage, cfg.Storage.Key); err != nil {
		return err
	}
	logger.Info("world saved", zap.String("path", cfg.Storage.Path), zap.Uint32("key", cfg.Storage.Key))

	if previewPath != "" {
		if err := world.SavePreview(w.Preview(table), previewPath); err != nil {
			return err
		}
		logger.Info("preview written", zap.String("path", previewPath))
	}

	return dropPlayer(ctx, cfg, w, scale, logger)
}

// dropPlayer spawns a player box at the top of the world above the terrain
// focus and lets it fall until it lands.
func dropPlayer(ctx context.Context, cfg *config.Config, w *world.World, scale float64, logger *zap.Logger) error {
	top := w.Config().Size / 2
	x, z := cfg.Terrain.FocusX/scale, cfg.Terrain.FocusZ/scale
	half := cfg.Physics.PlayerWidth / 2
	body := physics.Body{
		Box: spatial.NewBoundingBox(3,
			spatial.Point3(x-half, top-cfg.Physics.PlayerHeight, z-half),
			spatial.Point3(x+half, top, z+half),
		),
	}
	params := physics.Params{
		Gravity:      cfg.Physics.Gravity,
		MaxFallSpeed: w.VoxelSize(),
	}

	for step := 1; step <= cfg.Physics.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := body.Step(w, params); err != nil {
			return errors.Wrapf(err, "physics step %d", step)
		}
		if body.Grounded {
			logger.Info("player landed",
				zap.Int("steps", step),
				zap.Float64("x", body.Box.Center()[0]),
				zap.Float64("y", body.Box.Min[1]),
				zap.Float64("z", body.Box.Center()[2]),
				zap.Bool("restingOnBlock", w.IsGrounded(body.Box)),
			)
			return nil
		}
	}
	logger.Warn("player did not land",
		zap.Int("steps", cfg.Physics.MaxSteps),
		zap.Float64("y", body.Box.Min[1]),
	)
	return nil
}

func logStats(logger *zap.Logger, tree string, stats spatial.Stats) {
	logger.Info("tree stats",
		zap.String("tree", tree),
		zap.Int("nodes", stats.Nodes),
		zap.Int("leaves", stats.Leaves),
		zap.Int("maxDepth", stats.MaxDepth),
	)
}

func signalContext(logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
			return
		}

		// Ensure the process terminates if a stage ignores cancellation.
		time.AfterFunc(10*time.Second, func() {
			logger.Error("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	return ctx, cancel
}
