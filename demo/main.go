// Command demo builds a navigation mesh over generated terrain, stores its
// tiles and optionally renders them to an image.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gorustyt/gonavtile/common/logger"
	"github.com/gorustyt/gonavtile/debug_utils"
	"github.com/gorustyt/gonavtile/demo/config"
	"github.com/gorustyt/gonavtile/navigation"
	"github.com/gorustyt/gonavtile/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "yaml config file")
	storeKind  = flag.String("store", "", "tile store: memory, badger or mysql")
	storeDSN   = flag.String("dsn", "", "badger directory or mysql dsn")
	output     = flag.String("out", "", "render the tiles to this .png, .bmp or .tiff file")
	objDir     = flag.String("obj", "", "dump tile polygon meshes as obj files into this directory")
	workers    = flag.Int("workers", 0, "tile build workers, 0 uses every cpu")
	seed       = flag.Int64("seed", 0, "terrain seed")
	metrics    = flag.String("metrics", "", "serve prometheus metrics on this address")
)

func main() {
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	applyFlags(&cfg)

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger.SetDefault(log)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, cfg, log); err != nil {
		log.Error("demo failed", zap.Error(err))
		os.Exit(1)
	}
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "store":
			cfg.Store.Kind = *storeKind
		case "dsn":
			cfg.Store.DSN = *storeDSN
		case "out":
			cfg.Render.Output = *output
		case "obj":
			cfg.Render.ObjDir = *objDir
		case "workers":
			cfg.Workers = *workers
		case "seed":
			cfg.Terrain.Seed = *seed
		case "metrics":
			cfg.MetricsAddr = *metrics
		}
	})
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	reg := prometheus.NewRegistry()
	m, err := navigation.NewMetrics(reg)
	if err != nil {
		return err
	}
	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
		log.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
	}

	mesh := navigation.NewNavigationMesh(cfg.MeshID, cfg.Build,
		navigation.WithLogger(log),
		navigation.WithWorkers(cfg.Workers),
		navigation.WithMetrics(m),
	)
	defer mesh.Close()

	walls := make([]navigation.MeshSource, 0, len(cfg.Terrain.Walls))
	for _, w := range cfg.Terrain.Walls {
		walls = append(walls, wallSource(w))
	}
	start := time.Now()
	if err := mesh.Build(ctx, walls, []navigation.TerrainBlock{perlinTerrain(cfg.Terrain)}); err != nil {
		return err
	}
	log.Info("navigation mesh built",
		zap.Int("tiles", len(mesh.Tiles())),
		zap.Duration("elapsed", time.Since(start)))

	store, err := storage.Open(ctx, cfg.Store.Kind, cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := mesh.Serialize(ctx, store); err != nil {
		return err
	}

	loaded := navigation.NewNavigationMesh(cfg.MeshID, cfg.Build, navigation.WithLogger(log))
	defer loaded.Close()
	if err := loaded.LoadTiles(ctx, store, false); err != nil {
		return err
	}
	log.Info("tiles reloaded",
		zap.String("store", cfg.Store.Kind),
		zap.Int("tiles", len(loaded.Tiles())),
		zap.Int("registered", loaded.NavMesh().TileCount()))

	if cfg.Render.Output != "" {
		if err := render(mesh, cfg.Render); err != nil {
			return err
		}
		log.Info("rendered tiles", zap.String("path", cfg.Render.Output))
	}
	if cfg.Render.ObjDir != "" {
		if err := dumpObj(mesh, cfg.Render.ObjDir); err != nil {
			return err
		}
	}
	return nil
}

// render draws every tile's debug mesh and polygon outlines seen from above.
func render(mesh *navigation.NavigationMesh, cfg config.RenderConfig) error {
	dl := debug_utils.NewDisplayList()
	mesh.DebugDraw(dl, navigation.NewResourceManager("image"))
	bounds, ok := dl.Bounds()
	if !ok {
		return errors.New("nothing to render")
	}
	img := debug_utils.NewImageDriver(bounds, cfg.PixelsPerUnit, color.White)
	dl.Draw(img)
	for _, tile := range mesh.Tiles() {
		debug_utils.DrawPolyMesh(img, tile.PolyMesh())
	}
	return img.Save(cfg.Output)
}

func dumpObj(mesh *navigation.NavigationMesh, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, tile := range mesh.Tiles() {
		name := filepath.Join(dir, fmt.Sprintf("tile_%d_%d.obj", tile.TileX(), tile.TileZ()))
		if err := writeObj(name, tile); err != nil {
			return err
		}
	}
	return nil
}

func writeObj(name string, tile *navigation.Tile) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return debug_utils.DumpPolyMeshToObj(tile.PolyMesh(), f)
}
