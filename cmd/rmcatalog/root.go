package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/rm-catalog-client/internal/config"
	"github.com/Sternrassler/rm-catalog-client/pkg/cache"
	"github.com/Sternrassler/rm-catalog-client/pkg/catalog"
	"github.com/Sternrassler/rm-catalog-client/pkg/imagecache"
	"github.com/Sternrassler/rm-catalog-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries state shared by the subcommands once the root command has
// loaded the configuration.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	logger  zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "rmcatalog",
		Short: "Browse the Rick and Morty character catalog",
		Long: `rmcatalog pages through the Rick and Morty character API, optionally
filtered by status, and loads character avatars through a coalescing cache.

  rmcatalog list --status dead --pages 2
  rmcatalog show 1
  rmcatalog serve --addr :8080`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.rmcatalog/rmcatalog.yaml)")
	flags.String("base-url", catalog.DefaultBaseURL, "character collection endpoint")
	flags.Duration("timeout", 30*time.Second, "per-request timeout")
	flags.String("log-level", string(logging.LevelInfo), "log level (debug, info, warn, error)")
	flags.Bool("pretty", false, "human-readable log output")
	flags.String("redis-addr", "", "Redis address for the shared image tier (disabled when empty)")

	a.v.BindPFlag("base_url", flags.Lookup("base-url"))
	a.v.BindPFlag("timeout", flags.Lookup("timeout"))
	a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	a.v.BindPFlag("log.pretty", flags.Lookup("pretty"))
	a.v.BindPFlag("redis.addr", flags.Lookup("redis-addr"))

	root.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newImageCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	logging.Setup(cfg.Logging(cmd.ErrOrStderr()))
	a.logger = logging.NewLogger("cli")
	return nil
}

func (a *app) catalogClient() (*catalog.Client, error) {
	c, err := catalog.New(a.cfg.Catalog())
	if err != nil {
		return nil, fmt.Errorf("create catalog client: %w", err)
	}
	return c, nil
}

// imageCache builds the image cache, attaching the Redis tier when one is
// configured and reachable. The returned func releases the Redis client.
func (a *app) imageCache(ctx context.Context) (*imagecache.Cache, *redis.Client, func(), error) {
	var (
		shared      *cache.Manager
		redisClient *redis.Client
	)
	closeFn := func() {}

	if a.cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		shared = cache.NewManager(redisClient)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := shared.Ping(pingCtx); err != nil {
			a.logger.Warn().Err(err).Str("addr", a.cfg.Redis.Addr).Msg("Redis unavailable, shared image tier disabled")
			redisClient.Close()
			shared, redisClient = nil, nil
		} else {
			a.logger.Info().Str("addr", a.cfg.Redis.Addr).Msg("Connected to Redis")
			rc := redisClient
			closeFn = func() { rc.Close() }
		}
	}

	images, err := imagecache.New(a.cfg.ImageCache(shared))
	if err != nil {
		closeFn()
		return nil, nil, nil, fmt.Errorf("create image cache: %w", err)
	}
	return images, redisClient, closeFn, nil
}
