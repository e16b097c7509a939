package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	cache "github.com/krisalay/page-cache"
	"github.com/krisalay/page-cache/engine"
	"github.com/krisalay/page-cache/expiration"
	"github.com/krisalay/page-cache/fetch"
	"github.com/krisalay/page-cache/internal/config"
	mylog "github.com/krisalay/page-cache/internal/log"
	"github.com/krisalay/page-cache/metrics"
)

// newGlobalFlags returns fresh flag instances; urfave flags keep their
// parsed state, so commands must not share them.
func newGlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "path to pagecache.yaml",
			Sources: cli.NewValueSourceChain(cli.EnvVar(config.EnvPath)),
		},
		&cli.IntFlag{
			Name:    "expiration",
			Aliases: []string{"e"},
			Usage:   "seconds a fetched page stays fresh",
		},
		&cli.IntFlag{
			Name:  "shards",
			Usage: "number of cache shards",
		},
		&cli.StringFlag{
			Name:  "user-agent",
			Usage: "User-Agent header sent with every request",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "treat non-2xx responses as fetch failures",
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "bearer token sent with every request",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PAGECACHE_TOKEN")),
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "serve Prometheus metrics on this address while running",
		},
	}
}

// NewApp builds the pagecache command tree.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:  "pagecache",
		Usage: "fetch web pages through an expiring cache",
		Commands: []*cli.Command{
			getCommand(),
			stampedeCommand(),
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "fetch URLs through the cache, optionally several rounds",
		ArgsUsage: "URL...",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "repeat",
				Aliases: []string{"n"},
				Usage:   "number of rounds over the URL list",
				Value:   1,
			},
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "pause between rounds",
			},
		}, newGlobalFlags()...),
		Action: runGet,
	}
}

func stampedeCommand() *cli.Command {
	return &cli.Command{
		Name:      "stampede",
		Usage:     "hit one URL from many goroutines at once",
		ArgsUsage: "URL",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "callers",
				Aliases: []string{"c"},
				Usage:   "concurrent callers",
				Value:   100,
			},
		}, newGlobalFlags()...),
		Action: runStampede,
	}
}

// session is everything one command run needs.
type session struct {
	cache   *cache.ExpiringCache
	fetcher *fetch.Fetcher
	metrics *metrics.Metrics
	stop    func()
}

func newSession(cmd *cli.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if cfg.LogLevel != "" && os.Getenv(mylog.EnvLevel) == "" {
		if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
			log.SetLevel(lvl)
		}
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics("pagecache", reg)

	eng := engine.NewCacheEngine(
		&expiration.ExpireAfterWrite{TTL: cfg.ExpirationDuration()},
		m,
		log.Log,
		nil,
	)

	s := &session{
		cache: cache.NewExpiringCache(cfg.Shards, eng),
		fetcher: fetch.New(nil, fetch.Options{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.TimeoutDuration(),
			Token:     cfg.Token,
			Strict:    cfg.Strict,
		}),
		metrics: m,
		stop:    func() {},
	}

	if addr := cmd.String("metrics-addr"); addr != "" {
		s.stop = serveMetrics(addr, reg)
	}

	log.WithFields(log.Fields{
		"expiration": cfg.ExpirationDuration().String(),
		"shards":     cfg.Shards,
		"config":     cfg.Source,
	}).Debug("cache ready")

	return s, nil
}

func (s *session) Close() {
	s.cache.Close()
	s.stop()
}

// loadConfig reads the config file and lays command-line flags on top.
func loadConfig(cmd *cli.Command) (config.Type, error) {
	var (
		cfg config.Type
		err error
	)
	if path := cmd.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return cfg, err
	}

	if cmd.IsSet("expiration") {
		cfg.Expiration = int(cmd.Int("expiration"))
	}
	if cmd.IsSet("shards") {
		cfg.Shards = int(cmd.Int("shards"))
	}
	if cmd.IsSet("user-agent") {
		cfg.UserAgent = cmd.String("user-agent")
	}
	if cmd.IsSet("strict") {
		cfg.Strict = cmd.Bool("strict")
	}
	if cmd.IsSet("token") {
		cfg.Token = cmd.String("token")
	}
	return cfg, nil
}

func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
	log.Infof("serving metrics on %s/metrics", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func runGet(ctx context.Context, cmd *cli.Command) error {
	urls := cmd.Args().Slice()
	if len(urls) == 0 {
		return errors.New("get: at least one URL is required")
	}
	repeat := int(cmd.Int("repeat"))
	if repeat < 1 {
		return fmt.Errorf("get: --repeat must be at least 1, got %d", repeat)
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	var failed int
	for round := 0; round < repeat; round++ {
		if round > 0 && cmd.Duration("interval") > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cmd.Duration("interval")):
			}
		}

		for _, u := range urls {
			body, err := s.cache.Get(ctx, u, s.fetcher.Page(u))
			if err != nil {
				failed++
				fmt.Fprintf(cmd.Root().ErrWriter, "%v\n", err)
				continue
			}
			fmt.Fprintf(cmd.Root().Writer, "%s\t%d bytes\n", u, len(body))
		}
	}

	writeReport(cmd.Root().Writer, s.cache, time.Now())

	if failed > 0 {
		return fmt.Errorf("get: %d of %d fetches failed", failed, repeat*len(urls))
	}
	return nil
}

func runStampede(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("stampede: exactly one URL is required")
	}
	u := cmd.Args().First()
	callers := int(cmd.Int("callers"))

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	start := time.Now()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
		page = s.fetcher.Page(u)
	)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.cache.Get(ctx, u, page); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	out := cmd.Root().Writer
	fmt.Fprintf(out, "Callers          : %d\n", callers)
	fmt.Fprintf(out, "Producer calls   : %d\n", producerCalls(s.metrics))
	fmt.Fprintf(out, "Failures         : %d\n", len(errs))
	fmt.Fprintf(out, "Total Time       : %v\n", time.Since(start))
	writeReport(out, s.cache, time.Now())

	return errors.Join(errs...)
}
