package main

import (
	"context"
	"flag"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"leakhound/internal/core/signatures"
	"leakhound/internal/modkit"
	"leakhound/internal/modkit/module"
	"leakhound/internal/platform/config"
	"leakhound/internal/platform/logger"
	"leakhound/internal/platform/store"

	gh "leakhound/internal/adapters/github"
	anadom "leakhound/internal/services/analyze/domain"
	anamod "leakhound/internal/services/analyze/module"
	anarepo "leakhound/internal/services/analyze/repo"
	gatmod "leakhound/internal/services/gather/module"
)

func main() {
	_ = godotenv.Load()

	root := config.New()
	dbCfg := root.Prefix("LEAKHOUND_PGSQL_")
	ghCfg := root.Prefix("LEAKHOUND_GH_")

	l := logger.Get()

	// Flags
	var (
		fTargets  = flag.String("targets", "", "comma-separated logins to assess (also accepted as positional args)")
		fName     = flag.String("name", "", "assessment name (defaults to the target list)")
		fTokens   = flag.String("tokens", "", "comma-separated API access tokens (or LEAKHOUND_GH_TOKENS)")
		fEndpoint = flag.String("endpoint", "", "API endpoint base URL (defaults to api.github.com)")
		fWorkers  = flag.Int("workers", 0, "worker pool size for gathering and analysis")
		fSigs     = flag.String("signatures", "", "signature file path (defaults to the embedded set)")
		fCustom   = flag.String("custom-signatures", "", "extra signature file merged after the base set")
		fIgnore   = flag.String("ignore-signatures", "", "ignore rule file path")
		fTimeout  = flag.Duration("timeout", 10*time.Second, "per-request API timeout")
	)
	flag.Parse()

	targets := splitCSV(*fTargets)
	targets = append(targets, flag.Args()...)
	if len(targets) == 0 {
		l.Fatal().Msg("no targets given; pass logins as arguments or -targets")
	}

	tokens := splitCSV(*fTokens)
	if len(tokens) == 0 {
		tokens = ghCfg.MayCSV("TOKENS", nil)
	}
	pool := gh.NewTokenPool(tokens)
	if pool.Size() == 0 {
		l.Fatal().Msg("no API access tokens given; pass -tokens or set LEAKHOUND_GH_TOKENS")
	}

	sigs, err := signatures.LoadFiles(*fSigs, *fCustom, *fIgnore)
	if err != nil {
		l.Fatal().Err(err).Msg("could not load signatures")
	}

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         dbCfg.MustString("DBURL"),
			MaxConns:    int32(dbCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: dbCfg.MayInt("SLOW_MS", 500),
			LogSQL:      dbCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	if err := st.Guard(context.Background()); err != nil {
		l.Fatal().Err(err).Msg("store readiness check failed")
	}

	if err := anarepo.EnsureSchema(context.Background(), st.PG); err != nil {
		l.Fatal().Err(err).Msg("could not apply database schema")
	}

	endpoint := *fEndpoint
	if endpoint == "" {
		endpoint = ghCfg.MayString("ENDPOINT", "https://api.github.com")
	}
	client := gh.NewClient(pool, gh.Options{
		BaseURL: endpoint,
		Timeout: *fTimeout,
	})

	// Shared deps
	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		Log: *l,
	}

	gat := gatmod.New(deps, client, gatmod.Options{Workers: *fWorkers})
	module.Register(gat.Name(), gat.Ports())
	gatherer := module.MustPortsOf[gatmod.Ports](gat).Gatherer

	ana := anamod.New(deps, sigs, gatherer, logProgress{log: l}, anamod.Options{Workers: *fWorkers})
	module.Register(ana.Name(), ana.Ports())
	runner := module.MustPortsOf[anamod.Ports](ana).Runner

	sum, err := runner.Run(context.Background(), anadom.RunParams{
		Name:     *fName,
		Endpoint: endpoint,
		Targets:  targets,
	})
	if err != nil {
		l.Fatal().Err(err).Msg("assessment failed")
	}

	l.Info().
		Str("assessment", sum.Assessment.ID).
		Str("name", sum.Assessment.Name).
		Int("owners", sum.Assessment.OwnersCount).
		Int("repositories", sum.Assessment.RepositoriesCount).
		Int("blobs", sum.Assessment.BlobsCount).
		Int("findings", sum.Assessment.FindingsCount).
		Msg("assessment finished")
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
