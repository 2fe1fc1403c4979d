package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/poorfish/maptoposter/internal/classify"
	"github.com/poorfish/maptoposter/internal/datasource"
	"github.com/poorfish/maptoposter/internal/pipeline"
)

// CLI limits on the fetch radius, in meters.
const (
	minRadius = 2000
	maxRadius = 30000
)

func addGatewayFlags(cmd *cobra.Command) {
	gw := datasource.DefaultGatewayConfig()
	cl := classify.DefaultConfig()
	pl := pipeline.DefaultConfig()

	flags := cmd.PersistentFlags()
	flags.StringSlice("endpoints", gw.Endpoints, "Overpass API endpoints, in preference order")
	flags.Int("max-retries", gw.MaxRetries, "Attempts per fetch stage before giving up")
	flags.Duration("initial-backoff", gw.InitialBackoff, "Wait after the first failed attempt")
	flags.Float64("backoff-multiplier", gw.BackoffMultiplier, "Backoff growth factor between attempts")
	flags.Duration("min-request-interval", gw.MinRequestInterval, "Minimum spacing between Overpass requests")
	flags.Duration("cache-ttl", gw.CacheTTL, "How long fetched stages are reused")
	flags.Duration("request-timeout", gw.RequestTimeout, "Per-attempt HTTP timeout")
	flags.Float64("tolerance", cl.Tolerance, "Geometry simplification tolerance in degrees")
	flags.Int("density-threshold", cl.DensityThreshold, "Element count above which minor roads are dropped")
	flags.Int("aggressive-threshold", pl.AggressiveThreshold, "First-stage element count above which refinement is narrowed")
	flags.Duration("courtesy-delay", pl.CourtesyDelay, "Pause between the two fetch stages")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"gateway.endpoints", "endpoints"},
		{"gateway.max_retries", "max-retries"},
		{"gateway.initial_backoff", "initial-backoff"},
		{"gateway.backoff_multiplier", "backoff-multiplier"},
		{"gateway.min_request_interval", "min-request-interval"},
		{"gateway.cache_ttl", "cache-ttl"},
		{"gateway.request_timeout", "request-timeout"},
		{"classify.tolerance", "tolerance"},
		{"classify.density_threshold", "density-threshold"},
		{"pipeline.aggressive_threshold", "aggressive-threshold"},
		{"pipeline.courtesy_delay", "courtesy-delay"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, flags.Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func gatewayConfig() datasource.GatewayConfig {
	cfg := datasource.DefaultGatewayConfig()
	if endpoints := viper.GetStringSlice("gateway.endpoints"); len(endpoints) > 0 {
		cfg.Endpoints = endpoints
	}
	cfg.MaxRetries = viper.GetInt("gateway.max_retries")
	cfg.InitialBackoff = viper.GetDuration("gateway.initial_backoff")
	cfg.BackoffMultiplier = viper.GetFloat64("gateway.backoff_multiplier")
	cfg.MinRequestInterval = viper.GetDuration("gateway.min_request_interval")
	cfg.CacheTTL = viper.GetDuration("gateway.cache_ttl")
	cfg.RequestTimeout = viper.GetDuration("gateway.request_timeout")
	cfg.Logger = logger
	return cfg
}

func pipelineConfig() pipeline.Config {
	cl := classify.DefaultConfig()
	cl.Tolerance = viper.GetFloat64("classify.tolerance")
	cl.DensityThreshold = viper.GetInt("classify.density_threshold")
	cl.Logger = logger

	cfg := pipeline.DefaultConfig()
	cfg.Classifier = classify.New(cl)
	cfg.AggressiveThreshold = viper.GetInt("pipeline.aggressive_threshold")
	cfg.CourtesyDelay = viper.GetDuration("pipeline.courtesy_delay")
	cfg.Logger = logger
	return cfg
}

// newOrchestrator builds an orchestrator over a gateway. Passing the same
// state to several orchestrators shares cache, spacing and endpoint health.
func newOrchestrator(state *datasource.GatewayState) *pipeline.Orchestrator {
	gw := datasource.NewGateway(gatewayConfig(), state)
	return pipeline.NewOrchestrator(gw, gw.State().Cache(), pipelineConfig())
}

func newGatewayState() *datasource.GatewayState {
	cfg := gatewayConfig()
	return datasource.NewGatewayState(cfg.Endpoints, cfg.MinRequestInterval, cfg.CacheTTL)
}

// validateRequest applies the CLI coordinate and radius limits.
func validateRequest(req pipeline.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.Radius < minRadius || req.Radius > maxRadius {
		return fmt.Errorf("radius %g out of range [%d, %d] meters", req.Radius, minRadius, maxRadius)
	}
	return nil
}
