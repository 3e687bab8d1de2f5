// Command rfsim loads an RF topology scenario from JSON, resolves the
// signal graph, and reports every port's amplitude and power level.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/signalsfoundry/rfsim/internal/logging"
	"github.com/signalsfoundry/rfsim/internal/observability"
	"github.com/signalsfoundry/rfsim/rfnet"
	"github.com/signalsfoundry/rfsim/units"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to a JSON scenario file (required)")
	maxPasses := flag.Int("max-passes", rfnet.DefaultMaxPasses, "fixed-point iteration bound")
	metricsListen := flag.String("metrics-listen", "", "optional address for a Prometheus /metrics listener, e.g. :9090")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	if *scenarioPath == "" {
		log.Error(ctx, "missing required -scenario flag")
		os.Exit(2)
	}

	f, err := os.Open(*scenarioPath)
	if err != nil {
		log.Error(ctx, "open scenario", logging.Err(err))
		os.Exit(1)
	}
	defer f.Close()

	topo := rfnet.NewTopology()
	topo.MaxPasses = *maxPasses
	topo.Logger = log

	scenario, err := rfnet.LoadScenario(topo, f)
	if err != nil {
		log.Error(ctx, "load scenario", logging.String("path", *scenarioPath), logging.Err(err))
		os.Exit(1)
	}
	log.Info(ctx, "scenario loaded",
		logging.String("path", *scenarioPath),
		logging.Int("components", len(scenario.ComponentIDs)),
		logging.Int("nets", scenario.NetCount))

	var collector *observability.ResolverCollector
	if *metricsListen != "" {
		collector, err = observability.NewResolverCollector(nil)
		if err != nil {
			log.Error(ctx, "register metrics", logging.Err(err))
			os.Exit(1)
		}
		components, nets := topo.Size()
		collector.SetTopologySize(components, nets)

		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsListen, mux); err != nil {
				log.Error(ctx, "metrics listener", logging.Err(err))
			}
		}()
		log.Info(ctx, "metrics listening", logging.String("addr", *metricsListen))
	}

	res, err := topo.Resolve(ctx)
	collector.ObserveResolve(res, err)
	if err != nil {
		log.Error(ctx, "resolution failed",
			logging.Int("passes", res.Passes),
			logging.Err(err))
		os.Exit(1)
	}
	log.Info(ctx, "topology resolved",
		logging.Int("passes", res.Passes),
		logging.Float("residual", res.Residual))

	for _, c := range topo.Components() {
		for _, p := range c.Ports() {
			fmt.Printf("%-24s driven=%s incoming=%s\n", p, levelString(p.Driven()), levelString(p.Incoming()))
		}
	}
}

// levelString renders an amplitude as power in dBm, with the raw
// magnitude alongside. Zero amplitudes print as "-inf dBm".
func levelString(a complex128) string {
	power := units.Power(a)
	return fmt.Sprintf("%.6g dBm (|a|=%.4g)", units.WattsToDBm(power), units.Magnitude(a))
}
