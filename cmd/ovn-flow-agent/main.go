// Command ovn-flow-agent drives the flow-table reconciliation core
// against a single bridge's management socket: it owns the process
// lifecycle, config loading, and logging setup around the ofctrl
// package's Controller.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ovnflow/controller/internal/config"
	"github.com/ovnflow/controller/internal/conntrack"
	"github.com/ovnflow/controller/internal/logging"
	"github.com/ovnflow/controller/internal/ofctrl"
	"github.com/ovnflow/controller/internal/ofp"
	"github.com/ovnflow/controller/internal/transport"
)

var configFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ovn-flow-agent",
		Short: "Reconciles a bridge's OpenFlow tables against desired state",
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config.yaml")
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the reconciliation driver loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context())
		},
	}
}

func runDaemon(ctx context.Context) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	base := logrus.New()
	base.SetFormatter(&logrus.JSONFormatter{})
	log := logging.New(base, logging.Config{Interval: cfg.RateLimitInterval})

	tr := transport.New()
	meters := emptyMeterCatalog{}
	bridge := emptyBridgeRecord{}
	zones := conntrack.NewInMemory()

	if validator, verr := conntrack.NewNetlinkValidator(); verr != nil {
		log.Warnf("conntrack netlink validator unavailable, proceeding without zone validation: %v", verr)
	} else {
		defer validator.Close()
		if verr := validator.ValidateZone(0); verr != nil {
			log.Warnf("conntrack zone validation failed: %v", verr)
		}
	}

	controller := ofctrl.New(tr, meters, bridge, zones, log, cfg.TunnelOptionEnabled)

	ticker := time.NewTicker(cfg.InactivityProbe)
	defer ticker.Stop()

	var nbCfg uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			wakeNow, err := controller.Run(ctx, cfg.RunDir, cfg.Bridge)
			if err != nil {
				log.Warnf("driver tick failed: %v", err)
				continue
			}
			if err := controller.Put(ctx, nbCfg); err != nil {
				log.Warnf("put failed: %v", err)
			}
			if wakeNow {
				// Iteration bound expired while still making progress;
				// run again immediately instead of waiting out the rest
				// of the probe interval.
				ticker.Reset(time.Nanosecond)
			} else {
				ticker.Reset(cfg.InactivityProbe)
			}
		}
	}
}

// emptyMeterCatalog is the default when no meter catalog has been wired
// in yet; every lookup misses, which Put treats as a per-entry parse
// failure to be retried next pass.
type emptyMeterCatalog struct{}

func (emptyMeterCatalog) Lookup(name string) (ofp.MeterUnit, []ofp.MeterBand, bool) {
	return "", nil, false
}

// emptyBridgeRecord is the default when no bridge port list has been
// wired in yet.
type emptyBridgeRecord struct{}

func (emptyBridgeRecord) OFPortByIfaceID(ifaceID string) (uint32, bool) {
	return 0, false
}
