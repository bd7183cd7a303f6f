// Package config loads the agent's runtime configuration: the runtime
// directory and bridge name used to derive the management socket path
// (<rundir>/<bridge>.mgmt), the driver loop's tick interval
// (inactivity-probe), and whether the negotiated tunnel-metadata field id
// is reported to callers.
// Grounded in the viper wiring steveyegge-beads uses for its own config
// file + environment overlay.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved set of values the driver and transport need at
// init.
type Config struct {
	// RunDir is the directory holding the bridge management sockets.
	RunDir string
	// Bridge is the name of the bridge this agent instance manages.
	Bridge string
	// InactivityProbe is the interval at which the agent's driver loop
	// ticks when it has no immediate work. It is not passed to the
	// transport, which sends no liveness probes of its own.
	InactivityProbe time.Duration
	// TunnelOptionEnabled controls whether the connection state machine
	// reports the negotiated tunnel-metadata field id. Negotiation runs
	// either way, so a slot may still be allocated on the switch; with
	// the option disabled the field id reported is always 0.
	TunnelOptionEnabled bool
	// RateLimitInterval bounds how often a given rate-limited log key
	// may fire.
	RateLimitInterval time.Duration
}

// envPrefix is the environment variable prefix config values can be
// overridden with, e.g. OVNFLOW_BRIDGE.
const envPrefix = "OVNFLOW"

// Load builds a Config from an optional config file plus environment
// overrides. configFile may be empty, in which case only defaults and
// the environment are consulted.
func Load(configFile string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("rundir", "/var/run/openvswitch")
	v.SetDefault("bridge", "br-int")
	v.SetDefault("inactivity-probe", "5s")
	v.SetDefault("tunnel-option-enabled", true)
	v.SetDefault("rate-limit-interval", "5s")

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	return Config{
		RunDir:              v.GetString("rundir"),
		Bridge:              v.GetString("bridge"),
		InactivityProbe:     v.GetDuration("inactivity-probe"),
		TunnelOptionEnabled: v.GetBool("tunnel-option-enabled"),
		RateLimitInterval:   v.GetDuration("rate-limit-interval"),
	}, nil
}
