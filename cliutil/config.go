// Package cliutil wires SimConfig's fields to cobra flags and a
// viper-backed configuration file/environment layer, mirroring the
// teacher's inmaputil.Cfg: flags default an option, a config file (or
// ATMSIM_-prefixed environment variables) can override it, and the
// bound value is read back out through the embedded viper.Viper.
package cliutil

import (
	"fmt"

	"github.com/ctessum-atm/atmsim"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds the configuration layer shared by every subcommand.
type Cfg struct {
	*viper.Viper

	Root, simulateCmd, observeCmd *cobra.Command
}

type option struct {
	name, usage string
	defaultVal  interface{}
}

// options enumerates every SimConfig field as a flag, in the order
// SimConfig declares them.
var options = []option{
	{"azmin", "azmin is the minimum scan azimuth, radians.", 0.0},
	{"azmax", "azmax is the maximum scan azimuth, radians.", 1.5707963267948966},
	{"elmin", "elmin is the minimum scan elevation, radians.", 1.0471975511965976},
	{"elmax", "elmax is the maximum scan elevation, radians.", 1.2566370614359172},
	{"tmin", "tmin is the scan start time, seconds.", 0.0},
	{"tmax", "tmax is the scan end time, seconds.", 1.0},
	{"xstep", "xstep is the voxel step along the scan axis, meters.", 100.0},
	{"ystep", "ystep is the voxel step across the scan axis, meters.", 100.0},
	{"zstep", "zstep is the voxel step in elevation, meters.", 100.0},
	{"lmin_center", "lmin_center is the mean inner turbulence scale, meters.", 1.0},
	{"lmin_sigma", "lmin_sigma is the inner turbulence scale's standard deviation.", 0.0},
	{"lmax_center", "lmax_center is the mean outer turbulence scale, meters.", 1000.0},
	{"lmax_sigma", "lmax_sigma is the outer turbulence scale's standard deviation.", 0.0},
	{"w_center", "w_center is the mean wind speed, m/s.", 0.0},
	{"w_sigma", "w_sigma is the wind speed's standard deviation.", 0.0},
	{"wdir_center", "wdir_center is the mean wind direction, radians.", 0.0},
	{"wdir_sigma", "wdir_sigma is the wind direction's standard deviation.", 0.0},
	{"z0_center", "z0_center is the mean water-vapor scale height, meters.", 2000.0},
	{"z0_sigma", "z0_sigma is the water-vapor scale height's standard deviation.", 0.0},
	{"T0_center", "T0_center is the mean ground temperature, Kelvin.", 280.0},
	{"T0_sigma", "T0_sigma is the ground temperature's standard deviation.", 0.0},
	{"zatm", "zatm is the vertical attenuation scale height, meters.", 10000.0},
	{"zmax", "zmax is the hard ceiling on the cone's vertical extent, meters.", 5000.0},
	{"key1", "key1 is the first PRNG stream key.", 0},
	{"key2", "key2 is the second PRNG stream key.", 0},
	{"counter1", "counter1 is the first PRNG counter word.", 0},
	{"counter2", "counter2 is the second PRNG counter word.", 0},
	{"cachedir", "cachedir is the directory cached realizations are read from and written to.", ""},
	{"rmin", "rmin is the observer's inner radial stepping bound, meters.", 0.0},
	{"rmax", "rmax is the observer's outer radial stepping bound, meters.", 5000.0},
	{"slice_max_size", "slice_max_size bounds the number of compressed voxels per factorization slice.", atmsim.DefaultSliceMaxSize},
	{"verbosity", "verbosity controls the logging level (0=warn, 1=info, 2=debug).", 0},
}

// InitializeConfig builds the Cfg, registering every option as a
// persistent flag on Root and binding it through viper, the same
// flag-then-bind pattern the teacher's InitializeConfig uses.
func InitializeConfig() *Cfg {
	cfg := &Cfg{Viper: viper.New()}

	cfg.Root = &cobra.Command{
		Use:   "atmsim",
		Short: "Simulate time-ordered atmospheric data for ground-based telescopes.",
		Long: `atmsim generates synthetic time-ordered atmospheric data by drawing a
frozen Kolmogorov turbulence realization, advecting it past the telescope
with a sampled wind, and sampling it along arbitrary lines of sight.

Configuration can be set by flags, by a config file (--config), or by
ATMSIM_-prefixed environment variables.`,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setConfig(cfg)
		},
	}
	cfg.Root.PersistentFlags().String("config", "", "config is the path to a configuration file.")

	cfg.simulateCmd = newSimulateCmd(cfg)
	cfg.observeCmd = newObserveCmd(cfg)
	cfg.Root.AddCommand(cfg.simulateCmd, cfg.observeCmd)

	registerFlags(cfg, cfg.Root.PersistentFlags())
	cfg.SetEnvPrefix("ATMSIM")
	cfg.AutomaticEnv()

	return cfg
}

// registerFlags declares every option on set and binds it into cfg's
// viper instance, switching on the option's default value type the way
// the teacher's InitializeConfig does.
func registerFlags(cfg *Cfg, set *pflag.FlagSet) {
	for _, opt := range options {
		switch v := opt.defaultVal.(type) {
		case string:
			set.String(opt.name, v, opt.usage)
		case int:
			set.Int(opt.name, v, opt.usage)
		case float64:
			set.Float64(opt.name, v, opt.usage)
		default:
			panic(fmt.Errorf("atmsim/cliutil: invalid default value type %T for option %q", v, opt.name))
		}
		if err := cfg.BindPFlag(opt.name, set.Lookup(opt.name)); err != nil {
			panic(err)
		}
	}
}

// setConfig reads in the configuration file named by --config, if any.
func setConfig(cfg *Cfg) error {
	if cfgpath := cfg.GetString("config"); cfgpath != "" {
		cfg.SetConfigFile(cfgpath)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("atmsim: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// getUint64 reads a PRNG stream word out of cfg, accounting for the
// fact that a config file or environment variable may hand it back as
// a string or a json.Number rather than viper's native int64 — the
// same cfg.Get-then-cast.ToUint64 pattern the teacher's
// GetStringMapString uses for values viper doesn't have a typed getter
// for.
func getUint64(cfg *viper.Viper, name string) uint64 {
	return cast.ToUint64(cfg.Get(name))
}

// SimConfig assembles an atmsim.SimConfig from the bound flag/config/
// environment values.
func (cfg *Cfg) SimConfig() atmsim.SimConfig {
	return atmsim.SimConfig{
		AzMin: cfg.GetFloat64("azmin"), AzMax: cfg.GetFloat64("azmax"),
		ElMin: cfg.GetFloat64("elmin"), ElMax: cfg.GetFloat64("elmax"),
		TMin: cfg.GetFloat64("tmin"), TMax: cfg.GetFloat64("tmax"),
		XStep: cfg.GetFloat64("xstep"), YStep: cfg.GetFloat64("ystep"), ZStep: cfg.GetFloat64("zstep"),
		Lmin: atmsim.Dist{Center: cfg.GetFloat64("lmin_center"), Sigma: cfg.GetFloat64("lmin_sigma")},
		Lmax: atmsim.Dist{Center: cfg.GetFloat64("lmax_center"), Sigma: cfg.GetFloat64("lmax_sigma")},
		W:    atmsim.Dist{Center: cfg.GetFloat64("w_center"), Sigma: cfg.GetFloat64("w_sigma")},
		Wdir: atmsim.Dist{Center: cfg.GetFloat64("wdir_center"), Sigma: cfg.GetFloat64("wdir_sigma")},
		Z0:   atmsim.Dist{Center: cfg.GetFloat64("z0_center"), Sigma: cfg.GetFloat64("z0_sigma")},
		T0:   atmsim.Dist{Center: cfg.GetFloat64("T0_center"), Sigma: cfg.GetFloat64("T0_sigma")},
		ZAtm: cfg.GetFloat64("zatm"), ZMax: cfg.GetFloat64("zmax"),
		Key1: getUint64(cfg.Viper, "key1"), Key2: getUint64(cfg.Viper, "key2"),
		Counter1: getUint64(cfg.Viper, "counter1"), Counter2: getUint64(cfg.Viper, "counter2"),
		CacheDir:     cfg.GetString("cachedir"),
		RMin:         cfg.GetFloat64("rmin"),
		RMax:         cfg.GetFloat64("rmax"),
		SliceMaxSize: cfg.GetInt("slice_max_size"),
		Verbosity:    cfg.GetInt("verbosity"),
	}
}
