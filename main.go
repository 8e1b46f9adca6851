package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yumyai/pgcf/internal/config"
	"github.com/yumyai/pgcf/logger"
	"github.com/yumyai/pgcf/pkg/demarcation"
	"github.com/yumyai/pgcf/pkg/fastani"
	"github.com/yumyai/pgcf/pkg/mcl"
)

const VERSION = "0.1.0"

var (
	cfgFile string
	verbose bool

	inDir          string
	outDir         string
	debug          bool
	fastaniCores   int
	kmer           int
	fragLen        int
	minFraction    float64
	inflation      float64
	mclCores       int
	aniThreshold   float64
	keepSingletons bool
	toolTimeout    string
)

var rootCmd = &cobra.Command{
	Use:   "pgcf",
	Short: "pgcf: phylogenomic, core and fingerprint analysis toolkit",
	Long: `pgcf orchestrates comparative-genomics pipelines. The
species_demarcation module assigns input genomes to species clusters
using FastANI and MCL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zapcore.InfoLevel
		if verbose {
			level = zapcore.DebugLevel
		}
		if err := logger.InitLogger(level); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if err := godotenv.Load(); err != nil {
			logger.Warn("No .env found, using local environment")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var speciesDemarcationCmd = &cobra.Command{
	Use:   "species_demarcation",
	Short: "Assign the input genomes to species clusters using FastANI and MCL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg.ApplyEnv()
		applyFlags(cmd, &cfg)

		if cfg.InDir == "" || cfg.OutDir == "" {
			return fmt.Errorf("both --in and --out are required")
		}

		timeout, err := cfg.Timeout()
		if err != nil {
			return err
		}

		params := demarcation.Params{
			InDir:  cfg.InDir,
			OutDir: cfg.OutDir,
			FastANI: fastani.Options{
				Cores:       cfg.FastANI.Cores,
				Kmer:        cfg.FastANI.Kmer,
				FragLen:     cfg.FastANI.FragLen,
				MinFraction: cfg.FastANI.MinFraction,
			},
			ANIThreshold: cfg.ANIThreshold,
			MCL: mcl.Options{
				Cores:     cfg.MCL.Cores,
				Inflation: cfg.MCL.Inflation,
			},
			KeepSingletons: cfg.KeepSingletons,
			Debug:          cfg.Debug,
			ToolTimeout:    timeout,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("Start:", zap.String("Version", VERSION))

		asg, err := demarcation.New(params).AssignSpecies(ctx)
		if err != nil {
			logger.Error("Species demarcation failed", zap.Error(err))
			return err
		}

		logger.Info("Assigned species clusters",
			zap.Int("genomes", asg.Len()),
			zap.Int("clusters", asg.Clusters()))
		return nil
	},
}

// applyFlags overlays flags the user actually set onto the config, so a
// config file value survives unless overridden on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("in") || cfg.InDir == "" {
		cfg.InDir = inDir
	}
	if flags.Changed("out") || cfg.OutDir == "" {
		cfg.OutDir = outDir
	}
	if flags.Changed("debug") {
		cfg.Debug = debug
	}
	if flags.Changed("fastani_cores") {
		cfg.FastANI.Cores = fastaniCores
	}
	if flags.Changed("kmer") {
		cfg.FastANI.Kmer = kmer
	}
	if flags.Changed("fraglen") {
		cfg.FastANI.FragLen = fragLen
	}
	if flags.Changed("minfraction") {
		cfg.FastANI.MinFraction = minFraction
	}
	if flags.Changed("inflation") {
		cfg.MCL.Inflation = inflation
	}
	if flags.Changed("mcl_cores") {
		cfg.MCL.Cores = mclCores
	}
	if flags.Changed("ani") {
		cfg.ANIThreshold = aniThreshold
	}
	if flags.Changed("keep_singletons") {
		cfg.KeepSingletons = keepSingletons
	}
	if flags.Changed("tool_timeout") {
		cfg.ToolTimeout = toolTimeout
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a yaml config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	defaults := config.Default()
	f := speciesDemarcationCmd.Flags()
	f.StringVar(&inDir, "in", "", "Genome fasta directory")
	f.StringVar(&outDir, "out", "", "Output directory")
	f.BoolVar(&debug, "debug", false, "Show external tool output")
	f.IntVar(&fastaniCores, "fastani_cores", defaults.FastANI.Cores, "Number of cores for FastANI")
	f.IntVar(&kmer, "kmer", defaults.FastANI.Kmer, "kmer size (<= 16)")
	f.IntVar(&fragLen, "fraglen", defaults.FastANI.FragLen, "Fragment length")
	f.Float64Var(&minFraction, "minfraction", defaults.FastANI.MinFraction, "Minimum aligned fraction")
	f.Float64Var(&inflation, "inflation", defaults.MCL.Inflation, "Inflation parameter for MCL")
	f.IntVar(&mclCores, "mcl_cores", defaults.MCL.Cores, "Number of cores for MCL")
	f.Float64Var(&aniThreshold, "ani", defaults.ANIThreshold, "ANI threshold for species boundary")
	f.BoolVar(&keepSingletons, "keep_singletons", false, "Emit a singleton cluster per unclustered genome")
	f.StringVar(&toolTimeout, "tool_timeout", "", "Per-tool timeout, e.g. 2h (default: none)")

	rootCmd.AddCommand(speciesDemarcationCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
