// Command neuroaudio turns a column of THz readings into a fixed-length
// multi-tone audio file and inspects the files it produces.
//
// Usage:
//
//	neuroaudio [global flags] generate <input.xlsx|input.csv> [flags]
//	neuroaudio [global flags] inspect <file.wav|file.mp3>
//
// Examples:
//
//	neuroaudio generate readings.xlsx --company "Acme Perfumes"
//	neuroaudio generate readings.csv --format wav --policy wrap -o out.wav
//	neuroaudio --config neuroaudio.yaml generate readings.xlsx --metrics-file run.prom
//	neuroaudio inspect output/Acme_Perfumes/NeuroAudio_Acme_Perfumes_1A2B3C4D.mp3
//
// Settings come from defaults, the optional --config file and NEUROAUDIO_*
// environment variables, in increasing precedence; command flags override
// all three. generate exits with status 2 when no reading produced a tone.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cwbudde/neuroaudio/config"
	"github.com/cwbudde/neuroaudio/internal/cli"
)

var version = "0.1.0"

// errDegraded marks a run that produced only silence.
var errDegraded = errors.New("no valid frequencies; output is silence")

type versionFlag bool

// BeforeReset prints the version and exits before any command runs.
func (versionFlag) BeforeReset(k *kong.Kong, vars kong.Vars) error {
	cli.PrintVersion(vars["version"])
	k.Exit(0)
	return nil
}

// CLI defines the command-line interface.
type CLI struct {
	Version  versionFlag `short:"v" help:"Show version information."`
	Config   string      `short:"c" type:"path" help:"Config file (YAML, TOML or JSON)."`
	LogLevel string      `default:"info" enum:"debug,info,warn,error" help:"Log level."`

	Generate GenerateCmd `cmd:"" help:"Convert a THz column into an audio file."`
	Inspect  InspectCmd  `cmd:"" help:"Describe an encoded audio file."`
}

// app is bound into every command's Run method.
type app struct {
	ctx    context.Context
	log    *zap.Logger
	config config.Config
}

func main() {
	os.Exit(run())
}

func run() int {
	var c CLI
	kctx := kong.Parse(&c,
		kong.Name("neuroaudio"),
		kong.Description("THz to audio tone synthesizer"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	logger, err := newLogger(c.LogLevel)
	if err != nil {
		cli.PrintError(err.Error())
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load(c.Config)
	if err != nil {
		cli.PrintError(err.Error())
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = kctx.Run(&app{ctx: ctx, log: logger, config: cfg})
	switch {
	case errors.Is(err, errDegraded):
		cli.PrintWarning(err.Error())
		return 2
	case err != nil:
		cli.PrintError(err.Error())
		return 1
	}
	return 0
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
