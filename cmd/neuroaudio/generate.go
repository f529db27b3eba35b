package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cwbudde/neuroaudio/config"
	"github.com/cwbudde/neuroaudio/encode"
	"github.com/cwbudde/neuroaudio/input"
	"github.com/cwbudde/neuroaudio/internal/cli"
	"github.com/cwbudde/neuroaudio/mapping"
	"github.com/cwbudde/neuroaudio/metrics"
	"github.com/cwbudde/neuroaudio/pipeline"
	"github.com/cwbudde/neuroaudio/stats/summary"
)

const defaultCompany = "Client"

// GenerateCmd reads a spreadsheet and writes the synthesized audio file.
type GenerateCmd struct {
	Input       string  `arg:"" type:"existingfile" help:"Spreadsheet (.xlsx or .csv) with a THz column."`
	Output      string  `short:"o" type:"path" help:"Output file. Defaults to output/<company>/NeuroAudio_<company>_<id>.<ext>."`
	Company     string  `default:"Client" help:"Company name used in the file name."`
	Format      string  `help:"Output format: compressed (mp3) or uncompressed (wav)."`
	Policy      string  `help:"Out-of-band mapping policy: clamp or wrap."`
	Duration    float64 `help:"Output length in seconds."`
	Workers     int     `default:"-1" help:"Synthesis workers; 0 means one per CPU up to 8, -1 keeps the configured value."`
	MetricsFile string  `type:"path" help:"Write Prometheus metrics to this textfile."`
}

// options turns the flags into config overrides.
func (g *GenerateCmd) options() ([]config.Option, error) {
	var opts []config.Option
	if g.Format != "" {
		f, err := encode.ParseFormat(g.Format)
		if err != nil {
			return nil, err
		}
		opts = append(opts, config.WithFormat(f))
	}
	if g.Policy != "" {
		p, err := mapping.ParsePolicy(g.Policy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, config.WithPolicy(p))
	}
	if g.Duration != 0 {
		opts = append(opts, config.WithDuration(g.Duration))
	}
	if g.Workers >= 0 {
		opts = append(opts, config.WithWorkers(g.Workers))
	}
	return opts, nil
}

func (g *GenerateCmd) Run(a *app) error {
	opts, err := g.options()
	if err != nil {
		return err
	}
	cfg := a.config
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if !input.IsSupported(g.Input) {
		return fmt.Errorf("%w: %s (want .xlsx or .csv)", input.ErrUnsupported, g.Input)
	}
	col, err := input.ReadFile(g.Input, cfg.RequiredColumn)
	if err != nil {
		return err
	}
	printInput(g.Input, col)

	company := input.SanitizeName(g.Company)
	if company == "" {
		company = defaultCompany
	}
	id := runID()
	out := g.Output
	if out == "" {
		out = defaultOutputPath("output", company, id, cfg.OutputFormat)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	reg := prometheus.NewRegistry()
	p, err := pipeline.New(cfg,
		pipeline.WithLogger(a.log.With(zap.String("run", id))),
		pipeline.WithMetrics(metrics.New(reg)),
		pipeline.WithMetadata(encode.DefaultMetadata()),
	)
	if err != nil {
		return err
	}

	res, runErr := p.Run(a.ctx, col.Values)
	if g.MetricsFile != "" {
		if err := metrics.WriteTextfile(g.MetricsFile, reg); err != nil {
			a.log.Warn("metrics textfile not written", zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	if err := encode.WriteFile(out, res.Audio.Data); err != nil {
		return err
	}
	printResult(out, id, res)

	if res.Degraded() {
		return errDegraded
	}
	return nil
}

// runID is the short upper-case identifier used in output names.
func runID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

func defaultOutputPath(root, company, id string, f encode.Format) string {
	name := fmt.Sprintf("NeuroAudio_%s_%s%s", company, id, f.Extension())
	return filepath.Join(root, company, name)
}

func printInput(path string, col *input.Column) {
	s := summary.Describe(col.Values)
	fields := []cli.Field{
		cli.F("File", "%s", filepath.Base(path)),
		cli.F("Column", "%s", col.Name),
		cli.F("Readings", "%d (%d blank, %d non-numeric)", len(col.Values), col.Blank, col.Invalid),
	}
	if s.Count > 0 {
		fields = append(fields,
			cli.F("Min / Max", "%.6f / %.6f THz", s.Min, s.Max),
			cli.F("Mean / Median", "%.6f / %.6f THz", s.Mean, s.Median),
			cli.F("Std dev", "%.6f THz", s.StdDev),
			cli.F("Q1 / Q3", "%.6f / %.6f THz", s.Q1, s.Q3),
		)
	}
	cli.PrintSection(os.Stdout, "Input", fields)
}

func printResult(path, id string, res *pipeline.Result) {
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}

	fields := []cli.Field{
		cli.F("ID", "%s", id),
		cli.F("File", "%s", path),
		cli.F("Format", "%s, %d Hz", res.Audio.Format.MIMEType(), res.Audio.SampleRate),
		cli.F("Duration", "%s", res.Audio.Duration()),
		cli.F("Size", "%s", input.FormatSize(size)),
		cli.F("Frequencies", "%d processed, %d rejected", res.FrequenciesProcessed, res.RejectedCount),
		cli.F("Peak", "%.0f (gain %.4f, rescaled %v)", res.Peak, res.Gain, res.Scaled),
	}
	for reason, n := range res.Rejections() {
		fields = append(fields, cli.F("Rejected "+string(reason), "%d", n))
	}
	cli.PrintSection(os.Stdout, "Output", fields)
}
