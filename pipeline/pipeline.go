package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/neuroaudio/config"
	"github.com/cwbudde/neuroaudio/dsp/mix"
	"github.com/cwbudde/neuroaudio/dsp/pcm"
	"github.com/cwbudde/neuroaudio/dsp/signal"
	"github.com/cwbudde/neuroaudio/encode"
	"github.com/cwbudde/neuroaudio/mapping"
	"github.com/cwbudde/neuroaudio/metrics"
)

// ErrFatalEncoding is wrapped by Run when the encoder fails.
var ErrFatalEncoding = errors.New("pipeline: fatal encoding failure")

// DefaultProgressEvery is the logging cadence in processed readings.
const DefaultProgressEvery = 100

// EncodeFunc matches encode.Encode.
type EncodeFunc func(ctx context.Context, samples []int16, opts encode.Options) ([]byte, error)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics records run statistics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithMetadata sets the tags embedded in the output.
func WithMetadata(md encode.Metadata) Option {
	return func(p *Pipeline) { p.metadata = md }
}

// WithEncoder replaces encode.Encode.
func WithEncoder(fn EncodeFunc) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.encode = fn
		}
	}
}

// WithProgressEvery sets how many processed readings go between progress
// log lines.
func WithProgressEvery(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.progressEvery = n
		}
	}
}

// Pipeline is immutable after New and safe for concurrent Runs.
type Pipeline struct {
	cfg           config.Config
	mapper        *mapping.Mapper
	gen           *signal.Generator
	samples       int
	log           *zap.Logger
	metrics       *metrics.Metrics
	metadata      encode.Metadata
	encode        EncodeFunc
	progressEvery int
}

// New validates cfg and builds a pipeline.
func New(cfg config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mapper, err := cfg.Mapper()
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	gen := signal.NewGenerator(cfg.ProcessorOptions()...)

	p := &Pipeline{
		cfg:           cfg,
		mapper:        mapper,
		gen:           gen,
		samples:       gen.Samples(),
		log:           zap.NewNop(),
		metadata:      encode.DefaultMetadata(),
		encode:        encode.Encode,
		progressEvery: DefaultProgressEvery,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() config.Config {
	return p.cfg
}

// Samples returns the output length in samples.
func (p *Pipeline) Samples() int {
	return p.samples
}

// Run converts thz into one encoded audio file. The order of thz fixes the
// order of Result.Items.
func (p *Pipeline) Run(ctx context.Context, thz []float64) (*Result, error) {
	res, err := p.run(ctx, thz)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		p.metrics.Run(metrics.OutcomeCanceled)
	case err != nil:
		p.metrics.Run(metrics.OutcomeFailed)
	case res.Degraded():
		p.metrics.Run(metrics.OutcomeDegraded)
	default:
		p.metrics.Run(metrics.OutcomeSuccess)
	}
	return res, err
}

func (p *Pipeline) run(ctx context.Context, thz []float64) (*Result, error) {
	p.log.Info("run started",
		zap.Int("frequencies", len(thz)),
		zap.Int("samples", p.samples),
		zap.Stringer("policy", p.cfg.MappingPolicy),
		zap.Stringer("format", p.cfg.OutputFormat),
	)

	items := make([]ItemResult, len(thz))
	start := time.Now()
	acc, err := p.synthesize(ctx, thz, items)
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveStage(metrics.StageSynthesize, start)

	processed := acc.Count()
	res := &Result{
		FrequenciesProcessed: processed,
		RejectedCount:        len(thz) - processed,
		Items:                items,
	}
	p.metrics.Processed(processed)
	p.log.Info("synthesis complete",
		zap.Int("processed", processed),
		zap.Int("rejected", res.RejectedCount),
		zap.Duration("elapsed", time.Since(start)),
	)
	if res.Degraded() {
		p.log.Warn("no valid frequencies, output is silence", zap.Int("inputs", len(thz)))
	}

	start = time.Now()
	norm, err := pcm.Normalize(acc.Signal(), p.cfg.TargetPeak)
	if err != nil {
		return nil, fmt.Errorf("pipeline: normalize: %w", err)
	}
	p.metrics.ObserveStage(metrics.StageNormalize, start)
	res.PCM = norm.Samples
	res.Peak = norm.Peak
	res.Gain = norm.Gain
	res.Scaled = norm.Scaled
	if norm.Scaled {
		p.log.Info("composite rescaled",
			zap.Float64("peak", norm.Peak),
			zap.Float64("gain", norm.Gain),
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	start = time.Now()
	opts := p.cfg.EncodeOptions(p.metadata)
	data, err := p.encode(ctx, norm.Samples, opts)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, fmt.Errorf("pipeline: %w", cerr)
		}
		p.log.Error("encoding failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFatalEncoding, err)
	}
	p.metrics.ObserveStage(metrics.StageEncode, start)
	p.metrics.Encoded(len(data), norm.Peak)

	res.Audio = EncodedAudio{
		Data:       data,
		Format:     opts.Format,
		SampleRate: opts.SampleRate,
		Samples:    len(norm.Samples),
		Metadata:   opts.Metadata,
	}
	p.log.Info("run complete",
		zap.Int("bytes", len(data)),
		zap.Duration("encode", time.Since(start)),
	)
	return res, nil
}

// synthesize maps and renders every reading into one accumulator. Workers
// own contiguous chunks and their own partial sums, which are merged in
// chunk order so a fixed worker count always yields the same composite.
func (p *Pipeline) synthesize(ctx context.Context, thz []float64, items []ItemResult) (*mix.Accumulator, error) {
	workers := p.workers(len(thz))
	if workers == 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		return mix.NewAccumulator(p.samples), nil
	}

	chunk := (len(thz) + workers - 1) / workers
	partials := make([]*mix.Accumulator, workers)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(thz))
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			acc := mix.NewAccumulator(p.samples)
			scratch := make([]float64, p.samples)
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				items[i] = p.process(i, thz[i], acc, scratch)
				if n := done.Add(1); n%int64(p.progressEvery) == 0 {
					p.log.Info("progress",
						zap.Int64("done", n),
						zap.Int("total", len(thz)),
					)
				}
			}
			partials[w] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	total := partials[0]
	for _, part := range partials[1:] {
		if err := total.Merge(part); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
	}
	return total, nil
}

func (p *Pipeline) workers(items int) int {
	return p.cfg.WorkerCount(items)
}

func (p *Pipeline) process(index int, raw float64, acc *mix.Accumulator, scratch []float64) ItemResult {
	item := ItemResult{Index: index, RawTHz: raw}

	f, err := p.mapper.Map(raw)
	if err == nil {
		item.Frequency = f
		if err = p.gen.ToneInto(scratch, f.Hz, p.cfg.DefaultVolumeDb); err == nil {
			err = acc.Add(scratch)
		}
		if err != nil {
			err = mapping.Reject(raw, err)
		}
	}
	if err != nil {
		item.Err = err
		reason := item.Reason()
		p.metrics.Rejected(string(reason))
		p.log.Warn("frequency rejected",
			zap.Int("index", index),
			zap.Float64("thz", raw),
			zap.String("reason", string(reason)),
			zap.Error(err),
		)
		return item
	}

	if f.Adjusted {
		p.log.Debug("frequency adjusted into band",
			zap.Int("index", index),
			zap.Float64("thz", raw),
			zap.Float64("hz", f.Hz),
		)
	}
	return item
}
