// Package pipeline orchestrates a full analysis run: price resolution,
// validation, caching, total-return computation, metrics, benchmark beta,
// description and composition lookup, one instrument at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wonny/fundlens/internal/analysis"
	"github.com/wonny/fundlens/internal/cache"
	"github.com/wonny/fundlens/internal/compose"
	"github.com/wonny/fundlens/internal/describe"
	"github.com/wonny/fundlens/internal/registry"
	"github.com/wonny/fundlens/internal/series"
	"github.com/wonny/fundlens/internal/sources"
	"github.com/wonny/fundlens/internal/validate"
	"github.com/wonny/fundlens/pkg/config"
	"github.com/wonny/fundlens/pkg/date"
	"github.com/wonny/fundlens/pkg/logger"
)

// Result is everything the pipeline produced for one instrument. Err is set
// when the instrument failed; the other fields are then zero.
type Result struct {
	Fund        registry.Fund              `json:"fund"`
	Series      *series.Series             `json:"-"`
	TotalReturn analysis.TotalReturnSeries `json:"-"`
	Report      *validate.Report           `json:"validation,omitempty"`
	Metrics     analysis.Metrics           `json:"metrics"`
	Description string                     `json:"description,omitempty"`
	DescSource  string                     `json:"description_source,omitempty"`
	Composition *compose.Composition       `json:"composition,omitempty"`
	Err         error                      `json:"-"`
}

// OK reports whether the instrument produced usable data.
func (r Result) OK() bool { return r.Err == nil }

// Pipeline wires the stages together. All dependencies are injected; the
// describer and composer may be nil, which skips those stages.
type Pipeline struct {
	resolver  *sources.Resolver
	cache     *cache.Manager
	validator *validate.Validator
	calc      *analysis.Calculator
	describer *describe.Describer
	composer  *compose.Composer
	cfg       config.AnalysisConfig
	logger    *logger.Logger
}

// Options carries the pipeline's dependencies.
type Options struct {
	Resolver  *sources.Resolver
	Cache     *cache.Manager
	Validator *validate.Validator
	Describer *describe.Describer
	Composer  *compose.Composer
	Analysis  config.AnalysisConfig
}

func New(opts Options, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Analysis.YearsBack <= 0 {
		opts.Analysis.YearsBack = 5
	}
	if opts.Validator == nil {
		opts.Validator = validate.New(validate.DefaultThresholds(), log)
	}
	return &Pipeline{
		resolver:  opts.Resolver,
		cache:     opts.Cache,
		validator: opts.Validator,
		calc:      analysis.NewCalculator(log),
		describer: opts.Describer,
		composer:  opts.Composer,
		cfg:       opts.Analysis,
		logger:    log.WithComponent("pipeline"),
	}
}

// Run processes every fund sequentially. A failing instrument is logged and
// reported through its Result; it never aborts the run. Every log line of one
// run shares a run_id.
func (p *Pipeline) Run(ctx context.Context, funds []registry.Fund) []Result {
	runID := uuid.NewString()
	log := p.logger.WithField("run_id", runID)

	to := date.Today()
	from := to.AddYears(-p.cfg.YearsBack)

	log.WithFields(map[string]interface{}{
		"instruments": len(funds),
		"from":        from.String(),
		"to":          to.String(),
	}).Info("analysis run started")

	results := make([]Result, 0, len(funds))
	for _, fund := range funds {
		if ctx.Err() != nil {
			results = append(results, Result{Fund: fund, Err: ctx.Err()})
			continue
		}

		r := p.processFund(ctx, log, fund, from, to)
		if r.Err != nil {
			log.WithError(r.Err).WithField("instrument", fund.ID()).Warn("instrument failed, continuing")
		}
		results = append(results, r)
	}

	ok := 0
	for _, r := range results {
		if r.OK() {
			ok++
		}
	}
	log.WithFields(map[string]interface{}{
		"succeeded": ok,
		"failed":    len(results) - ok,
	}).Info("analysis run finished")

	return results
}

func (p *Pipeline) processFund(ctx context.Context, log *logger.Logger, fund registry.Fund, from, to date.Date) Result {
	r := Result{Fund: fund}
	inst := sources.Instrument{ISIN: fund.ISIN, Ticker: fund.Ticker, Name: fund.DisplayName()}
	flog := log.WithField("instrument", fund.ID())

	if fund.ISIN != "" && !registry.ChecksumValid(fund.ISIN) {
		flog.Warn("isin checksum does not verify, resolving anyway")
	}

	s, report, err := p.history(ctx, flog, inst, from, to)
	if err != nil {
		r.Err = err
		return r
	}
	r.Series = s
	r.Report = report

	r.TotalReturn = p.calc.TotalReturn(s)
	if r.TotalReturn.Len() < 2 {
		r.Err = fmt.Errorf("instrument %s: series too short for analysis", fund.ID())
		return r
	}
	r.Metrics = analysis.ComputeMetrics(r.TotalReturn)

	p.attachBeta(ctx, flog, &r, inst, from, to)

	if p.describer != nil {
		text, source, err := p.describer.Describe(ctx, inst)
		if err != nil {
			flog.WithError(err).Debug("description lookup failed")
		} else {
			r.Description, r.DescSource = text, source
		}
	}

	if p.composer != nil {
		symbol := fund.Ticker
		if p.describer != nil {
			symbol = p.describer.Ticker(ctx, inst)
		}
		comp, err := p.composer.Compose(ctx, inst, symbol)
		if err != nil {
			flog.WithError(err).Debug("composition lookup failed")
		} else if !comp.Empty() {
			r.Composition = comp
		}
	}

	flog.WithFields(map[string]interface{}{
		"records":      s.Len(),
		"source":       s.Source,
		"total_return": r.Metrics.TotalReturn,
	}).Info("instrument processed")
	return r
}

// history returns the price series for the window, consulting the cache
// first. A fresh fetch is validated and stored together with its report; a
// failed validation is advisory and never discards the data.
func (p *Pipeline) history(ctx context.Context, log *logger.Logger, inst sources.Instrument, from, to date.Date) (*series.Series, *validate.Report, error) {
	if p.cache != nil {
		if s, report, err := p.cache.GetSeries(ctx, inst.ID(), cache.KindHistorical); err == nil {
			log.WithField("records", s.Len()).Debug("cache hit")
			return s.Clip(from, to), report, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			log.WithError(err).Warn("cache read failed")
		}
	}

	s, err := p.resolver.Resolve(ctx, inst, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve %s: %w", inst.ID(), err)
	}

	report := p.validator.Validate(s)
	if !report.Valid() {
		log.WithField("summary", report.Summary()).Warn("series failed validation, using anyway")
	}

	if p.cache != nil {
		if err := p.cache.PutSeries(ctx, inst.ID(), cache.KindHistorical, s, &report); err != nil {
			log.WithError(err).Warn("cache write failed")
		}
	}
	return s, &report, nil
}

// attachBeta fetches the instrument's regional benchmark (cached under its
// own kind) and fills Beta and Benchmark when enough aligned history exists.
func (p *Pipeline) attachBeta(ctx context.Context, log *logger.Logger, r *Result, inst sources.Instrument, from, to date.Date) {
	symbol, name := analysis.BenchmarkFor(inst.ISIN, inst.Ticker)

	bench, err := p.benchmark(ctx, log, symbol, from, to)
	if err != nil {
		log.WithError(err).WithField("benchmark", symbol).Debug("benchmark unavailable")
		return
	}

	benchTR := p.calc.TotalReturn(bench)
	if beta, ok := analysis.Beta(r.TotalReturn, benchTR); ok {
		r.Metrics.Beta = &beta
		r.Metrics.Benchmark = name
	} else {
		log.WithField("benchmark", symbol).Debug("not enough aligned observations for beta")
	}
}

func (p *Pipeline) benchmark(ctx context.Context, log *logger.Logger, symbol string, from, to date.Date) (*series.Series, error) {
	if p.cache != nil {
		if s, _, err := p.cache.GetSeries(ctx, symbol, cache.KindBenchmark); err == nil {
			return s.Clip(from, to), nil
		} else if !errors.Is(err, cache.ErrMiss) {
			log.WithError(err).Warn("benchmark cache read failed")
		}
	}

	s, err := p.resolver.Resolve(ctx, sources.Instrument{Ticker: symbol}, from, to)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.PutSeries(ctx, symbol, cache.KindBenchmark, s, nil); err != nil {
			log.WithError(err).Warn("benchmark cache write failed")
		}
	}
	return s, nil
}

// BuildComparison normalizes the successful results onto one base-100 table.
func BuildComparison(results []Result, opts analysis.CompareOptions) (*analysis.Comparison, error) {
	input := make(map[string]analysis.TotalReturnSeries)
	for _, r := range results {
		if r.OK() && r.TotalReturn.Len() > 0 {
			input[r.Fund.DisplayName()] = r.TotalReturn
		}
	}
	if len(input) == 0 {
		return nil, fmt.Errorf("comparison: no successful results")
	}
	return analysis.BuildComparison(input, opts)
}
