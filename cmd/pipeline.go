package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fakeyudi/statusline/internal/collector"
	"github.com/fakeyudi/statusline/internal/config"
	"github.com/fakeyudi/statusline/internal/hook"
	"github.com/fakeyudi/statusline/internal/metrics"
	"github.com/fakeyudi/statusline/internal/render"
	"github.com/fakeyudi/statusline/internal/status"
)

// commandRunner runs git and the usage tool; nil means real subprocesses.
var commandRunner collector.Runner

// clock is the time source for window metrics.
var clock = time.Now

// pipeline wires collectors, the calculator and renderers for one config.
type pipeline struct {
	cfg        config.Config
	transcript *collector.TranscriptReader
}

func newPipeline(c config.Config) *pipeline {
	t := &collector.TranscriptReader{}
	if dir, err := hook.ClaudeDir(c.ClaudeDir); err == nil {
		t.ProjectsDir = filepath.Join(dir, "projects")
	}
	return &pipeline{cfg: c, transcript: t}
}

// collectors returns the sources in the order they run: branch, stats,
// usage tool, transcript.
func (p *pipeline) collectors() []collector.Collector {
	return []collector.Collector{
		&collector.BranchCollector{Runner: commandRunner, Timeout: p.cfg.GitTimeout()},
		&collector.StatsCollector{IgnorePatterns: p.cfg.IgnorePatterns, Runner: commandRunner, Timeout: p.cfg.GitTimeout()},
		&collector.UsageCollector{Commands: p.cfg.UsageCommands, Runner: commandRunner, Timeout: p.cfg.UsageTimeout()},
		p.transcript,
	}
}

// collect runs every collector and logs their warnings.
func (p *pipeline) collect(ctx context.Context, sess status.Session) collector.Result {
	if ctx == nil {
		ctx = context.Background()
	}
	res := collector.CollectAll(ctx, sess, p.collectors())
	for _, w := range res.Warnings {
		logger.Debug("collector warning", "warning", w)
	}
	return res
}

// view derives metrics from a collection result.
func (p *pipeline) view(sess status.Session, res collector.Result) render.View {
	calc := metrics.Calculator{PlanLimit: p.cfg.PlanLimit, ContextLimits: p.cfg.ContextLimits, Now: clock}
	return render.View{
		Session: sess,
		Git:     res.GitState(),
		Usage:   res.Usage,
		Context: res.Context,
		Metrics: calc.Compute(sess.Model, res.Usage, res.Context),
	}
}

func (p *pipeline) run(ctx context.Context, sess status.Session) render.View {
	return p.view(sess, p.collect(ctx, sess))
}

// renderer picks the output format: the flag, else the configured default.
func (p *pipeline) renderer(format string, noColor bool) (render.Renderer, error) {
	if format == "" {
		format = p.cfg.DefaultFormat
	}
	switch format {
	case "", "ansi":
		return p.ansi(noColor), nil
	case "json":
		return &render.JSONRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want ansi or json)", format)
	}
}

func (p *pipeline) ansi(noColor bool) *render.ANSIRenderer {
	home, _ := os.UserHomeDir()
	color := !noColor && !p.cfg.NoColor && os.Getenv("NO_COLOR") == ""
	return &render.ANSIRenderer{Palette: render.NewPalette(color), HomeDir: home}
}
