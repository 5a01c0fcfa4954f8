// -- cmd/demo.go --
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/marquee/internal/marquee"
	"github.com/xkilldash9x/marquee/internal/observability"
	"github.com/xkilldash9x/marquee/internal/render"
)

var (
	demoDirection string
	demoDuration  time.Duration
	demoBrowser   bool
)

// demoCmd runs the engine for a bounded duration and streams its events to
// stdout as JSON lines.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the marquee engine against an in-memory surface or a headless browser.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runDemo(ctx)
	},
}

func init() {
	demoCmd.Flags().StringVar(&demoDirection, "direction", "", "scroll direction (left, right, up, down)")
	demoCmd.Flags().DurationVar(&demoDuration, "duration", 0, "how long to run the demo")
	demoCmd.Flags().BoolVar(&demoBrowser, "browser", false, "drive a headless browser instead of the in-memory surface")
	rootCmd.AddCommand(demoCmd)
}

func runDemo(ctx context.Context) error {
	logger := observability.GetLogger()

	duration := appCfg.Demo.Duration
	if demoDuration > 0 {
		duration = demoDuration
	}
	direction := marquee.Direction(appCfg.Engine.Direction)
	if demoDirection != "" {
		direction = marquee.Direction(demoDirection)
	}

	renderer, container, cleanup, err := buildDemoSurface(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := marquee.Options{
		Data:             appCfg.Demo.Items,
		Direction:        direction,
		Step:             appCfg.Engine.Step,
		StepWait:         appCfg.Engine.StepWait,
		Rows:             appCfg.Engine.Rows,
		Cols:             appCfg.Engine.Cols,
		HoverStop:        appCfg.Engine.HoverStop,
		MinCountToScroll: appCfg.Engine.MinCountToScroll,
		ContentSize:      appCfg.Engine.ContentSize,
		ContainerSize:    appCfg.Engine.ContainerSize,
		OnEvent: func(name string, payload marquee.EventPayload) {
			fmt.Fprintf(os.Stdout, "{%q:%q,\"payload\":%s}\n", "event", name, payload.JSON())
		},
	}

	engine, err := marquee.NewEngine(renderer, render.NewTimerScheduler(), container, opts, marquee.NewTransformCache(), logger)
	if err != nil {
		return err
	}
	defer engine.Destroy()

	if err := engine.Start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-time.After(duration):
		}
		engine.Stop()
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if !engine.IsRunning() {
					return nil
				}
				logger.Info("Marquee position", zap.Float64("position", engine.Position()))
			}
		}
	})
	if err := g.Wait(); err != nil {
		return err
	}

	metrics := engine.Metrics()
	stats := engine.CacheStats()
	logger.Info("Demo finished",
		zap.Duration("transform_generation", metrics.TransformGenerationTime),
		zap.Duration("batch_update", metrics.BatchUpdateTime),
		zap.Int64("errors", metrics.ErrorCount),
		zap.Int64("fallbacks", metrics.FallbackCount),
		zap.Int("cache_entries", stats.Entries),
		zap.Int64("cache_hits", stats.Hits),
		zap.Int64("cache_misses", stats.Misses))
	return nil
}

// buildDemoSurface selects the render surface: the in-memory fake by
// default, or a headless browser tab when --browser is set.
func buildDemoSurface(ctx context.Context, logger *zap.Logger) (render.Renderer, render.Handle, func(), error) {
	if !demoBrowser && !appCfg.Demo.Browser {
		mem := render.NewMemDOM(logger)
		return mem, mem.NewContainer(), func() {}, nil
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	cleanup := func() {
		cancelBrowser()
		cancelAlloc()
	}

	page := fmt.Sprintf(`data:text/html,<html><body><div id="marquee" style="position:relative;overflow:hidden;width:%gpx;height:60px"></div></body></html>`,
		appCfg.Engine.ContainerSize)
	if err := chromedp.Run(browserCtx, chromedp.Navigate(page)); err != nil {
		cleanup()
		return nil, render.NoHandle, nil, fmt.Errorf("failed to open demo page: %w", err)
	}

	renderer, container := render.NewCDPRenderer(browserCtx, logger, "#marquee")
	return renderer, container, cleanup, nil
}
