package render

import (
	"context"
	"fmt"
	"time"

	"glint/camera"
	"glint/framebuffer"
	"glint/scene"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultWorkers is the pool size used when Options.Workers is unset.
const DefaultWorkers = 4

type Options struct {
	// Workers bounds the number of rows rendered at once.
	Workers int

	// Timeout aborts the render if it runs longer.  Zero means no limit.
	Timeout time.Duration
}

// ProgressFunction is called with the number of finished rows and the total.
type ProgressFunction func(int, int)

// RowResult is the completion notice for one row.
type RowResult struct {
	Row int
	Err error
}

// RowError reports the row that caused a render to be abandoned.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("while rendering row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// RenderScene renders every pixel of cam's grid against env.
//
// Rows are independent units of work handed to a bounded pool.  Each row is
// rendered into a private buffer and then copied into its own slice of the
// framebuffer, so workers never touch the same bytes.  Every row reports back
// exactly once; the first failed row aborts the render and is returned as a
// *RowError.
func RenderScene(ctx context.Context, env scene.Environment, cam camera.Camera, options *Options, progress ProgressFunction) (*framebuffer.Framebuffer, error) {
	tracer := otel.Tracer("glint/render")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "RenderScene")
	defer span.End()

	workers := DefaultWorkers
	var timeout time.Duration
	if options != nil {
		if options.Workers > 0 {
			workers = options.Workers
		}
		timeout = options.Timeout
	}

	cols, rows := cam.Bounds()
	span.SetAttributes(
		attribute.Int("cols", cols),
		attribute.Int("rows", rows),
		attribute.Int("workers", workers),
	)

	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	fb := framebuffer.New(cols, rows)

	// Buffered so that no worker ever blocks reporting, even after the
	// orchestrator has given up.
	done := make(chan RowResult, rows)

	eg, egCtx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(workers))

	eg.Go(func() error {
		for y := 0; y < rows; y++ {
			y := y

			if err := sem.Acquire(egCtx, 1); err != nil {
				return fmt.Errorf("while acquiring worker slot for row %d: %w", y, err)
			}

			eg.Go(func() error {
				defer sem.Release(1)
				start := time.Now()
				err := renderRow(egCtx, env, cam, fb, y)
				recordRow(egCtx, start, err)
				done <- RowResult{Row: y, Err: err}
				return nil
			})
		}
		return nil
	})

	fail := func(err error) (*framebuffer.Framebuffer, error) {
		cancel()
		eg.Wait()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	for finished := 0; finished < rows; finished++ {
		select {
		case res := <-done:
			if res.Err != nil && ctx.Err() != nil {
				// The row only stopped because the render was already abandoned.
				return fail(fmt.Errorf("render abandoned after %d/%d rows: %w", finished, rows, ctx.Err()))
			}
			if res.Err != nil {
				glog.Errorf("Row %d failed, abandoning render: %v", res.Row, res.Err)
				return fail(&RowError{Row: res.Row, Err: res.Err})
			}
			glog.V(2).Infof("Row %d done (%d/%d)", res.Row, finished+1, rows)
			if progress != nil {
				progress(finished+1, rows)
			}
		case <-ctx.Done():
			return fail(fmt.Errorf("render abandoned after %d/%d rows: %w", finished, rows, ctx.Err()))
		}
	}

	if err := eg.Wait(); err != nil {
		return fail(fmt.Errorf("while waiting for workers: %w", err))
	}

	glog.V(1).Infof("Rendered %dx%d with %d workers", cols, rows, workers)
	span.SetStatus(codes.Ok, "")
	return fb, nil
}

// renderRow fills row y.  Panics from the camera or the scene are turned into
// errors so the row still reports back.
func renderRow(ctx context.Context, env scene.Environment, cam camera.Camera, fb *framebuffer.Framebuffer, y int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	row := make([]byte, fb.Stride())
	for x := 0; x < fb.Cols; x++ {
		px := env.Trace(cam.Spawn(x, y)).RGBA()
		copy(row[x*framebuffer.Channels:], px[:])
	}

	fb.Paste(y, row)
	return nil
}
