// renderer ray traces a scene description into an image.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"glint/framebuffer"
	"glint/imagesink"
	"glint/render"
	"glint/scenepack"

	"cloud.google.com/go/profiler"
	"cloud.google.com/go/storage"
	"contrib.go.opencensus.io/exporter/stackdriver"
	cloudtrace "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"github.com/golang/glog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	googleopt "google.golang.org/api/option"
)

var (
	sceneFile = flag.String("scene", "", "YAML or JSON scene description.  If empty, the built-in example scene is rendered.")
	cols      = flag.Int("cols", 0, "Override the camera's output columns.")
	rows      = flag.Int("rows", 0, "Override the camera's output rows.")

	outputFile   = flag.String("output-file", "scene.png", "Output image file, or object name when -output-bucket is set.")
	outputFormat = flag.String("output-format", "", "Output format (png or raw).  Defaults to the output file extension.")
	outputBucket = flag.String("output-bucket", "", "If set, upload the image to this GCS bucket instead of writing a local file.")

	gcsCredentials = flag.String("gcs-credentials", "", "Service account key file for GCS.  Application Default Credentials are used if empty.")

	workers = flag.Int("workers", render.DefaultWorkers, "Number of rows rendered concurrently.")
	timeout = flag.Duration("timeout", 0, "Abandon the render after this long.  Zero means no limit.")

	cpuprofile      = flag.String("cpu-profile", "", "write cpu profile to `file`")
	memprofile      = flag.String("mem-profile", "", "write memory profile to `file`")
	enableProfiling = flag.Bool("enable-profiling", false, "Enable Cloud Profiler?")

	monitoring           = flag.Bool("monitoring", false, "Enable monitoring?")
	monitoringProject    = flag.String("monitoring-project", "", "Override project used for monitoring integration.  If not specified, the project associated with Application Default Credentials is used.")
	monitoringTraceRatio = flag.Float64("monitoring-trace-ratio", 1.0, "What ratio of traces should be exported?")
)

const (
	defaultCols = 800
	defaultRows = 600
)

func main() {
	flag.Parse()
	defer glog.Flush()

	glog.CopyStandardLogTo("INFO")

	glog.Infof("flags:")
	flag.VisitAll(func(f *flag.Flag) {
		glog.Infof("%s: %v", f.Name, f.Value)
	})

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			glog.Fatalf("Could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			glog.Fatalf("Could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	if *enableProfiling {
		if err := profiler.Start(profiler.Config{
			Service:        "glint-renderer",
			ServiceVersion: "0.0.1",
			ProjectID:      *monitoringProject,
		}); err != nil {
			glog.Fatalf("Error initializing profiler: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		signalCh := make(chan os.Signal, 1)
		signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
		<-signalCh
		glog.Infof("Interrupted, abandoning render")
		cancel()
	}()

	if *monitoring {
		shutdown, err := installMonitoring(ctx)
		if err != nil {
			glog.Fatalf("Failed to install monitoring: %v", err)
		}
		defer shutdown()
	}

	if err := do(ctx); err != nil {
		glog.Errorf("Error: %v", err)
		glog.Flush()
		os.Exit(1)
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			glog.Fatalf("Could not create memory profile: %v", err)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			glog.Fatalf("Could not write memory profile: %v", err)
		}
	}
}

func installMonitoring(ctx context.Context) (func(), error) {
	traceOpts := []cloudtrace.Option{}
	if *monitoringProject != "" {
		traceOpts = append(traceOpts, cloudtrace.WithProjectID(*monitoringProject))
	}

	_, traceShutdown, err := cloudtrace.InstallNewPipeline(traceOpts, sdktrace.WithSampler(sdktrace.TraceIDRatioBased(*monitoringTraceRatio)))
	if err != nil {
		return nil, fmt.Errorf("while installing Cloud Trace OpenTelemetry trace pipeline: %w", err)
	}

	if err := render.RegisterMetrics(); err != nil {
		traceShutdown()
		return nil, fmt.Errorf("while registering render metrics: %w", err)
	}

	exporter, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:         *monitoringProject,
		MetricPrefix:      "glint",
		ReportingInterval: 60 * time.Second,
	})
	if err != nil {
		traceShutdown()
		return nil, fmt.Errorf("while creating Stackdriver metrics exporter: %w", err)
	}
	if err := exporter.StartMetricsExporter(); err != nil {
		traceShutdown()
		return nil, fmt.Errorf("while starting Stackdriver metrics exporter: %w", err)
	}

	return func() {
		exporter.Flush()
		exporter.StopMetricsExporter()
		traceShutdown()
	}, nil
}

func do(ctx context.Context) error {
	format, err := imagesink.ParseFormat(*outputFormat, *outputFile)
	if err != nil {
		return err
	}

	// Check that the output file doesn't exist before rendering, to avoid
	// throwing away the render.
	if *outputBucket == "" {
		if _, err := os.Stat(*outputFile); err == nil {
			return fmt.Errorf("output file %q already exists", *outputFile)
		}
	}

	var desc *scenepack.File
	if *sceneFile == "" {
		glog.Infof("Building example scene")
		desc = scenepack.Example(defaultCols, defaultRows)
	} else {
		glog.Infof("Loading scene from %s", *sceneFile)
		desc, err = scenepack.ReadFile(ctx, *sceneFile)
		if err != nil {
			return fmt.Errorf("while loading scene: %w", err)
		}
	}
	if *cols > 0 {
		desc.Camera.Cols = *cols
	}
	if *rows > 0 {
		desc.Camera.Rows = *rows
	}

	pack, err := desc.Build()
	if err != nil {
		return fmt.Errorf("while building scene: %w", err)
	}

	options := &render.Options{
		Workers: *workers,
		Timeout: *timeout,
	}

	progress := func(cur, tot int) {
		fmt.Fprintf(os.Stderr, "\r%d/%d %d%%", cur, tot, 100*cur/tot)
	}

	glog.Infof("Rendering %d objects, %d lights from %v", len(pack.Scene.Objects), len(pack.Scene.Lights), pack.Camera.Origin())
	start := time.Now()
	fb, err := render.RenderScene(ctx, pack.Scene, pack.Camera, options, progress)
	fmt.Fprintf(os.Stderr, "\n")
	if err != nil {
		return fmt.Errorf("while rendering: %w", err)
	}
	glog.Infof("Rendered %dx%d in %v", fb.Cols, fb.Rows, time.Since(start))

	if *outputBucket != "" {
		return upload(ctx, fb, format)
	}

	glog.Infof("Writing %s", *outputFile)
	if err := imagesink.WriteFile(*outputFile, fb, format); err != nil {
		return fmt.Errorf("while writing output: %w", err)
	}
	return nil
}

func upload(ctx context.Context, fb *framebuffer.Framebuffer, format imagesink.Format) error {
	opts := []googleopt.ClientOption{}
	if *gcsCredentials != "" {
		opts = append(opts, googleopt.WithCredentialsFile(*gcsCredentials))
	}

	gcs, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("while creating GCS client: %w", err)
	}
	defer gcs.Close()

	object := strings.TrimPrefix(*outputFile, "/")
	glog.Infof("Uploading gs://%s/%s", *outputBucket, object)
	if err := imagesink.UploadGCS(ctx, gcs, *outputBucket, object, fb, format); err != nil {
		return fmt.Errorf("while uploading output: %w", err)
	}
	return nil
}
