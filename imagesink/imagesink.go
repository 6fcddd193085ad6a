// Package imagesink encodes finished framebuffers and writes them to local
// disk or Google Cloud Storage.
package imagesink

import (
	"context"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"glint/framebuffer"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Format string

const (
	FormatPNG Format = "png"
	FormatRaw Format = "raw"
)

// ParseFormat accepts a format name.  An empty name picks the format from the
// file extension of name, defaulting to PNG.
func ParseFormat(format, name string) (Format, error) {
	if format == "" {
		if strings.EqualFold(filepath.Ext(name), ".raw") {
			return FormatRaw, nil
		}
		return FormatPNG, nil
	}

	switch Format(strings.ToLower(format)) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatRaw:
		return FormatRaw, nil
	}
	return "", fmt.Errorf("unknown output format %q", format)
}

func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "application/octet-stream"
}

func Encode(w io.Writer, fb *framebuffer.Framebuffer, format Format) error {
	switch format {
	case FormatPNG:
		if err := png.Encode(w, fb.Image()); err != nil {
			return fmt.Errorf("while encoding png: %w", err)
		}
		return nil
	case FormatRaw:
		return framebuffer.WriteRaw(fb, w)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// WriteFile refuses to overwrite an existing file.
func WriteFile(name string, fb *framebuffer.Framebuffer, format Format) error {
	out, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("while opening output file: %w", err)
	}

	if err := Encode(out, fb, format); err != nil {
		out.Close()
		return fmt.Errorf("while writing %s: %w", name, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("while closing output file: %w", err)
	}
	return nil
}

// UploadGCS writes the encoded image to gs://bucket/object.  It refuses to
// replace an existing object.
func UploadGCS(ctx context.Context, gcs *storage.Client, bucket, object string, fb *framebuffer.Framebuffer, format Format) error {
	tracer := otel.Tracer("glint/imagesink")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "imagesink.UploadGCS")
	defer span.End()

	span.SetAttributes(attribute.String("bucket", bucket), attribute.String("object", object))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := gcs.Bucket(bucket).Object(object).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = format.ContentType()

	if err := Encode(w, fb, format); err != nil {
		// Cancelling the context before Close abandons the upload.
		cancel()
		w.Close()
		err := fmt.Errorf("while writing object: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := w.Close(); err != nil {
		err := fmt.Errorf("while closing object writer: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
