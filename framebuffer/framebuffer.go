package framebuffer

import (
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Channels is the number of bytes per pixel: R, G, B, A.
const Channels = 4

const dataLayoutVersion = 1

// MaxPixels caps the dimensions ReadRaw will accept (1 GiB of pixel data).
const MaxPixels = 1 << 28

// Framebuffer is a row-major RGBA8 image, top row first.
type Framebuffer struct {
	Cols, Rows int
	Pix        []byte
}

func New(cols, rows int) *Framebuffer {
	return &Framebuffer{
		Cols: cols,
		Rows: rows,
		Pix:  make([]byte, cols*rows*Channels),
	}
}

func (f *Framebuffer) Stride() int {
	return f.Cols * Channels
}

// Row returns the bytes of row r.  The slice's capacity ends at the row
// boundary, so appending to it can't spill into the next row.  Distinct rows
// never overlap and may be written concurrently.
func (f *Framebuffer) Row(r int) []byte {
	if r < 0 || r >= f.Rows {
		panic(fmt.Sprintf("framebuffer: row %d outside [0, %d)", r, f.Rows))
	}
	lo := r * f.Stride()
	hi := lo + f.Stride()
	return f.Pix[lo:hi:hi]
}

// Paste copies a full row of pixels into row r.
func (f *Framebuffer) Paste(r int, src []byte) {
	dst := f.Row(r)
	if len(src) != len(dst) {
		panic(fmt.Sprintf("framebuffer: pasting %d bytes into row of %d", len(src), len(dst)))
	}
	copy(dst, src)
}

func (f *Framebuffer) At(c, r int) [Channels]byte {
	idx := r*f.Stride() + c*Channels
	return [Channels]byte{f.Pix[idx], f.Pix[idx+1], f.Pix[idx+2], f.Pix[idx+3]}
}

// Image wraps the pixels as an image.RGBA without copying.  The channel
// values are already display values with opaque alpha, so no
// premultiplication is needed.
func (f *Framebuffer) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Stride(),
		Rect:   image.Rect(0, 0, f.Cols, f.Rows),
	}
}

// WriteRaw writes f as an 8-byte little-endian header length, a protobuf
// header, and zlib-compressed pixels.
func WriteRaw(f *Framebuffer, w io.Writer) error {
	hdr, err := structpb.NewStruct(map[string]interface{}{
		"cols":              f.Cols,
		"rows":              f.Rows,
		"channels":          Channels,
		"dataLayoutVersion": dataLayoutVersion,
	})
	if err != nil {
		return fmt.Errorf("while building header: %w", err)
	}

	hdrBytes, err := proto.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("while marshaling header: %w", err)
	}

	headerLengthBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(headerLengthBytes, uint64(len(hdrBytes)))
	if _, err := w.Write(headerLengthBytes); err != nil {
		return fmt.Errorf("while writing header length: %w", err)
	}

	if _, err := w.Write(hdrBytes); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	zipWriter := zlib.NewWriter(w)

	if _, err := zipWriter.Write(f.Pix); err != nil {
		return fmt.Errorf("while writing pixels: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("while closing zip writer: %w", err)
	}

	return nil
}

func ReadRaw(in io.Reader) (*Framebuffer, error) {
	var headerLength uint64
	if err := binary.Read(in, binary.LittleEndian, &headerLength); err != nil {
		return nil, fmt.Errorf("while reading header length: %w", err)
	}
	if headerLength > 1<<20 {
		return nil, fmt.Errorf("header length %d is implausibly large", headerLength)
	}

	headerBytes := make([]byte, int(headerLength))
	if _, err := io.ReadFull(in, headerBytes); err != nil {
		return nil, fmt.Errorf("while reading header bytes: %w", err)
	}

	hdr := &structpb.Struct{}
	if err := proto.Unmarshal(headerBytes, hdr); err != nil {
		return nil, fmt.Errorf("while unmarshaling header: %w", err)
	}

	field := func(name string) (int, error) {
		v, ok := hdr.GetFields()[name]
		if !ok {
			return 0, fmt.Errorf("header field %q missing", name)
		}
		n := v.GetNumberValue()
		if math.IsNaN(n) || n != math.Trunc(n) || n < 0 || n > MaxPixels {
			return 0, fmt.Errorf("header field %q has bad value %v", name, n)
		}
		return int(n), nil
	}

	version, err := field("dataLayoutVersion")
	if err != nil {
		return nil, err
	}
	if version != dataLayoutVersion {
		return nil, fmt.Errorf("bad data layout version: %v", version)
	}
	channels, err := field("channels")
	if err != nil {
		return nil, err
	}
	if channels != Channels {
		return nil, fmt.Errorf("bad channel count: %v", channels)
	}

	cols, err := field("cols")
	if err != nil {
		return nil, err
	}
	rows, err := field("rows")
	if err != nil {
		return nil, err
	}
	if cols < 1 || rows < 1 || cols > MaxPixels/rows {
		return nil, fmt.Errorf("bad dimensions %dx%d", cols, rows)
	}

	f := New(cols, rows)

	zipReader, err := zlib.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("while opening zip reader: %w", err)
	}
	defer zipReader.Close()

	if _, err := io.ReadFull(zipReader, f.Pix); err != nil {
		return nil, fmt.Errorf("while reading pixels: %w", err)
	}

	return f, nil
}

func ReadRawFromFile(name string) (*Framebuffer, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("while opening file: %w", err)
	}
	defer file.Close()

	return ReadRaw(file)
}
