package workload

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/garethgeorge/memsim/internal/ioutil"
)

// CompressedSuffix marks trace files stored zstd compressed.
const CompressedSuffix = ".zst"

// Open opens a trace file for reading, decompressing it if its name ends in CompressedSuffix.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, CompressedSuffix) {
		return ioutil.ReaderWithClosers(ioutil.WithBufferedReads(f), f.Close), nil
	}
	zstdReader, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("opening zstd stream: %w", err)
	}
	return ioutil.ReaderWithClosers(ioutil.WithBufferedReads(zstdReader), func() error {
		zstdReader.Close()
		return nil
	}, f.Close), nil
}

// Create creates a trace file for writing, compressing it if its name ends in
// CompressedSuffix. Close must be called to flush the file.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, CompressedSuffix) {
		bufw := ioutil.WithBufferedWrites(f)
		return ioutil.WriterWithClosers(bufw, bufw.Close, f.Close), nil
	}
	bufw := ioutil.WithBufferedWrites(f)
	zstdWriter, err := zstd.NewWriter(bufw,
		zstd.WithEncoderCRC(true),
		zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("creating zstd stream: %w", err)
	}
	return ioutil.WriterWithClosers(zstdWriter, zstdWriter.Close, bufw.Close, f.Close), nil
}

func ReadFile(path string) ([]Op, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	ops, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ops, nil
}

func WriteFile(path string, ops []Op) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	if err := Write(w, ops); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return w.Close()
}
