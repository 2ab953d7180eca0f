package depgraph

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Snapshot file layout: an uncompressed header followed by the node records,
// optionally as a zstd stream. The header pins a magic string and a format
// version so stale or foreign files are rejected before any decoding.
const (
	snapshotMagic   = "INCRDEPG"
	snapshotVersion = 1

	flagZstd = 1 << 0
)

var errBadSnapshot = fmt.Errorf("not a dep-graph snapshot")

// WriteSnapshot writes the node table to w in snapshot format.
func WriteSnapshot(w io.Writer, nodes []RawNode, compress bool) error {
	header := make([]byte, 0, len(snapshotMagic)+16)
	header = append(header, snapshotMagic...)
	header = binary.LittleEndian.AppendUint32(header, snapshotVersion)
	var flags uint32
	if compress {
		flags |= flagZstd
	}
	header = binary.LittleEndian.AppendUint32(header, flags)
	header = binary.LittleEndian.AppendUint64(header, uint64(len(nodes)))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}

	body := w
	var enc *zstd.Encoder
	if compress {
		var err error
		enc, err = zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("init zstd writer: %w", err)
		}
		body = enc
	}

	buf := make([]byte, 0, RecordSize)
	for _, n := range nodes {
		buf = n.appendTo(buf[:0])
		if _, err := body.Write(buf); err != nil {
			return fmt.Errorf("write node record: %w", err)
		}
	}

	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("finish zstd stream: %w", err)
		}
	}
	return nil
}

// ReadSnapshot reads a node table written by WriteSnapshot.
func ReadSnapshot(r io.Reader) ([]RawNode, error) {
	header := make([]byte, len(snapshotMagic)+16)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read snapshot header: %w", err)
	}
	if string(header[:len(snapshotMagic)]) != snapshotMagic {
		return nil, errBadSnapshot
	}
	off := len(snapshotMagic)
	version := binary.LittleEndian.Uint32(header[off:])
	if version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", version)
	}
	flags := binary.LittleEndian.Uint32(header[off+4:])
	count := binary.LittleEndian.Uint64(header[off+8:])

	body := r
	if flags&flagZstd != 0 {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("init zstd reader: %w", err)
		}
		defer dec.Close()
		body = dec
	}

	nodes := make([]RawNode, 0, count)
	buf := make([]byte, RecordSize)
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(body, buf); err != nil {
			return nil, fmt.Errorf("read node record %d of %d: %w", i, count, err)
		}
		nodes = append(nodes, decodeRecord(buf))
	}
	return nodes, nil
}

// ExportSnapshot writes the node table to a file, replacing it atomically.
func ExportSnapshot(path string, nodes []RawNode, compress bool) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := WriteSnapshot(w, nodes, compress); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("flush snapshot file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close snapshot file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}

// ImportSnapshot reads a node table from a file.
func ImportSnapshot(path string) ([]RawNode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	nodes, err := ReadSnapshot(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return nodes, nil
}
