package disk

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"

	"heapdb/common"
)

var snapshotMagic = []byte("HDBSNAP1")

const (
	snapshotHeaderSize = 8 + 4 + 4
	digestSize         = 32
)

// Snapshot writes every page of m to w as a snappy stream. The stream starts with a header holding the page size
// and page count and ends with the blake3 digest of everything before it.
//
// Snapshot does not go through the buffer pool. Callers hold a shared lock on every page of the file, or know
// nothing writes to it, before taking it.
func Snapshot(m IDiskManager, w io.Writer) (int, error) {
	return SnapshotPages(m, m.NumPages(), w)
}

// SnapshotPages is Snapshot limited to the first numPages pages of m. Pages appended after the caller locked the
// file are left out.
func SnapshotPages(m IDiskManager, numPages int, w io.Writer) (int, error) {
	if numPages < 0 || numPages > m.NumPages() {
		return 0, errors.Wrapf(common.ErrInvalidState, "cannot snapshot %d pages of a %d page file", numPages, m.NumPages())
	}

	sw := snappy.NewBufferedWriter(w)
	h := blake3.New()
	out := io.MultiWriter(sw, h)

	header := make([]byte, snapshotHeaderSize)
	copy(header, snapshotMagic)
	binary.BigEndian.PutUint32(header[8:], uint32(m.PageSize()))
	binary.BigEndian.PutUint32(header[12:], uint32(numPages))
	if _, err := out.Write(header); err != nil {
		return 0, errors.Wrapf(common.ErrStorageIO, "write snapshot header: %v", err)
	}

	for i := 0; i < numPages; i++ {
		data, err := m.ReadPage(i)
		if err != nil {
			return i, err
		}
		if _, err := out.Write(data); err != nil {
			return i, errors.Wrapf(common.ErrStorageIO, "write snapshot page %d: %v", i, err)
		}
	}

	if _, err := sw.Write(h.Sum(nil)); err != nil {
		return numPages, errors.Wrapf(common.ErrStorageIO, "write snapshot digest: %v", err)
	}
	if err := sw.Close(); err != nil {
		return numPages, errors.Wrapf(common.ErrStorageIO, "close snapshot: %v", err)
	}

	return numPages, nil
}

// Restore reads a stream written by Snapshot and writes its pages to a new page file at path. The file is removed
// again when the stream is corrupt or its digest does not match.
func Restore(r io.Reader, path string) (pageSize, numPages int, err error) {
	sr := snappy.NewReader(r)
	h := blake3.New()
	in := io.TeeReader(sr, h)

	header := make([]byte, snapshotHeaderSize)
	if _, err := io.ReadFull(in, header); err != nil {
		return 0, 0, errors.Wrapf(common.ErrStorageIO, "read snapshot header: %v", err)
	}
	if !bytes.Equal(header[:8], snapshotMagic) {
		return 0, 0, errors.Wrap(common.ErrInvalidState, "not a snapshot stream")
	}
	pageSize = int(binary.BigEndian.Uint32(header[8:]))
	numPages = int(binary.BigEndian.Uint32(header[12:]))

	if _, statErr := os.Stat(path); statErr == nil {
		return 0, 0, errors.Wrapf(common.ErrInvalidState, "restore target %s already exists", path)
	}

	m, _, err := NewDiskManager(path, pageSize)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			common.Remove(path)
		}
	}()

	data := make([]byte, pageSize)
	for i := 0; i < numPages; i++ {
		if _, err = io.ReadFull(in, data); err != nil {
			return 0, 0, errors.Wrapf(common.ErrStorageIO, "read snapshot page %d: %v", i, err)
		}
		if err = m.WritePage(i, data); err != nil {
			return 0, 0, err
		}
	}

	expected := h.Sum(nil)
	digest := make([]byte, digestSize)
	if _, err = io.ReadFull(sr, digest); err != nil {
		return 0, 0, errors.Wrapf(common.ErrStorageIO, "read snapshot digest: %v", err)
	}
	if !bytes.Equal(expected, digest) {
		err = errors.Wrap(common.ErrInvalidState, "snapshot digest mismatch")
		return 0, 0, err
	}

	if err = m.Sync(); err != nil {
		return 0, 0, err
	}
	return pageSize, numPages, nil
}

// PageChecksum returns the blake3 digest of a page image.
func PageChecksum(data []byte) [32]byte {
	return blake3.Sum256(data)
}
