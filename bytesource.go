//
// Copyright (C) 2023 Quan Chen <chenquan_act@163.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package mobicore

import (
	"fmt"
	"io"
	"os"
)

// byteSource is a random-access, read-only view over the input file.
// It exists so the rest of the core never touches *os.File directly,
// funneling all file access through a handful of helpers (openFileSource,
// newByteSource and ReadAt) rather than letting every component open its own handle
// ad hoc.
type byteSource struct {
	r      io.ReaderAt
	length int64
	closer io.Closer
}

// openFileSource opens path and reports its length up front so later
// reads can be bounds-checked without re-stating os.Stat.
func openFileSource(path string) (*byteSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr(ErrIo, fmt.Sprintf("opening %q", path), err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, wrapErr(ErrIo, fmt.Sprintf("stat %q", path), err)
	}
	return &byteSource{r: f, length: info.Size(), closer: f}, nil
}

// newByteSource wraps an in-memory buffer, used by tests and by callers
// who have already read the whole file into memory.
func newByteSource(data []byte) *byteSource {
	return &byteSource{r: bytesReaderAt(data), length: int64(len(data))}
}

func (b *byteSource) Length() int64 { return b.length }

// ReadAt reads exactly count bytes starting at offset, or fails — a
// partial read is always an error, never silently truncated.
func (b *byteSource) ReadAt(offset, count int64) ([]byte, error) {
	if offset < 0 || count < 0 || offset+count > b.length {
		return nil, newErr(ErrIo, fmt.Sprintf("read of %d bytes at offset %d exceeds length %d", count, offset, b.length))
	}
	buf := make([]byte, count)
	n, err := b.r.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, wrapErr(ErrIo, fmt.Sprintf("reading %d bytes at offset %d", count, offset), err)
	}
	if int64(n) != count {
		return nil, newErr(ErrIo, fmt.Sprintf("short read at offset %d: got %d of %d bytes", offset, n, count))
	}
	return buf, nil
}

func (b *byteSource) Close() error {
	if b.closer != nil {
		return b.closer.Close()
	}
	return nil
}

// bytesReaderAt adapts a byte slice to io.ReaderAt without pulling in
// bytes.Reader's seek/read cursor semantics, which this type doesn't need.
type bytesReaderAt []byte

func (r bytesReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(r)) {
		return 0, fmt.Errorf("offset %d out of range", off)
	}
	n := copy(p, r[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
