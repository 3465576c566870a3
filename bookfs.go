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
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"time"
)

// BookFS projects a Book onto io/fs.FS: "body.html" serves the
// decompressed body, and "image/N<ext>" serves the Nth (1-based)
// embedded image, matching <img recindex="N"> references in the body.
type BookFS struct {
	book *Book
}

// NewBookFS wraps book for filesystem-style access, e.g. serving it
// over net/http.FileServer.
func NewBookFS(book *Book) *BookFS {
	if book == nil {
		panic("BookFS: Book instance cannot be nil")
	}
	return &BookFS{book: book}
}

func (bfs *BookFS) imageName(recindex int, ext string) string {
	return fmt.Sprintf("image/%d%s", recindex, ext)
}

// Open opens "body.html", an "image/N<ext>" entry, or the root ".".
func (bfs *BookFS) Open(name string) (fs.File, error) {
	log.Debugf("BookFS: Open called with name: '%s'", name)

	if name == "." || name == "" || strings.HasSuffix(name, "/") {
		return &bookFile{
			fs:       bfs,
			name:     ".",
			isDir:    true,
			fileInfo: &bookFileInfo{name: ".", isDir: true, modTime: time.Now()},
		}, nil
	}

	if name == "body.html" {
		content := bfs.book.Body()
		return &bookFile{
			fs:      bfs,
			name:    name,
			content: content,
			reader:  bytes.NewReader(content),
			fileInfo: &bookFileInfo{
				name:    name,
				size:    int64(len(content)),
				modTime: time.Now(),
			},
		}, nil
	}

	if rest, ok := strings.CutPrefix(name, "image/"); ok {
		idxStr := rest
		if dot := strings.LastIndexByte(rest, '.'); dot >= 0 {
			idxStr = rest[:dot]
		}
		recindex, err := strconv.Atoi(idxStr)
		if err != nil {
			return nil, fs.ErrNotExist
		}
		data, _, ok := bfs.book.Image(recindex)
		if !ok {
			return nil, fs.ErrNotExist
		}
		return &bookFile{
			fs:      bfs,
			name:    name,
			content: data,
			reader:  bytes.NewReader(data),
			fileInfo: &bookFileInfo{
				name:    path.Base(name),
				size:    int64(len(data)),
				modTime: time.Now(),
			},
		}, nil
	}

	return nil, fs.ErrNotExist
}

// ReadDir lists "body.html" followed by one "image/N<ext>" entry per
// non-empty image slot.
func (bfs *BookFS) ReadDir() []fs.DirEntry {
	entries := make([]fs.DirEntry, 0, bfs.book.ImageCount()+1)
	entries = append(entries, &bookFileInfo{name: "body.html", size: int64(len(bfs.book.Body())), modTime: time.Now()})
	for i := 1; i <= bfs.book.ImageCount(); i++ {
		data, ext, ok := bfs.book.Image(i)
		if !ok {
			continue
		}
		entries = append(entries, &bookFileInfo{name: bfs.imageName(i, ext), size: int64(len(data)), modTime: time.Now()})
	}
	return entries
}

// bookFile implements fs.File (and fs.ReadDirFile for the root).
type bookFile struct {
	fs       *BookFS
	name     string
	isDir    bool
	reader   *bytes.Reader
	content  []byte
	fileInfo fs.FileInfo
}

func (bf *bookFile) Stat() (fs.FileInfo, error) { return bf.fileInfo, nil }

func (bf *bookFile) Read(p []byte) (int, error) {
	if bf.isDir {
		return 0, &fs.PathError{Op: "read", Path: bf.name, Err: errors.New("is a directory")}
	}
	if bf.reader == nil {
		return 0, &fs.PathError{Op: "read", Path: bf.name, Err: fs.ErrClosed}
	}
	return bf.reader.Read(p)
}

func (bf *bookFile) Close() error {
	bf.reader = nil
	bf.content = nil
	return nil
}

func (bf *bookFile) ReadDir(n int) ([]fs.DirEntry, error) {
	if !bf.isDir {
		return nil, &fs.PathError{Op: "readdir", Path: bf.name, Err: errors.New("not a directory")}
	}
	entries := bf.fs.ReadDir()
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}

// bookFileInfo implements both fs.FileInfo and fs.DirEntry.
type bookFileInfo struct {
	name    string
	size    int64
	isDir   bool
	modTime time.Time
}

func (fi *bookFileInfo) Name() string               { return fi.name }
func (fi *bookFileInfo) Size() int64                { return fi.size }
func (fi *bookFileInfo) IsDir() bool                { return fi.isDir }
func (fi *bookFileInfo) ModTime() time.Time         { return fi.modTime }
func (fi *bookFileInfo) Sys() interface{}           { return nil }
func (fi *bookFileInfo) Info() (fs.FileInfo, error) { return fi, nil }
func (fi *bookFileInfo) Type() fs.FileMode          { return fi.Mode().Type() }
func (fi *bookFileInfo) Mode() fs.FileMode {
	if fi.isDir {
		return fs.ModeDir | 0555
	}
	return 0444
}

var (
	_ fs.File        = (*bookFile)(nil)
	_ fs.ReadDirFile = (*bookFile)(nil)
	_ fs.FS          = (*BookFS)(nil)
	_ fs.FileInfo    = (*bookFileInfo)(nil)
	_ fs.DirEntry    = (*bookFileInfo)(nil)
)
