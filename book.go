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
	"encoding/binary"
	"fmt"
)

// Byte offsets of the MOBI header fields this core consumes, relative
// to the start of the header (the "MOBI" tag itself is at offset 0).
// Fields this core never reads (orthographic/inflection/names/keys
// indices, DRM fields, reserved padding) are skipped over rather than
// modeled.
const (
	offHdrLen          = 4
	offTextEncoding     = 12
	offFullNameOffset   = 68
	offFullNameLen      = 72
	offLocale           = 76
	offImageFirstRec    = 92
	offHuffmanFirstRec  = 96
	offHuffmanRecCount  = 100
	offExthFlags        = 112
	offFirstContentRec  = 176
	offLastContentRec   = 178
	offExtraDataFlags   = 226
)

const exthPresentBit = 0x40

// Book is a fully parsed MOBI or PalmDOC document: its metadata, its
// decompressed body text, and its loaded image records. Open drives the
// whole parse pipeline; the returned Book is self-contained and does not
// keep the underlying file open.
type Book struct {
	title       string
	author      string
	publisher   string
	locale      uint32
	textEncoding uint32
	isMobi      bool

	body       []byte
	bodyRanges []BodyRange
	rangeIndex *bodyRangeIndex

	images    []bookImage
	coverIdx  int
	hasCover  bool
}

// Open reads and fully decodes the MOBI or PalmDOC file at path. The
// returned Book owns no file handle; path is only needed for the
// duration of this call.
func Open(path string) (*Book, error) {
	src, err := openFileSource(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return openFromSource(src)
}

// OpenBytes decodes a MOBI or PalmDOC document already resident in
// memory. It exists alongside Open so tests and callers that already
// hold the file contents never need to round-trip through disk.
func OpenBytes(data []byte) (*Book, error) {
	return openFromSource(newByteSource(data))
}

func openFromSource(src *byteSource) (*Book, error) {
	c, err := parseContainer(src)
	if err != nil {
		return nil, err
	}

	rec0, err := c.readRecord(0)
	if err != nil {
		return nil, err
	}
	if len(rec0) < palmDocHeaderLen {
		return nil, newErr(ErrContainerMalformed, "record 0 shorter than the PalmDOC header")
	}

	pdh := parsePalmDocHeader(rec0, c.isMobi)
	if pdh.encryptionType != EncryptionNone {
		return nil, newErr(ErrEncrypted, fmt.Sprintf("encryption type %d is not supported", pdh.encryptionType))
	}
	switch pdh.compressionType {
	case CompressionNone, CompressionPalmDoc, CompressionHuff:
	default:
		return nil, newErr(ErrUnsupportedCompression, fmt.Sprintf("compression type %d", pdh.compressionType))
	}

	book := &Book{isMobi: c.isMobi, coverIdx: -1}

	var mh mobiHeader
	var exth []exthRecord
	if c.isMobi && len(rec0) > palmDocHeaderLen {
		mh, exth, err = parseMobiHeaderAndExth(rec0)
		if err != nil {
			return nil, err
		}
		book.textEncoding = mh.textEncoding
		book.locale = mh.locale
		if mh.fullNameLen > 0 && int(mh.fullNameOffset+mh.fullNameLen) <= len(rec0) {
			book.title = string(rec0[mh.fullNameOffset : mh.fullNameOffset+mh.fullNameLen])
		}
		if author, ok := exthStringConcat(exth, exthAuthor); ok {
			book.author = author
		}
		if publisher, ok := exthString(exth, exthPublisher); ok {
			book.publisher = publisher
		}
		if preferred, ok := exthString(exth, exthPreferredName); ok {
			book.title = preferred
		}
	}

	var huff *huffDicDecompressor
	if pdh.compressionType == CompressionHuff {
		if !c.isMobi {
			return nil, newErr(ErrUnsupportedCompression, "HUFF/CDIC compression requires a MOBI container")
		}
		huff, err = buildHuffDecompressor(c, mh)
		if err != nil {
			return nil, err
		}
	}

	trailersCount, multibyte := 0, false
	if mh.hasExtraDataFlags {
		trailersCount, multibyte = decodeExtraDataFlags(mh.extraDataFlags)
	}

	body, ranges, err := assembleBody(c, pdh, huff, trailersCount, multibyte)
	if err != nil {
		return nil, err
	}
	book.body = body
	book.bodyRanges = ranges

	imagesCount := 0
	if c.isMobi && mh.imageFirstRec > 0 && mh.lastContentRec >= uint16(mh.imageFirstRec) {
		imagesCount = int(mh.lastContentRec) - int(mh.imageFirstRec) + 1
	}
	if imagesCount > 0 {
		images, err := loadImages(c, int(mh.imageFirstRec), imagesCount)
		if err != nil {
			return nil, err
		}
		book.images = images
		coverOffset, hasCoverOffset := exthUint32(exth, exthCoverOffset)
		if idx, ok := selectCover(images, int(coverOffset), hasCoverOffset); ok {
			book.coverIdx = idx
			book.hasCover = true
		}
	}

	return book, nil
}

func parsePalmDocHeader(rec0 []byte, isMobi bool) palmDocHeader {
	var h palmDocHeader
	h.compressionType = CompressionType(binary.BigEndian.Uint16(rec0[0:2]))
	h.uncompressedDocSize = binary.BigEndian.Uint32(rec0[4:8])
	h.recordsCount = binary.BigEndian.Uint16(rec0[8:10])
	h.maxRecSize = binary.BigEndian.Uint16(rec0[10:12])
	if isMobi {
		h.encryptionType = EncryptionType(binary.BigEndian.Uint16(rec0[12:14]))
	}
	return h
}

// parseMobiHeaderAndExth parses the MOBI header immediately following
// the PalmDOC header in record 0, then the EXTH table that follows it
// when the EXTH-present bit is set.
func parseMobiHeaderAndExth(rec0 []byte) (mobiHeader, []exthRecord, error) {
	var mh mobiHeader
	start := palmDocHeaderLen
	if start+8 > len(rec0) {
		return mh, nil, newErr(ErrHeaderMalformed, "MOBI header does not fit in record 0")
	}
	if string(rec0[start:start+4]) != "MOBI" {
		return mh, nil, newErr(ErrHeaderMalformed, fmt.Sprintf("expected MOBI tag, got %q", rec0[start:start+4]))
	}
	mh.hdrLen = binary.BigEndian.Uint32(rec0[start+offHdrLen : start+offHdrLen+4])
	if int(mh.hdrLen) < offExthFlags+4 || start+int(mh.hdrLen) > len(rec0) {
		return mh, nil, newErr(ErrHeaderMalformed, fmt.Sprintf("MOBI header length %d out of range", mh.hdrLen))
	}

	field := func(off int) uint32 { return binary.BigEndian.Uint32(rec0[start+off : start+off+4]) }

	mh.textEncoding = field(offTextEncoding)
	mh.fullNameOffset = field(offFullNameOffset)
	mh.fullNameLen = field(offFullNameLen)
	mh.locale = field(offLocale)
	mh.imageFirstRec = field(offImageFirstRec)
	mh.huffmanFirstRec = field(offHuffmanFirstRec)
	mh.huffmanRecCount = field(offHuffmanRecCount)
	mh.exthFlags = field(offExthFlags)

	if start+offLastContentRec+2 <= start+int(mh.hdrLen) {
		mh.firstContentRec = binary.BigEndian.Uint16(rec0[start+offFirstContentRec : start+offFirstContentRec+2])
		mh.lastContentRec = binary.BigEndian.Uint16(rec0[start+offLastContentRec : start+offLastContentRec+2])
	}

	if mh.hdrLen >= mobiTrailerFlagsHdrLen && start+offExtraDataFlags+2 <= len(rec0) {
		mh.hasExtraDataFlags = true
		mh.extraDataFlags = binary.BigEndian.Uint16(rec0[start+offExtraDataFlags : start+offExtraDataFlags+2])
	}

	var exth []exthRecord
	if mh.exthFlags&exthPresentBit != 0 {
		exthStart := start + int(mh.hdrLen)
		var err error
		exth, err = parseExthRecords(rec0, exthStart)
		if err != nil {
			return mh, nil, err
		}
	}

	log.Debugf("parsed MOBI header: hdrLen=%d textEncoding=%d locale=%d imageFirstRec=%d huffmanFirstRec=%d huffmanRecCount=%d", mh.hdrLen, mh.textEncoding, mh.locale, mh.imageFirstRec, mh.huffmanFirstRec, mh.huffmanRecCount)
	return mh, exth, nil
}

// buildHuffDecompressor reads the huffman record range declared by the
// MOBI header: the first record configures the HUFF tables, the
// remaining huffmanRecCount-1 records each supply one CDIC dictionary
// (capped at 32 dictionaries).
func buildHuffDecompressor(c *container, mh mobiHeader) (*huffDicDecompressor, error) {
	if mh.huffmanRecCount == 0 {
		return nil, newErr(ErrHeaderMalformed, "HUFF/CDIC compression declared with zero huffman records")
	}
	if mh.huffmanRecCount-1 > maxCdicDicts {
		return nil, newErr(ErrHuffTableCorrupt, fmt.Sprintf("huffmanRecCount-1 (%d) exceeds %d dictionaries", mh.huffmanRecCount-1, maxCdicDicts))
	}

	huffRec, err := c.readRecord(int(mh.huffmanFirstRec))
	if err != nil {
		return nil, err
	}
	h := &huffDicDecompressor{}
	if err := h.setHuffData(huffRec); err != nil {
		return nil, err
	}
	for i := uint32(1); i < mh.huffmanRecCount; i++ {
		cdicRec, err := c.readRecord(int(mh.huffmanFirstRec) + int(i))
		if err != nil {
			return nil, err
		}
		if err := h.addCdicData(cdicRec); err != nil {
			return nil, err
		}
	}
	log.Debugf("configured HUFF/CDIC decompressor with %d dictionaries", len(h.dicts))
	return h, nil
}

// assembleBody decompresses body records 1..recordsCount into a single
// contiguous buffer, recording the record each output range came from.
// It validates the final length against the PalmDOC header's declared
// uncompressedDocSize.
func assembleBody(c *container, pdh palmDocHeader, huff *huffDicDecompressor, trailersCount int, multibyte bool) ([]byte, []BodyRange, error) {
	body := make([]byte, 0, pdh.uncompressedDocSize)
	ranges := make([]BodyRange, 0, pdh.recordsCount)

	maxOut := int(pdh.maxRecSize)
	if maxOut == 0 {
		maxOut = int(pdh.uncompressedDocSize)
	}

	for i := 1; i <= int(pdh.recordsCount); i++ {
		if i >= c.recordCount() {
			return nil, nil, newErr(ErrContainerMalformed, fmt.Sprintf("record %d declared by recordsCount but file has only %d records", i, c.recordCount()))
		}
		raw, err := c.readRecord(i)
		if err != nil {
			return nil, nil, err
		}
		if c.isMobi && (trailersCount > 0 || multibyte) {
			raw, err = stripTrailers(raw, trailersCount, multibyte)
			if err != nil {
				return nil, nil, err
			}
		}

		var decoded []byte
		switch pdh.compressionType {
		case CompressionNone:
			decoded = raw
		case CompressionPalmDoc:
			buf := make([]byte, maxOut)
			n, err := palmDocDecompress(raw, buf)
			if err != nil {
				return nil, nil, err
			}
			decoded = buf[:n]
		case CompressionHuff:
			decoded, err = huff.decompress(raw, maxOut)
			if err != nil {
				return nil, nil, err
			}
		}

		start := int64(len(body))
		body = append(body, decoded...)
		ranges = append(ranges, BodyRange{bodyOffset: start, bodyLen: int64(len(decoded)), recordIndex: i})
	}

	if uint32(len(body)) != pdh.uncompressedDocSize {
		return nil, nil, newErr(ErrSizeMismatch, fmt.Sprintf("assembled body is %d bytes, header declares %d", len(body), pdh.uncompressedDocSize))
	}
	return body, ranges, nil
}

// Title is the book's display title: the EXTH 503 preferred title when
// present, otherwise the full-name string from the MOBI header.
func (b *Book) Title() string { return b.title }

// Author is the concatenation of every EXTH 100 value in record order,
// or "" when absent.
func (b *Book) Author() string { return b.author }

// Publisher is the EXTH 101 value, or "" when absent.
func (b *Book) Publisher() string { return b.publisher }

// Body returns the fully decompressed, assembled text of the document.
func (b *Book) Body() []byte { return b.body }

// ImageCount reports how many image slots were scanned, including
// slots left empty by non-image markers or early EOF termination.
func (b *Book) ImageCount() int { return len(b.images) }

// Image returns the image at a 1-based recindex as referenced by <img
// recindex="N"> in the body HTML.
func (b *Book) Image(recindex int) ([]byte, string, bool) {
	img, ok := imageAt(b.images, recindex)
	if !ok {
		return nil, "", false
	}
	return img.data, img.ext, true
}

// Cover returns the book's cover image, if one could be determined.
func (b *Book) Cover() ([]byte, string, bool) {
	if !b.hasCover || b.coverIdx < 0 || b.coverIdx >= len(b.images) {
		return nil, "", false
	}
	img := b.images[b.coverIdx]
	return img.data, img.ext, true
}
