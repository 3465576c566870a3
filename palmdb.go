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

// container is the result of validating the PalmDB framing: the
// type+creator tag and an indexable record table. The record count from
// the PDB header is authoritative; nothing else is consulted.
type container struct {
	typeCreator string
	isMobi      bool // false means PalmDOC ("TEXtREAd")
	records     []pdbRecordHeader
	src         *byteSource
}

// parseContainer reads the 78-byte PalmDB header and the trailing array
// of 8-byte record headers, appends a sentinel record holding the file
// length, and validates monotonicity before anything else touches the
// file.
func parseContainer(src *byteSource) (*container, error) {
	log.Debugf("parsing PalmDB container, file length %d", src.Length())

	hdr, err := src.ReadAt(0, palmDBHeaderLen)
	if err != nil {
		return nil, wrapErr(ErrIo, "reading PalmDB header", err)
	}

	typeCreator := string(hdr[palmDBTypeOffset : palmDBTypeOffset+palmDBTagLen])
	var isMobi bool
	switch typeCreator {
	case mobiTypeCreator:
		isMobi = true
	case palmDocTypeCreator:
		isMobi = false
	default:
		return nil, newErr(ErrContainerMalformed, fmt.Sprintf("unrecognized type/creator tag %q", typeCreator))
	}

	numRecords := binary.BigEndian.Uint16(hdr[palmDBNumRecsOffset : palmDBNumRecsOffset+2])
	if numRecords < 1 {
		return nil, newErr(ErrContainerMalformed, "PalmDB header declares zero records")
	}
	log.Debugf("container tag=%q isMobi=%v numRecords=%d", typeCreator, isMobi, numRecords)

	recTableBytes, err := src.ReadAt(palmDBHeaderLen, int64(numRecords)*pdbRecordHeaderLen)
	if err != nil {
		return nil, wrapErr(ErrIo, "reading PalmDB record header table", err)
	}

	records := make([]pdbRecordHeader, int(numRecords)+1)
	for i := 0; i < int(numRecords); i++ {
		off := i * pdbRecordHeaderLen
		records[i].offset = binary.BigEndian.Uint32(recTableBytes[off : off+4])
		records[i].attributes = binary.BigEndian.Uint32(recTableBytes[off+4 : off+8])
	}
	// Sentinel trailing record holds the file length, making record
	// size arithmetic (offset[i+1] - offset[i]) total over every real
	// record without a special case for the last one.
	records[numRecords].offset = uint32(src.Length())

	for i := 0; i < int(numRecords); i++ {
		if records[i+1].offset < records[i].offset {
			return nil, newErr(ErrContainerMalformed, fmt.Sprintf("record %d offset %d precedes record %d offset %d", i+1, records[i+1].offset, i, records[i].offset))
		}
	}

	return &container{
		typeCreator: typeCreator,
		isMobi:      isMobi,
		records:     records,
		src:         src,
	}, nil
}

// recordCount excludes the sentinel.
func (c *container) recordCount() int {
	return len(c.records) - 1
}

// recordSize returns offset[i+1] - offset[i].
func (c *container) recordSize(i int) (int64, error) {
	if i < 0 || i+1 >= len(c.records) {
		return 0, newErr(ErrContainerMalformed, fmt.Sprintf("record index %d out of range (have %d records)", i, c.recordCount()))
	}
	return int64(c.records[i+1].offset) - int64(c.records[i].offset), nil
}

// readRecord returns the raw bytes of record i, unmodified.
func (c *container) readRecord(i int) ([]byte, error) {
	size, err := c.recordSize(i)
	if err != nil {
		return nil, err
	}
	data, err := c.src.ReadAt(int64(c.records[i].offset), size)
	if err != nil {
		return nil, wrapErr(ErrIo, fmt.Sprintf("reading record %d (offset %d, size %d)", i, c.records[i].offset, size), err)
	}
	return data, nil
}
