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

import "encoding/binary"

// buildPdbHeader returns a 78-byte PalmDB header declaring typeCreator
// and numRecords, with every other field zeroed (this core never reads
// them).
func buildPdbHeader(typeCreator string, numRecords uint16) []byte {
	hdr := make([]byte, palmDBHeaderLen)
	copy(hdr[palmDBTypeOffset:palmDBTypeOffset+8], []byte(typeCreator))
	binary.BigEndian.PutUint16(hdr[palmDBNumRecsOffset:], numRecords)
	return hdr
}

// buildPdbRecordTable lays out consecutive records back to back, each
// record header carrying the given attributes (0 for this core's tests).
func buildPdbRecordTable(records [][]byte) (table []byte, body []byte) {
	offset := uint32(palmDBHeaderLen + len(records)*pdbRecordHeaderLen)
	for _, r := range records {
		entry := make([]byte, pdbRecordHeaderLen)
		binary.BigEndian.PutUint32(entry[0:4], offset)
		table = append(table, entry...)
		body = append(body, r...)
		offset += uint32(len(r))
	}
	return table, body
}

// buildPalmDB assembles a full PalmDB file: header, record table, then
// record bodies concatenated in order.
func buildPalmDB(typeCreator string, records [][]byte) []byte {
	hdr := buildPdbHeader(typeCreator, uint16(len(records)))
	table, body := buildPdbRecordTable(records)
	out := append(hdr, table...)
	out = append(out, body...)
	return out
}

// buildPalmDocHeader returns the 16-byte PalmDOC header record 0 body
// starts with.
func buildPalmDocHeader(compression CompressionType, uncompressedSize uint32, recordsCount, maxRecSize uint16, encryption EncryptionType) []byte {
	h := make([]byte, palmDocHeaderLen)
	binary.BigEndian.PutUint16(h[0:2], uint16(compression))
	binary.BigEndian.PutUint32(h[4:8], uncompressedSize)
	binary.BigEndian.PutUint16(h[8:10], recordsCount)
	binary.BigEndian.PutUint16(h[10:12], maxRecSize)
	binary.BigEndian.PutUint16(h[12:14], uint16(encryption))
	return h
}

// buildMobiHeader returns a minimal MOBI header of the given length
// (hdrLen), with the named fields set at their known offsets and
// everything else zeroed.
func buildMobiHeader(hdrLen uint32, fullNameOffset, fullNameLen uint32, exthFlags uint32) []byte {
	h := make([]byte, hdrLen)
	copy(h[0:4], []byte("MOBI"))
	binary.BigEndian.PutUint32(h[offHdrLen:offHdrLen+4], hdrLen)
	binary.BigEndian.PutUint32(h[offFullNameOffset:offFullNameOffset+4], fullNameOffset)
	binary.BigEndian.PutUint32(h[offFullNameLen:offFullNameLen+4], fullNameLen)
	binary.BigEndian.PutUint32(h[offExthFlags:offExthFlags+4], exthFlags)
	return h
}

// buildExthRecord encodes one EXTH record with the total-length
// semantics this core assumes: len covers the 8-byte header plus
// payload.
func buildExthRecord(recType uint32, payload []byte) []byte {
	rec := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(rec[0:4], recType)
	binary.BigEndian.PutUint32(rec[4:8], uint32(8+len(payload)))
	copy(rec[8:], payload)
	return rec
}

// buildExthTable encodes the full EXTH header+records block.
func buildExthTable(records [][]byte) []byte {
	var recs []byte
	for _, r := range records {
		recs = append(recs, r...)
	}
	table := make([]byte, exthHeaderLen)
	copy(table[0:4], []byte("EXTH"))
	binary.BigEndian.PutUint32(table[4:8], uint32(exthHeaderLen+len(recs)))
	binary.BigEndian.PutUint32(table[8:12], uint32(len(records)))
	return append(table, recs...)
}
