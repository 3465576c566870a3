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

// parseExthRecords decodes the EXTH table embedded in the MOBI header
// record. rec is the full record 0 bytes; start is the byte offset of
// the "EXTH" tag within it (immediately after the MOBI header).
//
// Each record's len field is the TOTAL size of the record, header
// included — not the payload size. The reference parser advances its
// cursor by rec->len with no separate header subtraction, so len must
// be at least 8 and the payload is len-8 bytes.
func parseExthRecords(rec []byte, start int) ([]exthRecord, error) {
	if start+exthHeaderLen > len(rec) {
		return nil, newErr(ErrHeaderMalformed, "EXTH header does not fit in record 0")
	}
	if string(rec[start:start+4]) != "EXTH" {
		return nil, newErr(ErrHeaderMalformed, fmt.Sprintf("expected EXTH tag, got %q", rec[start:start+4]))
	}
	hdrLen := binary.BigEndian.Uint32(rec[start+4 : start+8])
	count := binary.BigEndian.Uint32(rec[start+8 : start+12])
	_ = hdrLen // declared length is informational; the record count drives the loop

	pos := start + exthHeaderLen
	records := make([]exthRecord, 0, count)
	for i := uint32(0); i < count; i++ {
		if pos+8 > len(rec) {
			return nil, newErr(ErrHeaderMalformed, fmt.Sprintf("EXTH record %d header overruns record 0", i))
		}
		recType := binary.BigEndian.Uint32(rec[pos : pos+4])
		recLen := binary.BigEndian.Uint32(rec[pos+4 : pos+8])
		if recLen < 8 {
			return nil, newErr(ErrHeaderMalformed, fmt.Sprintf("EXTH record %d declares length %d, must be >= 8", i, recLen))
		}
		if pos+int(recLen) > len(rec) {
			return nil, newErr(ErrHeaderMalformed, fmt.Sprintf("EXTH record %d (type %d, len %d) overruns record 0", i, recType, recLen))
		}
		payload := rec[pos+8 : pos+int(recLen)]
		records = append(records, exthRecord{recType: recType, payload: payload})
		pos += int(recLen)
	}
	log.Debugf("parsed %d EXTH records", len(records))
	return records, nil
}

// exthString returns the payload of the first record matching recType,
// decoded as a plain byte string (EXTH string payloads are counted byte
// ranges, never NUL-terminated).
func exthString(records []exthRecord, recType uint32) (string, bool) {
	for _, r := range records {
		if r.recType == recType {
			return string(r.payload), true
		}
	}
	return "", false
}

// exthStringConcat concatenates the payloads of every record matching
// recType, in record order. A MOBI file can declare the same author
// field more than once (one EXTH 100 record per contributor); each one
// is appended to the prior value rather than only the first being kept.
func exthStringConcat(records []exthRecord, recType uint32) (string, bool) {
	var s string
	found := false
	for _, r := range records {
		if r.recType == recType {
			s += string(r.payload)
			found = true
		}
	}
	return s, found
}

// exthUint32 returns the payload of the first record matching recType,
// decoded as a big-endian uint32 (used for EXTH 201, the cover image
// index).
func exthUint32(records []exthRecord, recType uint32) (uint32, bool) {
	for _, r := range records {
		if r.recType == recType {
			if len(r.payload) < 4 {
				return 0, false
			}
			return binary.BigEndian.Uint32(r.payload[:4]), true
		}
	}
	return 0, false
}
