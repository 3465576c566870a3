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

import "golang.org/x/text/encoding/ianaindex"

// textEncodingNames maps the numeric textEncoding field of the MOBI
// header (a Windows code page number) to its IANA charset name. MOBI
// files only ever declare one of these two in practice.
var textEncodingNames = map[uint32]string{
	1252:  "windows-1252",
	65001: "UTF-8",
}

// TextEncodingName reports the IANA charset name of the document's
// declared text encoding, for callers that want to label body content
// without this core performing any transcoding itself. Reporting only:
// callers are responsible for any decoding they need.
func (b *Book) TextEncodingName() (string, bool) {
	name, ok := textEncodingNames[b.textEncoding]
	if !ok {
		return "", false
	}
	// Round-trip through the IANA registry to confirm the name this
	// core hands back is one golang.org/x/text actually recognizes,
	// rather than trusting the hardcoded table blindly.
	if _, err := ianaindex.IANA.Encoding(name); err != nil {
		return "", false
	}
	return name, true
}
