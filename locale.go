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

// Locale splits the MOBI header's locale field into its language and
// dialect bytes. The low byte is the language (e.g. 9 = English); the
// next byte is the dialect (e.g. 8 = British, 4 = US), so US English is
// 0x0409 = 1033 and UK English is 0x0809 = 2057. This packing is not
// documented on the public MOBI wiki pages.
func (b *Book) Locale() (language, dialect uint8) {
	return uint8(b.locale & 0xff), uint8((b.locale >> 8) & 0xff)
}
