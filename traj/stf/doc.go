/*
 * doc.go, part of dispmi.
 *
 * Copyright 2021 Raul Mera <rauldotmeraatusachdotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

/*Package stf implements the simple trajectory format, a compressed plain-text trajectory format.
stf aims to produce reasonably small files and to be very easy to read and write, so readers/writers
can be easily implemented in other programming languages, while also being reasonably fast.

Format

An STF file is compressed, by default with z-standard (zstd). The last character of the
file extension selects the compression: 'z' gzip, 'l' lzw, 'r' raw deflate, anything else zstd
(the canonical extension is .stf).

The file starts with a header of key=value lines, ended by a line starting with "**" followed by
one or more spaces and the number of atoms per frame. The precision (a positive integer, see below)
is given with the key "prec". If absent, a precision of 2 is assumed.

After the header, the file has one line per atom, per frame. Each line contains 3 integers: the
x y and z cartesian coordinates in Angstrom multiplied by 10 to the power of the precision, and
rounded.

Each frame ends with a line starting with the character "*", optionally followed by one or more
whitespaces and 9 floating-point numbers, the vectors defining the simulation box, in Angstrom.
*/
package stf
