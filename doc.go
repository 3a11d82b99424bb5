/*
 * doc.go, part of goFF
 *
 * Copyright 2025 Raul Mera A. (rmeraaatacademicosdotutadotcl)
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

/*
Package goff is the root of goFF, a force-field interchange layer.
Topologies and parameters are read from one simulation package's files
(see the amber package), stored with explicit units and deduplicated
parameters in a datalayer.DataLayer, and written in another package's format
(see the top package) without changing the energy of the system.

The root package only holds the error values shared by all the others.
The units, metadata and forms packages are process-wide and read-only after
initialization. A DataLayer is not safe for concurrent mutation.
*/
package goff
