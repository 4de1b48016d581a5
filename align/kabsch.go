/*
 * kabsch.go, part of dispmi.
 *
 * Copyright 2024 Raul Mera <rauldotmeraatusachdotcl>
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

package align

import (
	"context"

	chem "github.com/rmera/dispmi"
	v3 "github.com/rmera/dispmi/v3"
	"github.com/sirupsen/logrus"
)

// Kabsch fits frames in-process, with the least-squares rotation from chem.Super.
type Kabsch struct {
	log logrus.FieldLogger
}

// NewKabsch returns an in-process aligner. Only the Logger from o is used. o can be nil.
func NewKabsch(o *Options) *Kabsch {
	return &Kabsch{log: o.logger()}
}

// Align fits each frame onto ref. See Aligner.
func (K *Kabsch) Align(ctx context.Context, frames []*v3.Matrix, ref *v3.Matrix, subset []int) ([]*v3.Matrix, error) {
	subset, err := validate(frames, ref, subset)
	if err != nil {
		return nil, err
	}
	ret := make([]*v3.Matrix, len(frames))
	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ret[i], err = chem.Super(f, ref, subset)
		if err != nil {
			return nil, chem.NewError(chem.AlignmentFailure, "", err, "fitting frame %d", i)
		}
	}
	K.log.WithFields(logrus.Fields{"frames": len(frames), "atoms": ref.NVecs()}).Trace("frames fitted")
	return ret, nil
}

var _ Aligner = (*Kabsch)(nil)
