/*
 * plot.go, part of goFF
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
*/

package chemplot

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"slices"

	"github.com/rmera/goff"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Formats accepted by Save, by file extension.
var Formats = []string{".png", ".svg", ".pdf", ".eps", ".jpg", ".tif"}

func basicPlot(title, xlabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "Energy (kJ/mol)"
	p.Add(plotter.NewGrid())
	return p
}

// Plot puts the profiles in one plot, each in its own color. xlabel
// names the sampled coordinate.
func Plot(profiles []Profile, title, xlabel string) (*plot.Plot, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: no profiles to plot", goff.ErrValue)
	}
	p := basicPlot(title, xlabel)
	for key, pr := range profiles {
		l, err := plotter.NewLine(pr.XY)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", pr.Name, err)
		}
		r, g, b := colors(key, len(profiles))
		l.LineStyle.Color = color.RGBA{R: r, G: g, B: b, A: 255}
		l.LineStyle.Width = vg.Points(1.5)
		//later profiles are dashed
		if key > 0 {
			l.LineStyle.Dashes = []vg.Length{vg.Points(4 + 2*float64(key)), vg.Points(3)}
		}
		p.Add(l)
		p.Legend.Add(pr.Name, l)
	}
	p.Legend.Top = true
	return p, nil
}

// Save writes p to filename, in the format given by its extension. Size
// is in centimeters.
func Save(p *plot.Plot, filename string, size float64) error {
	if !slices.Contains(Formats, filepath.Ext(filename)) {
		return fmt.Errorf("%w: can't write a plot as %q, supported formats: %v", goff.ErrValue, filepath.Ext(filename), Formats)
	}
	if size <= 0 {
		size = 12
	}
	return p.Save(vg.Length(size)*vg.Centimeter, vg.Length(size)*vg.Centimeter, filename)
}

// takes hue (0-360), v and s (0-1), returns r,g,b (0-255)
func iHVS2RGB(h, v, s float64) (uint8, uint8, uint8) {
	maxcolor := 255.0
	conversion := maxcolor * v
	if s == 0.0 {
		return uint8(conversion), uint8(conversion), uint8(conversion)
	}
	h = h / 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	var r, g, b float64
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default: //case 5
		r, g, b = v, p, q
	}
	return uint8(r * maxcolor), uint8(g * maxcolor), uint8(b * maxcolor)
}

// colors spreads steps hues over the spectrum, skipping the yellows,
// which are hard to see on white.
func colors(key, steps int) (r, g, b uint8) {
	norm := 260.0 / float64(steps)
	hp := float64(key)*norm + 20.0
	h := hp + 20.0
	if hp < 55 {
		h = hp - 20.0
	}
	return iHVS2RGB(h, 0.9, 1.0)
}
