// Copyright (C) The Adex Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package adex

import (
	"flag"
	"fmt"
	"image/color"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// TargetColor pairs one category value with the color its samples are
// drawn in.
type TargetColor struct {
	Target string
	Color  color.Color
}

// PlotColors says which categorical column splits the samples into
// series, and which color each category gets. Categories are drawn and
// listed in the legend in the given order.
type PlotColors struct {
	Column  string
	Targets []TargetColor
}

// Plot2D renders a scatter plot of two numeric columns of a
// preprocessed table and writes it to outputFilename (format chosen by
// extension, e.g. .png or .svg). The title names the selector the data
// came from and the method that produced the plotted columns ("PCA",
// "t-SNE", ...). Rows with a null in either plotted column are skipped.
func Plot2D(sel Selector, method, xLabel, yLabel string, t *Table, colors PlotColors, outputFilename string) error {
	title, err := selectorTitle(sel, method)
	if err != nil {
		return err
	}
	for _, col := range []string{xLabel, yLabel, colors.Column} {
		if !t.HasColumn(col) {
			return dataErrorf("plot: no such column %q", col)
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(20)
	p.X.Label.Text = xLabel
	p.X.Label.TextStyle.Font.Size = vg.Points(20)
	p.Y.Label.Text = yLabel
	p.Y.Label.TextStyle.Font.Size = vg.Points(20)
	p.Legend.TextStyle.Font.Size = vg.Points(15)

	for _, tc := range colors.Targets {
		var xys plotter.XYs
		for row := 0; row < t.Len(); row++ {
			if t.At(row, colors.Column) != tc.Target {
				continue
			}
			x, xok := t.At(row, xLabel).(float64)
			y, yok := t.At(row, yLabel).(float64)
			if !xok || !yok {
				continue
			}
			xys = append(xys, plotter.XY{X: x, Y: y})
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		scatter.GlyphStyle = draw.GlyphStyle{Color: tc.Color, Radius: vg.Points(4), Shape: draw.CircleGlyph{}}
		p.Add(scatter)
		p.Legend.Add(tc.Target, scatter)
	}
	return p.Save(10*vg.Inch, 10*vg.Inch, outputFilename)
}

// namedColors is the palette the plot command accepts on the command
// line.
var namedColors = map[string]color.Color{
	"blue":   color.RGBA{B: 0xff, A: 0xff},
	"red":    color.RGBA{R: 0xff, A: 0xff},
	"green":  color.RGBA{G: 0xa0, A: 0xff},
	"orange": color.RGBA{R: 0xff, G: 0xa5, A: 0xff},
	"purple": color.RGBA{R: 0x80, B: 0x80, A: 0xff},
	"black":  color.RGBA{A: 0xff},
	"gray":   color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff},
}

// parseTargetColors parses "Healthy=green,Diseased=red".
func parseTargetColors(spec string) ([]TargetColor, error) {
	var out []TargetColor
	for _, pair := range strings.Split(spec, ",") {
		target, name, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, configErrorf("malformed target color %q (want label=color)", pair)
		}
		c, ok := namedColors[name]
		if !ok {
			return nil, configErrorf("unknown color %q in %q", name, pair)
		}
		out = append(out, TargetColor{Target: target, Color: c})
	}
	return out, nil
}

type plotcmd struct{}

func (cmd *plotcmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "", "preprocessed input `file` (parquet)")
	outputFilename := flags.String("o", "plot.png", "output `file` (.png, .svg, .pdf)")
	method := flags.String("method", "PCA", "`name` of the method that produced the plotted columns, used in the title")
	xLabel := flags.String("x", "PC1", "x axis `column`")
	yLabel := flags.String("y", "PC2", "y axis `column`")
	colorColumn := flags.String("color-column", "Condition", "categorical `column` that assigns colors")
	targets := flags.String("targets", "", "comma-separated `label=color` pairs, e.g. 'Healthy=green,SLE=red'")
	var selflags selectorFlags
	selflags.Flags(flags)
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}

	sel, err := selflags.Selector()
	if err != nil {
		return 2
	}
	if *targets == "" {
		err = configErrorf("-targets is required, e.g. -targets 'Healthy=green,SLE=red'")
		return 2
	}
	targetColors, err := parseTargetColors(*targets)
	if err != nil {
		return 2
	}
	table, err := ReadParquetTable(*inputFilename)
	if err != nil {
		return 1
	}
	log.Printf("plotting %d samples", table.Len())
	err = Plot2D(sel, *method, *xLabel, *yLabel, table, PlotColors{Column: *colorColumn, Targets: targetColors}, *outputFilename)
	if err != nil {
		return 1
	}
	fmt.Fprintln(stdout, *outputFilename)
	return 0
}
