package chart

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/spacesedan/reviewsentiment/internal/models"
)

const (
	TITLE           = "Sentiment Distribution"
	CHART_FILE_MODE = 0o644

	minWidth     = 480
	slotWidth    = 120
	height       = 360
	marginLeft   = 40
	marginRight  = 40
	marginTop    = 48
	marginBottom = 56
	barFill      = 0.6
	glyphWidth   = 7
)

var ErrNoData = errors.New("nothing to chart")

var (
	background = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	axis       = color.RGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}
	text       = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	palette    = []color.RGBA{
		{R: 0x4c, G: 0x78, B: 0xa8, A: 0xff},
		{R: 0xf5, G: 0x85, B: 0x18, A: 0xff},
		{R: 0xe4, G: 0x57, B: 0x56, A: 0xff},
		{R: 0x72, G: 0xb7, B: 0xb2, A: 0xff},
		{R: 0x54, G: 0xa2, B: 0x4b, A: 0xff},
		{R: 0xb2, G: 0x79, B: 0xa2, A: 0xff},
	}
)

// BarColor is the fill used for the i-th bar.
func BarColor(i int) color.RGBA {
	return palette[i%len(palette)]
}

// Size returns the canvas size used for n bars.
func Size(n int) (int, int) {
	return max(minWidth, marginLeft+marginRight+n*slotWidth), height
}

// BarRects lays out one bar per label, left to right in the given order,
// with heights proportional to the counts.
func BarRects(counts []models.LabelCount) []image.Rectangle {
	width, h := Size(len(counts))
	plotWidth := width - marginLeft - marginRight
	plotHeight := h - marginTop - marginBottom
	baseline := h - marginBottom

	maxCount := 0
	for _, c := range counts {
		maxCount = max(maxCount, c.Count)
	}

	rects := make([]image.Rectangle, 0, len(counts))
	if maxCount == 0 {
		return rects
	}

	slot := plotWidth / len(counts)
	barWidth := int(float64(slot) * barFill)
	for i, c := range counts {
		x0 := marginLeft + i*slot + (slot-barWidth)/2
		barHeight := max(1, c.Count*plotHeight/maxCount)
		rects = append(rects, image.Rect(x0, baseline-barHeight, x0+barWidth, baseline))
	}
	return rects
}

// Render draws the bar chart as PNG.
func Render(w io.Writer, counts []models.LabelCount) error {
	if len(counts) == 0 {
		return ErrNoData
	}

	width, h := Size(len(counts))
	img := image.NewRGBA(image.Rect(0, 0, width, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	drawString(img, TITLE, (width-len(TITLE)*glyphWidth)/2, marginTop/2+6)

	baseline := h - marginBottom
	draw.Draw(img, image.Rect(marginLeft, baseline, width-marginRight, baseline+1), &image.Uniform{C: axis}, image.Point{}, draw.Src)

	slot := (width - marginLeft - marginRight) / len(counts)
	maxChars := max(1, slot/glyphWidth-1)
	for i, rect := range BarRects(counts) {
		draw.Draw(img, rect, &image.Uniform{C: BarColor(i)}, image.Point{}, draw.Src)

		value := strconv.Itoa(counts[i].Count)
		center := rect.Min.X + rect.Dx()/2
		drawString(img, value, center-len(value)*glyphWidth/2, rect.Min.Y-6)

		label := []rune(counts[i].Label)
		if len(label) > maxChars {
			label = append(label[:maxChars-1], '~')
		}
		drawString(img, string(label), center-len(label)*glyphWidth/2, baseline+20)
	}

	return png.Encode(w, img)
}

// RenderBarChart writes the chart to path, replacing any previous chart.
func RenderBarChart(path string, counts []models.LabelCount) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".chart-*.png")
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Render(tmp, counts); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if err := tmp.Chmod(CHART_FILE_MODE); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set chart permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush chart: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace chart: %w", err)
	}

	slog.Info("[Chart] Distribution chart written",
		slog.String("path", path),
		slog.Int("bars", len(counts)))
	return nil
}

func drawString(img draw.Image, s string, x, y int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: text},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
