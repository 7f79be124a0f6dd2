package generator

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"math"
)

const (
	previewWidth   = 800
	previewHeight  = 600
	previewRadiusX = 290.0
	previewRadiusY = 220.0
)

// buildPreview draws the root label in the centre with one spoke per
// immediate child. It is a static summary, not a layout of the full tree.
func (s *service) buildPreview(_ context.Context, doc document) (built, error) {
	cx, cy := previewWidth/2.0, previewHeight/2.0

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		previewWidth, previewHeight, previewWidth, previewHeight)
	buf.WriteString(`<rect width="100%" height="100%" fill="#ffffff"/>` + "\n")
	buf.WriteString(`<g stroke="#94a3b8" stroke-width="1.5">` + "\n")

	children := doc.tree.Children
	points := make([][2]float64, len(children))
	for i := range children {
		angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(len(children))
		x := cx + previewRadiusX*math.Cos(angle)
		y := cy + previewRadiusY*math.Sin(angle)
		points[i] = [2]float64{x, y}
		fmt.Fprintf(&buf, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", cx, cy, x, y)
	}
	buf.WriteString("</g>\n")

	buf.WriteString(`<g font-family="system-ui, sans-serif" fill="#1e293b">` + "\n")
	for i, child := range children {
		x, y := points[i][0], points[i][1]
		anchor := "middle"
		switch {
		case x > cx+1:
			anchor = "start"
		case x < cx-1:
			anchor = "end"
		}
		fmt.Fprintf(&buf, `<text x="%.1f" y="%.1f" font-size="14" text-anchor="%s" dominant-baseline="middle">`, x, y, anchor)
		if err := xml.EscapeText(&buf, []byte(child.Title)); err != nil {
			return built{}, err
		}
		buf.WriteString("</text>\n")
	}

	fmt.Fprintf(&buf, `<text x="%.1f" y="%.1f" font-size="20" font-weight="600" text-anchor="middle" dominant-baseline="middle">`, cx, cy)
	if err := xml.EscapeText(&buf, []byte(doc.title)); err != nil {
		return built{}, err
	}
	buf.WriteString("</text>\n</g>\n</svg>\n")

	return built{data: buf.Bytes()}, nil
}
