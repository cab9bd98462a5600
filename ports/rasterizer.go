package ports

import (
	"io"

	"autodash/domain/report"
)

// ChartRasterizer turns a chart into a PNG file for static documents.
// Implementations return core.ErrRasterUnavailable when they can't raster.
type ChartRasterizer interface {
	RasterizePNG(chart report.Chart, path string, width, height int) error
}

// ChartVectorRenderer writes a chart as inline SVG
type ChartVectorRenderer interface {
	RenderSVG(chart report.Chart, w io.Writer, width, height int) error
}
