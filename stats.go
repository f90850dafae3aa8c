package edgeblend

import (
	"log/slog"
	"time"

	"github.com/gogpu/edgeblend/compute"
)

// Stats describes one pipeline run.
type Stats struct {
	// Backend is the name of the backend that ran the pipeline.
	Backend string

	// Width and Height are the image size.
	Width, Height int

	// EdgeMax is the largest mixed gradient magnitude. Zero means the
	// image had no edges.
	EdgeMax float32

	// Max is the global maximum of the smoothed support map before its
	// normalization. It lies in [0, 1] and is zero only for flat images.
	Max float32

	// ReductionPasses is the number of launches of each max reduction.
	ReductionPasses int

	// Stages holds the accumulated wall time per stage, barrier included.
	Stages [compute.StageCount]time.Duration

	// Total is the wall time of the whole run.
	Total time.Duration
}

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("backend", s.Backend),
		slog.Int("width", s.Width),
		slog.Int("height", s.Height),
		slog.Float64("edge_max", float64(s.EdgeMax)),
		slog.Float64("max", float64(s.Max)),
		slog.Int("reduction_passes", s.ReductionPasses),
		slog.Duration("total", s.Total),
	}
	for st := compute.Stage(0); st < compute.StageCount; st++ {
		attrs = append(attrs, slog.Duration(st.String(), s.Stages[st]))
	}
	return slog.GroupValue(attrs...)
}
