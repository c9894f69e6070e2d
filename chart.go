package docmorph

import "context"

// ChartRenderer turns a chart specification into image bytes. The engine
// treats the output as an opaque embeddable image and never inspects or
// regenerates it. Implementations live outside this module.
type ChartRenderer interface {
	RenderChart(ctx context.Context, spec []byte) ([]byte, error)
}
