package cutting

import (
	"context"

	"github.com/qknit-team/qknit-engine/circuit"
	"github.com/qknit-team/qknit-engine/sim"
)

// Sampler is the backend capability the dispatcher delegates execution to.
// Capability is queried through explicit flags rather than inspected from
// the concrete type.
type Sampler interface {
	Run(ctx context.Context, qc *circuit.Circuit) (sim.QuasiDist, error)

	// SupportsMidCircuitMeasurement reports whether the sampler, as
	// currently configured, can execute measurements followed by further
	// operations.
	SupportsMidCircuitMeasurement() bool

	// Shots returns the configured shot count, or nil for exact sampling.
	Shots() *int
}

// ShotGated is implemented by samplers whose mid-circuit measurement support
// depends on a finite shot count being configured. The dispatcher uses it to
// point the caller at the missing shot count instead of a blanket
// capability failure.
type ShotGated interface {
	MidCircuitMeasurementRequiresShots() bool
}

func checkSamplerCapability(s Sampler) error {
	if s.SupportsMidCircuitMeasurement() {
		return nil
	}
	if sg, ok := s.(ShotGated); ok && sg.MidCircuitMeasurementRequiresShots() && s.Shots() == nil {
		return invalidInputf("%T does not support mid-circuit measurements when shots is unset. "+
			"Use sim.ExactSampler to generate exact distributions for each subexperiment.", s)
	}
	return invalidInputf("%T does not support mid-circuit measurements. "+
		"Use sim.ExactSampler to generate exact distributions for each subexperiment.", s)
}
