package sim

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/qknit-team/qknit-engine/circuit"
)

// ExactSampler produces exact quasi-distributions by branching on every
// measurement. It supports mid-circuit measurement without shots.
// The id keeps independently constructed instances at distinct addresses;
// zero-size values may share one, which would conflate them in
// sampler-identity maps.
type ExactSampler struct {
	id string
}

func NewExactSampler() *ExactSampler {
	return &ExactSampler{id: uuid.NewString()}
}

// ID distinguishes this instance from other samplers of the same type.
func (s *ExactSampler) ID() string { return s.id }

func (s *ExactSampler) Run(ctx context.Context, qc *circuit.Circuit) (QuasiDist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Run(qc)
}

func (s *ExactSampler) SupportsMidCircuitMeasurement() bool { return true }
func (s *ExactSampler) Shots() *int                         { return nil }

// ShotSampler samples measurement outcomes shot by shot. Without an explicit
// shot count it falls back to exact statevector mode, which cannot execute
// mid-circuit measurements.
type ShotSampler struct {
	shotCount *int
	rng       *rand.Rand
}

func NewShotSampler(shots int) *ShotSampler {
	s := shots
	return &ShotSampler{
		shotCount: &s,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewExactModeShotSampler builds a ShotSampler with no shot count configured.
func NewExactModeShotSampler() *ShotSampler {
	return &ShotSampler{}
}

// WithSeed fixes the sampling RNG for reproducible runs.
func (s *ShotSampler) WithSeed(seed int64) *ShotSampler {
	s.rng = rand.New(rand.NewSource(seed))
	return s
}

func (s *ShotSampler) Run(ctx context.Context, qc *circuit.Circuit) (QuasiDist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.shotCount == nil {
		if HasMidCircuitMeasurement(qc) {
			return nil, fmt.Errorf("cannot execute mid-circuit measurements without an explicit shot count")
		}
		return Run(qc)
	}
	return RunShots(qc, *s.shotCount, s.rng)
}

func (s *ShotSampler) SupportsMidCircuitMeasurement() bool { return s.shotCount != nil }
func (s *ShotSampler) Shots() *int                         { return s.shotCount }

// MidCircuitMeasurementRequiresShots marks the sampler as shot-gated: it
// could execute mid-circuit measurements if a finite shot count were set.
func (s *ShotSampler) MidCircuitMeasurementRequiresShots() bool { return true }

// PlainSampler computes exact distributions from terminal measurements only.
// It never supports mid-circuit measurement. The id serves the same purpose
// as on ExactSampler.
type PlainSampler struct {
	id string
}

func NewPlainSampler() *PlainSampler {
	return &PlainSampler{id: uuid.NewString()}
}

func (s *PlainSampler) ID() string { return s.id }

func (s *PlainSampler) Run(ctx context.Context, qc *circuit.Circuit) (QuasiDist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if HasMidCircuitMeasurement(qc) {
		return nil, fmt.Errorf("cannot execute mid-circuit measurements")
	}
	return Run(qc)
}

func (s *PlainSampler) SupportsMidCircuitMeasurement() bool { return false }
func (s *PlainSampler) Shots() *int                         { return nil }
