package sim

import (
	"math"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

// QuasiDist is a signed distribution over measurement outcomes, keyed by the
// integer value of the classical bits (bit i of the key is classical bit i).
type QuasiDist map[uint64]float64

func (q QuasiDist) String() string {
	st, err := jsonIter.Marshal(q)
	if err != nil {
		zap.L().Error("Failed to marshal sim.QuasiDist")
		return ""
	}
	return string(st)
}

// Equal compares two distributions within an absolute tolerance, treating
// missing keys as zero.
func (q QuasiDist) Equal(o QuasiDist, tol float64) bool {
	for k, v := range q {
		if math.Abs(v-o[k]) > tol {
			return false
		}
	}
	for k, v := range o {
		if _, ok := q[k]; !ok && math.Abs(v) > tol {
			return false
		}
	}
	return true
}
