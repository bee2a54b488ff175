package engine

import (
	"context"
	"fmt"

	"github.com/go-openapi/strfmt"
	jsoniter "github.com/json-iterator/go"
	"github.com/qknit-team/qknit-engine/cutting"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
)

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

// Report is the serializable outcome of one scenario evaluation.
type Report struct {
	ID             string            `json:"id"`
	Started        strfmt.DateTime   `json:"started"`
	Ended          strfmt.DateTime   `json:"ended"`
	Observables    []string          `json:"observables"`
	Values         []float64         `json:"values"`
	Coefficients   []float64         `json:"coefficients"`
	WeightKinds    []string          `json:"weight_kinds"`
	Partitions     []string          `json:"partitions"`
	Subexperiments int               `json:"subexperiments"`
	Distributions  []SubDistribution `json:"distributions"`
}

// SubDistribution is one sub-experiment's quasi-distribution with outcome
// keys rendered as "observable qpd" bitstrings.
type SubDistribution struct {
	Weight    int                `json:"weight"`
	Partition string             `json:"partition"`
	Group     int                `json:"group"`
	Outcomes  map[string]float64 `json:"outcomes"`
}

// Pretty renders the report as indented json.
func (r *Report) Pretty() (string, error) {
	raw, err := jsonIter.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(pretty.Pretty(raw)), nil
}

// Evaluate runs one scenario end to end: partition when labels are given,
// execute the sub-experiments on the sampler and reconstruct the expectation
// values of the scenario's observables.
func Evaluate(ctx context.Context, sc *Scenario, sampler cutting.Sampler) (*Report, error) {
	qc, err := sc.BuildCircuit()
	if err != nil {
		return nil, err
	}
	observables, err := sc.BuildObservables()
	if err != nil {
		return nil, err
	}

	circuits := cutting.SingleCircuit(qc)
	obsInput := cutting.SingleObservables(observables)
	if sc.PartitionLabels != "" {
		prob, err := cutting.PartitionProblem(qc, sc.PartitionLabels, observables)
		if err != nil {
			return nil, err
		}
		circuits = cutting.PartitionedCircuits(prob.Subcircuits)
		obsInput = cutting.PartitionedObservables(prob.Subobservables)
	}

	res, err := cutting.ExecuteExperiments(ctx, circuits, obsInput, sc.NumSamples,
		cutting.SingleSampler(sampler))
	if err != nil {
		return nil, err
	}
	values, err := cutting.ReconstructExpectationValues(res, obsInput)
	if err != nil {
		return nil, err
	}
	zap.L().Info(fmt.Sprintf("evaluated %d subexperiment(s) for %d observable(s)",
		res.Metadata.Subexperiments, len(values)))

	report := &Report{
		ID:             res.Metadata.ID,
		Started:        res.Metadata.Started,
		Ended:          res.Metadata.Ended,
		Observables:    sc.Observables,
		Values:         values,
		Partitions:     res.Labels,
		Subexperiments: res.Metadata.Subexperiments,
	}
	for _, c := range res.Coefficients {
		report.Coefficients = append(report.Coefficients, c.Value)
		report.WeightKinds = append(report.WeightKinds, c.Kind.String())
	}
	for w := range res.QuasiDists {
		for p, l := range res.Labels {
			for g, sub := range res.QuasiDists[w][p] {
				numClbits := res.Groups[l][g].NumMeasurements() + sub.NumQPDBits
				outcomes, err := sub.Bitstrings(numClbits)
				if err != nil {
					return nil, err
				}
				report.Distributions = append(report.Distributions, SubDistribution{
					Weight:    w,
					Partition: l,
					Group:     g,
					Outcomes:  outcomes,
				})
			}
		}
	}
	return report, nil
}
