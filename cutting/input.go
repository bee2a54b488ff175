package cutting

import (
	"fmt"

	"github.com/qknit-team/qknit-engine/circuit"
	"github.com/qknit-team/qknit-engine/common"
	"github.com/qknit-team/qknit-engine/pauli"
	"github.com/qknit-team/qknit-engine/qpd"
	"go.uber.org/zap"
)

// CircuitInput is either a single unseparated circuit or a partition mapping
// of subcircuits. The union is resolved once, at the validator boundary.
type CircuitInput struct {
	single      *circuit.Circuit
	partitioned map[string]*circuit.Circuit
}

func SingleCircuit(qc *circuit.Circuit) CircuitInput {
	return CircuitInput{single: qc}
}

func PartitionedCircuits(m map[string]*circuit.Circuit) CircuitInput {
	return CircuitInput{partitioned: m}
}

func (c CircuitInput) IsPartitioned() bool {
	return c.partitioned != nil
}

// ObservableInput is either a flat observable list or a partition mapping of
// subobservable lists.
type ObservableInput struct {
	single      pauli.PauliList
	partitioned map[string]pauli.PauliList
}

func SingleObservables(l pauli.PauliList) ObservableInput {
	return ObservableInput{single: l}
}

func PartitionedObservables(m map[string]pauli.PauliList) ObservableInput {
	return ObservableInput{partitioned: m}
}

func (o ObservableInput) IsPartitioned() bool {
	return o.partitioned != nil
}

// SamplerInput is either a single sampler shared by all partitions or a
// partition mapping of pairwise distinct sampler instances.
type SamplerInput struct {
	single      Sampler
	partitioned map[string]Sampler
}

func SingleSampler(s Sampler) SamplerInput {
	return SamplerInput{single: s}
}

func PartitionedSamplers(m map[string]Sampler) SamplerInput {
	return SamplerInput{partitioned: m}
}

func (s SamplerInput) IsPartitioned() bool {
	return s.partitioned != nil
}

// experimentPlan is the normalized form of the three polymorphic inputs.
// For the single-circuit path, labels holds one empty label.
type experimentPlan struct {
	separated   bool
	labels      []string
	circuits    map[string]*circuit.Circuit
	observables map[string]pauli.PauliList
	samplers    map[string]Sampler

	// sharedSampler is set when one sampler instance serves every
	// partition; dispatch then funnels all sub-experiments through a
	// single worker.
	sharedSampler bool
}

const samplersTypeMsg = "the samplers input argument must be either a single Sampler instance " +
	"or a mapping from partition labels to Sampler instances"

func validateInputs(circuits CircuitInput, observables ObservableInput, numSamples int, samplers SamplerInput) (*experimentPlan, error) {
	plan := &experimentPlan{
		circuits:    map[string]*circuit.Circuit{},
		observables: map[string]pauli.PauliList{},
		samplers:    map[string]Sampler{},
	}

	switch {
	case circuits.IsPartitioned():
		if !observables.IsPartitioned() {
			return nil, invalidInputf("if a partition mapping of subcircuits is passed as the circuits argument, " +
				"a partition mapping of subobservables is expected as the observables argument")
		}
		if !common.SameLabelSets(circuits.partitioned, observables.partitioned) {
			return nil, invalidInputf("the keys for the circuits and observables mappings should be equivalent")
		}
		plan.separated = true
		plan.labels = common.SortedLabels(circuits.partitioned)
		for _, l := range plan.labels {
			plan.circuits[l] = circuits.partitioned[l]
			plan.observables[l] = observables.partitioned[l]
		}
	case circuits.single != nil:
		if observables.IsPartitioned() {
			return nil, invalidInputf("if a single circuit is passed as the circuits argument, " +
				"a flat observable list is expected as the observables argument")
		}
		plan.labels = []string{""}
		plan.circuits[""] = circuits.single
		plan.observables[""] = observables.single
	default:
		return nil, invalidInputf("the circuits input argument must be either a single circuit " +
			"or a mapping from partition labels to subcircuits")
	}

	if numSamples <= 0 {
		return nil, invalidInputf("the number of requested samples must be positive")
	}

	switch {
	case samplers.IsPartitioned():
		for _, s := range samplers.partitioned {
			if s == nil {
				return nil, invalidInputf(samplersTypeMsg)
			}
		}
		if !common.SameLabelSets(plan.circuits, samplers.partitioned) {
			return nil, invalidInputf("the keys for the circuits and samplers mappings should be equivalent")
		}
		seen := map[Sampler]string{}
		for _, l := range plan.labels {
			s := samplers.partitioned[l]
			if prev, ok := seen[s]; ok {
				// identity, not value equality: independently weighted
				// sub-experiments must not share backend state
				return nil, invalidInputf("if a samplers mapping is passed, each sampler must be unique; "+
					"however, subsystems %s were passed the same sampler",
					common.JoinLabels([]string{prev, l}))
			}
			seen[s] = l
			plan.samplers[l] = s
		}
	case samplers.single != nil:
		for _, l := range plan.labels {
			plan.samplers[l] = samplers.single
		}
		plan.sharedSampler = len(plan.labels) > 1
	default:
		return nil, invalidInputf(samplersTypeMsg)
	}

	for _, l := range plan.labels {
		qc := plan.circuits[l]
		if qc == nil {
			return nil, invalidInputf("the circuits input argument must be either a single circuit " +
				"or a mapping from partition labels to subcircuits")
		}
		if qc.HasClassicalStorage() {
			return nil, invalidInputf("circuits input to ExecuteExperiments should contain no classical registers or bits")
		}
		if !plan.separated {
			for _, inst := range qc.Instructions {
				if _, ok := inst.Op.(*qpd.SingleQubitGate); ok {
					return nil, invalidInputf("single-qubit QPD gates are not supported in unseparable circuits")
				}
			}
		}
	}

	zap.L().Debug(fmt.Sprintf("validated experiment inputs/partitions:%d/separated:%t",
		len(plan.labels), plan.separated))
	return plan, nil
}
