package cutting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	conq "github.com/enriquebris/goconcurrentqueue"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/qknit-team/qknit-engine/circuit"
	"github.com/qknit-team/qknit-engine/common"
	"github.com/qknit-team/qknit-engine/pauli"
	"github.com/qknit-team/qknit-engine/qpd"
	"github.com/qknit-team/qknit-engine/sim"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// SubResult is the outcome of one sub-experiment: a quasi-distribution whose
// lowest NumQPDBits classical bits are mid-circuit QPD measurement outcomes.
type SubResult struct {
	QuasiDist  sim.QuasiDist
	NumQPDBits int
}

// Bitstrings renders the distribution with binary keys, most significant bit
// first, split into the observable and QPD register parts. numClbits is the
// total classical width of the sub-experiment, observable bits included.
// Without QPD bits the label is the observable bitstring alone.
func (r SubResult) Bitstrings(numClbits int) (map[string]float64, error) {
	out := make(map[string]float64, len(r.QuasiDist))
	for key, val := range r.QuasiDist {
		full := ""
		if numClbits > 0 {
			full = fmt.Sprintf("%0*b", numClbits, key)
		}
		parts, err := common.DivideBitstringByLengths(full, []int{numClbits - r.NumQPDBits, r.NumQPDBits})
		if err != nil {
			return nil, err
		}
		label := parts[0]
		if r.NumQPDBits > 0 {
			label = parts[0] + " " + parts[1]
		}
		out[label] += val
	}
	return out, nil
}

// Coefficient pairs the weight of one basis combination with its provenance.
type Coefficient struct {
	Value float64
	Kind  qpd.WeightType
}

type EvaluationMetadata struct {
	ID             string
	Started        strfmt.DateTime
	Ended          strfmt.DateTime
	Subexperiments int
}

// EvaluationResult holds the raw quasi-distributions of every sub-experiment,
// indexed congruently with the QPD weight decomposition: one row per basis
// combination, one column per partition, one entry per commuting observable
// group of that partition.
type EvaluationResult struct {
	QuasiDists   [][][]SubResult
	Coefficients []Coefficient
	Labels       []string
	Groups       map[string][]*pauli.CommutingObservableGroup
	Metadata     EvaluationMetadata
}

// qpdRef locates one QPD gate inside a partition's circuit.
type qpdRef struct {
	instIdx int
	label   string
}

// decomposition is the set of cuts found across all partitions, in a
// deterministic first-occurrence order over sorted partition labels.
type decomposition struct {
	cutLabels []string
	bases     []*qpd.Basis
	index     map[string]int
	refs      map[string][]qpdRef
}

type subExperiment struct {
	weightIdx  int
	partIdx    int
	groupIdx   int
	qc         *circuit.Circuit
	numQPDBits int
}

// ExecuteExperiments evaluates a cut circuit: it enumerates the weighted
// basis combinations of all QPD cuts, instantiates one measurement-augmented
// sub-experiment circuit per (combination, partition, observable group),
// dispatches them to the partition's sampler, and returns the assembled
// quasi-distributions with coefficient metadata. Input circuits are never
// mutated.
func ExecuteExperiments(ctx context.Context, circuits CircuitInput, observables ObservableInput,
	numSamples int, samplers SamplerInput) (*EvaluationResult, error) {
	started := strfmt.DateTime(time.Now())

	plan, err := validateInputs(circuits, observables, numSamples, samplers)
	if err != nil {
		zap.L().Info(fmt.Sprintf("failed to validate experiment inputs. Reason:%s", err.Error()))
		return nil, err
	}

	checked := map[Sampler]bool{}
	for _, l := range plan.labels {
		s := plan.samplers[l]
		if checked[s] {
			continue
		}
		checked[s] = true
		if err := checkSamplerCapability(s); err != nil {
			zap.L().Info(err.Error())
			return nil, err
		}
	}

	d, err := decomposePlan(plan)
	if err != nil {
		zap.L().Info(err.Error())
		return nil, err
	}

	weights, err := qpd.GenerateWeights(d.bases, float64(numSamples), nil)
	if err != nil {
		return nil, err
	}

	groupsByLabel := map[string][]*pauli.CommutingObservableGroup{}
	for _, l := range plan.labels {
		groups, err := pauli.GroupCommutingObservables(plan.observables[l])
		if err != nil {
			return nil, err
		}
		groupsByLabel[l] = groups
	}

	tasks, results, err := buildSubexperiments(plan, d, weights, groupsByLabel)
	if err != nil {
		return nil, err
	}
	zap.L().Debug(fmt.Sprintf("prepared %d subexperiment(s) from %d weight(s) across %d partition(s)",
		len(tasks), len(weights), len(plan.labels)))

	if err := dispatch(ctx, plan, tasks, results); err != nil {
		return nil, err
	}

	coefficients := make([]Coefficient, len(weights))
	for i, w := range weights {
		coefficients[i] = Coefficient{Value: w.Coefficient, Kind: w.Kind}
	}
	return &EvaluationResult{
		QuasiDists:   results,
		Coefficients: coefficients,
		Labels:       append([]string(nil), plan.labels...),
		Groups:       groupsByLabel,
		Metadata: EvaluationMetadata{
			ID:             uuid.NewString(),
			Started:        started,
			Ended:          strfmt.DateTime(time.Now()),
			Subexperiments: len(tasks),
		},
	}, nil
}

func decomposePlan(plan *experimentPlan) (*decomposition, error) {
	d := &decomposition{
		index: map[string]int{},
		refs:  map[string][]qpdRef{},
	}
	basesByLabel := map[string]*qpd.Basis{}
	anonymous := 0
	for _, pl := range plan.labels {
		qc := plan.circuits[pl]
		for i, inst := range qc.Instructions {
			var basis *qpd.Basis
			var label string
			switch op := inst.Op.(type) {
			case *qpd.TwoQubitGate:
				basis, label = op.Basis, op.Label
				if label == "" {
					label = fmt.Sprintf("cut_%d", anonymous)
					anonymous++
				}
			case *qpd.SingleQubitGate:
				basis, label = op.Basis, op.Label
				if label == "" {
					return nil, invalidInputf("single-qubit QPD gate at instruction %d of partition %s has no cut label", i, pl)
				}
			default:
				continue
			}
			if prev, ok := basesByLabel[label]; ok {
				if !prev.Equal(basis) {
					return nil, invalidInputf("conflicting bases for cut label:%s", label)
				}
			} else {
				basesByLabel[label] = basis
				d.index[label] = len(d.cutLabels)
				d.cutLabels = append(d.cutLabels, label)
				d.bases = append(d.bases, basis)
			}
			d.refs[pl] = append(d.refs[pl], qpdRef{instIdx: i, label: label})
		}
	}
	return d, nil
}

func buildSubexperiments(plan *experimentPlan, d *decomposition, weights []qpd.Weight,
	groupsByLabel map[string][]*pauli.CommutingObservableGroup) ([]*subExperiment, [][][]SubResult, error) {
	tasks := []*subExperiment{}
	results := make([][][]SubResult, len(weights))
	for wIdx, w := range weights {
		results[wIdx] = make([][]SubResult, len(plan.labels))
		for pIdx, pl := range plan.labels {
			instantiated, numQPDBits, err := instantiateSubcircuit(plan.circuits[pl], d.refs[pl], d, w)
			if err != nil {
				return nil, nil, err
			}
			groups := groupsByLabel[pl]
			results[wIdx][pIdx] = make([]SubResult, len(groups))
			for gIdx, g := range groups {
				qc, err := AppendMeasurementCircuit(instantiated, g)
				if err != nil {
					return nil, nil, err
				}
				tasks = append(tasks, &subExperiment{
					weightIdx:  wIdx,
					partIdx:    pIdx,
					groupIdx:   gIdx,
					qc:         qc,
					numQPDBits: numQPDBits,
				})
			}
		}
	}
	return tasks, results, nil
}

// instantiateSubcircuit builds a fresh circuit with each QPD gate replaced
// by the decomposition map the weight selects for its cut. Mid-circuit QPD
// measurements go into a dedicated register below the observable bits.
func instantiateSubcircuit(qc *circuit.Circuit, refs []qpdRef, d *decomposition, w qpd.Weight) (*circuit.Circuit, int, error) {
	chosen := map[int]qpd.Map{}
	numQPDBits := 0
	for _, r := range refs {
		cut := d.index[r.label]
		basis := d.bases[cut]
		id := w.BasisIDs[cut]
		m := basis.Maps[id]
		chosen[r.instIdx] = m
		switch op := qc.Instructions[r.instIdx].Op.(type) {
		case *qpd.TwoQubitGate:
			numQPDBits += basis.MidCircuitMeasurements(id)
		case *qpd.SingleQubitGate:
			numQPDBits += basis.LegMidCircuitMeasurements(id, op.QubitID)
		}
	}

	out := circuit.New(qc.NumQubits())
	if numQPDBits > 0 {
		if err := out.AddRegister(QPDRegisterName, numQPDBits); err != nil {
			return nil, 0, err
		}
	}
	qpdBit := 0
	for i, inst := range qc.Instructions {
		if m, ok := chosen[i]; ok {
			switch op := inst.Op.(type) {
			case *qpd.TwoQubitGate:
				for leg, ops := range m {
					if err := appendMapOps(out, ops, inst.Qubits[leg], &qpdBit); err != nil {
						return nil, 0, err
					}
				}
			case *qpd.SingleQubitGate:
				if err := appendMapOps(out, m[op.QubitID], inst.Qubits[0], &qpdBit); err != nil {
					return nil, 0, err
				}
			}
			continue
		}
		if err := out.Append(inst.Op, inst.Qubits); err != nil {
			return nil, 0, err
		}
	}
	return out, numQPDBits, nil
}

func appendMapOps(out *circuit.Circuit, ops []circuit.Operation, q int, qpdBit *int) error {
	for _, op := range ops {
		if _, ok := op.(qpd.QPDMeasure); ok {
			offset, err := out.RegisterOffset(QPDRegisterName)
			if err != nil {
				return err
			}
			if err := out.Measure(q, offset+*qpdBit); err != nil {
				return err
			}
			*qpdBit++
			continue
		}
		if err := out.Append(op, []int{q}); err != nil {
			return err
		}
	}
	return nil
}

// experimentFIFO is a typed wrapper around the concurrent FIFO used as a
// per-worker sub-experiment queue.
type experimentFIFO struct {
	conq.FIFO
}

func newExperimentFIFO() *experimentFIFO {
	return &experimentFIFO{FIFO: *conq.NewFIFO()}
}

func (f *experimentFIFO) Enqueue(se *subExperiment) error {
	return f.FIFO.Enqueue(se)
}

func (f *experimentFIFO) Dequeue() (*subExperiment, error) {
	tmp, err := f.FIFO.Dequeue()
	if err != nil {
		return nil, err
	}
	return tmp.(*subExperiment), nil
}

// dispatch runs each partition's sub-experiments in order on a worker
// dedicated to that partition's sampler. Samplers are not assumed
// thread-safe, so one worker never shares a sampler with another; a single
// shared sampler means a single worker. Any failure cancels the remaining
// work and aborts the evaluation.
func dispatch(ctx context.Context, plan *experimentPlan, tasks []*subExperiment, results [][][]SubResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	queues := map[Sampler]*experimentFIFO{}
	for _, t := range tasks {
		s := plan.samplers[plan.labels[t.partIdx]]
		q, ok := queues[s]
		if !ok {
			q = newExperimentFIFO()
			queues[s] = q
		}
		if err := q.Enqueue(t); err != nil {
			return err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errChan := make(chan error, len(queues))
	var wg sync.WaitGroup
	for s, q := range queues {
		wg.Add(1)
		go func(s Sampler, q *experimentFIFO) {
			defer wg.Done()
			for q.GetLen() > 0 {
				t, err := q.Dequeue()
				if err != nil {
					errChan <- err
					cancel()
					return
				}
				dist, err := s.Run(runCtx, t.qc)
				if err != nil {
					zap.L().Error(fmt.Sprintf("failed to execute a subexperiment(weight:%d/partition:%s/group:%d). Reason:%s",
						t.weightIdx, plan.labels[t.partIdx], t.groupIdx, err.Error()))
					errChan <- err
					cancel()
					return
				}
				results[t.weightIdx][t.partIdx][t.groupIdx] = SubResult{
					QuasiDist:  dist,
					NumQPDBits: t.numQPDBits,
				}
			}
		}(s, q)
	}
	wg.Wait()
	close(errChan)

	var combined error
	sawCancellation := false
	for err := range errChan {
		if errors.Is(err, context.Canceled) {
			sawCancellation = true
			continue
		}
		combined = multierr.Append(combined, err)
	}
	if combined != nil {
		return combined
	}
	if sawCancellation {
		return ctx.Err()
	}
	return nil
}
