// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"strings"

	"github.com/db47h/spinesim/fabric"
	"github.com/db47h/spinesim/internal/config"
	"github.com/db47h/spinesim/internal/observability"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type summary struct {
	Codes       int
	Driven      int
	Floating    int
	Contentions int
	Violations  int
	Mismatches  int
	MaxSteps    map[string]int
}

// OK returns true if the sweep found no contention, no exclusivity violation
// and no difference between the models.
//
func (s *summary) OK() bool {
	return s.Contentions == 0 && s.Violations == 0 && s.Mismatches == 0
}

// slotOutputs returns distinct output vectors for every slot of the chain.
//
func slotOutputs(cfg fabric.Config, units int) [][]uint64 {
	out := make([][]uint64, units)
	for u := range out {
		out[u] = make([]uint64, cfg.Slots())
		for i := range out[u] {
			out[u][i] = uint64(u*cfg.Slots()+i+1) * 0x0101010101010101
		}
	}
	return out
}

func outcome(r *fabric.Response, err error) string {
	switch {
	case err == nil && r.Out.User.IsDriven():
		return observability.OutcomeDriven
	case err == nil:
		return observability.OutcomeFloating
	}
	if _, ok := errors.Cause(err).(*fabric.ContentionError); ok {
		return observability.OutcomeContention
	}
	return observability.OutcomeError
}

// sweep evaluates every select code on the chain described by spine.
//
func sweep(spine config.Spine, gate bool, logger zerolog.Logger) (summary, error) {
	sum := summary{MaxSteps: make(map[string]int)}
	chain, err := fabric.NewChain(spine.Fabric, spine.Units, fabric.WithLogger(logger))
	if err != nil {
		return sum, err
	}
	if err = chain.Validate(); err != nil {
		logger.Warn().Err(err).Msg("spine units will contend")
	}
	var bench *fabric.Bench
	if gate {
		bench, err = fabric.NewBench(spine.Fabric, spine.Units,
			fabric.WithLogger(logger),
			fabric.WithWorkers(spine.Workers),
			fabric.WithSettleLimit(spine.SettleLimit))
		if err != nil {
			return sum, err
		}
		defer bench.Dispose()
		logger.Info().Int("components", bench.Circuit().Size()).Msg("gate-level chain built")
	}

	cfg := spine.Fabric
	out := slotOutputs(cfg, len(spine.Units))
	for code := fabric.SelectCode(0); code < 1<<fabric.SelectBits; code++ {
		sum.Codes++
		in := cfg.PackIn(fabric.InFrame{
			Select:  code,
			Payload: uint64(code)*0x9E3779B97F4A7C15 ^ 0x5555555555555555,
			Enable:  true,
		})
		ref, rerr := chain.Eval(in, out)
		oc := outcome(&ref.Response, rerr)
		observability.RecordEvaluation(observability.ModelReference, oc)
		switch oc {
		case observability.OutcomeDriven:
			sum.Driven++
		case observability.OutcomeFloating:
			sum.Floating++
		case observability.OutcomeContention:
			sum.Contentions++
		default:
			return sum, rerr
		}
		if err := chain.CheckExclusive(&ref.Response); err != nil {
			sum.Violations++
			observability.RecordExclusivityViolation()
			logger.Warn().Str("select", code.String()).Err(err).Msg("exclusivity violation")
		}
		if bench == nil {
			continue
		}

		got, gerr := bench.Eval(in, out)
		goc := outcome(&got.Response, gerr)
		observability.RecordEvaluation(observability.ModelGate, goc)
		if goc == observability.OutcomeError {
			return sum, gerr
		}
		for path, n := range got.PathSteps {
			observability.ObserveSettle(path, n)
			if n > sum.MaxSteps[path] {
				sum.MaxSteps[path] = n
			}
		}
		diff := ref.Diff(&got.Response)
		if goc != oc {
			diff = append(diff, "outcome: "+oc+" != "+goc)
		}
		if len(diff) > 0 {
			sum.Mismatches++
			observability.RecordMismatch()
			logger.Error().Str("select", code.String()).Str("diff", strings.Join(diff, "; ")).Msg("gate-level mismatch")
		}
	}
	return sum, nil
}
