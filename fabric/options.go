// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fabric

import "github.com/rs/zerolog"

// DefaultSettleLimit is the default step limit of a Bench evaluation.
//
const DefaultSettleLimit = 64

type options struct {
	log     zerolog.Logger
	workers int
	limit   int
}

func newOptions(opts []Option) *options {
	o := &options{log: zerolog.Nop(), limit: DefaultSettleLimit}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// An Option configures a Chain or a Bench.
//
type Option func(*options)

// WithLogger sets the logger used to trace evaluations. The default is
// zerolog.Nop().
//
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithWorkers sets the number of goroutines a Bench circuit uses. See
// spinesim.NewCircuit.
//
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithSettleLimit sets the maximum number of steps a Bench evaluation may
// take. Values <= 0 are ignored.
//
func WithSettleLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}
