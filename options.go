package signalvec

import (
	"github.com/juju/loggo"
)

type Options struct {
	logger   *loggo.Logger
	metrics  *Metrics
	tieBreak TieBreak
}

// The default options.
var DefaultOptions = Options{}

// WithLogger creates a new option object which logs through the given logger
// instead of the operator's own named logger.
func (options Options) WithLogger(logger loggo.Logger) Options {
	options.logger = &logger
	return options
}

// WithMetrics creates a new option object which records diff counts and
// pending queue depths into the given metrics.
func (options Options) WithMetrics(metrics *Metrics) Options {
	options.metrics = metrics
	return options
}

// WithTieBreak creates a new option object with a given policy for comparator
// results of Equal in Merge.
//
// The default policy is TiePanic.
func (options Options) WithTieBreak(tieBreak TieBreak) Options {
	options.tieBreak = tieBreak
	return options
}

func (options Options) loggerFor(name string) loggo.Logger {
	if options.logger != nil {
		return *options.logger
	}
	return loggo.GetLogger(name)
}
