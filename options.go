package exprate

import (
	"github.com/YuminosukeSato/exprate/pkg/errors"
)

// Default values for the fitting tunables.
const (
	DefaultTrustRadius = 0.1
	DefaultIterations  = 50
	DefaultThreshold   = 0.001
	DefaultMinLambda   = 1e-8
)

// Options holds the recognized tunables for an exponential fit. The zero
// value of any numeric field means "use the default"; MaxLambda is special in
// that zero also means unbounded. Options are read-only for the duration of a
// batch run.
type Options struct {
	// TrustRadius bounds how far a single Newton step may move each
	// parameter, as a fraction of its current magnitude. Default 0.1.
	TrustRadius float64

	// Iterations caps the number of Newton steps per dataset. A fit that
	// exhausts the cap without converging is marked bad. Default 50.
	Iterations int

	// Threshold is the relative change in sum-of-squared-error below which
	// a non-forced round declares convergence. Default 0.001.
	Threshold float64

	// MinLambda invalidates a fit whose |lambda| falls below it; this is the
	// backstop for degenerate estimates that produce non-finite lambda.
	// Default 1e-8.
	MinLambda float64

	// MaxLambda, when positive, invalidates a fit whose |lambda| exceeds it.
	// Zero means unbounded. Default 0.
	MaxLambda float64

	// EachIteration, when set, is invoked before every Newton step and once
	// more with the final values when a fit leaves its iteration loop. A
	// returned error aborts the whole batch.
	EachIteration IterationCallback

	// EachFit, when set, is invoked after each dataset is finalized.
	// Returning false aborts the batch: datasets not yet started are never
	// processed and their result slots keep their zero values.
	EachFit FitCallback
}

// DefaultOptions returns an Options with every tunable at its default.
func DefaultOptions() Options {
	return Options{
		TrustRadius: DefaultTrustRadius,
		Iterations:  DefaultIterations,
		Threshold:   DefaultThreshold,
		MinLambda:   DefaultMinLambda,
	}
}

// withDefaults fills zero-valued tunables with their defaults, following the
// same convention as the rest of the constructors in this module: a zero
// field was simply never set.
func (o Options) withDefaults() Options {
	if o.TrustRadius == 0 {
		o.TrustRadius = DefaultTrustRadius
	}
	if o.Iterations == 0 {
		o.Iterations = DefaultIterations
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.MinLambda == 0 {
		o.MinLambda = DefaultMinLambda
	}
	return o
}

// Validate checks the tunables once at batch entry.
func (o Options) Validate() error {
	if o.TrustRadius <= 0 {
		return errors.NewValidationError("trust_radius", "must be positive", o.TrustRadius)
	}
	if o.Iterations <= 0 {
		return errors.NewValidationError("iterations", "must be positive", o.Iterations)
	}
	if o.Threshold <= 0 {
		return errors.NewValidationError("threshold", "must be positive", o.Threshold)
	}
	if o.MinLambda < 0 {
		return errors.NewValidationError("min_lambda", "must be non-negative", o.MinLambda)
	}
	if o.MaxLambda < 0 {
		return errors.NewValidationError("max_lambda", "must be non-negative (zero means unbounded)", o.MaxLambda)
	}
	return nil
}

// optionAliases maps the accepted option names (and their aliases) to the
// canonical name. Unknown names are ignored rather than rejected, so callers
// may pass through larger option sets untouched.
var optionAliases = map[string]string{
	"trust_radius": "trust_radius",
	"trust":        "trust_radius",
	"iterations":   "iterations",
	"max_iter":     "iterations",
	"threshold":    "threshold",
	"min_lambda":   "min_lambda",
	"max_lambda":   "max_lambda",
}

// OptionsFromPairs builds an Options from an alternating key/value list, the
// form in which host environments typically hand over option dictionaries.
// Odd-length input is rejected before any fitting begins. Unrecognized keys
// are ignored. Numeric values may be any integer or float type.
func OptionsFromPairs(kv ...any) (Options, error) {
	opts := DefaultOptions()
	if len(kv)%2 != 0 {
		return opts, errors.NewValidationError("options", "key/value list has odd length", len(kv))
	}

	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return opts, errors.NewValidationError("options", "option key is not a string", kv[i])
		}

		switch optionAliases[key] {
		case "trust_radius":
			v, err := toFloat(key, kv[i+1])
			if err != nil {
				return opts, err
			}
			opts.TrustRadius = v
		case "iterations":
			v, err := toFloat(key, kv[i+1])
			if err != nil {
				return opts, err
			}
			opts.Iterations = int(v)
		case "threshold":
			v, err := toFloat(key, kv[i+1])
			if err != nil {
				return opts, err
			}
			opts.Threshold = v
		case "min_lambda":
			v, err := toFloat(key, kv[i+1])
			if err != nil {
				return opts, err
			}
			opts.MinLambda = v
		case "max_lambda":
			v, err := toFloat(key, kv[i+1])
			if err != nil {
				return opts, err
			}
			opts.MaxLambda = v
		}
	}
	return opts, nil
}

func toFloat(key string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	}
	return 0, errors.NewValidationError(key, "value is not numeric", v)
}
