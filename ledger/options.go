package ledger

import (
	"strconv"
)

// Built-in option defaults. User options override them; unknown options are
// retained and surfaced unchanged.
const (
	defaultOperatingCurrency  = "CNY"
	defaultRounding           = RoundDown
	defaultTolerancePrecision = 2
)

// Options is the evaluated option table: the recognized keys unpacked plus
// every option as written, last value winning.
type Options struct {
	Title              string
	OperatingCurrency  string
	DefaultRounding    Rounding
	TolerancePrecision int32
	Timezone           string

	// All holds every option key including unknown ones; repeated options
	// keep their full history in order.
	All map[string][]string
}

// NewOptions returns the option table with built-in defaults applied.
func NewOptions() *Options {
	return &Options{
		OperatingCurrency:  defaultOperatingCurrency,
		DefaultRounding:    defaultRounding,
		TolerancePrecision: defaultTolerancePrecision,
		All: map[string][]string{
			"operating_currency":                  {defaultOperatingCurrency},
			"default_rounding":                    {string(defaultRounding)},
			"default_balance_tolerance_precision": {strconv.Itoa(defaultTolerancePrecision)},
		},
	}
}

// Set records an option and applies it when the key is recognized.
// Returns an error for recognized keys with malformed values.
func (o *Options) Set(key, value string) error {
	o.All[key] = append(o.All[key], value)

	switch key {
	case "title":
		o.Title = value
	case "operating_currency":
		o.OperatingCurrency = value
	case "timezone":
		o.Timezone = value
	case "default_rounding":
		rounding, err := ParseRounding(value)
		if err != nil {
			return err
		}
		o.DefaultRounding = rounding
	case "default_balance_tolerance_precision":
		precision, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return err
		}
		o.TolerancePrecision = int32(precision)
	}

	return nil
}

// Get returns the effective (latest) value for a key, or "".
func (o *Options) Get(key string) string {
	values := o.All[key]
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}
