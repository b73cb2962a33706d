// Package compiler holds the SDCC option tables and the compile options a
// user submits.
package compiler

import (
	"net/url"
	"slices"
	"strconv"

	"github.com/hay-kot/asmbench/internal/core/errs"
)

var standards = []string{"c89", "sdcc89", "c95", "c99", "sdcc99", "c11", "sdcc11", "c2x", "sdcc2x"}

var optimizations = []string{
	"noloopreverse", "nolabelopt", "no-xinit-opt", "nooverlay", "no-peep", "peep-return",
	"no-peep-return", "opt-code-speed", "opt-code-size", "fomit-frame-pointer", "nolospre", "nostdlibcall",
}

// Family groups processors sharing the same dependent options.
type Family string

const (
	FamilyMCS51 Family = "mcs51"
	FamilyDS390 Family = "ds390"
	FamilyZ80   Family = "z80"
	FamilySM83  Family = "sm83"
	FamilySTM8  Family = "stm8"
)

var families = map[Family][]string{
	FamilyMCS51: {"model-small", "model-medium", "model-large", "model-huge"},
	FamilyDS390: {"model-flat24", "protect-sp-update", "stack-10bit", "stack-probe", "use-accelerator"},
	FamilyZ80:   {"no-std-crt0", "callee-saves-bc", "reserve-regs-iy", "fno-omit-frame-pointer"},
	FamilySM83:  {"no-std-crt0", "callee-saves-bc"},
	FamilySTM8:  {"model-medium", "model-large"},
}

// processors lists every target in menu order with its family.
var processors = []struct {
	name   string
	family Family
}{
	{"mcs51", FamilyMCS51},
	{"ds390", FamilyDS390},
	{"ds400", FamilyDS390},
	{"z80", FamilyZ80},
	{"z180", FamilyZ80},
	{"r2k", FamilyZ80},
	{"r2ka", FamilyZ80},
	{"r3ka", FamilyZ80},
	{"r4k", FamilyZ80},
	{"sm83", FamilySM83},
	{"tlcs90", FamilyZ80},
	{"ez80_z80", FamilyZ80},
	{"z80n", FamilyZ80},
	{"stm8", FamilySTM8},
}

// Standards returns the selectable language standards.
func Standards() []string { return slices.Clone(standards) }

// Optimizations returns the selectable optimization flags.
func Optimizations() []string { return slices.Clone(optimizations) }

// Processors returns the selectable target processors.
func Processors() []string {
	out := make([]string, len(processors))
	for i, p := range processors {
		out[i] = p.name
	}
	return out
}

// FamilyOf returns the option family of a processor.
func FamilyOf(processor string) (Family, bool) {
	for _, p := range processors {
		if p.name == processor {
			return p.family, true
		}
	}
	return "", false
}

// DependentOptions returns the extra flags legal for a processor. Unknown
// processors have none.
func DependentOptions(processor string) []string {
	f, ok := FamilyOf(processor)
	if !ok {
		return []string{}
	}
	return slices.Clone(families[f])
}

// Options is one compile configuration.
type Options struct {
	Standard      string   `yaml:"standard"      json:"standard"`
	Processor     string   `yaml:"processor"     json:"processor"`
	Optimizations []string `yaml:"optimizations" json:"optimizations,omitempty"`
	Dependent     []string `yaml:"dependent"     json:"dependent,omitempty"`
}

// Messages reported when a required choice is missing.
const (
	MsgMissingBoth      = "select standard and processor"
	MsgMissingStandard  = "select standard"
	MsgMissingProcessor = "select processor"
)

// Validate checks the required choices first, then that every value comes
// from the option tables.
func (o Options) Validate() error {
	switch {
	case o.Standard == "" && o.Processor == "":
		return errs.Validationf(MsgMissingBoth)
	case o.Standard == "":
		return errs.Validationf(MsgMissingStandard)
	case o.Processor == "":
		return errs.Validationf(MsgMissingProcessor)
	}

	if !slices.Contains(standards, o.Standard) {
		return errs.Validationf("unknown standard %q", o.Standard)
	}
	if _, ok := FamilyOf(o.Processor); !ok {
		return errs.Validationf("unknown processor %q", o.Processor)
	}
	for _, opt := range o.Optimizations {
		if !slices.Contains(optimizations, opt) {
			return errs.Validationf("unknown optimization %q", opt)
		}
	}
	legal := DependentOptions(o.Processor)
	for _, dep := range o.Dependent {
		if !slices.Contains(legal, dep) {
			return errs.Validationf("option %q is not available for processor %s", dep, o.Processor)
		}
	}
	return nil
}

// Args renders the SDCC command line for the options.
func (o Options) Args() []string {
	args := []string{"--std-" + o.Standard, "-m" + o.Processor}
	for _, opt := range o.Optimizations {
		args = append(args, "--"+opt)
	}
	for _, dep := range o.Dependent {
		args = append(args, "--"+dep)
	}
	return args
}

// Form field names of the compile submission.
const (
	FieldFileID       = "file_id"
	FieldStandard     = "command_line_standard"
	FieldProcessor    = "command_line_processor"
	FieldOptimization = "command_line_optimization"
	FieldDependent    = "command_line_dependent"
)

// FormValues encodes the compile submission for fileID.
func (o Options) FormValues(fileID int) url.Values {
	v := url.Values{}
	v.Set(FieldFileID, strconv.Itoa(fileID))
	v.Set(FieldStandard, o.Standard)
	v.Set(FieldProcessor, o.Processor)
	for _, opt := range o.Optimizations {
		v.Add(FieldOptimization, opt)
	}
	for _, dep := range o.Dependent {
		v.Add(FieldDependent, dep)
	}
	return v
}

// Merge returns o with empty fields filled from defaults.
func (o Options) Merge(defaults Options) Options {
	if o.Standard == "" {
		o.Standard = defaults.Standard
	}
	if o.Processor == "" {
		o.Processor = defaults.Processor
	}
	if len(o.Optimizations) == 0 {
		o.Optimizations = slices.Clone(defaults.Optimizations)
	}
	if len(o.Dependent) == 0 && o.Processor == defaults.Processor {
		o.Dependent = slices.Clone(defaults.Dependent)
	}
	return o
}
