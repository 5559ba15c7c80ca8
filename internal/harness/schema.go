package harness

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Error codes reported by Validate.
const (
	ErrCodeParse  = "E_PARSE"
	ErrCodeSchema = "E_SCHEMA"
)

// ScenarioError is a schema violation in a scenario document.
type ScenarioError struct {
	Code    string
	Message string
	// Path is the dotted location of the offending field, if known.
	Path string
}

func (e *ScenarioError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validate checks a scenario document against the embedded CUE schema and
// returns every violation found. A nil result means the document is valid.
func Validate(data []byte) []error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []error{&ScenarioError{Code: ErrCodeParse, Message: err.Error()}}
	}
	if _, ok := doc.(map[string]any); !ok {
		return []error{&ScenarioError{Code: ErrCodeParse, Message: "scenario must be a YAML mapping"}}
	}

	// A cue.Context is not safe for concurrent use; build one per call.
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return []error{&ScenarioError{Code: ErrCodeSchema, Message: fmt.Sprintf("compiling schema: %v", err)}}
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))

	value := ctx.Encode(doc)
	if err := value.Err(); err != nil {
		return []error{&ScenarioError{Code: ErrCodeParse, Message: fmt.Sprintf("encoding document: %v", err)}}
	}

	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return convertCUEErrors(err)
	}
	return nil
}

// convertCUEErrors flattens a CUE error list into ScenarioErrors.
func convertCUEErrors(err error) []error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return []error{&ScenarioError{Code: ErrCodeSchema, Message: err.Error()}}
	}

	out := make([]error, 0, len(errs))
	for _, e := range errs {
		format, args := e.Msg()
		out = append(out, &ScenarioError{
			Code:    ErrCodeSchema,
			Message: fmt.Sprintf(format, args...),
			Path:    strings.Join(e.Path(), "."),
		})
	}
	return out
}
