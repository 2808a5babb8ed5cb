package render

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed catalog.schema.json
var catalogSchema []byte

// Problem is one schema violation found by Validate.
type Problem struct {
	Field       string
	Description string
}

func (p Problem) String() string {
	return p.Field + ": " + p.Description
}

// Schema returns the JSON schema of the json output format.
func Schema() []byte {
	out := make([]byte, len(catalogSchema))
	copy(out, catalogSchema)

	return out
}

// Validate checks a JSON catalogue against the catalogue schema.
// A nil error with no problems means the document is valid.
func Validate(r io.Reader) ([]Problem, error) {
	var doc any

	dec := json.NewDecoder(r)
	dec.UseNumber()

	err := dec.Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(catalogSchema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	problems := make([]Problem, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, Problem{Field: verr.Field(), Description: verr.Description()})
	}

	return problems, nil
}
