package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/xeipuuv/gojsonschema"
)

// singleSchema is deliberately narrow: it only enforces the structural
// invariants spec.md calls out for a Single manifest (editor port range,
// non-empty config file paths, non-empty dependency key feature sets). It
// is NOT a model of the full manifest format, and it must never be reused
// for the provider/dependency JSON matcher in internal/provider — that
// matcher is a hand-rolled subset matcher by design, not schema validation.
const singleSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "editors": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "port": {"type": "integer", "minimum": 1, "maximum": 65535}
        },
        "required": ["port"]
      }
    },
    "configFiles": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "hostPath": {"type": "string", "minLength": 1},
          "containerPath": {"type": "string", "minLength": 1}
        },
        "required": ["hostPath", "containerPath"]
      }
    },
    "depends": {
      "type": "object",
      "propertyNames": {"minLength": 1}
    }
  }
}`

const multiSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "composeYaml": {"type": "string", "minLength": 1},
    "depends": {
      "type": "object",
      "propertyNames": {"minLength": 1}
    }
  },
  "required": ["composeYaml"]
}`

var (
	singleSchemaLoader = gojsonschema.NewStringLoader(singleSchema)
	multiSchemaLoader  = gojsonschema.NewStringLoader(multiSchema)
)

// Validate checks a Manifest's shape against the structural schema for its
// variant. It returns a *multierror.Error aggregating every violation found
// so a caller (e.g. install_app) can report them all at once.
func Validate(m Manifest) error {
	var schemaLoader gojsonschema.JSONLoader
	switch m.(type) {
	case *Single:
		schemaLoader = singleSchemaLoader
	case *Multi:
		schemaLoader = multiSchemaLoader
	default:
		return fmt.Errorf("manifest: unknown variant %T", m)
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("manifest: marshal for validation: %w", err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("manifest: schema validation error: %w", err)
	}

	if result.Valid() {
		return validateDependencyKeys(m)
	}

	var merr *multierror.Error
	for _, e := range result.Errors() {
		merr = multierror.Append(merr, fmt.Errorf("%s: %s", e.Field(), e.Description()))
	}
	if dkErr := validateDependencyKeys(m); dkErr != nil {
		merr = multierror.Append(merr, dkErr)
	}
	return merr.ErrorOrNil()
}

// validateDependencyKeys checks the feature-set invariant the JSON schema
// can't express on its own: every DependencyKey must split into at least
// one non-empty FeatureKey.
func validateDependencyKeys(m Manifest) error {
	var merr *multierror.Error
	for dep := range Depends(m) {
		features := dep.Features()
		if len(features) == 0 {
			merr = multierror.Append(merr, fmt.Errorf("depends key %q has no features", dep))
			continue
		}
		for _, f := range features {
			if f == "" {
				merr = multierror.Append(merr, fmt.Errorf("depends key %q has an empty feature", dep))
			}
		}
	}
	return merr.ErrorOrNil()
}
