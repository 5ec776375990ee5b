package intake

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// candidateDraftSchema is the shape check applied to the serialized draft at
// the submit boundary, on top of the field rules. It guards the store
// contract: whatever lands under pending_application must be readable by the
// confirmation materializer unchanged.
var candidateDraftSchema = map[string]interface{}{
	"type": "object",
	"required": []interface{}{
		"firstName", "lastName", "dob", "mobile", "email", "aadhaar",
		"address", "gender", "education", "preferredSector",
		"preferredJobType", "careerGoal", "skills", "englishProficiency",
		"expectedSalary", "preferredLocation", "signature", "date",
	},
	"properties": map[string]interface{}{
		"mobile":  map[string]interface{}{"type": "string", "pattern": "^[0-9]{10}$"},
		"aadhaar": map[string]interface{}{"type": "string", "pattern": "^[0-9]{12}$"},
		"gender": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"male", "female", "other"},
		},
		"englishProficiency": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"yes", "no", "basic"},
		},
		"education": map[string]interface{}{
			"type":     "array",
			"minItems": 6,
			"maxItems": 6,
		},
		"expectedSalary": map[string]interface{}{
			"type":    "number",
			"minimum": 1,
		},
	},
}

func validateDraftSchema(draft interface{}, schema map[string]interface{}) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("unmarshal draft: %w", err)
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("draft validation failed: %v", errs)
	}
	return nil
}
