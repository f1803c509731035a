package stages

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"partner-onboarding-api/models"
)

// normalizePayload reduces a raw submission to canonical values for the
// fields a stage declares. Undeclared payload keys are ignored. Empty
// strings, JSON null, and omitted keys are all treated as absent.
// JSON-shaped fields accept either a native object or its string-encoded
// form; a string that fails to parse is MalformedFieldError, never an
// empty default.
func normalizePayload(def StageDefinition, payload map[string]interface{}) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	for _, spec := range def.Fields() {
		raw, ok := payload[spec.Name]
		if !ok || raw == nil {
			continue
		}
		value, present, err := normalizeValue(spec, raw)
		if err != nil {
			return nil, err
		}
		if present {
			out[spec.Name] = value
		}
	}
	return out, nil
}

func normalizeValue(spec FieldSpec, raw interface{}) (interface{}, bool, error) {
	switch spec.Kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, false, &MalformedFieldError{Field: spec.Name, Cause: fmt.Errorf("expected string, got %T", raw)}
		}
		s = strings.TrimSpace(s)
		return s, s != "", nil

	case KindInt:
		switch v := raw.(type) {
		case float64:
			if v != float64(int(v)) {
				return nil, false, &MalformedFieldError{Field: spec.Name, Cause: errors.New("expected integer")}
			}
			return int(v), int(v) != 0, nil
		case int:
			return v, v != 0, nil
		case string:
			v = strings.TrimSpace(v)
			if v == "" {
				return nil, false, nil
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, false, &MalformedFieldError{Field: spec.Name, Cause: errors.New("expected integer")}
			}
			return n, n != 0, nil
		default:
			return nil, false, &MalformedFieldError{Field: spec.Name, Cause: fmt.Errorf("expected integer, got %T", raw)}
		}

	case KindJSON:
		switch v := raw.(type) {
		case map[string]interface{}:
			return models.JSONMap(v), len(v) > 0, nil
		case models.JSONMap:
			return v, len(v) > 0, nil
		case string:
			v = strings.TrimSpace(v)
			if v == "" {
				return nil, false, nil
			}
			var parsed map[string]interface{}
			if err := json.Unmarshal([]byte(v), &parsed); err != nil {
				return nil, false, &MalformedFieldError{Field: spec.Name, Cause: err}
			}
			return models.JSONMap(parsed), len(parsed) > 0, nil
		default:
			return nil, false, &MalformedFieldError{Field: spec.Name, Cause: fmt.Errorf("expected object, got %T", raw)}
		}
	}
	return nil, false, &MalformedFieldError{Field: spec.Name, Cause: errors.New("unknown field kind")}
}
