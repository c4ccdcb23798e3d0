package crm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Connection carries the per-scope credentials needed to reach a CRM account.
type Connection struct {
	Subdomain   string
	AccessToken string
}

// Lead is the subset of a CRM lead this service reads.
type Lead struct {
	ID           int64              `json:"id"`
	Name         string             `json:"name"`
	StatusID     int64              `json:"status_id"`
	CustomFields []CustomFieldValue `json:"custom_fields_values"`
}

// CustomFieldValue is one custom field of a lead with its values.
type CustomFieldValue struct {
	FieldID   int64        `json:"field_id"`
	FieldName string       `json:"field_name"`
	FieldCode *string      `json:"field_code"`
	Values    []FieldValue `json:"values"`
}

// FieldValue is a single value of a custom field. Value is kept raw because the CRM
// sends strings, numbers or booleans depending on the field type.
type FieldValue struct {
	Value    json.RawMessage `json:"value"`
	EnumID   *int64          `json:"enum_id,omitempty"`
	EnumCode *string         `json:"enum_code,omitempty"`
}

// Field returns the custom field with the given id.
func (l Lead) Field(fieldID int64) (CustomFieldValue, bool) {
	for _, field := range l.CustomFields {
		if field.FieldID == fieldID {
			return field, true
		}
	}
	return CustomFieldValue{}, false
}

// Tokens returns every textual form of the value that a qualification mapping may refer
// to: the scalar value itself plus the enum id and code when present.
func (v FieldValue) Tokens() ([]string, error) {
	tokens := make([]string, 0, 3)
	raw := bytes.TrimSpace(v.Value)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		scalar, err := scalarString(raw)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, scalar)
	}
	if v.EnumID != nil {
		tokens = append(tokens, strconv.FormatInt(*v.EnumID, 10))
	}
	if v.EnumCode != nil && *v.EnumCode != "" {
		tokens = append(tokens, *v.EnumCode)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty field value")
	}
	return tokens, nil
}

func scalarString(raw json.RawMessage) (string, error) {
	var decoded interface{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode field value: %w", err)
	}
	switch val := decoded.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("unsupported field value type %T", decoded)
	}
}

type leadsEnvelope struct {
	Embedded struct {
		Leads []Lead `json:"leads"`
	} `json:"_embedded"`
}
