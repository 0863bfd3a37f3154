package mapping

import (
	"fmt"
	"strconv"

	"leadrelay/internal/platform/models"
)

// TargetKind is the closed set of Kommo slots a mapping rule can write to.
type TargetKind string

const (
	TargetLeadName           TargetKind = "lead_name"
	TargetContactFirstName   TargetKind = "contact_first_name"
	TargetContactCustomField TargetKind = "contact_custom_field"
	TargetLeadCustomField    TargetKind = "lead_custom_field"
	TargetTag                TargetKind = "tag"
)

func (k TargetKind) Valid() bool {
	switch k {
	case TargetLeadName, TargetContactFirstName, TargetContactCustomField, TargetLeadCustomField, TargetTag:
		return true
	}
	return false
}

// LeadPayload is one element of the array POSTed to /api/v4/leads/complex.
type LeadPayload struct {
	Name               string             `json:"name"`
	CustomFieldsValues []CustomFieldValue `json:"custom_fields_values,omitempty"`
	Embedded           *Embedded          `json:"_embedded,omitempty"`
}

type Embedded struct {
	Tags     []Tag     `json:"tags,omitempty"`
	Contacts []Contact `json:"contacts,omitempty"`
}

type Contact struct {
	FirstName          string             `json:"first_name"`
	CustomFieldsValues []CustomFieldValue `json:"custom_fields_values,omitempty"`
}

// CustomFieldValue addresses a Kommo field either by numeric id or by
// symbolic code, never both.
type CustomFieldValue struct {
	FieldID   int64         `json:"field_id,omitempty"`
	FieldCode string        `json:"field_code,omitempty"`
	Values    []NestedValue `json:"values"`
}

type NestedValue struct {
	Value interface{} `json:"value"`
}

type Tag struct {
	Name string `json:"name"`
}

type Mapper struct {
	sentinelTag string
}

// NewMapper builds a payload mapper. sentinelTag is attached to every
// produced lead so records created through the relay stay identifiable.
func NewMapper(sentinelTag string) *Mapper {
	return &Mapper{sentinelTag: sentinelTag}
}

// Build converts an inbound payload into a Kommo lead using the source's
// ordered rule set. Rules whose resolved value is missing or empty contribute
// nothing; later rules win ties on the scalar slots. Output depends only on
// (sourceName, inbound, rules).
func (m *Mapper) Build(sourceName string, inbound map[string]interface{}, rules []*models.FieldMappingRule) *LeadPayload {
	var leadName, contactFirstName string
	var leadFields, contactFields []CustomFieldValue
	var tags []Tag

	for _, rule := range rules {
		value, ok := Resolve(inbound, rule.SourceFieldPath)
		if !ok || isEmpty(value) {
			continue
		}

		switch TargetKind(rule.TargetKind) {
		case TargetLeadName:
			leadName = stringify(value)
		case TargetContactFirstName:
			contactFirstName = stringify(value)
		case TargetContactCustomField:
			contactFields = append(contactFields, customField(rule.TargetCode, value))
		case TargetLeadCustomField:
			leadFields = append(leadFields, customField(rule.TargetCode, value))
		case TargetTag:
			tags = appendTag(tags, stringify(value))
		}
	}

	if leadName == "" {
		leadName = fmt.Sprintf("Lead from source: %s", sourceName)
	}
	if contactFirstName == "" {
		contactFirstName = leadName
	}
	tags = appendTag(tags, m.sentinelTag)

	payload := &LeadPayload{
		Name:               leadName,
		CustomFieldsValues: leadFields,
	}

	contact := Contact{
		FirstName:          contactFirstName,
		CustomFieldsValues: contactFields,
	}

	if len(tags) > 0 || contact.FirstName != "" || len(contact.CustomFieldsValues) > 0 {
		payload.Embedded = &Embedded{
			Tags:     tags,
			Contacts: []Contact{contact},
		}
	}

	return payload
}

func customField(targetCode string, value interface{}) CustomFieldValue {
	field := CustomFieldValue{
		Values: []NestedValue{{Value: value}},
	}
	if id, ok := numericCode(targetCode); ok {
		field.FieldID = id
	} else {
		field.FieldCode = targetCode
	}
	return field
}

// numericCode reports whether the target code is a Kommo field id, which is
// the case when the string is all digits.
func numericCode(code string) (int64, bool) {
	if code == "" {
		return 0, false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(code, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func appendTag(tags []Tag, name string) []Tag {
	if name == "" {
		return tags
	}
	for _, t := range tags {
		if t.Name == name {
			return tags
		}
	}
	return append(tags, Tag{Name: name})
}

// isEmpty treats "", nil, false and numeric zero as missing data, so sparse
// payloads never write empty values into the CRM.
func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case float64:
		return v == 0
	case int:
		return v == 0
	case int64:
		return v == 0
	}
	return false
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
