package mapping

import (
	"encoding/json"
	"testing"

	"leadrelay/internal/platform/models"
)

func rule(path, kind, code string) *models.FieldMappingRule {
	return &models.FieldMappingRule{SourceFieldPath: path, TargetKind: kind, TargetCode: code}
}

func TestMapper_Build_EndToEnd(t *testing.T) {
	mapper := NewMapper("webconnect")

	inbound := map[string]interface{}{
		"body": map[string]interface{}{
			"email": "a@x.com",
			"name":  "Ana",
		},
	}
	rules := []*models.FieldMappingRule{
		rule("body.email", "contact_custom_field", "EMAIL"),
		rule("body.name", "lead_name", ""),
	}

	payload := mapper.Build("landing-a", inbound, rules)

	if payload.Name != "Ana" {
		t.Errorf("Expected lead name Ana, got %s", payload.Name)
	}
	if payload.Embedded == nil {
		t.Fatal("Expected embedded structure")
	}
	if len(payload.Embedded.Contacts) != 1 {
		t.Fatalf("Expected 1 contact, got %d", len(payload.Embedded.Contacts))
	}

	contact := payload.Embedded.Contacts[0]
	if contact.FirstName != "Ana" {
		t.Errorf("Expected contact first name Ana, got %s", contact.FirstName)
	}
	if len(contact.CustomFieldsValues) != 1 {
		t.Fatalf("Expected 1 contact custom field, got %d", len(contact.CustomFieldsValues))
	}
	field := contact.CustomFieldsValues[0]
	if field.FieldCode != "EMAIL" || field.FieldID != 0 {
		t.Errorf("Expected field_code EMAIL, got code=%s id=%d", field.FieldCode, field.FieldID)
	}
	if field.Values[0].Value != "a@x.com" {
		t.Errorf("Expected value a@x.com, got %v", field.Values[0].Value)
	}

	foundSentinel := false
	for _, tag := range payload.Embedded.Tags {
		if tag.Name == "webconnect" {
			foundSentinel = true
		}
	}
	if !foundSentinel {
		t.Error("Expected sentinel tag in output")
	}
}

func TestMapper_Build_SkipsEmptyValues(t *testing.T) {
	mapper := NewMapper("webconnect")

	inbound := map[string]interface{}{
		"empty":  "",
		"zero":   float64(0),
		"null":   nil,
		"falsy":  false,
		"filled": "value",
	}

	tests := []struct {
		name string
		path string
	}{
		{"Empty String", "empty"},
		{"Numeric Zero", "zero"},
		{"Null", "null"},
		{"False", "falsy"},
		{"Absent", "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := []*models.FieldMappingRule{
				rule(tt.path, "lead_custom_field", "1001"),
			}
			payload := mapper.Build("src", inbound, rules)
			if len(payload.CustomFieldsValues) != 0 {
				t.Errorf("Expected no custom fields for %s, got %d", tt.path, len(payload.CustomFieldsValues))
			}
		})
	}
}

func TestMapper_Build_LastRuleWins(t *testing.T) {
	mapper := NewMapper("webconnect")

	inbound := map[string]interface{}{
		"a": "First",
		"b": "Second",
	}
	rules := []*models.FieldMappingRule{
		rule("a", "lead_name", ""),
		rule("b", "lead_name", ""),
	}

	payload := mapper.Build("src", inbound, rules)
	if payload.Name != "Second" {
		t.Errorf("Expected later rule to win, got %s", payload.Name)
	}
}

func TestMapper_Build_Defaults(t *testing.T) {
	mapper := NewMapper("webconnect")

	// No rules resolve: both names default
	payload := mapper.Build("landing-a", map[string]interface{}{}, []*models.FieldMappingRule{
		rule("missing", "lead_name", ""),
	})

	expected := "Lead from source: landing-a"
	if payload.Name != expected {
		t.Errorf("Expected default lead name %q, got %q", expected, payload.Name)
	}
	if payload.Embedded.Contacts[0].FirstName != expected {
		t.Errorf("Expected contact first name to default to lead name, got %q", payload.Embedded.Contacts[0].FirstName)
	}
}

func TestMapper_Build_ContactNameDefaultsToLeadName(t *testing.T) {
	mapper := NewMapper("webconnect")

	inbound := map[string]interface{}{"name": "Ana"}
	payload := mapper.Build("src", inbound, []*models.FieldMappingRule{
		rule("name", "lead_name", ""),
	})

	if payload.Embedded.Contacts[0].FirstName != "Ana" {
		t.Errorf("Expected contact first name Ana, got %s", payload.Embedded.Contacts[0].FirstName)
	}
}

func TestMapper_Build_SentinelTagOnce(t *testing.T) {
	mapper := NewMapper("webconnect")

	inbound := map[string]interface{}{
		"t1": "webconnect",
		"t2": "webconnect",
	}
	rules := []*models.FieldMappingRule{
		rule("t1", "tag", ""),
		rule("t2", "tag", ""),
	}

	payload := mapper.Build("src", inbound, rules)

	count := 0
	for _, tag := range payload.Embedded.Tags {
		if tag.Name == "webconnect" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected sentinel tag exactly once, got %d", count)
	}
}

func TestMapper_Build_NumericTargetCode(t *testing.T) {
	mapper := NewMapper("webconnect")

	inbound := map[string]interface{}{"phone": "555-0100"}

	tests := []struct {
		name         string
		code         string
		expectedID   int64
		expectedCode string
	}{
		{"All Digits", "264911", 264911, ""},
		{"Symbolic", "PHONE", 0, "PHONE"},
		{"Mixed", "F123", 0, "F123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := mapper.Build("src", inbound, []*models.FieldMappingRule{
				rule("phone", "lead_custom_field", tt.code),
			})
			if len(payload.CustomFieldsValues) != 1 {
				t.Fatalf("Expected 1 custom field, got %d", len(payload.CustomFieldsValues))
			}
			field := payload.CustomFieldsValues[0]
			if field.FieldID != tt.expectedID || field.FieldCode != tt.expectedCode {
				t.Errorf("Expected id=%d code=%q, got id=%d code=%q", tt.expectedID, tt.expectedCode, field.FieldID, field.FieldCode)
			}
		})
	}
}

func TestMapper_Build_Deterministic(t *testing.T) {
	mapper := NewMapper("webconnect")

	inbound := map[string]interface{}{
		"name":  "Ana",
		"email": "a@x.com",
		"phone": "555-0100",
		"utm":   map[string]interface{}{"campaign": "summer"},
	}
	rules := []*models.FieldMappingRule{
		rule("name", "lead_name", ""),
		rule("email", "contact_custom_field", "EMAIL"),
		rule("phone", "contact_custom_field", "PHONE"),
		rule("utm.campaign", "tag", ""),
		rule("email", "lead_custom_field", "777"),
	}

	first, err := json.Marshal(mapper.Build("src", inbound, rules))
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	second, err := json.Marshal(mapper.Build("src", inbound, rules))
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("Expected identical output, got\n%s\nvs\n%s", first, second)
	}
}

func TestMapper_Build_MarshalShape(t *testing.T) {
	mapper := NewMapper("webconnect")

	inbound := map[string]interface{}{"name": "Ana"}
	payload := mapper.Build("src", inbound, []*models.FieldMappingRule{
		rule("name", "lead_name", ""),
	})

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if _, ok := decoded["custom_fields_values"]; ok {
		t.Error("Empty lead custom fields should be omitted")
	}
	embedded, ok := decoded["_embedded"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected _embedded object")
	}
	if _, ok := embedded["tags"]; !ok {
		t.Error("Expected tags in _embedded")
	}
	if _, ok := embedded["contacts"]; !ok {
		t.Error("Expected contacts in _embedded")
	}
}
