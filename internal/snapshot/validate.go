// Package snapshot validates and decodes full-dataset JSON documents before
// they are allowed anywhere near the store.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"curriculumcore/pkg/domain"
)

// Size bounds applied to imported documents.
const (
	MaxCurriculumRows = 10000
	MaxStandards      = 1000
)

// Summary describes an accepted document for operator confirmation.
type Summary struct {
	GradeCount     int  `json:"gradeCount"`
	SubjectCount   int  `json:"subjectCount"`
	CurriculumRows int  `json:"curriculumRows"`
	Standards      int  `json:"standards"`
	NavigationTabs int  `json:"navigationTabs"`
	DropdownItems  int  `json:"dropdownItems"`
	TableConfigs   int  `json:"tableConfigs"`
	HasNavigation  bool `json:"hasNavigation"`
	HasSchoolYear  bool `json:"hasSchoolYear"`
}

var requiredRowKeys = []string{
	"id", "grade", "subject", "objectives", "unitPacing", "assessments",
	"materialsAndDifferentiation", "biblical", "standards",
}

var optionalRowKeys = []string{"tableName", "materials", "differentiator"}

var requiredStandardKeys = []string{"id", "code", "description", "category"}

// Validate checks payload and stops at the first problem, returned as a
// domain.ValidationError naming the offending field.
func Validate(payload []byte) (Summary, error) {
	doc, err := parseDocument(payload)
	if err != nil {
		return Summary{}, err
	}
	return validateDocument(doc)
}

func parseDocument(payload []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, domain.NewValidationError("payload", "invalid JSON: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, domain.NewValidationError("payload", "unexpected data after the JSON document")
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, domain.NewValidationError("payload", "must be a JSON object")
	}
	return doc, nil
}

func validateDocument(doc map[string]any) (Summary, error) {
	var sum Summary

	// 1. required arrays
	rows, err := requiredArray(doc, "curriculumRows")
	if err != nil {
		return Summary{}, err
	}
	standards, err := requiredArray(doc, "standards")
	if err != nil {
		return Summary{}, err
	}

	// 2. size bounds
	if len(rows) > MaxCurriculumRows {
		return Summary{}, domain.NewValidationError("curriculumRows", "%d entries exceed the limit of %d", len(rows), MaxCurriculumRows)
	}
	if len(standards) > MaxStandards {
		return Summary{}, domain.NewValidationError("standards", "%d entries exceed the limit of %d", len(standards), MaxStandards)
	}

	// 3. curriculum rows
	grades := make(map[string]struct{})
	subjects := make(map[string]struct{})
	seen := make(map[int64]struct{}, len(rows))
	for i, raw := range rows {
		field := fmt.Sprintf("curriculumRows[%d]", i)
		row, ok := raw.(map[string]any)
		if !ok {
			return Summary{}, domain.NewValidationError(field, "must be an object")
		}
		for _, key := range requiredRowKeys {
			if _, present := row[key]; !present {
				return Summary{}, domain.NewValidationError(field, "missing required field %q", key)
			}
		}
		if err := uniqueID(row, field, seen); err != nil {
			return Summary{}, err
		}
		grade, err := nonEmptyString(row, field, "grade")
		if err != nil {
			return Summary{}, err
		}
		subject, err := nonEmptyString(row, field, "subject")
		if err != nil {
			return Summary{}, err
		}
		for _, key := range requiredRowKeys[3:8] {
			if err := optionalString(row, field, key); err != nil {
				return Summary{}, err
			}
		}
		for _, key := range optionalRowKeys {
			if err := optionalString(row, field, key); err != nil {
				return Summary{}, err
			}
		}
		if err := stringArray(row, field, "standards"); err != nil {
			return Summary{}, err
		}
		grades[grade] = struct{}{}
		subjects[subject] = struct{}{}
	}

	// 4. standards
	seen = make(map[int64]struct{}, len(standards))
	for i, raw := range standards {
		field := fmt.Sprintf("standards[%d]", i)
		std, ok := raw.(map[string]any)
		if !ok {
			return Summary{}, domain.NewValidationError(field, "must be an object")
		}
		for _, key := range requiredStandardKeys {
			if _, present := std[key]; !present {
				return Summary{}, domain.NewValidationError(field, "missing required field %q", key)
			}
		}
		if err := uniqueID(std, field, seen); err != nil {
			return Summary{}, err
		}
		if _, err := nonEmptyString(std, field, "code"); err != nil {
			return Summary{}, err
		}
		if _, ok := std["description"].(string); !ok {
			return Summary{}, domain.NewValidationError(field+".description", "must be a string")
		}
		if _, err := nonEmptyString(std, field, "category"); err != nil {
			return Summary{}, err
		}
	}

	// 5. metadata counts
	tabs, tabsPresent, err := optionalArray(doc, "navigationTabs")
	if err != nil {
		return Summary{}, err
	}
	items, itemsPresent, err := optionalArray(doc, "dropdownItems")
	if err != nil {
		return Summary{}, err
	}
	configs, configsPresent, err := optionalArray(doc, "tableConfigs")
	if err != nil {
		return Summary{}, err
	}
	meta, ok := doc["metadata"].(map[string]any)
	if !ok {
		return Summary{}, domain.NewValidationError("metadata", "is required and must be an object")
	}
	if err := declaredCount(meta, "totalCurriculumEntries", "curriculumRows", len(rows), true); err != nil {
		return Summary{}, err
	}
	if err := declaredCount(meta, "totalStandards", "standards", len(standards), true); err != nil {
		return Summary{}, err
	}
	if tabsPresent {
		if err := declaredCount(meta, "totalNavigationTabs", "navigationTabs", len(tabs), false); err != nil {
			return Summary{}, err
		}
	}
	if itemsPresent {
		if err := declaredCount(meta, "totalDropdownItems", "dropdownItems", len(items), false); err != nil {
			return Summary{}, err
		}
	}
	if configsPresent {
		if err := declaredCount(meta, "totalTableConfigs", "tableConfigs", len(configs), false); err != nil {
			return Summary{}, err
		}
	}

	// 6. navigation and school year
	if err := validateNavigation(tabs, items, configs); err != nil {
		return Summary{}, err
	}
	if raw, present := doc["schoolYear"]; present && raw != nil {
		year, ok := raw.(map[string]any)
		if !ok {
			return Summary{}, domain.NewValidationError("schoolYear", "must be an object")
		}
		if _, err := nonEmptyString(year, "schoolYear", "year"); err != nil {
			return Summary{}, err
		}
		sum.HasSchoolYear = true
	}

	sum.GradeCount = len(grades)
	sum.SubjectCount = len(subjects)
	sum.CurriculumRows = len(rows)
	sum.Standards = len(standards)
	sum.NavigationTabs = len(tabs)
	sum.DropdownItems = len(items)
	sum.TableConfigs = len(configs)
	sum.HasNavigation = tabsPresent || itemsPresent || configsPresent
	return sum, nil
}

// validateNavigation checks shape and ids of the navigation arrays and that
// they reference each other consistently. Absent arrays count as empty.
func validateNavigation(tabs, items, configs []any) error {
	tabIDs := make(map[int64]struct{}, len(tabs))
	tabNames := make(map[string]int, len(tabs))
	for i, raw := range tabs {
		field := fmt.Sprintf("navigationTabs[%d]", i)
		tab, ok := raw.(map[string]any)
		if !ok {
			return domain.NewValidationError(field, "must be an object")
		}
		if err := uniqueID(tab, field, tabIDs); err != nil {
			return err
		}
		name, err := nonEmptyString(tab, field, "name")
		if err != nil {
			return err
		}
		if first, dup := tabNames[name]; dup {
			return domain.NewValidationError(field+".name", "duplicate tab name %q (first at navigationTabs[%d])", name, first)
		}
		tabNames[name] = i
		order, err := optionalInt(tab["order"], field+".order")
		if err != nil {
			return err
		}
		if name != domain.AdminTabName && order >= domain.ReservedOrderFloor {
			return domain.NewValidationError(field+".order", "%d is reserved for system tabs (must be below %d)", order, domain.ReservedOrderFloor)
		}
	}

	itemTabs := make(map[int64]int64, len(items))
	seen := make(map[int64]struct{}, len(items))
	for i, raw := range items {
		field := fmt.Sprintf("dropdownItems[%d]", i)
		item, ok := raw.(map[string]any)
		if !ok {
			return domain.NewValidationError(field, "must be an object")
		}
		if err := uniqueID(item, field, seen); err != nil {
			return err
		}
		if _, err := nonEmptyString(item, field, "name"); err != nil {
			return err
		}
		tabID, err := positiveInt(item["tabId"], field+".tabId")
		if err != nil {
			return err
		}
		if _, ok := tabIDs[tabID]; !ok {
			return domain.NewValidationError(field+".tabId", "references navigation tab %d which is not in the document", tabID)
		}
		id, _ := positiveInt(item["id"], field+".id")
		itemTabs[id] = tabID
	}

	seen = make(map[int64]struct{}, len(configs))
	for i, raw := range configs {
		field := fmt.Sprintf("tableConfigs[%d]", i)
		cfg, ok := raw.(map[string]any)
		if !ok {
			return domain.NewValidationError(field, "must be an object")
		}
		if err := uniqueID(cfg, field, seen); err != nil {
			return err
		}
		if _, err := nonEmptyString(cfg, field, "tableName"); err != nil {
			return err
		}
		tabID, err := positiveInt(cfg["tabId"], field+".tabId")
		if err != nil {
			return err
		}
		dropdownID, err := positiveInt(cfg["dropdownId"], field+".dropdownId")
		if err != nil {
			return err
		}
		owner, ok := itemTabs[dropdownID]
		if !ok {
			return domain.NewValidationError(field+".dropdownId", "references dropdown item %d which is not in the document", dropdownID)
		}
		if owner != tabID {
			return domain.NewValidationError(field+".tabId", "is %d but dropdown item %d belongs to tab %d", tabID, dropdownID, owner)
		}
	}
	return nil
}

func requiredArray(doc map[string]any, key string) ([]any, error) {
	raw, present := doc[key]
	if !present {
		return nil, domain.NewValidationError(key, "is required")
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, domain.NewValidationError(key, "must be an array")
	}
	return arr, nil
}

func optionalArray(doc map[string]any, key string) ([]any, bool, error) {
	raw, present := doc[key]
	if !present || raw == nil {
		return nil, false, nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, false, domain.NewValidationError(key, "must be an array")
	}
	return arr, true, nil
}

func uniqueID(obj map[string]any, field string, seen map[int64]struct{}) error {
	id, err := positiveInt(obj["id"], field+".id")
	if err != nil {
		return err
	}
	if _, dup := seen[id]; dup {
		return domain.NewValidationError(field+".id", "duplicate id %d", id)
	}
	seen[id] = struct{}{}
	return nil
}

func positiveInt(raw any, field string) (int64, error) {
	num, ok := raw.(json.Number)
	if !ok {
		return 0, domain.NewValidationError(field, "must be a positive integer")
	}
	id, err := strconv.ParseInt(num.String(), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(field, "must be a positive integer, got %s", num)
	}
	return id, nil
}

// optionalInt reads an integer field that may be absent or null (zero).
func optionalInt(raw any, field string) (int64, error) {
	if raw == nil {
		return 0, nil
	}
	num, ok := raw.(json.Number)
	if !ok {
		return 0, domain.NewValidationError(field, "must be an integer")
	}
	n, err := strconv.ParseInt(num.String(), 10, 64)
	if err != nil {
		return 0, domain.NewValidationError(field, "must be an integer, got %s", num)
	}
	return n, nil
}

func nonEmptyString(obj map[string]any, field, key string) (string, error) {
	s, ok := obj[key].(string)
	if !ok || s == "" {
		return "", domain.NewValidationError(field+"."+key, "must be a non-empty string")
	}
	return s, nil
}

func optionalString(obj map[string]any, field, key string) error {
	raw, present := obj[key]
	if !present || raw == nil {
		return nil
	}
	if _, ok := raw.(string); !ok {
		return domain.NewValidationError(field+"."+key, "must be a string")
	}
	return nil
}

func stringArray(obj map[string]any, field, key string) error {
	arr, ok := obj[key].([]any)
	if !ok {
		return domain.NewValidationError(field+"."+key, "must be an array")
	}
	for i, el := range arr {
		if _, ok := el.(string); !ok {
			return domain.NewValidationError(fmt.Sprintf("%s.%s[%d]", field, key, i), "must be a string")
		}
	}
	return nil
}

func declaredCount(meta map[string]any, key, array string, actual int, required bool) error {
	raw, present := meta[key]
	if !present || raw == nil {
		if required {
			return domain.NewValidationError("metadata."+key, "is required")
		}
		return nil
	}
	num, ok := raw.(json.Number)
	if !ok {
		return domain.NewValidationError("metadata."+key, "must be a number")
	}
	declared, err := strconv.ParseInt(num.String(), 10, 64)
	if err != nil {
		return domain.NewValidationError("metadata."+key, "must be an integer, got %s", num)
	}
	if declared != int64(actual) {
		return domain.NewValidationError("metadata."+key, "metadata mismatch: declares %d but %s has %d entries", declared, array, actual)
	}
	return nil
}
