package testingrecord

import (
	"encoding/json"
	"strings"

	"github.com/fekuna/omnipos-workshop-service/internal/model"
)

// DefaultPassFail is stored when a side carries no verdict.
const DefaultPassFail = "Fail"

// NormalizeReadings turns one side of a stored record into a Readings value.
// Records at schema version 2 carry a JSON document; when it is missing or is
// not an object the legacy columns are used instead.
func NormalizeReadings(schemaVersion int, legacy model.LegacyReadings, raw *string) model.Readings {
	if schemaVersion >= model.ReadingsStructured && raw != nil {
		if data := parseObject(*raw); data != nil {
			return model.Readings{
				Version:    model.ReadingsStructured,
				PassFail:   DerivePassFail(data, deref(legacy.PassFail)),
				Structured: data,
			}
		}
	}
	return model.Readings{
		Version:  model.ReadingsLegacy,
		PassFail: deref(legacy.PassFail),
		Legacy:   &legacy,
	}
}

// DerivePassFail finds the verdict in a structured document. Top-level keys win
// over finalResult, which wins over result. fallback is returned when none is set.
func DerivePassFail(data map[string]any, fallback string) string {
	for _, scope := range []map[string]any{data, nested(data, "finalResult"), nested(data, "result")} {
		for _, key := range []string{"passFail", "pass_fail"} {
			if v, ok := scope[key].(string); ok && strings.TrimSpace(v) != "" {
				return v
			}
		}
	}
	return fallback
}

func nested(data map[string]any, key string) map[string]any {
	m, _ := data[key].(map[string]any)
	return m
}

func parseObject(raw string) map[string]any {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil
	}
	return data
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
