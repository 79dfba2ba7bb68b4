package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/mewayz/progression/internal/database"
	"github.com/mewayz/progression/internal/model"
)

// maxBatchStatementRows bounds the rows carried by one INSERT inside a snapshot batch
const maxBatchStatementRows = 500

// convertSurrealID converts a SurrealDB ID (which may be a complex object) to a string
func convertSurrealID(id interface{}) string {
	// Already a string
	if str, ok := id.(string); ok {
		return str
	}

	// Handle models.RecordID from SurrealDB Go client
	if rid, ok := id.(models.RecordID); ok {
		return fmt.Sprintf("%s:%v", rid.Table, rid.ID)
	}
	if rid, ok := id.(*models.RecordID); ok && rid != nil {
		return fmt.Sprintf("%s:%v", rid.Table, rid.ID)
	}

	// Handle map format: {"tb": "user", "id": {"String": "demo"}} or similar
	if m, ok := id.(map[string]interface{}); ok {
		tb, _ := m["tb"].(string)
		idPart := ""
		if idVal, ok := m["id"]; ok {
			idPart = extractIDValue(idVal)
		}
		if tb != "" && idPart != "" {
			return tb + ":" + idPart
		}
		if idPart != "" {
			return idPart
		}
	}

	return fmt.Sprintf("%v", id)
}

// extractIDValue extracts the ID value which may be nested
func extractIDValue(val interface{}) string {
	if str, ok := val.(string); ok {
		return str
	}
	if m, ok := val.(map[string]interface{}); ok {
		if s, ok := m["String"].(string); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", val)
}

// recordKey strips the table prefix of a record ID: "leaderboard:weekly_xp" -> "weekly_xp"
func recordKey(id string) string {
	if i := strings.Index(id, ":"); i >= 0 {
		key := id[i+1:]
		return strings.TrimSuffix(strings.TrimPrefix(key, "⟨"), "⟩")
	}
	return id
}

// normalizeValue rewrites SurrealDB client types into plain JSON-friendly values
func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case models.CustomDateTime:
		return t.Time.Format(time.RFC3339Nano)
	case *models.CustomDateTime:
		if t == nil {
			return nil
		}
		return t.Time.Format(time.RFC3339Nano)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case models.RecordID, *models.RecordID:
		return convertSurrealID(t)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeValue(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalizeValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeValue(val)
		}
		return out
	}
	return v
}

// decodeRecord maps one SurrealDB record onto out. The record ID is reduced to its key
// and stored under idField when idField is not empty.
func decodeRecord(raw interface{}, out interface{}, idField string) error {
	if raw == nil {
		return errors.New("empty record")
	}
	data, ok := normalizeValue(raw).(map[string]interface{})
	if !ok {
		return errors.New("unexpected result format")
	}
	if id, ok := data["id"]; ok {
		delete(data, "id")
		if idField != "" {
			data[idField] = recordKey(convertSurrealID(id))
		}
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, out)
}

// toDocument converts a model into a CONTENT document using its JSON field names
func toDocument(v interface{}) (map[string]interface{}, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// statementRecords returns the records produced by statement index of a Query response
func statementRecords(results []interface{}, index int) []interface{} {
	if index < 0 || index >= len(results) {
		return nil
	}
	resp, ok := results[index].(map[string]interface{})
	if !ok {
		return nil
	}
	records, _ := resp["result"].([]interface{})
	return records
}

// extractCount extracts count from SurrealDB count query result
func extractCount(result interface{}) int {
	if data, ok := result.(map[string]interface{}); ok {
		return getInt(data, "count")
	}
	return 0
}

// getInt extracts an int value from a map
func getInt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	}
	return 0
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// chunk splits items into runs of at most size
func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

// createdID returns the record key of the first record created by a CREATE statement
func createdID(results []interface{}) (string, error) {
	records := statementRecords(results, 0)
	if len(records) == 0 {
		return "", errors.New("no result returned")
	}
	data, ok := records[0].(map[string]interface{})
	if !ok {
		return "", errors.New("unexpected result format")
	}
	return recordKey(convertSurrealID(data["id"])), nil
}

// windowConditions renders the optional bounds of w on field as WHERE clauses
func windowConditions(field string, w model.TimeWindow, vars map[string]interface{}) string {
	var sb strings.Builder
	if w.From != nil {
		sb.WriteString(" AND " + field + " >= $from")
		vars["from"] = *w.From
	}
	if w.To != nil {
		sb.WriteString(" AND " + field + " < $to")
		vars["to"] = *w.To
	}
	return sb.String()
}

func isNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
