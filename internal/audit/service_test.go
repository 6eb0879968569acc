package audit

import (
	"bytes"
	"encoding/json"
	"testing"

	"stockgate/internal/logging"
)

func TestWriteLogEmitsStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(logging.NewWithWriter(&buf, "info"))

	rec.WriteLog(LogOptions{
		UserID:     "u-1",
		UserEmail:  "admin@test.com",
		EntityType: "inventory_item",
		EntityID:   7,
		Action:     ActionStockAdjust,
		Before:     map[string]int{"quantity": 10},
		After:      map[string]int{"quantity": 0},
	})

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v (%s)", err, buf.String())
	}
	if record["msg"] != "inventory_item stock_adjust" {
		t.Fatalf("unexpected msg: %v", record["msg"])
	}
	if record["component"] != "audit" || record["user_id"] != "u-1" {
		t.Fatalf("missing attributes: %v", record)
	}
	after, ok := record["after"].(map[string]any)
	if !ok || after["quantity"] != float64(0) {
		t.Fatalf("unexpected after: %v", record["after"])
	}
}
