package audit

import (
	"errors"
	"testing"

	"retailpos-backend/internal/models"
)

func TestCheckUndo(t *testing.T) {
	tests := []struct {
		name  string
		entry models.InventoryLog
		want  error
	}{
		{"product update", models.InventoryLog{EntityType: EntityProduct, Action: models.LogActionUpdate}, nil},
		{"supplier delete", models.InventoryLog{EntityType: EntitySupplier, Action: models.LogActionDelete}, nil},
		{"damaged create", models.InventoryLog{EntityType: EntityDamaged, Action: models.LogActionCreate}, nil},
		{"already undone", models.InventoryLog{EntityType: EntityProduct, Action: models.LogActionUpdate, IsUndone: true}, ErrAlreadyUndone},
		{"undo entry", models.InventoryLog{EntityType: EntityProduct, Action: models.LogActionUndo, IsUndoEntry: true}, ErrNotUndoable},
		{"purchase entry", models.InventoryLog{EntityType: EntityPurchase, Action: models.LogActionCreate}, ErrNotUndoable},
		{"unknown action", models.InventoryLog{EntityType: EntityProduct, Action: "transfer"}, ErrNotUndoable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CheckUndo(tt.entry); !errors.Is(err, tt.want) {
				t.Errorf("CheckUndo = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSnapshot(t *testing.T) {
	if got := snapshot(nil); got != "null" {
		t.Errorf("nil snapshot = %q", got)
	}
	if got := snapshot(map[string]int{"stock": 4}); got != `{"stock":4}` {
		t.Errorf("snapshot = %q", got)
	}
	if got := snapshot(make(chan int)); got != "null" {
		t.Errorf("unmarshalable snapshot = %q", got)
	}

	var p models.Product
	if err := decode("null", &p); err == nil {
		t.Errorf("decoding a null snapshot should fail")
	}
	if err := decode(`{"name":"Tea","stock":3}`, &p); err != nil || p.Name != "Tea" || p.Stock != 3 {
		t.Errorf("decode = %+v, %v", p, err)
	}
}

func TestToResponse(t *testing.T) {
	r := toResponse(models.InventoryLog{ID: 3, EntityType: EntityDamaged, Action: models.LogActionCreate})
	if !r.Undoable || r.UndoneAt != nil {
		t.Errorf("response = %+v", r)
	}
	r = toResponse(models.InventoryLog{ID: 4, EntityType: EntityReturn, Action: models.LogActionCreate})
	if r.Undoable {
		t.Errorf("return entries are not undoable")
	}
}
