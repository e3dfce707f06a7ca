package weft

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEmitter_OrderedDispatch(t *testing.T) {
	e := NewEmitter()
	var order []string
	e.On("save", func(interface{}) { order = append(order, "first") })
	e.On("save", func(interface{}) { order = append(order, "second") })
	e.On("other", func(interface{}) { order = append(order, "wrong event") })

	if ran := e.Emit("save", nil); ran != 2 {
		t.Errorf("Emit() ran %d handlers, want 2", ran)
	}
	if diff := cmp.Diff([]string{"first", "second"}, order); diff != "" {
		t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitter_OffByID(t *testing.T) {
	e := NewEmitter()
	var hits int
	first := e.On("tick", func(interface{}) { hits += 1 })
	e.On("tick", func(interface{}) { hits += 10 })

	if !e.Off("tick", first) {
		t.Fatal("Off() did not find a live subscription")
	}
	if e.Off("tick", first) {
		t.Error("Off() removed the same subscription twice")
	}
	if e.Off("tock", 999) {
		t.Error("Off() succeeded for an unknown event")
	}

	e.Emit("tick", nil)
	if hits != 10 {
		t.Errorf("hits = %d, want only the surviving handler's 10", hits)
	}
}

func TestEmitter_PayloadDelivery(t *testing.T) {
	e := NewEmitter()
	var got interface{}
	e.On("load", func(p interface{}) { got = p })

	e.Emit("load", map[string]interface{}{"id": "a1"})
	m, ok := got.(map[string]interface{})
	if !ok || m["id"] != "a1" {
		t.Errorf("payload = %v", got)
	}

	if ran := e.Emit("missing", nil); ran != 0 {
		t.Errorf("Emit() on unsubscribed event ran %d handlers", ran)
	}
}
