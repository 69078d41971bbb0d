package api

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestBindingHandler_CRUD(t *testing.T) {
	f := newFixture(t)
	handler := NewBindingHandler(f.store.Bindings(), testLog)

	rec := do(t, handler, http.MethodPost, "/api/bindings", createBindingRequest{
		Label:      "Hello",
		PluginName: "speak",
		ActionName: "say",
		Config:     json.RawMessage(`{"voice":"en"}`),
	})
	expectStatus(t, rec, http.StatusCreated)

	var created bindingResponse
	decode(t, rec, &created)
	if created.ID == "" || !created.Enabled {
		t.Fatalf("unexpected binding: %+v", created)
	}

	t.Run("duplicate label", func(t *testing.T) {
		rec := do(t, handler, http.MethodPost, "/api/bindings", createBindingRequest{
			Label: "HELLO", PluginName: "type", ActionName: "text",
		})
		expectStatus(t, rec, http.StatusConflict)
	})

	t.Run("missing fields", func(t *testing.T) {
		for _, req := range []createBindingRequest{
			{PluginName: "speak", ActionName: "say"},
			{Label: "x", ActionName: "say"},
			{Label: "x", PluginName: "speak"},
		} {
			expectStatus(t, do(t, handler, http.MethodPost, "/api/bindings", req), http.StatusBadRequest)
		}
	})

	t.Run("get and list", func(t *testing.T) {
		rec := do(t, handler, http.MethodGet, "/api/bindings/"+created.ID, nil)
		expectStatus(t, rec, http.StatusOK)

		rec = do(t, handler, http.MethodGet, "/api/bindings", nil)
		expectStatus(t, rec, http.StatusOK)
		var list listBindingsResponse
		decode(t, rec, &list)
		if len(list.Bindings) != 1 {
			t.Errorf("expected 1 binding, got %d", len(list.Bindings))
		}
	})

	t.Run("update", func(t *testing.T) {
		disabled := false
		rec := do(t, handler, http.MethodPut, "/api/bindings/"+created.ID, updateBindingRequest{
			ActionName: "whisper",
			Enabled:    &disabled,
		})
		expectStatus(t, rec, http.StatusOK)

		var updated bindingResponse
		decode(t, rec, &updated)
		if updated.ActionName != "whisper" || updated.Enabled {
			t.Errorf("unexpected update result: %+v", updated)
		}
		if updated.PluginName != "speak" {
			t.Errorf("plugin name should be unchanged, got %q", updated.PluginName)
		}
	})

	t.Run("delete", func(t *testing.T) {
		expectStatus(t, do(t, handler, http.MethodDelete, "/api/bindings/"+created.ID, nil), http.StatusNoContent)
		expectStatus(t, do(t, handler, http.MethodDelete, "/api/bindings/"+created.ID, nil), http.StatusNotFound)
		expectStatus(t, do(t, handler, http.MethodGet, "/api/bindings/"+created.ID, nil), http.StatusNotFound)
	})
}
