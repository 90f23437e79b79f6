package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Waleed-coder079/clinic-receptionist/pkg/logging"
)

func TestCreateEventPostsBridgePayload(t *testing.T) {
	var gotPath string
	var gotReq CreateEventRequest
	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode bridge request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"eventId":"evt-1","htmlLink":"https://calendar/evt-1"}`))
	}))
	defer bridge.Close()

	client := NewClient(bridge.URL, logging.New("error"))
	event, err := client.CreateEvent(context.Background(), CreateEventRequest{
		PatientName: "Ali Raza",
		City:        "Sialkot",
		StartTime:   "2025-11-11T10:00:00+05:00",
		EndTime:     "2025-11-11T11:00:00+05:00",
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if gotPath != "/create-event" {
		t.Fatalf("posted to %q, want /create-event", gotPath)
	}
	if gotReq.PatientName != "Ali Raza" || gotReq.StartTime != "2025-11-11T10:00:00+05:00" {
		t.Fatalf("unexpected bridge payload: %+v", gotReq)
	}
	if event.EventID != "evt-1" || event.HTMLLink != "https://calendar/evt-1" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestCreateEventReportsBridgeFailure(t *testing.T) {
	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "calendar unavailable", http.StatusBadGateway)
	}))
	defer bridge.Close()

	client := NewClient(bridge.URL, logging.New("error"))
	_, err := client.CreateEvent(context.Background(), CreateEventRequest{PatientName: "Ali Raza"})
	if err == nil {
		t.Fatal("expected error from failing bridge")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Fatalf("error should carry the status code: %v", err)
	}
}

func TestDeleteEvent(t *testing.T) {
	var gotPath, gotMethod string
	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer bridge.Close()

	client := NewClient(bridge.URL, logging.New("error"))
	if err := client.DeleteEvent(context.Background(), "evt-1"); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/events/evt-1" {
		t.Fatalf("sent %s %s", gotMethod, gotPath)
	}
}

func TestDeleteEventTreatsNotFoundAsDone(t *testing.T) {
	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer bridge.Close()

	client := NewClient(bridge.URL, logging.New("error"))
	if err := client.DeleteEvent(context.Background(), "evt-gone"); err != nil {
		t.Fatalf("a missing event is the desired end state, got %v", err)
	}
}

func TestDeleteEventRequiresID(t *testing.T) {
	client := NewClient("http://localhost:0", logging.New("error"))
	if err := client.DeleteEvent(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty event id")
	}
}

func TestDryRunSkipsBridge(t *testing.T) {
	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("dry-run client must not call the bridge")
	}))
	defer bridge.Close()

	client := NewClient(bridge.URL, logging.New("error"), WithDryRun(true))
	event, err := client.CreateEvent(context.Background(), CreateEventRequest{PatientName: "Ali Raza"})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if event.EventID != "dry-run" {
		t.Fatalf("unexpected dry-run event: %+v", event)
	}
	if err := client.DeleteEvent(context.Background(), "evt-1"); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
}
