package api

import (
	"encoding/json"
	"testing"
)

func TestDeadlineUpdateRequest_NullVersusAbsent(t *testing.T) {
	var req deadlineUpdateRequest
	if err := json.Unmarshal([]byte(`{"time":null,"context":"call before noon"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !req.Time.Set || req.Time.Value != nil {
		t.Fatalf("null time: Set=%v Value=%v, want set with nil value", req.Time.Set, req.Time.Value)
	}
	if !req.Context.Set || req.Context.Value == nil || *req.Context.Value != "call before noon" {
		t.Fatalf("context not carried through: %+v", req.Context)
	}

	var absent deadlineUpdateRequest
	if err := json.Unmarshal([]byte(`{"label":"Submission"}`), &absent); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if absent.Time.Set || absent.Context.Set {
		t.Fatalf("omitted fields must stay unset: time=%v context=%v", absent.Time.Set, absent.Context.Set)
	}
}

func TestDeadlineUpdateParams_NullTimeClearsColumn(t *testing.T) {
	var req deadlineUpdateRequest
	if err := json.Unmarshal([]byte(`{"time":null}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	params := deadlineUpdateParams(req)
	if !params.SetTime || params.Time != nil {
		t.Fatalf("expected time update to NULL, got SetTime=%v Time=%v", params.SetTime, params.Time)
	}
	if params.SetContext {
		t.Fatal("context was not in the request and must not be updated")
	}
	if params.Label != nil || params.Completed != nil {
		t.Fatalf("unexpected updates: label=%v completed=%v", params.Label, params.Completed)
	}
}

func TestDeadlineUpdateParams_ReplacesTime(t *testing.T) {
	var req deadlineUpdateRequest
	if err := json.Unmarshal([]byte(`{"time":"17:00","completed":true}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	params := deadlineUpdateParams(req)
	if !params.SetTime || params.Time == nil || *params.Time != "17:00" {
		t.Fatalf("expected time set to 17:00, got SetTime=%v Time=%v", params.SetTime, params.Time)
	}
	if params.Completed == nil || !*params.Completed {
		t.Fatal("completed flag lost")
	}
}
