package rca

import (
	"errors"
	"testing"
	"time"

	kpi "clinic-analytics/internal/kpi/domain"
)

func validInput() CreateInput {
	return CreateInput{
		AlertID:    "no_show_rate",
		Severity:   kpi.PriorityP1,
		Title:      "Taxa de no-show crítica",
		RootCause:  "Confirmações por WhatsApp desativadas",
		ActionPlan: "Reativar lembretes 24h antes",
		Owner:      "ana",
		DueDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateInputValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateInput)
		ok     bool
	}{
		{name: "valid", mutate: func(*CreateInput) {}, ok: true},
		{name: "short root cause", mutate: func(in *CreateInput) { in.RootCause = "  ab  " }},
		{name: "short action plan", mutate: func(in *CreateInput) { in.ActionPlan = "x" }},
		{name: "three chars", mutate: func(in *CreateInput) { in.RootCause = "abc" }, ok: true},
		{name: "missing severity", mutate: func(in *CreateInput) { in.Severity = kpi.PriorityNone }},
		{name: "bad severity", mutate: func(in *CreateInput) { in.Severity = "P4" }},
		{name: "missing owner", mutate: func(in *CreateInput) { in.Owner = " " }},
		{name: "missing due date", mutate: func(in *CreateInput) { in.DueDate = time.Time{} }},
		{name: "missing alert", mutate: func(in *CreateInput) { in.AlertID = "" }},
	}
	for _, tc := range cases {
		in := validInput()
		tc.mutate(&in)
		err := in.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestPatchValidate(t *testing.T) {
	if err := (Patch{Status: "closed"}).Validate(); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	if err := (Patch{}).Validate(); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("status is required, got %v", err)
	}
	short := "no"
	if err := (Patch{Status: StatusDone, RootCause: &short}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, status := range []Status{StatusOpen, StatusInProgress, StatusDone} {
		if err := (Patch{Status: status}).Validate(); err != nil {
			t.Fatalf("status %s rejected: %v", status, err)
		}
	}
}

func TestPatchNormalize_TrimsStatus(t *testing.T) {
	patch, err := (Patch{Status: " done "}).Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if patch.Status != StatusDone {
		t.Fatalf("expected %q, got %q", StatusDone, patch.Status)
	}
	if _, err := (Patch{Status: " closed "}).Normalize(); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
}

func TestPatchApply_OnlySetFields(t *testing.T) {
	record := Record{Status: StatusOpen, RootCause: "old cause", ActionPlan: "old plan", Owner: "ana"}
	owner := "bruno"
	at := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	got := Patch{Status: StatusInProgress, Owner: &owner}.Apply(record, at)
	if got.Status != StatusInProgress || got.Owner != "bruno" || got.RootCause != "old cause" || got.ActionPlan != "old plan" {
		t.Fatalf("unexpected record %+v", got)
	}
	if !got.UpdatedAt.Equal(at) {
		t.Fatalf("updated_at not set")
	}
}

func TestListFilterMatches(t *testing.T) {
	record := Record{Severity: kpi.PriorityP2, Status: StatusDone}
	if !(ListFilter{}).Matches(record) {
		t.Fatalf("empty filter must match")
	}
	if !(ListFilter{Severity: kpi.PriorityP2, Status: StatusDone}).Matches(record) {
		t.Fatalf("exact filter must match")
	}
	if (ListFilter{Severity: kpi.PriorityP1}).Matches(record) || (ListFilter{Status: StatusOpen}).Matches(record) {
		t.Fatalf("mismatching filter must not match")
	}
}
