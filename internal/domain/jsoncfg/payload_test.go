package jsoncfg

import (
	"testing"

	"wisentia/internal/domain"
)

func TestDecodeReturnsStatusShapedVariant(t *testing.T) {
	cases := []struct {
		status  domain.JobStatus
		payload any
	}{
		{domain.JobStatusQueued, NewQueued()},
		{domain.JobStatusProcessing, NewProgress(StageLLMCall, "calling model", 2)},
		{domain.JobStatusCompleted, CompletedContent{Status: "completed", Model: "gpt-4o-mini"}},
		{domain.JobStatusFailed, FailedError{Status: "failed", Error: "boom", Kind: "timeout"}},
		{domain.JobStatusApproved, ApprovedResult{Status: "approved", Message: "done"}},
		{domain.JobStatusDuplicateFound, DuplicateFound{Status: "duplicate_found", Duplicate: &domain.DuplicateMatch{QuestID: 7}}},
	}
	for _, tc := range cases {
		out, err := Decode(tc.status, MustMarshal(tc.payload))
		if err != nil {
			t.Fatalf("%s: %v", tc.status, err)
		}
		switch tc.status {
		case domain.JobStatusQueued:
			if _, ok := out.(QueuedInfo); !ok {
				t.Fatalf("%s: got %T", tc.status, out)
			}
		case domain.JobStatusProcessing:
			v, ok := out.(ProcessingProgress)
			if !ok || v.Stage != StageLLMCall || v.Attempt != 2 {
				t.Fatalf("%s: got %+v", tc.status, out)
			}
		case domain.JobStatusCompleted:
			if _, ok := out.(CompletedContent); !ok {
				t.Fatalf("%s: got %T", tc.status, out)
			}
		case domain.JobStatusFailed:
			v, ok := out.(FailedError)
			if !ok || v.Kind != "timeout" {
				t.Fatalf("%s: got %+v", tc.status, out)
			}
		case domain.JobStatusApproved:
			if _, ok := out.(ApprovedResult); !ok {
				t.Fatalf("%s: got %T", tc.status, out)
			}
		case domain.JobStatusDuplicateFound:
			v, ok := out.(DuplicateFound)
			if !ok || v.Duplicate == nil || v.Duplicate.QuestID != 7 {
				t.Fatalf("%s: got %+v", tc.status, out)
			}
		}
	}
}

func TestDecodeUnknownStatus(t *testing.T) {
	if _, err := Decode(domain.JobStatus("archived"), []byte(`{}`)); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestDecodeMalformedPayload(t *testing.T) {
	if _, err := Decode(domain.JobStatusCompleted, []byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
