package domain

import (
	"testing"
	"time"
)

func TestIdempotencyStatusValid(t *testing.T) {
	tests := []struct {
		name   string
		status IdempotencyStatus
		want   bool
	}{
		{name: "processing", status: IdempotencyStatusProcessing, want: true},
		{name: "done", status: IdempotencyStatusDone, want: true},
		{name: "failed", status: IdempotencyStatusFailed, want: true},
		{name: "invalid", status: IdempotencyStatus("broken"), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.status.Valid(); got != tc.want {
				t.Fatalf("status %q valid=%v, want %v", tc.status, got, tc.want)
			}
		})
	}
}

func TestIdempotencyRecordExpired(t *testing.T) {
	ttl := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	record := IdempotencyRecord{Key: "add-line-1", Status: IdempotencyStatusDone, TTLAt: ttl}

	if record.Expired(ttl.Add(-time.Second)) {
		t.Fatal("record must be alive before TTL")
	}
	if !record.Expired(ttl) {
		t.Fatal("record must expire exactly at TTL")
	}
	if !record.Expired(ttl.Add(time.Minute)) {
		t.Fatal("record must expire after TTL")
	}
}
