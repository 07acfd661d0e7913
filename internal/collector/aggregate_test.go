package collector

import (
	"reflect"
	"testing"

	"softether-exporter/internal/model"
)

func TestAggregateUsers(t *testing.T) {
	sessions := []model.HubSession{
		{User: "A", TransferBytes: 100, TransferPackets: 10},
		{User: "B", TransferBytes: 50, TransferPackets: 5},
		{User: "A", TransferBytes: 20, TransferPackets: 2},
	}
	want := []model.UserTransfer{
		{User: "A", Bytes: 120, Packets: 12},
		{User: "B", Bytes: 50, Packets: 5},
	}

	if got := AggregateUsers(sessions); !reflect.DeepEqual(got, want) {
		t.Fatalf("AggregateUsers = %+v, want %+v", got, want)
	}

	reversed := []model.HubSession{sessions[2], sessions[1], sessions[0]}
	if got := AggregateUsers(reversed); !reflect.DeepEqual(got, want) {
		t.Fatalf("AggregateUsers depends on order: %+v", got)
	}
}

func TestAggregateUsersEmpty(t *testing.T) {
	got := AggregateUsers(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
