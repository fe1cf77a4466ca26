package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMustRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)
	MustRegister(reg) // second call must not panic on AlreadyRegisteredError

	got, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() = %v", err)
	}
	if len(got) == 0 {
		t.Error("Gather() returned no metric families after MustRegister")
	}
}

func TestRegistryListsEveryCollector(t *testing.T) {
	if len(Registry) != 10 {
		t.Errorf("len(Registry) = %d, want 10", len(Registry))
	}
}
