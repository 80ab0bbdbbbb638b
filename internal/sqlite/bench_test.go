package sqlite

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/mesh-intelligence/padkit/pkg/live"
	"github.com/mesh-intelligence/padkit/pkg/types"
)

// newBenchBackend attaches a backend in a temp directory for the benchmark.
func newBenchBackend(b *testing.B) *Backend {
	b.Helper()
	backend := NewBackend()
	config := types.Config{Backend: types.BackendSQLite, DataDir: b.TempDir()}
	if err := backend.Attach(config); err != nil {
		b.Fatalf("failed to attach backend: %v", err)
	}
	b.Cleanup(func() { backend.Detach() })
	return backend
}

// seedProfiles inserts n inactive profiles and returns their ids.
func seedProfiles(b *testing.B, backend *Backend, n int) []int64 {
	b.Helper()
	ctx := context.Background()
	ids := make([]int64, n)
	for i := range n {
		id, err := backend.Profiles().Insert(ctx, &types.ControllerProfile{
			Name:        fmt.Sprintf("Benchmark profile %d", i),
			Description: "layout for benchmarking",
		})
		if err != nil {
			b.Fatalf("failed to seed profile %d: %v", i, err)
		}
		ids[i] = id
	}
	return ids
}

func seedMacros(b *testing.B, backend *Backend, n int) []int64 {
	b.Helper()
	ctx := context.Background()
	ids := make([]int64, n)
	for i := range n {
		id, err := backend.Macros().Insert(ctx, &types.Macro{
			Name:   fmt.Sprintf("Benchmark macro %d", i),
			Events: comboEvents(),
		})
		if err != nil {
			b.Fatalf("failed to seed macro %d: %v", i, err)
		}
		ids[i] = id
	}
	return ids
}

// --- GetByID ---

func BenchmarkProfilesGetByID100(b *testing.B)  { benchmarkProfilesGetByID(b, 100) }
func BenchmarkProfilesGetByID1000(b *testing.B) { benchmarkProfilesGetByID(b, 1000) }

func benchmarkProfilesGetByID(b *testing.B, dataSize int) {
	backend := newBenchBackend(b)
	ids := seedProfiles(b, backend, dataSize)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		if _, err := backend.Profiles().GetByID(ctx, ids[rand.Intn(len(ids))]); err != nil {
			b.Fatalf("GetByID failed: %v", err)
		}
	}
}

// --- Insert ---

func BenchmarkProfilesInsert(b *testing.B) {
	backend := newBenchBackend(b)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	i := 0
	for b.Loop() {
		i++
		p := &types.ControllerProfile{Name: fmt.Sprintf("Inserted %d", i)}
		if _, err := backend.Profiles().Insert(ctx, p); err != nil {
			b.Fatalf("Insert failed: %v", err)
		}
	}
}

// --- ActivateExclusively ---

func BenchmarkProfilesActivateExclusively(b *testing.B) {
	backend := newBenchBackend(b)
	ids := seedProfiles(b, backend, 100)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		if err := backend.Profiles().ActivateExclusively(ctx, ids[rand.Intn(len(ids))]); err != nil {
			b.Fatalf("ActivateExclusively failed: %v", err)
		}
	}
}

// --- Search ---

func BenchmarkProfilesSearch1000(b *testing.B) {
	backend := newBenchBackend(b)
	seedProfiles(b, backend, 1000)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		sub, err := backend.Profiles().Search(ctx, "%profile 99%")
		if err != nil {
			b.Fatalf("Search failed: %v", err)
		}
		if _, err := live.First(ctx, sub); err != nil {
			b.Fatalf("reading search result failed: %v", err)
		}
	}
}

// --- GetByIDs ---

func BenchmarkMacrosGetByIDs(b *testing.B) {
	backend := newBenchBackend(b)
	ids := seedMacros(b, backend, 500)
	ctx := context.Background()

	want := make([]int64, 50)
	for i := range want {
		want[i] = ids[rand.Intn(len(ids))]
	}

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		if _, err := backend.Macros().GetByIDs(ctx, want); err != nil {
			b.Fatalf("GetByIDs failed: %v", err)
		}
	}
}
