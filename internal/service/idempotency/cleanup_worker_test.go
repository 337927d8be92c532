package idempotency

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vladislavdragonenkov/order-pricing/internal/domain"
	"github.com/vladislavdragonenkov/order-pricing/internal/metrics"
	"github.com/vladislavdragonenkov/order-pricing/internal/storage/memory"
)

var _ domain.IdempotencyRepository = (*stubCleanupRepo)(nil)

func TestCleanupWorker_DeleteExpired_Batches(t *testing.T) {
	t.Parallel()

	repo := &stubCleanupRepo{
		deleteResults: []int{2, 2, 1},
	}

	worker := NewCleanupWorker(repo,
		WithBatchSize(2),
		WithMetrics(metrics.NewWorkerMetricsWithRegisterer(prometheus.NewRegistry())),
	)

	deleted, err := worker.DeleteExpired(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}

	if deleted != 5 {
		t.Fatalf("unexpected deleted total: got=%d want=5", deleted)
	}

	if calls := repo.calls(); calls != 3 {
		t.Fatalf("unexpected delete calls: got=%d want=3", calls)
	}
}

func TestCleanupWorker_DeleteExpired_Error(t *testing.T) {
	t.Parallel()

	repo := &stubCleanupRepo{
		deleteErrors: []error{errors.New("boom")},
	}

	worker := NewCleanupWorker(repo, WithBatchSize(10))

	deleted, err := worker.DeleteExpired(context.Background(), time.Now().UTC())
	if err == nil {
		t.Fatal("expected DeleteExpired error")
	}
	if deleted != 0 {
		t.Fatalf("unexpected deleted total: got=%d want=0", deleted)
	}
}

func TestCleanupWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	repo := &stubCleanupRepo{
		deleteResults: []int{0, 0, 0},
	}

	worker := NewCleanupWorker(
		repo,
		WithInterval(5*time.Millisecond),
		WithBatchSize(10),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}

	if calls := repo.calls(); calls == 0 {
		t.Fatal("expected cleanup to be called at least once")
	}
}

func TestCleanupWorker_DeleteExpired_MemoryRepository(t *testing.T) {
	t.Parallel()

	repo := memory.NewIdempotencyRepository()
	now := time.Now().UTC()
	for _, key := range []string{"expired-1", "expired-2", "expired-3"} {
		if _, err := repo.CreateProcessing(key, "hash", now.Add(-time.Minute)); err != nil {
			t.Fatalf("CreateProcessing failed: %v", err)
		}
	}
	if _, err := repo.CreateProcessing("live", "hash", now.Add(time.Hour)); err != nil {
		t.Fatalf("CreateProcessing failed: %v", err)
	}

	worker := NewCleanupWorker(repo, WithBatchSize(2))
	deleted, err := worker.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("unexpected deleted total: got=%d want=3", deleted)
	}
	if _, err := repo.Get("live"); err != nil {
		t.Fatalf("live key should survive cleanup: %v", err)
	}
}

func TestCleanupWorker_DeleteExpired_CanceledContext(t *testing.T) {
	t.Parallel()

	repo := &stubCleanupRepo{deleteResults: []int{5}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewCleanupWorker(repo).DeleteExpired(ctx, time.Time{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls := repo.calls(); calls != 0 {
		t.Fatalf("repository should not be called, got %d calls", calls)
	}
}

type stubCleanupRepo struct {
	mu sync.Mutex

	deleteResults []int
	deleteErrors  []error
	callCount     int
}

func (s *stubCleanupRepo) CreateProcessing(string, string, time.Time) (domain.IdempotencyRecord, error) {
	panic("not implemented")
}

func (s *stubCleanupRepo) Get(string) (domain.IdempotencyRecord, error) {
	panic("not implemented")
}

func (s *stubCleanupRepo) MarkDone(string, []byte, int) error {
	panic("not implemented")
}

func (s *stubCleanupRepo) MarkFailed(string, []byte, int) error {
	panic("not implemented")
}

func (s *stubCleanupRepo) DeleteExpired(_ time.Time, _ int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++

	if len(s.deleteErrors) > 0 {
		err := s.deleteErrors[0]
		s.deleteErrors = s.deleteErrors[1:]
		if err != nil {
			return 0, err
		}
	}

	if len(s.deleteResults) == 0 {
		return 0, nil
	}
	result := s.deleteResults[0]
	s.deleteResults = s.deleteResults[1:]
	return result, nil
}

func (s *stubCleanupRepo) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}
