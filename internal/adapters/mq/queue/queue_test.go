package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/model"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	// Test empty queue
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	// Test enqueue
	sub1 := model.Submission{ID: "sub1", TeamName: "team-alpha", ProblemStatementID: "ps-1"}
	if !q.Enqueue(ctx, sub1) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	// Test dequeue
	subChan := q.Dequeue(ctx)
	sub := <-subChan
	if sub.ID != "sub1" {
		t.Errorf("expected sub1, got %v", sub.ID)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	// Fill the queue
	sub1 := model.Submission{ID: "sub1", TeamName: "team-alpha", ProblemStatementID: "ps-1"}
	sub2 := model.Submission{ID: "sub2", TeamName: "team-beta", ProblemStatementID: "ps-1"}
	sub3 := model.Submission{ID: "sub3", TeamName: "team-gamma", ProblemStatementID: "ps-1"}

	if !q.Enqueue(ctx, sub1) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, sub2) {
		t.Error("expected enqueue to succeed")
	}

	// Try to enqueue when full
	if q.Enqueue(ctx, sub3) {
		t.Error("expected enqueue to fail when full")
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	numGoroutines := 10
	numSubmissions := 100

	// Start producer goroutines
	done := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < numSubmissions; j++ {
				sub := model.Submission{
					ID:                 fmt.Sprintf("sub%d_%d", id, j),
					TeamName:           fmt.Sprintf("team%d", id),
					ProblemStatementID: "ps-1",
				}
				for !q.Enqueue(ctx, sub) {
					time.Sleep(time.Millisecond)
				}
			}
			done <- true
		}(i)
	}

	// Start consumer goroutines
	consumed := make(chan string, numGoroutines*numSubmissions)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			subChan := q.Dequeue(ctx)
			for sub := range subChan {
				consumed <- sub.ID
			}
		}()
	}

	// Wait for producers to finish
	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	// Wait a bit for consumers to process
	time.Sleep(100 * time.Millisecond)

	// Check final queue length
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	// Enqueue some submissions
	sub1 := model.Submission{ID: "sub1", TeamName: "team-alpha", ProblemStatementID: "ps-1"}
	sub2 := model.Submission{ID: "sub2", TeamName: "team-beta", ProblemStatementID: "ps-1"}

	if !q.Enqueue(ctx, sub1) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, sub2) {
		t.Error("expected enqueue to succeed")
	}

	// Check initial state
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	// Close the queue
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}

	// Check closed state
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}

	// Try to enqueue after closing (should fail)
	if q.Enqueue(ctx, sub1) {
		t.Error("expected enqueue to fail after closing")
	}

	// Dequeue channel should be closed
	subChan := q.Dequeue(ctx)

	// Wait for channel to be closed
	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case _, ok := <-subChan:
			if !ok {
				// Channel drained and closed, which is expected
				goto channelClosed
			}
		case <-timeout:
			t.Error("expected dequeue channel to be closed within timeout")
			return
		}
	}
channelClosed:

	// Close again should not error
	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
