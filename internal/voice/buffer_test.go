package voice

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestFrameBuffer_PreservesOrder(t *testing.T) {
	buf := NewFrameBuffer(16)

	for i := 0; i < 10; i++ {
		buf.Push(Frame{Data: []byte{byte(i)}})
	}

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		frame, err := buf.Recv(ctx)
		if err != nil {
			t.Fatalf("recv %d: %v", i, err)
		}
		if frame.Data[0] != byte(i) {
			t.Fatalf("frame %d out of order: got %d", i, frame.Data[0])
		}
	}
}

func TestFrameBuffer_OverflowDropsOldest(t *testing.T) {
	buf := NewFrameBuffer(4)

	for i := 0; i < 6; i++ {
		buf.Push(Frame{Data: []byte{byte(i)}})
	}

	frame, err := buf.Recv(context.Background())
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if frame.Data[0] == 0 || frame.Data[0] == 1 {
		t.Fatalf("oldest frames should have been evicted, got %d", frame.Data[0])
	}
	if buf.Len() != 3 {
		t.Fatalf("expected 3 frames remaining, got %d", buf.Len())
	}
	if buf.Dropped() != 2 {
		t.Fatalf("expected 2 dropped frames, got %d", buf.Dropped())
	}
}

func TestFrameBuffer_RecvHonorsContext(t *testing.T) {
	buf := NewFrameBuffer(4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := buf.Recv(ctx)
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error from cancelled recv")
		}
	case <-time.After(time.Second):
		t.Fatal("recv did not return after cancel")
	}
}

func TestFrameBuffer_ConcurrentProducers(t *testing.T) {
	buf := NewFrameBuffer(1024)

	var wg sync.WaitGroup
	const producers = 8
	const perProducer = 100

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				buf.Push(Frame{Data: []byte{1}})
			}
		}()
	}
	wg.Wait()

	if got := buf.Len(); got != producers*perProducer {
		t.Fatalf("expected %d frames, got %d", producers*perProducer, got)
	}
	if buf.Dropped() != 0 {
		t.Fatalf("expected no drops, got %d", buf.Dropped())
	}
}
