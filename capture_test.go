package camtex

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

func newTestBridge(t *testing.T) (*CaptureBridge, *fakeGL, *fakeStream) {
	t.Helper()
	g := newFakeGL()
	p := &fakePlatform{}
	gc := &GraphicsContext{sentinel: sentinelTextureID}
	b, err := newCaptureBridge(g, gc, p)
	if err != nil {
		t.Fatalf("newCaptureBridge: %v", err)
	}
	return b, g, p.stream
}

func TestCaptureBridgeSetup(t *testing.T) {
	b, _, stream := newTestBridge(t)
	if b.Texture().Value == 0 {
		t.Error("no capture texture allocated")
	}
	if b.Texture().Value == sentinelTextureID {
		t.Error("capture texture collides with the sentinel")
	}
	if stream.listener == nil {
		t.Error("frame-available listener not registered")
	}
}

func TestConsumeWithoutSignal(t *testing.T) {
	b, _, _ := newTestBridge(t)
	if _, _, err := b.Consume(); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("Consume with no pending frame: err = %v, want ErrNoFrame", err)
	}
}

func TestSignalCoalescing(t *testing.T) {
	b, _, stream := newTestBridge(t)
	stream.mu.Lock()
	stream.transform = mgl32.Translate3D(0.5, 0, 0)
	stream.ts = 42
	stream.mu.Unlock()

	// Many arrivals before a draw collapse into one consume of the newest
	// image.
	for i := 0; i < 5; i++ {
		b.FrameArrived()
	}
	if !b.WaitFrame() {
		t.Fatal("WaitFrame returned closed")
	}
	mat, ts, err := b.Consume()
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if ts != 42 {
		t.Errorf("timestamp = %d, want 42", ts)
	}
	if mat != stream.TransformMatrix() {
		t.Errorf("transform = %v, want the stream's latched matrix", mat)
	}
	if stream.updates != 1 {
		t.Errorf("UpdateImage ran %d times, want 1", stream.updates)
	}
	if _, _, err := b.Consume(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("second Consume: err = %v, want ErrNoFrame", err)
	}
}

func TestConsumeUpdateFailureKeepsFramePending(t *testing.T) {
	b, _, stream := newTestBridge(t)
	updateErr := errors.New("latch failed")
	stream.mu.Lock()
	stream.updateErr = updateErr
	stream.mu.Unlock()

	b.FrameArrived()
	if _, _, err := b.Consume(); !errors.Is(err, updateErr) {
		t.Fatalf("Consume: err = %v, want the update failure", err)
	}

	// The frame is still pending; a later cycle retries it.
	stream.mu.Lock()
	stream.updateErr = nil
	stream.mu.Unlock()
	if _, _, err := b.Consume(); err != nil {
		t.Fatalf("retry Consume: %v", err)
	}
}

func TestWaitFrameBlocksUntilSignal(t *testing.T) {
	b, _, _ := newTestBridge(t)

	got := make(chan bool, 1)
	go func() { got <- b.WaitFrame() }()

	select {
	case <-got:
		t.Fatal("WaitFrame returned with no frame pending")
	case <-time.After(20 * time.Millisecond):
	}

	b.FrameArrived()
	select {
	case ok := <-got:
		if !ok {
			t.Fatal("WaitFrame reported closed")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitFrame did not wake on the signal")
	}
}

func TestCloseSignalWakesWaiter(t *testing.T) {
	b, _, stream := newTestBridge(t)

	got := make(chan bool, 1)
	go func() { got <- b.WaitFrame() }()
	time.Sleep(10 * time.Millisecond)

	b.CloseSignal()
	select {
	case ok := <-got:
		if ok {
			t.Fatal("WaitFrame reported a frame after close")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitFrame did not wake on close")
	}

	if stream.listener != nil {
		t.Error("listener still attached after close")
	}
	if _, _, err := b.Consume(); !errors.Is(err, ErrClosed) {
		t.Errorf("Consume after close: err = %v, want ErrClosed", err)
	}

	// Idempotent.
	b.CloseSignal()
}

func TestFrameArrivedConcurrent(t *testing.T) {
	b, _, _ := newTestBridge(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.FrameArrived()
			}
		}()
	}
	wg.Wait()
	if !b.WaitFrame() {
		t.Fatal("no frame pending after concurrent signals")
	}
	if _, _, err := b.Consume(); err != nil {
		t.Fatalf("Consume: %v", err)
	}
}

func TestBridgeRelease(t *testing.T) {
	b, g, stream := newTestBridge(t)
	b.CloseSignal()
	b.release(g)
	if !stream.released {
		t.Error("stream not released")
	}
	if len(g.liveTextures) != 0 {
		t.Errorf("%d textures leaked", len(g.liveTextures))
	}
}

func TestBridgeStreamFailure(t *testing.T) {
	g := newFakeGL()
	p := &fakePlatform{streamErr: errors.New("no stream")}
	gc := &GraphicsContext{sentinel: sentinelTextureID}
	_, err := newCaptureBridge(g, gc, p)
	var be *BootstrapError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want *BootstrapError", err)
	}
	if len(g.liveTextures) != 0 {
		t.Errorf("%d textures leaked on stream failure", len(g.liveTextures))
	}
}
