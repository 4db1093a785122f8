package live

import (
	"errors"
	"reflect"
	"strconv"
	"testing"
)

// recordingViewer keeps every payload it receives.
type recordingViewer struct {
	id     string
	got    [][]byte
	refuse bool
	closed int
}

func (v *recordingViewer) ID() string { return v.id }

func (v *recordingViewer) Send(p []byte) bool {
	if v.refuse || v.closed > 0 {
		return false
	}
	v.got = append(v.got, p)
	return true
}

func (v *recordingViewer) Close() { v.closed++ }

func payloads(v *recordingViewer) []string {
	out := make([]string, len(v.got))
	for i, p := range v.got {
		out[i] = string(p)
	}
	return out
}

func TestChannel_lateJoinerGetsInitThenLaterFragments(t *testing.T) {
	ch := NewChannel("cam1")
	ch.SetInitialization([]byte("I"))

	a := &recordingViewer{id: "A"}
	if err := ch.Join(a); err != nil {
		t.Fatalf("Join A: %v", err)
	}
	ch.Broadcast([]byte("F1"))

	b := &recordingViewer{id: "B"}
	if err := ch.Join(b); err != nil {
		t.Fatalf("Join B: %v", err)
	}
	ch.Broadcast([]byte("F2"))
	ch.Broadcast([]byte("F3"))

	wantA := []string{"I", "F1", "F2", "F3"}
	wantB := []string{"I", "F2", "F3"}
	if got := payloads(a); !reflect.DeepEqual(got, wantA) {
		t.Errorf("A got %v, want %v", got, wantA)
	}
	if got := payloads(b); !reflect.DeepEqual(got, wantB) {
		t.Errorf("B got %v, want %v", got, wantB)
	}
}

func TestChannel_joinWithoutInit(t *testing.T) {
	ch := NewChannel("cam1")
	v := &recordingViewer{id: "A"}
	if err := ch.Join(v); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if len(v.got) != 0 {
		t.Fatalf("nothing must be replayed before init: %v", payloads(v))
	}
}

func TestChannel_earlyJoinerGetsInitWhenItArrives(t *testing.T) {
	ch := NewChannel("cam1")
	v := &recordingViewer{id: "A"}
	if err := ch.Join(v); err != nil {
		t.Fatalf("Join: %v", err)
	}
	ch.SetInitialization([]byte("I"))
	ch.Broadcast([]byte("F1"))

	want := []string{"I", "F1"}
	if got := payloads(v); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestChannel_broadcastReachesAll(t *testing.T) {
	ch := NewChannel("cam1")
	viewers := make([]*recordingViewer, 5)
	for i := range viewers {
		viewers[i] = &recordingViewer{id: strconv.Itoa(i)}
		if err := ch.Join(viewers[i]); err != nil {
			t.Fatalf("Join: %v", err)
		}
	}

	if n := ch.Broadcast([]byte("F")); n != 5 {
		t.Fatalf("delivered to %d viewers, want 5", n)
	}
	for _, v := range viewers {
		if len(v.got) != 1 {
			t.Errorf("viewer %s got %d payloads", v.id, len(v.got))
		}
	}

	ch.Leave(viewers[0])
	ch.Broadcast([]byte("G"))
	if len(viewers[0].got) != 1 {
		t.Errorf("removed viewer received %d payloads", len(viewers[0].got))
	}
	if ch.Len() != 4 {
		t.Errorf("Len = %d, want 4", ch.Len())
	}
}

func TestChannel_failingViewerRemovedSilently(t *testing.T) {
	ch := NewChannel("cam1")
	good := &recordingViewer{id: "good"}
	bad := &recordingViewer{id: "bad"}
	_ = ch.Join(good)
	_ = ch.Join(bad)

	bad.refuse = true
	if n := ch.Broadcast([]byte("F")); n != 1 {
		t.Fatalf("delivered = %d, want 1", n)
	}
	if bad.closed != 1 {
		t.Errorf("failing viewer closed %d times", bad.closed)
	}
	if ch.Len() != 1 {
		t.Errorf("Len = %d, want 1", ch.Len())
	}

	ch.Broadcast([]byte("G"))
	if len(good.got) != 2 {
		t.Errorf("healthy viewer got %d payloads", len(good.got))
	}
}

func TestChannel_joinRefusingInit(t *testing.T) {
	ch := NewChannel("cam1")
	ch.SetInitialization([]byte("I"))
	v := &recordingViewer{id: "A", refuse: true}
	if err := ch.Join(v); !errors.Is(err, ErrViewerFull) {
		t.Fatalf("expected ErrViewerFull, got %v", err)
	}
	if ch.Len() != 0 || v.closed != 1 {
		t.Fatalf("len=%d closed=%d", ch.Len(), v.closed)
	}
}

func TestChannel_close(t *testing.T) {
	ch := NewChannel("cam1")
	v := &recordingViewer{id: "A"}
	_ = ch.Join(v)

	ch.Close()
	ch.Close()

	if v.closed != 1 {
		t.Errorf("viewer closed %d times, want 1", v.closed)
	}
	if err := ch.Join(&recordingViewer{id: "B"}); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("expected ErrChannelClosed, got %v", err)
	}
	if n := ch.Broadcast([]byte("F")); n != 0 {
		t.Fatalf("closed channel delivered %d", n)
	}
}

func TestHub(t *testing.T) {
	h := NewHub()
	first := NewChannel("cam1")
	if old := h.Swap(first); old != nil {
		t.Fatal("first swap must not return a channel")
	}

	second := NewChannel("cam1")
	if old := h.Swap(second); old != first {
		t.Fatal("swap must return the replaced channel")
	}

	h.Remove(first) // stale; must not drop second
	if got, ok := h.Get("cam1"); !ok || got != second {
		t.Fatal("stale Remove dropped the current channel")
	}

	_ = second.Join(&recordingViewer{id: "A"})
	if n := h.Viewers()["cam1"]; n != 1 {
		t.Fatalf("Viewers = %d", n)
	}

	h.Remove(second)
	if _, ok := h.Get("cam1"); ok {
		t.Fatal("Remove did not drop the current channel")
	}
}

func TestQueueViewer(t *testing.T) {
	v := NewQueueViewer(2)
	if v.ID() == "" {
		t.Fatal("empty id")
	}
	if !v.Send([]byte("a")) || !v.Send([]byte("b")) {
		t.Fatal("sends within depth must succeed")
	}
	if v.Send([]byte("c")) {
		t.Fatal("send beyond depth must fail")
	}
	if got := string(<-v.C()); got != "a" {
		t.Fatalf("FIFO order broken: %q", got)
	}

	v.Close()
	v.Close()
	if v.Send([]byte("d")) {
		t.Fatal("send after close must fail")
	}

	<-v.C() // "b"
	if _, ok := <-v.C(); ok {
		t.Fatal("queue must be closed")
	}
}
