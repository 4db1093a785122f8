package processmgr

import (
	"strconv"
	"testing"
)

func TestLogBuffer_readNewestFirst(t *testing.T) {
	var b LogBuffer
	if got := b.Read(10); got != nil {
		t.Fatalf("empty buffer returned %v", got)
	}

	for i := 0; i < 3; i++ {
		b.Append("line " + strconv.Itoa(i))
	}

	got := b.Read(2)
	if len(got) != 2 || got[0].Message != "line 2" || got[1].Message != "line 1" {
		t.Fatalf("Read(2) = %+v", got)
	}
	if all := b.Read(0); len(all) != 3 {
		t.Fatalf("Read(0) returned %d entries", len(all))
	}
}

func TestLogBuffer_wraps(t *testing.T) {
	var b LogBuffer
	for i := 0; i < LogBufferSize+10; i++ {
		b.Append(strconv.Itoa(i))
	}

	if b.Len() != LogBufferSize {
		t.Fatalf("Len = %d", b.Len())
	}
	got := b.Read(LogBufferSize + 100)
	if len(got) != LogBufferSize {
		t.Fatalf("read %d entries", len(got))
	}
	if got[0].Message != strconv.Itoa(LogBufferSize+9) {
		t.Errorf("newest = %q", got[0].Message)
	}
	if got[LogBufferSize-1].Message != "10" {
		t.Errorf("oldest = %q", got[LogBufferSize-1].Message)
	}
}

func TestLogManager(t *testing.T) {
	lm := NewLogManager()
	if _, ok := lm.Read("cam1", 10); ok {
		t.Fatal("unknown camera reported ok")
	}
	lm.Get("cam1").Append("spawned")
	if lm.Get("cam1") != lm.Get("cam1") {
		t.Fatal("Get must return the same buffer")
	}
	got, ok := lm.Read("cam1", 10)
	if !ok || len(got) != 1 || got[0].Message != "spawned" {
		t.Fatalf("Read = %+v, %v", got, ok)
	}
}

func TestSlotPool(t *testing.T) {
	p := NewSlotPool(2)
	if !p.TryAcquire("a") || !p.TryAcquire("b") {
		t.Fatal("first two acquisitions must succeed")
	}
	if p.TryAcquire("c") {
		t.Fatal("pool over capacity")
	}
	if p.TryAcquire("a") {
		t.Fatal("duplicate owner must be refused")
	}
	if p.Current() != 2 || p.Capacity() != 2 {
		t.Fatalf("current=%d capacity=%d", p.Current(), p.Capacity())
	}

	p.Release("a")
	if !p.TryAcquire("c") {
		t.Fatal("released slot must be reusable")
	}
	if len(p.Holders()) != 2 {
		t.Fatalf("holders = %v", p.Holders())
	}

	defer func() {
		if recover() == nil {
			t.Fatal("release by non-owner must panic")
		}
	}()
	p.Release("zzz")
}
