package recording

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestParseFilename(t *testing.T) {
	want := time.Date(2024, 3, 9, 14, 5, 0, 0, time.Local)

	for _, name := range []string{
		"2024-03-09T14-05-00.mp4",
		"/mnt/nvr/NVR_CAMERA_RECORDINGS/cam1/2024-03-09T14-05-00.mp4",
		"  2024-03-09T14-05-00.mp4\n",
	} {
		got, err := ParseFilename(name)
		if err != nil {
			t.Fatalf("ParseFilename(%q): %v", name, err)
		}
		if !got.Equal(want) {
			t.Errorf("ParseFilename(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := ParseFilename("garbage.mp4"); err == nil {
		t.Fatal("expected error for garbage name")
	}
}

func TestWatcher_Run(t *testing.T) {
	var got []Segment
	hook := HookFunc(func(_ context.Context, s Segment) { got = append(got, s) })

	w := NewWatcher(zap.NewNop(), "cam1", hook)
	end := time.Date(2024, 3, 9, 14, 6, 0, 0, time.Local)
	w.now = func() time.Time { return end }

	input := strings.Join([]string{
		"/rec/cam1/2024-03-09T14-05-00.mp4",
		"",
		"not-a-timestamp.mp4",
		"2024-03-09T14-06-00.mp4",
	}, "\n") + "\n"

	if n := w.Run(context.Background(), strings.NewReader(input)); n != 2 {
		t.Fatalf("Run delivered %d segments, want 2", n)
	}
	if len(got) != 2 {
		t.Fatalf("hook saw %d segments", len(got))
	}

	first := got[0]
	if first.CameraID != "cam1" || first.Filename != "2024-03-09T14-05-00.mp4" {
		t.Errorf("first = %+v", first)
	}
	if !first.End.Equal(end) || first.Duration() != time.Minute {
		t.Errorf("end/duration = %v / %v", first.End, first.Duration())
	}
}

func TestWatcher_hooksInOrder(t *testing.T) {
	var order []string
	a := HookFunc(func(context.Context, Segment) { order = append(order, "a") })
	b := HookFunc(func(context.Context, Segment) { order = append(order, "b") })

	w := NewWatcher(zap.NewNop(), "cam1", a, b, LogHook(zap.NewNop()))
	w.Run(context.Background(), strings.NewReader("2024-03-09T14-05-00.mp4\n"))

	if strings.Join(order, "") != "ab" {
		t.Fatalf("hook order = %v", order)
	}
}

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	last := time.Date(2024, 3, 9, 14, 7, 30, 0, time.Local)

	touch(t, filepath.Join(dir, "2024-03-09T14-06-00.mp4"), last)
	touch(t, filepath.Join(dir, "2024-03-09T14-05-00.mp4"), last)
	touch(t, filepath.Join(dir, "notes.txt"), last)
	touch(t, filepath.Join(dir, "bogus.mp4"), last)

	segs, err := List("cam1", dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments", len(segs))
	}
	if segs[0].Filename != "2024-03-09T14-05-00.mp4" {
		t.Errorf("not sorted: %v", segs[0].Filename)
	}
	if segs[0].Duration() != time.Minute {
		t.Errorf("first duration = %v", segs[0].Duration())
	}
	if segs[1].Duration() != 90*time.Second {
		t.Errorf("last duration = %v", segs[1].Duration())
	}

	if segs, err := List("cam1", filepath.Join(dir, "missing")); err != nil || len(segs) != 0 {
		t.Fatalf("missing dir: %v, %v", segs, err)
	}
}

func TestPlaylist(t *testing.T) {
	start := time.Date(2024, 3, 9, 14, 5, 0, 0, time.Local)
	segs := []Segment{
		{Filename: "a.mp4", Start: start, End: start.Add(60 * time.Second)},
		{Filename: "b.mp4", Start: start.Add(60 * time.Second), End: start.Add(90 * time.Second)},
	}

	out, err := Playlist(segs, "/segments/cam1")
	if err != nil {
		t.Fatalf("Playlist: %v", err)
	}
	for _, want := range []string{
		"#EXT-X-PLAYLIST-TYPE:VOD",
		"/segments/cam1/a.mp4",
		"/segments/cam1/b.mp4",
		"#EXT-X-DISCONTINUITY",
		"#EXT-X-ENDLIST",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("playlist missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "#EXT-X-DISCONTINUITY") != 1 {
		t.Errorf("expected exactly one discontinuity:\n%s", out)
	}

	if _, err := Playlist(nil, "/segments/cam1"); !errors.Is(err, ErrNoRecordings) {
		t.Fatalf("expected ErrNoRecordings, got %v", err)
	}
}

func TestLayout_Prepare(t *testing.T) {
	root := t.TempDir()
	l := Layout{Root: root}
	if err := l.Prepare("cam1", "cam2"); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	for _, d := range []string{l.SystemDir(), l.CameraDir("cam1"), l.CameraDir("cam2")} {
		if fi, err := os.Stat(d); err != nil || !fi.IsDir() {
			t.Errorf("%s not created: %v", d, err)
		}
	}

	missing := Layout{Root: filepath.Join(root, "nope")}
	if err := missing.Prepare(); !errors.Is(err, ErrStorageMissing) {
		t.Fatalf("expected ErrStorageMissing, got %v", err)
	}
}
