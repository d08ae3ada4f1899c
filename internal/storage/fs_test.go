package storage

import (
	"testing"
)

func tempLibrary(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempLibrary(t)
	content := []byte("RIFFfakewavdata")
	n, err := s.Write("standup.wav", content)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != int64(len(content)) {
		t.Errorf("size = %d, want %d", n, len(content))
	}
	got, err := s.Read("standup.wav")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempLibrary(t)
	if _, err := s.Write("2026/08/deep.wav", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("2026/08/deep.wav")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestDelete(t *testing.T) {
	s := tempLibrary(t)
	_, _ = s.Write("del.wav", []byte("bye"))
	if err := s.Delete("del.wav"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.wav"); err == nil {
		t.Error("expected error reading deleted blob")
	}
}

func TestListFiltersNonAudio(t *testing.T) {
	s := tempLibrary(t)
	_, _ = s.Write("a.wav", []byte("a"))
	_, _ = s.Write("b.mp3", []byte("b"))
	_, _ = s.Write("notes.txt", []byte("skip"))

	infos, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("len = %d, want 2 (txt filtered)", len(infos))
	}
	for _, info := range infos {
		if info.Size == 0 {
			t.Errorf("blob %s has zero size", info.Ref)
		}
	}
}

func TestRejectsEscapingRefs(t *testing.T) {
	s := tempLibrary(t)
	for _, ref := range []string{"../outside.wav", "/abs/path.wav", ""} {
		if _, err := s.Read(ref); err == nil {
			t.Errorf("Read(%q) should fail", ref)
		}
		if _, err := s.Write(ref, []byte("x")); err == nil {
			t.Errorf("Write(%q) should fail", ref)
		}
	}
}
