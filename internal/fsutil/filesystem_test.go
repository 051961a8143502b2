package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

var (
	_ FileSystem = OSFileSystem{}
	_ FileSystem = (*MemoryFileSystem)(nil)
)

func TestOSFileSystem_RoundTrip(t *testing.T) {
	var fsys FileSystem = OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "run", "nested")

	if err := fsys.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	name := filepath.Join(dir, "ade_results.jsonl")
	if fsys.Exists(name) {
		t.Fatal("file should not exist yet")
	}

	if err := fsys.AppendFile(name, []byte("a\n"), 0644); err != nil {
		t.Fatalf("AppendFile: %v", err)
	}
	if err := fsys.AppendFile(name, []byte("b\n"), 0644); err != nil {
		t.Fatalf("AppendFile: %v", err)
	}
	data, err := fsys.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "a\nb\n" {
		t.Errorf("got %q, want %q", data, "a\nb\n")
	}

	w, err := fsys.Create(filepath.Join(dir, "frame.jpg"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.Write([]byte{0xff, 0xd8}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if jpg, err := fsys.ReadFile(filepath.Join(dir, "frame.jpg")); err != nil || len(jpg) != 2 {
		t.Errorf("ReadFile = (%v, %v), want 2 bytes", jpg, err)
	}

	f, err := fsys.Open(name)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	got, _ := io.ReadAll(f)
	if string(got) != "a\nb\n" {
		t.Errorf("Open read %q", got)
	}

	if err := fsys.WriteFile(name, []byte("c"), 0644); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(name); string(data) != "c" {
		t.Errorf("WriteFile should truncate, got %q", data)
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	m := NewMemoryFileSystem()

	if err := m.WriteFile("/data/v1.0-mini/scene.json", []byte("[]"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := m.ReadFile("/data/v1.0-mini/../v1.0-mini/scene.json")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("got %q", data)
	}

	data[0] = 'x'
	again, _ := m.ReadFile("/data/v1.0-mini/scene.json")
	if string(again) != "[]" {
		t.Error("ReadFile must return a copy")
	}

	if _, err := m.ReadFile("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v, want ErrNotExist", err)
	}
	if _, err := m.Open("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v, want ErrNotExist", err)
	}
}

func TestMemoryFileSystem_CreateAndAppend(t *testing.T) {
	m := NewMemoryFileSystem()

	w, _ := m.Create("/out/a.npy")
	_, _ = w.Write([]byte("hello"))
	if got, _ := m.ReadFile("/out/a.npy"); len(got) != 0 {
		t.Errorf("contents visible before Close: %q", got)
	}
	_ = w.Close()
	if got, _ := m.ReadFile("/out/a.npy"); string(got) != "hello" {
		t.Errorf("got %q, want hello", got)
	}

	_ = m.AppendFile("/out/log.jsonl", []byte("1\n"), 0644)
	_ = m.AppendFile("/out/log.jsonl", []byte("2\n"), 0644)
	if got, _ := m.ReadFile("/out/log.jsonl"); string(got) != "1\n2\n" {
		t.Errorf("got %q", got)
	}

	f, err := m.Open("/out/a.npy")
	if err != nil {
		t.Fatal(err)
	}
	info, _ := f.Stat()
	if info.Name() != "a.npy" || info.Size() != 5 {
		t.Errorf("Stat = %s/%d", info.Name(), info.Size())
	}
}

func TestMemoryFileSystem_Dirs(t *testing.T) {
	m := NewMemoryFileSystem()
	if err := m.MkdirAll("/runs/20240501-120000/scene-0061", 0755); err != nil {
		t.Fatal(err)
	}
	for _, dir := range []string{"/runs", "/runs/20240501-120000", "/runs/20240501-120000/scene-0061"} {
		if !m.Exists(dir) {
			t.Errorf("%s should exist", dir)
		}
	}
	if m.Exists("/nope") {
		t.Error("/nope should not exist")
	}
}

func TestMemoryFileSystem_Files(t *testing.T) {
	m := NewMemoryFileSystem()
	_ = m.WriteFile("/runs/r1/b.jpg", nil, 0644)
	_ = m.WriteFile("/runs/r1/a.jpg", nil, 0644)
	_ = m.WriteFile("/runs/r10/c.jpg", nil, 0644)
	_ = m.WriteFile("/other/d.jpg", nil, 0644)

	got := m.Files("/runs/r1")
	want := []string{"/runs/r1/a.jpg", "/runs/r1/b.jpg"}
	if len(got) != len(want) {
		t.Fatalf("Files = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Files[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestMemFileInfo(t *testing.T) {
	info := &memFileInfo{name: "x", size: 3}
	if info.Name() != "x" || info.Size() != 3 || info.Mode() != 0644 || info.IsDir() || info.Sys() != nil || !info.ModTime().IsZero() {
		t.Errorf("unexpected memFileInfo accessors: %+v", info)
	}
}
