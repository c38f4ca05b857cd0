package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"hattriego/sizeclass"
)

func TestDefaultIsUsable(t *testing.T) {
	d := Default()
	if d.BootLevels != 3 || d.PailSlots != 127 || d.BucketSlots != 2047 || d.BucketMax != 65536 {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	if len(d.SizeClasses) != len(sizeclass.Default) {
		t.Fatalf("default size classes = %v, want %v", d.SizeClasses, sizeclass.Default)
	}
}

func TestNormalizeSortsSizeClasses(t *testing.T) {
	tun := Tunables{BucketSlots: 2047, BucketMax: 65536, SizeClasses: []int{16, 4, 8}}
	tun.Normalize()
	want := []int{4, 8, 16}
	if len(tun.SizeClasses) != len(want) {
		t.Fatalf("got %v, want %v", tun.SizeClasses, want)
	}
	for i, w := range want {
		if tun.SizeClasses[i] != w {
			t.Fatalf("got %v, want %v", tun.SizeClasses, want)
		}
	}
}

func TestNormalizeRepairsZeroSlots(t *testing.T) {
	tun := Tunables{}
	tun.Normalize()
	if tun.BucketSlots != Default().BucketSlots || tun.BucketMax != Default().BucketMax {
		t.Fatalf("expected zero slot counts repaired to defaults, got %+v", tun)
	}
	if tun.PailSlots != 0 {
		t.Fatal("PailSlots=0 must be preserved (it disables the Pail tier)")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tunables.json")
	body, _ := json.Marshal(Tunables{
		BootLevels: 2, PailSlots: 63, BucketSlots: 1023, BucketMax: 4096,
		SizeClasses: []int{8, 1, 4}, AuxWidth: 4,
	})
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	tun := Load(path)
	if tun.BootLevels != 2 || tun.AuxWidth != 4 {
		t.Fatalf("loaded tunables = %+v", tun)
	}
	if tun.SizeClasses[0] != 1 {
		t.Fatalf("expected Load to Normalize (sort) size classes, got %v", tun.SizeClasses)
	}
}

func TestLoadMissingFilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for missing config file")
		}
	}()
	Load("/nonexistent/path/to/config.json")
}
