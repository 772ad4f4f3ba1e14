package globeengine

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sudorandom/expansion-globe/pkg/geo"
	"github.com/sudorandom/expansion-globe/pkg/utils"
)

func TestFlagCode(t *testing.T) {
	tests := []struct {
		name string
		f    *geo.Feature
		mode geo.Mode
		want string
	}{
		{"alias", &geo.Feature{Name: "United States of America"}, geo.ModeWorld, "us"},
		{"abbreviated alias", &geo.Feature{Name: "Dem. Rep. Congo"}, geo.ModeWorld, "cd"},
		{"country table", &geo.Feature{Name: "Japan"}, geo.ModeWorld, "jp"},
		{"state", &geo.Feature{Name: "Kansas", Kind: geo.KindState}, geo.ModeWorld, "us-ks"},
		{"unknown state", &geo.Feature{Name: "Ontario", Kind: geo.KindState}, geo.ModeWorld, ""},
		{"unknown country", &geo.Feature{Name: "Atlantis"}, geo.ModeWorld, ""},
		{"usa map", &geo.Feature{Name: "Kansas", Kind: geo.KindState}, geo.ModeUSA, ""},
		{"no feature", nil, geo.ModeWorld, ""},
	}
	for _, tt := range tests {
		if got := FlagCode(tt.f, tt.mode); got != tt.want {
			t.Errorf("%s: FlagCode() = %q; want %q", tt.name, got, tt.want)
		}
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func waitFlag(t *testing.T, c *FlagCache) FlagResult {
	t.Helper()
	select {
	case res := <-c.Results():
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for flag")
	}
	return FlagResult{}
}

func TestFlagCache(t *testing.T) {
	data := testPNG(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/jp.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	store, err := utils.OpenMemoryKVStore()
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	c := NewFlagCache(store, utils.NewFetcher(""), 100)
	c.URL = srv.URL + "/%s.png"

	c.Request(ctx, "jp")
	c.Request(ctx, "jp")
	c.Request(ctx, "")
	res := waitFlag(t, c)
	if res.Code != "jp" {
		t.Errorf("Result code = %q; want %q", res.Code, "jp")
	}
	if b := res.Image.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Errorf("Image bounds = %v; want 4x2", b)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("HTTP hits = %d; want 1", got)
	}

	cached, err := store.Get("flag:jp")
	if err != nil || !bytes.Equal(cached, data) {
		t.Errorf("store.Get(flag:jp) = %d bytes, %v; want the fetched png", len(cached), err)
	}

	// A fresh cache over the same store never goes back to the network.
	srv.Close()
	again := NewFlagCache(store, utils.NewFetcher(""), 100)
	again.URL = srv.URL + "/%s.png"
	again.Request(ctx, "jp")
	if res := waitFlag(t, again); res.Code != "jp" {
		t.Errorf("Cached result code = %q; want %q", res.Code, "jp")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("HTTP hits after cached load = %d; want 1", got)
	}
}

func TestFlagCacheFailureAllowsRetry(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	store, err := utils.OpenMemoryKVStore()
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	c := NewFlagCache(store, utils.NewFetcher(""), 100)
	c.URL = srv.URL + "/%s.png"
	if _, err := c.load(context.Background(), "zz"); err == nil {
		t.Error("load() of a missing flag succeeded; want an error")
	}
	if data, _ := store.Get("flag:zz"); data != nil {
		t.Errorf("store holds %d bytes for a failed flag; want none", len(data))
	}
}
