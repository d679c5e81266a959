package rulecache

import (
	"testing"
	"time"
)

func TestPutGetRoundTrip(t *testing.T) {
	c, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := HashSource([]byte("def Input = {a: sint32}\nreturn .a\n"))
	in := &Payload{
		Path:       "rule.rl",
		Success:    true,
		Descriptor: "{a: sint32}",
		CompiledAt: time.Now().UTC(),
		DurationMS: 3,
	}
	if err := c.Put(key, in); err != nil {
		t.Fatal(err)
	}
	out, ok, err := c.Get(key)
	if err != nil || !ok {
		t.Fatalf("expected a hit, ok=%v err=%v", ok, err)
	}
	if !out.Success || out.Descriptor != "{a: sint32}" || out.Path != "rule.rl" {
		t.Fatalf("payload mismatch: %+v", out)
	}
}

func TestGetMissesOnUnknownKey(t *testing.T) {
	c, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, ok, err := c.Get(HashSource([]byte("nothing")))
	if err != nil || ok {
		t.Fatalf("expected a clean miss, ok=%v err=%v", ok, err)
	}
}

func TestDifferentContentDifferentKey(t *testing.T) {
	if HashSource([]byte("a")) == HashSource([]byte("b")) {
		t.Fatalf("distinct content must hash to distinct keys")
	}
}
