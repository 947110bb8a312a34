package world

import "testing"

func TestRender_RoundTrip(t *testing.T) {
	in := "Fizz north=Buzz west=Bar\nBuzz south=Fizz\nBar\n"
	w, err := ParseString(in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := w.RenderString(); got != in {
		t.Fatalf("render=%q want %q", got, in)
	}
}

func TestRender_SkipsDestroyed(t *testing.T) {
	w, _ := ParseString("A south=B\nB north=A\n")
	b, _ := w.Lookup("B")
	w.DestroyColony(b)
	if got := w.RenderString(); got != "A\n" {
		t.Fatalf("render=%q want %q", got, "A\n")
	}
}

func TestRender_Empty(t *testing.T) {
	w, _ := ParseString("A\n")
	w.DestroyColony(0)
	if got := w.RenderString(); got != "" {
		t.Fatalf("render=%q want empty", got)
	}
}
