package tag

import "testing"

func TestLessGroupOrdering(t *testing.T) {
	a := Tag{0x0008, 0x0005}
	b := Tag{0x0010, 0x0010}
	if !Less(a, b) {
		t.Fatalf("expected %v < %v", a, b)
	}
	if Less(b, a) {
		t.Fatalf("expected %v !< %v", b, a)
	}
}

func TestLessElementOrdering(t *testing.T) {
	a := Tag{0x0010, 0x0010}
	b := Tag{0x0010, 0x0020}
	if !Less(a, b) {
		t.Fatalf("expected %v < %v", a, b)
	}
}

func TestItemSortsFirst(t *testing.T) {
	other := Tag{0x0008, 0x0005}
	if !Less(Item, other) {
		t.Fatalf("Item must sort before %v", other)
	}
	if Less(other, Item) {
		t.Fatalf("%v must not sort before Item", other)
	}
}

func TestCompare(t *testing.T) {
	if Compare(Item, Item) != 0 {
		t.Fatalf("Compare(Item, Item) should be 0")
	}
	if Compare(Tag{0x0008, 0x0000}, Tag{0x0008, 0x0001}) != -1 {
		t.Fatalf("expected -1")
	}
	if Compare(Tag{0x0008, 0x0001}, Tag{0x0008, 0x0000}) != 1 {
		t.Fatalf("expected 1")
	}
}

func TestString(t *testing.T) {
	got := Tag{0x0010, 0x0010}.String()
	want := "(0010,0010)"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
