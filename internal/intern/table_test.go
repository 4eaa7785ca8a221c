package intern

import "testing"

func TestCopyCanonicalizes(t *testing.T) {
	tab := New()
	a, hitA := tab.Copy("hello")
	b, hitB := tab.Copy("hello")
	if hitA {
		t.Error("first Copy of a new string should not report a hit")
	}
	if !hitB {
		t.Error("second Copy of the same content should report a hit")
	}
	if a != b {
		t.Error("two Copy calls on identical content must return the identical object")
	}
}

func TestCopyDistinguishesContent(t *testing.T) {
	tab := New()
	a, _ := tab.Copy("foo")
	b, _ := tab.Copy("bar")
	if a == b {
		t.Error("different content must not intern to the same object")
	}
}

func TestRehashPreservesLookups(t *testing.T) {
	tab := New()
	var inserted []*struct {
		s   string
		obj interface{}
	}
	for i := 0; i < 500; i++ {
		s := string(rune('a'+(i%26))) + string(rune('A'+(i%26)))
		obj, _ := tab.Copy(s)
		inserted = append(inserted, &struct {
			s   string
			obj interface{}
		}{s, obj})
	}
	for _, rec := range inserted {
		obj, hit := tab.Copy(rec.s)
		if !hit {
			t.Fatalf("expected hit for %q after rehashing", rec.s)
		}
		if obj != rec.obj {
			t.Fatalf("rehash changed identity for %q", rec.s)
		}
	}
}

func TestTakeReturnsSameAsCopy(t *testing.T) {
	tab := New()
	a, _ := tab.Copy("x")
	b := tab.Take("x")
	if a != b {
		t.Error("Take should return the same canonical object as Copy for equal content")
	}
}
