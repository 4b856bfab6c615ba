package fingerprint

import "testing"

func TestSum(t *testing.T) {
	t.Parallel()

	a := Sum([]byte("pothole on 5th"))
	b := Sum([]byte("pothole on 5th"))
	c := Sum([]byte("pothole on 6th"))
	if a != b {
		t.Fatalf("identical content must hash equal")
	}
	if a == c {
		t.Fatalf("different content should not collide")
	}
	if a.IsZero() || !(Hash{}).IsZero() {
		t.Fatalf("IsZero wrong")
	}
	if (Exact{}).Sum([]byte("x")) != Sum([]byte("x")) {
		t.Fatalf("Exact must match Sum")
	}
}

func TestEmptyInputVector(t *testing.T) {
	t.Parallel()

	// BLAKE3 of the empty input
	const want = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	if got := Sum(nil).Hex(); got != want {
		t.Fatalf("Sum(nil) = %s", got)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	h := Sum([]byte("garbage"))
	back, err := FromBytes(h.Bytes())
	if err != nil || back != h {
		t.Fatalf("FromBytes = %v, %v", back, err)
	}
	parsed, err := ParseHex(h.String())
	if err != nil || parsed != h {
		t.Fatalf("ParseHex = %v, %v", parsed, err)
	}
	if _, err := FromBytes([]byte{1, 2}); err == nil {
		t.Fatalf("short digest should fail")
	}
	if _, err := ParseHex("zz"); err == nil {
		t.Fatalf("bad hex should fail")
	}
}
