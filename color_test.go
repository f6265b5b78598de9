package freehand

import (
	"errors"
	"image/color"
	"testing"
)

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		name    string
		in      []int
		want    Color
		wantErr bool
	}{
		{"rgb", []int{255, 0, 0}, Color{255, 0, 0, 255}, false},
		{"rgba alpha forced", []int{10, 20, 30, 40}, Color{10, 20, 30, 255}, false},
		{"rgba opaque", []int{1, 2, 3, 255}, Color{1, 2, 3, 255}, false},
		{"empty", nil, Black, true},
		{"too short", []int{1, 2}, Black, true},
		{"too long", []int{1, 2, 3, 4, 5}, Black, true},
		{"negative", []int{-1, 0, 0}, Black, true},
		{"overflow", []int{0, 256, 0}, Black, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeColor(tt.in...)
			if got != tt.want {
				t.Errorf("NormalizeColor(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if tt.wantErr != errors.Is(err, ErrInvalidColor) {
				t.Errorf("NormalizeColor(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeColorDoesNotAliasInput(t *testing.T) {
	in := []int{1, 2, 3, 4}
	c, _ := NormalizeColor(in...)
	in[0] = 99
	if c[0] != 1 {
		t.Errorf("Color aliases input slice: got R=%d", c[0])
	}
	if len(in) != 4 || in[3] != 4 {
		t.Errorf("NormalizeColor mutated its input: %v", in)
	}
}

func TestColorOf(t *testing.T) {
	got := ColorOf(color.NRGBA{R: 200, G: 100, B: 50, A: 128})
	want := Color{200, 100, 50, 255}
	if got != want {
		t.Errorf("ColorOf = %v, want %v", got, want)
	}
	if ColorOf(color.White) != White {
		t.Errorf("ColorOf(color.White) = %v", ColorOf(color.White))
	}
}

func TestColorImplementsStdColor(t *testing.T) {
	var c color.Color = Red
	r, g, b, a := c.RGBA()
	if r != 0xffff || g != 0 || b != 0 || a != 0xffff {
		t.Errorf("Red.RGBA() = (%d, %d, %d, %d)", r, g, b, a)
	}
}

func TestColorsEqual(t *testing.T) {
	node1 := Color{0, 0, 0, 255}
	node2 := Color{10, 10, 10, 255}
	node3 := Color{12, 12, 12, 255}

	if !ColorsEqual(node1, node1, 0) {
		t.Error("identical colors should be equal without tolerance")
	}
	if ColorsEqual(node1, node2, 0) {
		t.Error("different colors should not be equal without tolerance")
	}
	// 2/255*100 ~= 0.78% average difference.
	if !ColorsEqual(node2, node3, 2) {
		t.Error("close colors should be equal with 2% tolerance")
	}
	if ColorsEqual(node1, node2, 3) {
		t.Error("10/255 ~= 3.9% should exceed 3% tolerance")
	}
}

func TestColorsEqualExactComparesAlpha(t *testing.T) {
	a := Color{1, 2, 3, 255}
	b := Color{1, 2, 3, 0}
	if ColorsEqual(a, b, 0) {
		t.Error("exact comparison must include alpha")
	}
	if !ColorsEqual(a, b, 0.5) {
		t.Error("tolerant comparison must ignore alpha")
	}
}

func TestColorsEqualCompensatingChannels(t *testing.T) {
	// Red differs by 100%, green and blue are identical: average is 33.3%.
	a := Color{0, 50, 50, 255}
	b := Color{255, 50, 50, 255}
	if !ColorsEqual(a, b, 34) {
		t.Error("average difference of 33.3% should pass 34% tolerance")
	}
	if ColorsEqual(a, b, 33) {
		t.Error("average difference of 33.3% should fail 33% tolerance")
	}
}

func TestColorsEqualSymmetric(t *testing.T) {
	colors := []Color{Black, White, Red, Magenta, {17, 200, 3, 255}, {90, 90, 91, 10}}
	for _, tol := range []float64{0, 1, 10, 33.4, 50, 100} {
		for _, a := range colors {
			for _, b := range colors {
				if ColorsEqual(a, b, tol) != ColorsEqual(b, a, tol) {
					t.Errorf("ColorsEqual not symmetric for %v, %v at %v", a, b, tol)
				}
			}
			if !ColorsEqual(a, a, tol) {
				t.Errorf("ColorsEqual(%v, %v, %v) = false", a, a, tol)
			}
		}
	}
}

func TestClampTolerance(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-5, 0}, {0, 0}, {42.5, 42.5}, {100, 100}, {250, 100},
	}
	for _, tt := range tests {
		if got := ClampTolerance(tt.in); got != tt.want {
			t.Errorf("ClampTolerance(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestToleranceCache(t *testing.T) {
	tc := toleranceCache{}
	a, b := Color{10, 10, 10, 255}, Color{12, 12, 12, 255}
	if !tc.equal(a, b, 2) {
		t.Fatal("cache returned wrong result on miss")
	}
	if len(tc) != 1 {
		t.Fatalf("cache size = %d, want 1", len(tc))
	}
	if !tc.equal(a, b, 2) {
		t.Fatal("cache returned wrong result on hit")
	}
	if tc.equal(a, b, 0) {
		t.Fatal("exact comparison through cache should fail")
	}
	if len(tc) != 1 {
		t.Errorf("exact comparisons should bypass the cache, size = %d", len(tc))
	}
}
