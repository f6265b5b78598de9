package freehand

import "testing"

// grid builds a w×h buffer from rows of '.' (white) and '#' (black).
func grid(rows ...string) (pix []uint8, w, h int) {
	h = len(rows)
	w = len(rows[0])
	pix = make([]uint8, w*h*4)
	for y, row := range rows {
		for x, ch := range row {
			c := White
			if ch == '#' {
				c = Black
			}
			setPixel(pix, w, x, y, c)
		}
	}
	return pix, w, h
}

// render maps a buffer back to rows, using 'o' for fillColor.
func render(pix []uint8, w, h int, fillColor Color) []string {
	rows := make([]string, h)
	for y := 0; y < h; y++ {
		b := make([]byte, w)
		for x := 0; x < w; x++ {
			switch pixelAt(pix, w, x, y) {
			case White:
				b[x] = '.'
			case Black:
				b[x] = '#'
			case fillColor:
				b[x] = 'o'
			default:
				b[x] = '?'
			}
		}
		rows[y] = string(b)
	}
	return rows
}

func assertRows(t *testing.T, got, want []string) {
	t.Helper()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFloodFillContainment(t *testing.T) {
	pix, w, h := grid(
		"..........",
		".######...",
		".#....#...",
		".#.##.#...",
		".#....#...",
		".######...",
		"..........",
	)

	res := floodFill(pix, w, h, 2, 2, Magenta, 0)

	assertRows(t, render(pix, w, h, Magenta), []string{
		"..........",
		".######...",
		".#oooo#...",
		".#o##o#...",
		".#oooo#...",
		".######...",
		"..........",
	})
	if !res.Filled || res.Capped {
		t.Errorf("result = %+v, want filled and not capped", res)
	}
	if res.Pixels != 10 {
		t.Errorf("Pixels = %d, want 10", res.Pixels)
	}
}

func TestFloodFillOutside(t *testing.T) {
	pix, w, h := grid(
		"......",
		".####.",
		".#..#.",
		".####.",
		"......",
	)

	floodFill(pix, w, h, 0, 0, Magenta, 0)

	assertRows(t, render(pix, w, h, Magenta), []string{
		"oooooo",
		"o####o",
		"o#..#o",
		"o####o",
		"oooooo",
	})
}

func TestFloodFillWrapsAroundObstacles(t *testing.T) {
	// The region reaches the bottom row only by going around both walls.
	pix, w, h := grid(
		"........",
		"######..",
		"........",
		"..######",
		"........",
	)

	res := floodFill(pix, w, h, 0, 0, Magenta, 0)

	assertRows(t, render(pix, w, h, Magenta), []string{
		"oooooooo",
		"######oo",
		"oooooooo",
		"oo######",
		"oooooooo",
	})
	if res.Pixels != 8*5-12 {
		t.Errorf("Pixels = %d, want %d", res.Pixels, 8*5-12)
	}
}

func TestFloodFillSpanBoundaries(t *testing.T) {
	// One span on row 0 sees four separate runs on row 1.
	pix, w, h := grid(
		".......",
		".#.#.#.",
	)

	res := floodFill(pix, w, h, 3, 0, Magenta, 0)

	// Row 0 plus the four single-pixel runs of row 1.
	if res.Spans != 5 {
		t.Errorf("Spans = %d, want 5", res.Spans)
	}
	assertRows(t, render(pix, w, h, Magenta), []string{
		"ooooooo",
		"o#o#o#o",
	})
}

func TestFloodFillNoOp(t *testing.T) {
	pix, w, h := grid(
		"...",
		"...",
	)
	before := append([]uint8(nil), pix...)

	res := floodFill(pix, w, h, 1, 1, White, 0)
	if res.Filled || res.Pixels != 0 {
		t.Errorf("result = %+v, want no-op", res)
	}
	for i := range pix {
		if pix[i] != before[i] {
			t.Fatalf("buffer changed at byte %d", i)
		}
	}

	// Within tolerance of the seed color is still a no-op.
	if res := floodFill(pix, w, h, 1, 1, Color{250, 250, 250, 255}, 5); res.Filled {
		t.Errorf("near-white fill at tolerance 5 = %+v, want no-op", res)
	}
}

func TestFloodFillOutOfBoundsSeed(t *testing.T) {
	pix, w, h := grid("...")
	for _, p := range []point{{-1, 0}, {3, 0}, {0, -1}, {0, 1}} {
		if res := floodFill(pix, w, h, p.x, p.y, Magenta, 0); res.Filled {
			t.Errorf("seed %v: result = %+v, want no-op", p, res)
		}
	}
}

func TestFloodFillTolerance(t *testing.T) {
	pix := make([]uint8, 4*1*4)
	setPixel(pix, 4, 0, 0, White)
	setPixel(pix, 4, 1, 0, Color{245, 245, 245, 255}) // ~3.9% from white
	setPixel(pix, 4, 2, 0, Color{200, 200, 200, 255}) // ~21.6% from white
	setPixel(pix, 4, 3, 0, White)

	res := floodFill(pix, 4, 1, 0, 0, Magenta, 10)

	if res.Pixels != 2 {
		t.Errorf("Pixels = %d, want 2", res.Pixels)
	}
	if got := pixelAt(pix, 4, 1, 0); got != Magenta {
		t.Errorf("pixel 1 = %v, want magenta", got)
	}
	if got := pixelAt(pix, 4, 2, 0); got != (Color{200, 200, 200, 255}) {
		t.Errorf("pixel 2 = %v, want unchanged", got)
	}
	if got := pixelAt(pix, 4, 3, 0); got != White {
		t.Errorf("pixel 3 = %v, want white (cut off by pixel 2)", got)
	}
}

func TestFloodFillExactIgnoresNearColors(t *testing.T) {
	pix := make([]uint8, 3*4)
	setPixel(pix, 3, 0, 0, White)
	setPixel(pix, 3, 1, 0, Color{254, 255, 255, 255})
	setPixel(pix, 3, 2, 0, White)

	res := floodFill(pix, 3, 1, 0, 0, Magenta, 0)
	if res.Pixels != 1 {
		t.Errorf("Pixels = %d, want 1", res.Pixels)
	}
}

func TestScanlineFillBudget(t *testing.T) {
	pix, w, h := grid(
		"....",
		"....",
		"....",
	)

	res := scanlineFill(pix, w, h, 0, 0, Magenta, 0, 1)

	if !res.Capped {
		t.Error("Capped = false, want true")
	}
	if res.Spans != 1 || res.Pixels != 4 {
		t.Errorf("result = %+v, want one span of 4 pixels", res)
	}
	// The partial fill stays in the buffer.
	assertRows(t, render(pix, w, h, Magenta), []string{
		"oooo",
		"....",
		"....",
	})
}

func TestFloodFillShortBuffer(t *testing.T) {
	if res := floodFill(make([]uint8, 8), 4, 4, 0, 0, Magenta, 0); res.Filled {
		t.Errorf("result = %+v, want no-op on short buffer", res)
	}
}
