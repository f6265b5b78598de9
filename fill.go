package freehand

// FillResult describes the outcome of a flood fill.
type FillResult struct {
	// Filled reports whether any pixel changed.
	Filled bool

	// Capped reports that the span budget ran out before the fill
	// finished. The buffer keeps the partial fill.
	Capped bool

	// Pixels is the number of pixels painted.
	Pixels int

	// Spans is the number of horizontal runs processed.
	Spans int
}

type point struct {
	x, y int
}

// floodFill recolors the region of pix connected to (x, y) whose pixels
// match the seed color within tolerance. pix is a tightly packed RGBA
// buffer of width×height pixels and is modified in place.
//
// At most width*height spans are processed.
func floodFill(pix []uint8, width, height, x, y int, newColor Color, tolerance float64) FillResult {
	return scanlineFill(pix, width, height, x, y, newColor, tolerance, width*height)
}

func scanlineFill(pix []uint8, width, height, x, y int, newColor Color, tolerance float64, budget int) FillResult {
	var res FillResult
	if x < 0 || y < 0 || x >= width || y >= height || len(pix) < width*height*4 {
		return res
	}

	cache := make(toleranceCache)
	target := pixelAt(pix, width, x, y)
	if cache.equal(target, newColor, tolerance) {
		return res
	}
	matches := func(px, py int) bool {
		return cache.equal(pixelAt(pix, width, px, py), target, tolerance)
	}

	stack := []point{{x, y}}
	for len(stack) > 0 {
		if res.Spans >= budget {
			res.Capped = true
			break
		}
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// Seeds pushed from two sides of a span may already be painted.
		if !matches(p.x, p.y) {
			continue
		}

		west, east := p.x, p.x
		for west > 0 && matches(west-1, p.y) {
			west--
		}
		for east < width-1 && matches(east+1, p.y) {
			east++
		}

		for i := west; i <= east; i++ {
			setPixel(pix, width, i, p.y, newColor)
		}
		res.Pixels += east - west + 1
		res.Spans++

		if p.y > 0 {
			stack = pushRuns(stack, matches, west, east, p.y-1)
		}
		if p.y < height-1 {
			stack = pushRuns(stack, matches, west, east, p.y+1)
		}
	}

	res.Filled = res.Pixels > 0
	return res
}

// pushRuns pushes one seed for each run of matching pixels in row y
// between west and east.
func pushRuns(stack []point, matches func(x, y int) bool, west, east, y int) []point {
	inRun := false
	for i := west; i <= east; i++ {
		if !matches(i, y) {
			inRun = false
			continue
		}
		if !inRun {
			stack = append(stack, point{i, y})
			inRun = true
		}
	}
	return stack
}

func pixelAt(pix []uint8, width, x, y int) Color {
	i := (y*width + x) * 4
	return Color{pix[i], pix[i+1], pix[i+2], pix[i+3]}
}

func setPixel(pix []uint8, width, x, y int, c Color) {
	i := (y*width + x) * 4
	pix[i+0] = c[0]
	pix[i+1] = c[1]
	pix[i+2] = c[2]
	pix[i+3] = c[3]
}
