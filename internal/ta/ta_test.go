package ta

import (
	"math"
	"testing"
)

func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}

	if got := SMA(closes, 5); got != 3 {
		t.Errorf("SMA(5) = %v, want 3", got)
	}
	if got := SMA(closes, 2); got != 4.5 {
		t.Errorf("SMA(2) = %v, want 4.5", got)
	}
	if got := SMA(closes, 6); !math.IsNaN(got) {
		t.Errorf("SMA with insufficient data = %v, want NaN", got)
	}
	if got := SMA(closes, 0); !math.IsNaN(got) {
		t.Errorf("SMA(0) = %v, want NaN", got)
	}
}

func TestStdDev(t *testing.T) {
	vals := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	got := StdDev(vals, len(vals))
	if math.Abs(got-2.0) > 1e-9 {
		t.Errorf("StdDev = %v, want 2", got)
	}

	if got := StdDev(vals, 100); !math.IsNaN(got) {
		t.Errorf("StdDev with insufficient data = %v, want NaN", got)
	}
}

func TestBollinger(t *testing.T) {
	// Constant series: zero deviation, all bands collapse to the mean.
	flat := []float64{10, 10, 10, 10}
	mid, up, low := Bollinger(flat, 4, 2)
	if mid != 10 || up != 10 || low != 10 {
		t.Errorf("flat series bands = %v/%v/%v, want 10/10/10", mid, up, low)
	}

	vals := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mid, up, low = Bollinger(vals, 8, 2)
	if math.Abs(mid-5.0) > 1e-9 {
		t.Errorf("mid = %v, want 5", mid)
	}
	if math.Abs(up-9.0) > 1e-9 || math.Abs(low-1.0) > 1e-9 {
		t.Errorf("bands = %v/%v, want 9/1", up, low)
	}
}
