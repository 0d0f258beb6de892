package conv

import "testing"

func TestToInt64(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   int64
		wantOK bool
	}{
		{name: "int", in: 7, want: 7, wantOK: true},
		{name: "json number", in: float64(80000), want: 80000, wantOK: true},
		{name: "fractional float", in: 1.5, wantOK: false},
		{name: "numeric string", in: " 42 ", want: 42, wantOK: true},
		{name: "bad string", in: "abc", wantOK: false},
		{name: "nil", in: nil, wantOK: false},
		{name: "bool", in: true, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt64(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ToInt64(%v) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ToInt64(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestToFloat64(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{in: 4.5, want: 4.5, wantOK: true},
		{in: float32(2), want: 2, wantOK: true},
		{in: int64(3), want: 3, wantOK: true},
		{in: "80000", want: 80000, wantOK: true},
		{in: "cheap", wantOK: false},
		{in: []int{1}, wantOK: false},
	}
	for _, tt := range tests {
		got, ok := ToFloat64(tt.in)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("ToFloat64(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
