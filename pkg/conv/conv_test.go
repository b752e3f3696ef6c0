package conv

import "testing"

func TestToInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{nil, 0, false},
		{7, 7, true},
		{int64(8), 8, true},
		{int32(9), 9, true},
		{float64(10.9), 10, true},
		{float32(3), 3, true},
		{"12", 0, false},
	}
	for _, tt := range tests {
		got, ok := ToInt(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ToInt(%v) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestConfigGet(t *testing.T) {
	cfg := map[string]any{"expr": "x", "invert": true, "n": 3, "f": 2.0, "big": int64(5)}

	if got := ConfigGet(cfg, "expr", ""); got != "x" {
		t.Errorf("expr = %q", got)
	}
	if got := ConfigGet(cfg, "invert", false); !got {
		t.Error("invert = false")
	}
	if got := ConfigGet(cfg, "n", "default"); got != "default" {
		t.Errorf("type mismatch should fall back, got %q", got)
	}
	if got := ConfigGet[string](nil, "expr", "d"); got != "d" {
		t.Errorf("nil map = %q", got)
	}

	for key, want := range map[string]int64{"n": 3, "f": 2, "big": 5, "missing": -1, "expr": -1} {
		if got := ConfigGetInt64(cfg, key, -1); got != want {
			t.Errorf("ConfigGetInt64(%s) = %d, want %d", key, got, want)
		}
	}
}
