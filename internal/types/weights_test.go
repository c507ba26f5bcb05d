package types

import (
	"encoding/json"
	"testing"
)

func TestWeightSpecUnmarshal(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    WeightSpec
		wantErr bool
	}{
		{name: "integer", raw: `35`, want: Numeric(35)},
		{name: "float", raw: `12.5`, want: Numeric(12.5)},
		{name: "required_sentinel", raw: `"required"`, want: Required()},
		{name: "recommended_rejected", raw: `"recommended"`, wantErr: true},
		{name: "arbitrary_string_rejected", raw: `"35"`, wantErr: true},
		{name: "bool_rejected", raw: `true`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got WeightSpec
			err := json.Unmarshal([]byte(tc.raw), &got)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("want error for %s, got %+v", tc.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal %s: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("want=%+v got=%+v", tc.want, got)
			}
		})
	}
}

func TestWeightMapRoundTripKeepsOrder(t *testing.T) {
	raw := `{"hairnet": 35, "mask": "required", "gloves": 30}`
	var wm WeightMap
	if err := json.Unmarshal([]byte(raw), &wm); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	entries := wm.Entries()
	wantOrder := []string{"hairnet", "mask", "gloves"}
	if len(entries) != len(wantOrder) {
		t.Fatalf("want %d entries, got %d", len(wantOrder), len(entries))
	}
	for i, item := range wantOrder {
		if entries[i].Item != item {
			t.Fatalf("position %d: want=%q got=%q", i, item, entries[i].Item)
		}
	}

	spec, ok := wm.Get("mask")
	if !ok || !spec.Required {
		t.Fatalf("mask should parse as a required gate, got ok=%v spec=%+v", ok, spec)
	}

	out, err := json.Marshal(wm)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"hairnet":35,"mask":"required","gloves":30}`
	if string(out) != want {
		t.Fatalf("marshal order: want=%s got=%s", want, out)
	}
}

func TestWeightMapScanValue(t *testing.T) {
	wm := NewWeightMap(
		WeightEntry{Item: "gloves", Spec: Numeric(50)},
		WeightEntry{Item: "hairnet", Spec: Required()},
	)
	val, err := wm.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var back WeightMap
	if err := back.Scan(val); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if back.Len() != 2 {
		t.Fatalf("want 2 entries after round trip, got %d", back.Len())
	}
	if spec, _ := back.Get("hairnet"); !spec.Required {
		t.Fatalf("hairnet gate lost in round trip: %+v", spec)
	}
	if spec, _ := back.Get("gloves"); spec.Value != 50 {
		t.Fatalf("gloves weight lost in round trip: %+v", spec)
	}
}

func TestWeightMapSetOverwritesInPlace(t *testing.T) {
	wm := NewWeightMap(
		WeightEntry{Item: "mask", Spec: Numeric(35)},
		WeightEntry{Item: "gloves", Spec: Numeric(30)},
	)
	wm.Set("mask", Required())
	if wm.Len() != 2 {
		t.Fatalf("overwrite must not grow the map: len=%d", wm.Len())
	}
	if wm.Entries()[0].Item != "mask" {
		t.Fatalf("overwrite must keep original position, got %q first", wm.Entries()[0].Item)
	}
}

func TestNormalizeRoomName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "production-floor", want: "production-floor"},
		{in: "Production Floor", want: "production-floor"},
		{in: "  Packaging   Area ", want: "packaging-area"},
		{in: "quality_control_lab", want: "quality-control-lab"},
		{in: "", want: ""},
	}
	for _, tc := range cases {
		if got := NormalizeRoomName(tc.in); got != tc.want {
			t.Fatalf("NormalizeRoomName(%q): want=%q got=%q", tc.in, tc.want, got)
		}
	}
}
