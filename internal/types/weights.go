package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// WeightSpec is the tagged variant behind the `number | "required"` wire
// encoding of an equipment weight. Required items are hard gates: their
// absence denies entry outright and they carry no numeric weight.
type WeightSpec struct {
	Required bool
	Value    float64
}

func Numeric(value float64) WeightSpec {
	return WeightSpec{Value: value}
}

func Required() WeightSpec {
	return WeightSpec{Required: true}
}

func (ws WeightSpec) MarshalJSON() ([]byte, error) {
	if ws.Required {
		return json.Marshal("required")
	}
	return json.Marshal(ws.Value)
}

func (ws *WeightSpec) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty weight value")
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if s != "required" {
			return fmt.Errorf("unsupported weight %q: weights must be numeric or \"required\"", s)
		}
		*ws = WeightSpec{Required: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return fmt.Errorf("weight must be numeric or \"required\": %w", err)
	}
	*ws = WeightSpec{Value: v}
	return nil
}

// WeightMap holds a room's equipment weights in insertion order. Order matters:
// missing_equipment lists follow the order items were configured in, so a JSON
// round trip must not shuffle them the way a plain map would.
type WeightMap struct {
	keys  []string
	specs map[string]WeightSpec
}

type WeightEntry struct {
	Item string
	Spec WeightSpec
}

func NewWeightMap(entries ...WeightEntry) WeightMap {
	wm := WeightMap{}
	for _, e := range entries {
		wm.Set(e.Item, e.Spec)
	}
	return wm
}

func (wm *WeightMap) Set(item string, spec WeightSpec) {
	if wm.specs == nil {
		wm.specs = map[string]WeightSpec{}
	}
	if _, exists := wm.specs[item]; !exists {
		wm.keys = append(wm.keys, item)
	}
	wm.specs[item] = spec
}

func (wm WeightMap) Get(item string) (WeightSpec, bool) {
	spec, ok := wm.specs[item]
	return spec, ok
}

func (wm WeightMap) Len() int {
	return len(wm.keys)
}

// Entries returns the weights in insertion order.
func (wm WeightMap) Entries() []WeightEntry {
	out := make([]WeightEntry, 0, len(wm.keys))
	for _, k := range wm.keys {
		out = append(out, WeightEntry{Item: k, Spec: wm.specs[k]})
	}
	return out
}

func (wm WeightMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range wm.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(wm.specs[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (wm *WeightMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("equipment_weights must be a JSON object")
	}
	out := WeightMap{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("equipment_weights key is not a string")
		}
		var spec WeightSpec
		if err := dec.Decode(&spec); err != nil {
			return fmt.Errorf("weight for %q: %w", key, err)
		}
		out.Set(key, spec)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*wm = out
	return nil
}

func (wm WeightMap) Value() (driver.Value, error) {
	b, err := wm.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (wm *WeightMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*wm = WeightMap{}
		return nil
	case []byte:
		return wm.UnmarshalJSON(v)
	case string:
		return wm.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into WeightMap", src)
	}
}
