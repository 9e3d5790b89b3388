package boltstate

import "encoding/json"

// encode/decode use JSON rather than gob: values crossing the script
// bridge are already JSON-shaped (component.Output.AsJSON and friends),
// so round-tripping through the same codec avoids a second conversion
// layer.
func encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func decode(raw []byte) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
