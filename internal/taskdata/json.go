package taskdata

import "encoding/json"

// datasetWire is Dataset's wire shape: its fields are unexported so that
// callers can only reach them through the accessor methods, but a Dataset
// still needs to cross process boundaries intact whenever a task data
// bundle rides along on the signal bus or the job queue.
type datasetWire struct {
	Values  map[string]any `json:"values"`
	History []string       `json:"history"`
}

// MarshalJSON encodes the dataset's values and history.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	return json.Marshal(datasetWire{Values: d.values, History: d.history})
}

// UnmarshalJSON decodes a dataset previously encoded by MarshalJSON.
func (d *Dataset) UnmarshalJSON(data []byte) error {
	var wire datasetWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Values == nil {
		wire.Values = make(map[string]any)
	}
	d.values = wire.Values
	d.history = wire.History
	return nil
}

// bundleWire is Bundle's wire shape.
type bundleWire struct {
	Datasets     []*Dataset     `json:"datasets"`
	Aliases      map[string]int `json:"aliases"`
	DefaultIndex int            `json:"default_index"`
}

// MarshalJSON encodes every dataset in the bundle along with its alias
// table and default index.
func (b *Bundle) MarshalJSON() ([]byte, error) {
	return json.Marshal(bundleWire{
		Datasets:     b.datasets,
		Aliases:      b.aliases,
		DefaultIndex: b.defaultIndex,
	})
}

// UnmarshalJSON decodes a bundle previously encoded by MarshalJSON.
func (b *Bundle) UnmarshalJSON(data []byte) error {
	var wire bundleWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Aliases == nil {
		wire.Aliases = make(map[string]int)
	}
	b.datasets = wire.Datasets
	b.aliases = wire.Aliases
	b.defaultIndex = wire.DefaultIndex
	return nil
}

// FromJSON re-decodes a value already produced by a generic
// map[string]any/json.Unmarshal pass (as happens when a Bundle crosses the
// signal bus inside a Request/Response payload, whose Payload field is
// itself a map[string]any) back into a concrete Bundle.
func FromJSON(v any) (*Bundle, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.(*Bundle); ok {
		return b, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	bundle := &Bundle{}
	if err := json.Unmarshal(raw, bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}
