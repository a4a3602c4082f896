package dag

import (
	"bytes"
	"encoding/gob"
	"sync/atomic"
)

// blueprintWire is Blueprint's wire shape: everything but the per-process
// copy counter, which has no meaning once a blueprint has already crossed
// a process boundary (a job-queued blueprint is always already a run-scoped
// copy; nothing downstream calls Copy on it again).
type blueprintWire struct {
	Name      string
	AutoStart bool
	Schema    Schema
}

// GobEncode lets a Blueprint travel inside a gob-encoded job envelope, the
// job queue's wire format for a DAG run.
func (b *Blueprint) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	wire := blueprintWire{Name: b.name, AutoStart: b.autoStart, Schema: b.schema}
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode decodes a Blueprint previously encoded by GobEncode.
func (b *Blueprint) GobDecode(data []byte) error {
	var wire blueprintWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return err
	}
	b.name = wire.Name
	b.autoStart = wire.AutoStart
	b.schema = wire.Schema
	b.copyCounter = new(atomic.Int64)
	return nil
}
