package taskdata

// GobEncode and GobDecode let a Bundle travel inside a gob-encoded job
// envelope (the job queue's wire format) the same way MarshalJSON/
// UnmarshalJSON let it travel over the signal bus: both delegate to the
// JSON codec rather than duplicating the encoding logic, since Bundle's
// fields are unexported and gob, like json, cannot see them directly.

func (b *Bundle) GobEncode() ([]byte, error) {
	return b.MarshalJSON()
}

func (b *Bundle) GobDecode(data []byte) error {
	return b.UnmarshalJSON(data)
}

func (d *Dataset) GobEncode() ([]byte, error) {
	return d.MarshalJSON()
}

func (d *Dataset) GobDecode(data []byte) error {
	return d.UnmarshalJSON(data)
}
