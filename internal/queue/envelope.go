package queue

import (
	"bytes"
	"encoding/gob"

	"github.com/lightflow-io/lightflow/internal/dag"
	"github.com/lightflow-io/lightflow/internal/taskdata"
)

// WorkflowJob is the payload queued for a workflow run. ExecuteWorkflow
// uses WorkflowID exactly as given; it neither assigns an id when the field
// is empty nor creates the run's data store document.
type WorkflowJob struct {
	JobID        string
	WorkflowName string
	WorkflowID   string
	Args         map[string]any
}

// DagJob is the payload queued for a DAG run. Blueprint travels whole
// (name, autostart flag, schema) rather than by name, mirroring how the
// source passes the full Dag object to execute_dag — a DAG blueprint is
// pure data, so there is nothing stopping it from riding along on the job
// itself instead of requiring a lookup in a registry shared by every
// worker.
type DagJob struct {
	JobID      string
	WorkflowID string
	Blueprint  *dag.Blueprint
	Data       *taskdata.Bundle
}

// TaskJob is the payload queued for a single task run. Unlike DagJob, a
// Task cannot travel whole: its Init/Run/Finally fields are Go closures,
// and neither gob nor any serialization format in the ecosystem can
// encode a function value. TaskName (together with BaseDag, the task's
// declaring DAG's base name before any ":<n>" copy suffix; RunDagName is
// the run copy's full name) is instead a lookup key into the task registry every worker process loads
// identically at startup — the one place this port cannot match the
// source's "ship the whole object" model.
type TaskJob struct {
	JobID      string
	WorkflowID string
	BaseDag    string
	RunDagName string
	TaskName   string
	Data       *taskdata.Bundle
}

// envelope is the wire format pushed onto a queue's Redis list: the job
// kind tag, its correlation id and workflow id (readable without decoding
// the full payload, so the worker pool can track in-flight workflows for
// graceful shutdown), and the gob-encoded payload itself.
type envelope struct {
	Type       JobType
	JobID      string
	WorkflowID string
	Payload    []byte
}

func encodePayload(payload any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeEnvelope(jobType JobType, jobID, workflowID string, payload any) ([]byte, error) {
	raw, err := encodePayload(payload)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	e := envelope{Type: jobType, JobID: jobID, WorkflowID: workflowID, Payload: raw}
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeEnvelope(raw []byte) (envelope, error) {
	var e envelope
	err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&e)
	return e, err
}

// Job is a dequeued envelope, decoded lazily into its concrete payload
// type by the matching Decode method.
type Job struct {
	Type       JobType
	JobID      string
	WorkflowID string
	raw        []byte
}

// DecodeWorkflow decodes the job's payload as a WorkflowJob.
func (j *Job) DecodeWorkflow() (WorkflowJob, error) {
	var v WorkflowJob
	err := gob.NewDecoder(bytes.NewReader(j.raw)).Decode(&v)
	return v, err
}

// DecodeDag decodes the job's payload as a DagJob.
func (j *Job) DecodeDag() (DagJob, error) {
	var v DagJob
	err := gob.NewDecoder(bytes.NewReader(j.raw)).Decode(&v)
	return v, err
}

// DecodeTask decodes the job's payload as a TaskJob.
func (j *Job) DecodeTask() (TaskJob, error) {
	var v TaskJob
	err := gob.NewDecoder(bytes.NewReader(j.raw)).Decode(&v)
	return v, err
}
