package identity

import (
	"fmt"
	"sync"
)

// Run bundles all run-scoped mutable identifier state: the patient ID
// mapper, the UID mapper and the sequential patient counter. One Run is
// created per batch and passed explicitly into every call that needs it,
// so two batches never share hidden state and can execute concurrently.
type Run struct {
	IDs  *Mapper
	UIDs *UIDMapper

	mu         sync.Mutex
	patientSeq int
	patientIDs map[string]string
}

// NewRun returns a fresh run context with the given UID handling mode.
func NewRun(mode UIDMode) *Run {
	return &Run{
		IDs:        NewMapper(),
		UIDs:       NewUIDMapper(mode),
		patientIDs: make(map[string]string),
	}
}

// SequentialPatientID returns the Patient_NNN label for an original ID,
// allocating the next number on first sight. Used by the sequential
// patient ID method instead of the numeric mapper.
func (r *Run) SequentialPatientID(originalID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.patientIDs[originalID]; ok {
		return id
	}
	r.patientSeq++
	id := fmt.Sprintf("Patient_%03d", r.patientSeq)
	r.patientIDs[originalID] = id
	return id
}

// PatientIDMap returns the original-to-replacement pairs recorded during
// the run, regardless of which patient ID method produced them.
func (r *Run) PatientIDMap() map[string]string {
	out := r.IDs.Snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range r.patientIDs {
		out[k] = v
	}
	return out
}
