package trace

// TransferTrace collects the decisions of one transfer.
type TransferTrace struct {
	Records []TransferRecord
	// Dropped lists donor-only qubits left unpaired because the target has fewer qubits.
	Dropped []string
}

// NewTransferTrace creates a TransferTrace ready for recording.
func NewTransferTrace() *TransferTrace {
	return &TransferTrace{
		Records: make([]TransferRecord, 0),
		Dropped: make([]string, 0),
	}
}

// Record appends an assignment record.
func (t *TransferTrace) Record(r TransferRecord) {
	t.Records = append(t.Records, r)
}

// RecordDropped notes a donor qubit whose site went unused.
func (t *TransferTrace) RecordDropped(donorQubit string) {
	t.Dropped = append(t.Dropped, donorQubit)
}

// Reset clears all records, keeping the allocated storage.
func (t *TransferTrace) Reset() {
	t.Records = t.Records[:0]
	t.Dropped = t.Dropped[:0]
}
