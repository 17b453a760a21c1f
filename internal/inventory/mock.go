package inventory

import "context"

// MockSource is a fixed, in-memory Source used by orchestrator batch
// tests and by local/demo deployments that have no real CMDB wired in.
type MockSource struct {
	Records []Record
	Err     error
}

// List implements Source.
func (m *MockSource) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]Record, len(m.Records))
	copy(out, m.Records)
	return out, nil
}
