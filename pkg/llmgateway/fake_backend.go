package llmgateway

import "context"

// FakeBackend is a scriptable Backend for tests: each call consumes the next
// queued response or error, in order.
type FakeBackend struct {
	Responses []string
	Errors    []error
	Calls     []CompletionRequest
	index     int
}

func (f *FakeBackend) Complete(_ context.Context, req CompletionRequest) (string, error) {
	f.Calls = append(f.Calls, req)
	i := f.index
	f.index++

	var err error
	if i < len(f.Errors) {
		err = f.Errors[i]
	}
	var resp string
	if i < len(f.Responses) {
		resp = f.Responses[i]
	}
	return resp, err
}
