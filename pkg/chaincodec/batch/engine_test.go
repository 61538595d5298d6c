package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/chainkit/chainkit/pkg/chaincodec/evm"
)

type fakeDecoder struct {
	failOn map[int]bool
	calls  int
}

func (f *fakeDecoder) DecodeItem(raw evm.RawLog) (*evm.DecodedEvent, error) {
	f.calls++
	if f.failOn[int(raw.LogIndex)] {
		return nil, errors.New("boom")
	}
	return &evm.DecodedEvent{LogIndex: raw.LogIndex}, nil
}

func makeLogs(n int) []evm.RawLog {
	logs := make([]evm.RawLog, n)
	for i := range logs {
		logs[i] = evm.RawLog{LogIndex: uint64(i)}
	}
	return logs
}

func TestEngine_CollectMode(t *testing.T) {
	e := NewEngine(2)
	d := &fakeDecoder{failOn: map[int]bool{2: true, 5: true}}
	e.RegisterDecoder("ethereum", d)

	result, err := e.Decode(context.Background(), makeLogs(10), "ethereum", 3, Collect, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(result.Events) != 8 {
		t.Errorf("events = %d, want 8", len(result.Events))
	}
	if len(result.Errors) != 2 {
		t.Errorf("errors = %d, want 2", len(result.Errors))
	}
	if result.TotalInput != 10 {
		t.Errorf("totalInput = %d, want 10", result.TotalInput)
	}
	// global index translation: chunk_offset + local_index
	gotIdx := map[int]bool{}
	for _, e := range result.Errors {
		gotIdx[e.Index] = true
	}
	if !gotIdx[2] || !gotIdx[5] {
		t.Errorf("error indices = %v, want {2,5}", gotIdx)
	}
}

func TestEngine_SkipMode(t *testing.T) {
	e := NewEngine(2)
	d := &fakeDecoder{failOn: map[int]bool{1: true}}
	e.RegisterDecoder("ethereum", d)

	result, err := e.Decode(context.Background(), makeLogs(5), "ethereum", 2, Skip, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Skip mode should record no errors, got %d", len(result.Errors))
	}
	if len(result.Events) != 4 {
		t.Errorf("events = %d, want 4", len(result.Events))
	}
}

func TestEngine_ThrowMode(t *testing.T) {
	e := NewEngine(2)
	d := &fakeDecoder{failOn: map[int]bool{3: true}}
	e.RegisterDecoder("ethereum", d)

	_, err := e.Decode(context.Background(), makeLogs(5), "ethereum", 2, Throw, nil)
	if err == nil {
		t.Fatal("expected an error from Throw mode")
	}
}

func TestEngine_UnknownChain(t *testing.T) {
	e := NewEngine(1)
	_, err := e.Decode(context.Background(), makeLogs(1), "unknown-chain", 1, Collect, nil)
	if err == nil {
		t.Fatal("expected an error for an unregistered chain slug")
	}
}

func TestEngine_ProgressCallback(t *testing.T) {
	e := NewEngine(2)
	d := &fakeDecoder{}
	e.RegisterDecoder("ethereum", d)

	var calls []int
	_, err := e.Decode(context.Background(), makeLogs(7), "ethereum", 3, Collect, func(done, total int) {
		calls = append(calls, done)
		if total != 7 {
			t.Errorf("total = %d, want 7", total)
		}
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(calls) != 3 { // chunks of 3,3,1
		t.Errorf("progress callback invoked %d times, want 3", len(calls))
	}
}
