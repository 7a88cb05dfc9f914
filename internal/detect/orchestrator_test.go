package detect

import (
	"context"
	"image"
	"reflect"
	"testing"

	"go-card-scanner/pkg/models"
)

// fakeDecoder replays scripted responses and records every call.
type fakeDecoder struct {
	calls     int
	responses map[int][]models.DecodedPayload // call index -> payloads
	err       error
}

func (f *fakeDecoder) Decode(ctx context.Context, img image.Image) ([]models.DecodedPayload, error) {
	index := f.calls
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.responses[index], nil
}

func payloadsWith(data ...string) []models.DecodedPayload {
	out := make([]models.DecodedPayload, 0, len(data))
	for _, d := range data {
		out = append(out, models.DecodedPayload{Data: d, Symbology: models.SymbologyQR})
	}
	return out
}

func blankImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 16, 16))
}

func TestTierZeroShortCircuits(t *testing.T) {
	local := &fakeDecoder{responses: map[int][]models.DecodedPayload{0: payloadsWith("hello")}}
	remote := &fakeDecoder{}

	result := NewOrchestrator(local, remote).Detect(context.Background(), blankImage())

	if len(result) != 1 || result[0].Data != "hello" {
		t.Fatalf("Detect() = %+v, want single payload 'hello'", result)
	}
	if result[0].Strategy != models.StrategyLocal {
		t.Errorf("strategy = %s, want %s", result[0].Strategy, models.StrategyLocal)
	}
	if remote.calls != 0 {
		t.Errorf("remote decoder called %d times, want 0", remote.calls)
	}
	if local.calls != 1 {
		t.Errorf("local decoder called %d times, want 1", local.calls)
	}
}

func TestCascadeOrderingLocalBeforeRemote(t *testing.T) {
	// Only the third preprocessing transform succeeds locally. The remote
	// decoder must have been tried exactly once per exhausted earlier
	// transform, never ahead of the local attempt at the same level.
	local := &fakeDecoder{responses: map[int][]models.DecodedPayload{
		// call 0: tier 0 raw; calls 1..3: transforms 1..3 (third succeeds)
		3: payloadsWith("third-transform"),
	}}
	remote := &fakeDecoder{}

	result := NewOrchestrator(local, remote).Detect(context.Background(), blankImage())

	if len(result) != 1 || result[0].Data != "third-transform" {
		t.Fatalf("Detect() = %+v, want payload from third transform", result)
	}
	if local.calls != 4 {
		t.Errorf("local decoder called %d times, want 4 (raw + 3 transforms)", local.calls)
	}
	// Remote runs only after local fails at transforms 1 and 2.
	if remote.calls != 2 {
		t.Errorf("remote decoder called %d times, want 2", remote.calls)
	}
}

func TestTierTwoRemoteRaw(t *testing.T) {
	local := &fakeDecoder{}
	remote := &fakeDecoder{responses: map[int][]models.DecodedPayload{
		// calls 0..3: tier 1 per-transform attempts; call 4: tier 2 raw
		4: payloadsWith("from-remote"),
	}}

	result := NewOrchestrator(local, remote).Detect(context.Background(), blankImage())

	if len(result) != 1 || result[0].Data != "from-remote" {
		t.Fatalf("Detect() = %+v, want payload from remote raw tier", result)
	}
	if result[0].Strategy != models.StrategyRemote {
		t.Errorf("strategy = %s, want %s", result[0].Strategy, models.StrategyRemote)
	}
	if local.calls != 5 {
		t.Errorf("local decoder called %d times, want 5", local.calls)
	}
}

func TestExhaustionReturnsEmpty(t *testing.T) {
	local := &fakeDecoder{}
	remote := &fakeDecoder{}

	result := NewOrchestrator(local, remote).Detect(context.Background(), blankImage())

	if len(result) != 0 {
		t.Errorf("Detect() = %+v, want empty result on exhaustion", result)
	}
}

func TestDedupIdempotence(t *testing.T) {
	duplicated := payloadsWith("a", "b", "a", "c", "b", "a")
	local := &fakeDecoder{responses: map[int][]models.DecodedPayload{0: duplicated}}

	orchestrator := NewOrchestrator(local, &fakeDecoder{})
	first := orchestrator.Detect(context.Background(), blankImage())

	wantData := []string{"a", "b", "c"}
	gotData := make([]string, 0, len(first))
	for _, p := range first {
		gotData = append(gotData, p.Data)
	}
	if !reflect.DeepEqual(gotData, wantData) {
		t.Fatalf("deduplicated data = %v, want %v", gotData, wantData)
	}

	// Same input again yields the same set.
	local2 := &fakeDecoder{responses: map[int][]models.DecodedPayload{0: payloadsWith("a", "b", "a", "c", "b", "a")}}
	second := NewOrchestrator(local2, &fakeDecoder{}).Detect(context.Background(), blankImage())
	if len(second) != len(first) {
		t.Errorf("repeat run yielded %d payloads, want %d", len(second), len(first))
	}
}

func TestCancellationStopsCascade(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	local := &fakeDecoder{err: context.Canceled}
	remote := &fakeDecoder{}

	result := NewOrchestrator(local, remote).Detect(ctx, blankImage())

	if len(result) != 0 {
		t.Errorf("Detect() with cancelled context = %+v, want empty", result)
	}
	if remote.calls != 0 {
		t.Errorf("remote decoder called %d times after cancellation, want 0", remote.calls)
	}
}

func TestGeometryMappedToSourceCoordinates(t *testing.T) {
	// A payload found on the half-scale rendering must report geometry in
	// source pixels.
	local := &fakeDecoder{responses: map[int][]models.DecodedPayload{
		4: {{ // raw + 3 full-scale transforms fail; downscale succeeds
			Data:      "scaled",
			Symbology: models.SymbologyQR,
			Geometry:  []models.Point{{X: 10, Y: 20}},
		}},
	}}
	remote := &fakeDecoder{}

	result := NewOrchestrator(local, remote).Detect(context.Background(), blankImage())

	if len(result) != 1 {
		t.Fatalf("Detect() returned %d payloads, want 1", len(result))
	}
	got := result[0].Geometry[0]
	if got.X != 20 || got.Y != 40 {
		t.Errorf("geometry = (%v,%v), want (20,40) after mapping from 0.5 scale", got.X, got.Y)
	}
}
