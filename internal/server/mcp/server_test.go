package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/voxkeep/internal/audio"
	"github.com/emmett/voxkeep/internal/session"
	"github.com/emmett/voxkeep/internal/testutil"
	"github.com/emmett/voxkeep/internal/upload"
	"github.com/emmett/voxkeep/internal/wav"
)

const waitFor = 2 * time.Second

type fakeUploader struct {
	mu    sync.Mutex
	err   error
	metas []upload.Metadata
	sizes []int
}

func (f *fakeUploader) Submit(ctx context.Context, a *wav.Artifact, meta upload.Metadata) (*upload.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.metas = append(f.metas, meta)
	f.sizes = append(f.sizes, len(a.Data))
	return &upload.Receipt{AssetID: "asset-7"}, nil
}

type fixture struct {
	server   *Server
	src      *testutil.FakeSource
	clock    *testutil.ManualClock
	uploader *fakeUploader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		src:      testutil.NewFakeSource(16000),
		clock:    testutil.NewManualClock(),
		uploader: &fakeUploader{},
	}
	f.server = NewServer(Config{
		ServerName:    "voxkeep-test",
		ServerVersion: "test",
		Defaults:      upload.Metadata{Language: "Inuktitut", TargetLanguage: "English"},
	}, f.src, f.uploader, nil,
		WithSessionOptions(session.WithClock(f.clock)),
		WithDeviceLister(func() ([]audio.DeviceInfo, error) {
			return []audio.DeviceInfo{{ID: "capture-0", Name: "Headset", IsDefault: true}}, nil
		}))
	return f
}

// record runs record_clip in the background, feeds one chunk and lets
// the given number of seconds pass
func (f *fixture) record(t *testing.T, args RecordArgs, samples, seconds int) (ClipResult, error) {
	t.Helper()
	type result struct {
		out ClipResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		_, out, err := f.server.handleRecordClip(context.Background(), nil, args)
		done <- result{out, err}
	}()

	require.Eventually(t, func() bool { return f.clock.Tickers() > 0 }, waitFor, time.Millisecond)
	require.True(t, f.src.Last().Feed(testutil.Chunk(samples, 0.25)))
	assert.Equal(t, seconds, f.clock.Advance(seconds))

	select {
	case r := <-done:
		return r.out, r.err
	case <-time.After(waitFor):
		t.Fatal("record_clip did not finish")
		return ClipResult{}, nil
	}
}

func TestRecordClip(t *testing.T) {
	f := newFixture(t)
	savePath := filepath.Join(t.TempDir(), "clip.wav")

	out, err := f.record(t, RecordArgs{Seconds: 2, SavePath: savePath, IncludeAudio: true}, 1600, 2)
	require.NoError(t, err)

	assert.NotEmpty(t, out.TakeID)
	assert.Equal(t, 1600, out.Samples)
	assert.Equal(t, uint32(16000), out.SampleRate)
	assert.Equal(t, wav.HeaderSize+3200, out.Bytes)
	assert.InDelta(t, 0.1, out.DurationSeconds, 1e-9)
	assert.InDelta(t, 0.25, out.Peak, 1e-3)
	assert.False(t, out.Silent)
	assert.Empty(t, out.AssetID, "not submitted")

	saved, err := wav.ReadFile(savePath)
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(out.Audio)
	require.NoError(t, err)
	assert.Equal(t, saved.Data, raw)
}

func TestRecordClipAndSubmit(t *testing.T) {
	f := newFixture(t)

	args := RecordArgs{Seconds: 1, Submit: true}
	args.Consent = true
	args.Dialect = "Nunavik"
	out, err := f.record(t, args, 800, 1)
	require.NoError(t, err)
	assert.Equal(t, "asset-7", out.AssetID)

	require.Len(t, f.uploader.metas, 1)
	assert.Equal(t, upload.Metadata{Language: "Inuktitut", Dialect: "Nunavik", TargetLanguage: "English", Consent: true}, f.uploader.metas[0])
}

func TestRecordClipRejectsBadRequests(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.server.handleRecordClip(context.Background(), nil, RecordArgs{Seconds: 31})
	assert.ErrorContains(t, err, "seconds must be between 1 and 30")

	// without consent nothing is recorded
	_, _, err = f.server.handleRecordClip(context.Background(), nil, RecordArgs{Seconds: 5, Submit: true})
	assert.ErrorContains(t, err, "invalid contribution metadata")
	assert.Equal(t, 0, f.src.Opens())
}

func TestRecordClipMicrophoneFailure(t *testing.T) {
	f := newFixture(t)
	f.src.FailWith(testutil.ErrPermissionDenied)

	_, _, err := f.server.handleRecordClip(context.Background(), nil, RecordArgs{Seconds: 1})
	var accessErr *audio.CaptureAccessError
	assert.True(t, errors.As(err, &accessErr))
}

func TestRecordClipCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, _, err := f.server.handleRecordClip(ctx, nil, RecordArgs{Seconds: 10})
		errCh <- err
	}()
	require.Eventually(t, func() bool { return f.clock.Tickers() > 0 }, waitFor, time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.True(t, f.src.Last().Closed())
}

func TestSubmitClip(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "take.wav")
	a := wav.Encode(testutil.Chunk(480, 0.1), 48000)
	require.NoError(t, a.WriteFile(path))

	args := SubmitArgs{Path: path}
	args.Consent = true
	args.Language = "Hawaiian"
	res, out, err := f.server.handleSubmitClip(context.Background(), nil, args)
	require.NoError(t, err)
	assert.Equal(t, "asset-7", out.AssetID)
	assert.Equal(t, 480, out.Samples)
	require.Len(t, res.Content, 1)
	assert.Equal(t, "Upload successful! ID: asset-7", res.Content[0].(*sdk.TextContent).Text)
	assert.Equal(t, "Hawaiian", f.uploader.metas[0].Language)
	assert.Equal(t, len(a.Data), f.uploader.sizes[0])
}

func TestSubmitClipErrors(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.server.handleSubmitClip(context.Background(), nil, SubmitArgs{Path: filepath.Join(t.TempDir(), "nope.wav")})
	assert.ErrorContains(t, err, "failed to read wav file")

	path := filepath.Join(t.TempDir(), "take.wav")
	a := wav.Encode(testutil.Chunk(10, 0.1), 48000)
	require.NoError(t, a.WriteFile(path))
	f.uploader.err = &upload.APIError{StatusCode: 500}
	_, _, err = f.server.handleSubmitClip(context.Background(), nil, SubmitArgs{Path: path})
	var apiErr *upload.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestListDevicesOverTransport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	serverTransport, clientTransport := sdk.NewInMemoryTransports()
	ss, err := f.server.Connect(ctx, serverTransport)
	require.NoError(t, err)
	defer ss.Close()

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"record_clip", "submit_clip", "list_devices"}, names)

	res, err := cs.CallTool(ctx, &sdk.CallToolParams{Name: "list_devices", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	assert.Contains(t, res.Content[0].(*sdk.TextContent).Text, `"name":"Headset"`)
}
