package idbpb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestTouchEvent_WireLayout(t *testing.T) {
	b, err := TouchEvent(1.5, 0, HIDDown).Marshal()
	require.NoError(t, err)

	expected := []byte{
		0x0a, 0x0f, // event.press
		0x0a, 0x0d, // press.action
		0x0a, 0x0b, // action.touch
		0x0a, 0x09, // touch.point
		0x09, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xf8, 0x3f, // point.x = 1.5
	}
	assert.Equal(t, expected, b)
}

func TestTouchEvent_UpCarriesDirection(t *testing.T) {
	b, err := TouchEvent(88, 172, HIDUp).Marshal()
	require.NoError(t, err)

	var decoded HIDEvent
	require.NoError(t, decoded.Unmarshal(b))
	require.NotNil(t, decoded.Press)
	assert.Equal(t, HIDUp, decoded.Press.Direction)
	assert.Equal(t, &Point{X: 88, Y: 172}, decoded.Press.Touch)
	assert.Nil(t, decoded.Swipe)
}

func TestHIDEvent_SwipeFields(t *testing.T) {
	event := &HIDEvent{Swipe: &HIDSwipe{
		Start:    Point{X: 10, Y: 20},
		End:      Point{X: 30, Y: 40},
		Duration: 0.5,
	}}
	b, err := event.Marshal()
	require.NoError(t, err)

	var decoded HIDEvent
	require.NoError(t, decoded.Unmarshal(b))
	require.NotNil(t, decoded.Swipe)
	assert.Equal(t, *event.Swipe, *decoded.Swipe)
	assert.Nil(t, decoded.Press)
}

func TestUnmarshal_SkipsUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte{0x89, 'P', 'N', 'G'})
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 300)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, "png")

	var resp ScreenshotResponse
	require.NoError(t, resp.Unmarshal(b))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, resp.ImageData)
	assert.Equal(t, "png", resp.ImageFormat)
}

func TestUnmarshal_RejectsTruncatedInput(t *testing.T) {
	b, err := (&ScreenshotResponse{ImageData: []byte("abcdef"), ImageFormat: "png"}).Marshal()
	require.NoError(t, err)

	var resp ScreenshotResponse
	assert.Error(t, resp.Unmarshal(b[:4]))
}

func TestUnmarshal_RejectsWrongWireType(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 7)

	var p Point
	assert.Error(t, p.Unmarshal(b))
}

func TestListAppsResponse_Decode(t *testing.T) {
	resp := &ListAppsResponse{Apps: []InstalledAppInfo{
		{BundleID: "com.example.calibration", Name: "Calibration", InstallType: "user", ProcessState: ProcessStateRunning, ProcessIdentifier: 4242, Architectures: []string{"arm64"}},
		{BundleID: "com.apple.Preferences", Name: "Settings", InstallType: "system"},
	}}
	b, err := resp.Marshal()
	require.NoError(t, err)

	var decoded ListAppsResponse
	require.NoError(t, decoded.Unmarshal(b))
	assert.Equal(t, resp.Apps, decoded.Apps)
}

func TestLaunchRequest_StartEnvIsDeterministic(t *testing.T) {
	req := &LaunchRequest{Start: &LaunchStart{
		BundleID:            "com.example.calibration",
		Env:                 map[string]string{"B": "2", "A": "1"},
		AppArgs:             []string{"-calibrate"},
		ForegroundIfRunning: true,
	}}

	first, err := req.Marshal()
	require.NoError(t, err)
	second, err := req.Marshal()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var decoded LaunchRequest
	require.NoError(t, decoded.Unmarshal(first))
	require.NotNil(t, decoded.Start)
	assert.Equal(t, *req.Start, *decoded.Start)
	assert.False(t, decoded.Stop)
}

func TestCodec(t *testing.T) {
	codec := Codec{}
	assert.Equal(t, "proto", codec.Name())

	b, err := codec.Marshal(&TerminateRequest{BundleID: "com.example.app"})
	require.NoError(t, err)

	var req TerminateRequest
	require.NoError(t, codec.Unmarshal(b, &req))
	assert.Equal(t, "com.example.app", req.BundleID)

	_, err = codec.Marshal("not a message")
	assert.Error(t, err)
	assert.Error(t, codec.Unmarshal(b, new(int)))
}
