package idbpb

import "google.golang.org/protobuf/encoding/protowire"

type ScreenshotRequest struct{}

func (*ScreenshotRequest) Marshal() ([]byte, error) { return nil, nil }
func (*ScreenshotRequest) Unmarshal([]byte) error   { return nil }

// ScreenshotResponse carries the encoded image exactly as the companion
// produced it.
type ScreenshotResponse struct {
	ImageData   []byte
	ImageFormat string
}

func (r *ScreenshotResponse) Marshal() ([]byte, error) {
	b := appendBytes(nil, 1, r.ImageData)
	return appendString(b, 2, r.ImageFormat), nil
}

func (r *ScreenshotResponse) Unmarshal(b []byte) error {
	*r = ScreenshotResponse{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(typ, b)
			// copy out of the receive buffer
			r.ImageData = append([]byte(nil), v...)
			return n, err
		case 2:
			v, n, err := consumeString(typ, b)
			r.ImageFormat = v
			return n, err
		}
		return 0, nil
	})
}
