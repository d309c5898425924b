package idbpb

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Point is a screen coordinate in points.
type Point struct {
	X float64
	Y float64
}

func (p *Point) Marshal() ([]byte, error) {
	var b []byte
	b = appendDouble(b, 1, p.X)
	b = appendDouble(b, 2, p.Y)
	return b, nil
}

func (p *Point) Unmarshal(b []byte) error {
	*p = Point{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var n int
		var err error
		switch num {
		case 1:
			p.X, n, err = consumeDouble(typ, b)
		case 2:
			p.Y, n, err = consumeDouble(typ, b)
		}
		return n, err
	})
}

// HIDDirection is the press direction of a HIDPress.
type HIDDirection int32

const (
	HIDDown HIDDirection = 0
	HIDUp   HIDDirection = 1
)

// HIDPress presses or releases a touch at Touch.
type HIDPress struct {
	Touch     *Point
	Direction HIDDirection
}

// wire layout: HIDPress{action=1: HIDPressAction{touch=1: HIDTouch{point=1}}, direction=2}
func (p *HIDPress) marshal() []byte {
	var touch []byte
	if p.Touch != nil {
		point, _ := p.Touch.Marshal()
		touch = appendMessage(nil, 1, point)
	}
	action := appendMessage(nil, 1, touch)

	b := appendMessage(nil, 1, action)
	return appendVarint(b, 2, uint64(p.Direction))
}

func (p *HIDPress) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			action, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			return n, p.unmarshalAction(action)
		case 2:
			v, n, err := consumeVarint(typ, b)
			p.Direction = HIDDirection(v)
			return n, err
		}
		return 0, nil
	})
}

func (p *HIDPress) unmarshalAction(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		touch, n, err := consumeBytes(typ, b)
		if err != nil {
			return 0, err
		}
		p.Touch = &Point{}
		return n, walk(touch, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
			if num != 1 {
				return 0, nil
			}
			point, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			return n, p.Touch.Unmarshal(point)
		})
	})
}

// HIDSwipe drags from Start to End. Delta is the step between intermediate
// touches (0 lets the companion choose); Duration is in seconds.
type HIDSwipe struct {
	Start    Point
	End      Point
	Delta    float64
	Duration float64
}

func (s *HIDSwipe) marshal() []byte {
	start, _ := s.Start.Marshal()
	end, _ := s.End.Marshal()

	b := appendMessage(nil, 1, start)
	b = appendMessage(b, 2, end)
	b = appendDouble(b, 3, s.Delta)
	return appendDouble(b, 4, s.Duration)
}

func (s *HIDSwipe) unmarshal(b []byte) error {
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1, 2:
			point, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			if num == 1 {
				return n, s.Start.Unmarshal(point)
			}
			return n, s.End.Unmarshal(point)
		case 3:
			v, n, err := consumeDouble(typ, b)
			s.Delta = v
			return n, err
		case 4:
			v, n, err := consumeDouble(typ, b)
			s.Duration = v
			return n, err
		}
		return 0, nil
	})
}

// HIDDelay pauses the event stream for Duration seconds.
type HIDDelay struct {
	Duration float64
}

// HIDEvent is one element of the hid client stream. Exactly one of Press,
// Swipe and Delay is set.
type HIDEvent struct {
	Press *HIDPress
	Swipe *HIDSwipe
	Delay *HIDDelay
}

// TouchEvent builds a press event at (x, y).
func TouchEvent(x, y float64, dir HIDDirection) *HIDEvent {
	return &HIDEvent{Press: &HIDPress{Touch: &Point{X: x, Y: y}, Direction: dir}}
}

func (e *HIDEvent) Marshal() ([]byte, error) {
	switch {
	case e.Press != nil:
		return appendMessage(nil, 1, e.Press.marshal()), nil
	case e.Swipe != nil:
		return appendMessage(nil, 2, e.Swipe.marshal()), nil
	case e.Delay != nil:
		return appendMessage(nil, 3, appendDouble(nil, 1, e.Delay.Duration)), nil
	}
	return nil, nil
}

func (e *HIDEvent) Unmarshal(b []byte) error {
	*e = HIDEvent{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num < 1 || num > 3 {
			return 0, nil
		}
		body, n, err := consumeBytes(typ, b)
		if err != nil {
			return 0, err
		}
		switch num {
		case 1:
			e.Press = &HIDPress{}
			return n, e.Press.unmarshal(body)
		case 2:
			e.Swipe = &HIDSwipe{}
			return n, e.Swipe.unmarshal(body)
		default:
			e.Delay = &HIDDelay{}
			return n, walk(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				if num != 1 {
					return 0, nil
				}
				v, n, err := consumeDouble(typ, b)
				e.Delay.Duration = v
				return n, err
			})
		}
	})
}

// HIDResponse is the empty reply to a hid stream.
type HIDResponse struct{}

func (*HIDResponse) Marshal() ([]byte, error) { return nil, nil }
func (*HIDResponse) Unmarshal([]byte) error   { return nil }
