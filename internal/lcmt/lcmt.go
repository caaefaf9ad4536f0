// Package lcmt defines the records published by the visualizers and the contact
// publisher, and their CBOR encoding.
package lcmt

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ViewerGeometry is one shape attached to a link.
type ViewerGeometry struct {
	Type         string     `cbor:"type"`
	Position     [3]float64 `cbor:"position"`
	Color        [4]float64 `cbor:"color"`
	Dimensions   []float64  `cbor:"dimensions"`
	Hydroelastic bool       `cbor:"hydroelastic,omitempty"`
}

// ViewerLink groups the geometry attached to one frame.
type ViewerLink struct {
	Name       string           `cbor:"name"`
	RobotNum   int              `cbor:"robot_num"`
	Geometries []ViewerGeometry `cbor:"geometries"`
}

// ViewerLoadRobot announces every link a viewer should draw.
type ViewerLoadRobot struct {
	Links []ViewerLink `cbor:"links"`
}

// ViewerDraw carries link poses at one instant.
type ViewerDraw struct {
	TimestampMicros int64        `cbor:"timestamp"`
	LinkNames       []string     `cbor:"link_name"`
	RobotNums       []int        `cbor:"robot_num"`
	Positions       [][3]float64 `cbor:"position"`
}

// PointPairContact is one body-versus-body contact.
type PointPairContact struct {
	BodyA        string     `cbor:"body1_name"`
	BodyB        string     `cbor:"body2_name"`
	ContactPoint [3]float64 `cbor:"contact_point"`
	ContactForce [3]float64 `cbor:"contact_force"`
	Depth        float64    `cbor:"depth"`
}

// ContactResults carries every active contact at one instant.
type ContactResults struct {
	TimestampMicros int64              `cbor:"timestamp"`
	PointPairs      []PointPairContact `cbor:"point_pair_contact_info"`
}

// Encode serializes msg.
func Encode(msg any) ([]byte, error) {
	data, err := cbor.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("lcmt: encode %T: %w", msg, err)
	}
	return data, nil
}

// Decode parses data into msg.
func Decode(data []byte, msg any) error {
	if err := cbor.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("lcmt: decode %T: %w", msg, err)
	}
	return nil
}

// Micros converts seconds to the integer microsecond timestamps used on the wire.
func Micros(seconds float64) int64 {
	return int64(seconds * 1e6)
}
