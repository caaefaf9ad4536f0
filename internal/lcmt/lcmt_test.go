package lcmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactResultsEncoding(t *testing.T) {
	in := ContactResults{
		TimestampMicros: Micros(0.25),
		PointPairs: []PointPairContact{{
			BodyA:        "ground",
			BodyB:        "box",
			ContactPoint: [3]float64{0, 0, 0},
			ContactForce: [3]float64{0, 0, 9.81},
			Depth:        1e-4,
		}},
	}
	data, err := Encode(in)
	require.NoError(t, err)

	var out ContactResults
	require.NoError(t, Decode(data, &out))
	assert.Equal(t, in, out)
	assert.Equal(t, int64(250000), out.TimestampMicros)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	var out ViewerDraw
	err := Decode([]byte{0xff, 0x00}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lcmt: decode")
}
