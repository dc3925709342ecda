package waymo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCameraName_Index(t *testing.T) {
	tests := []struct {
		name CameraName
		want int
	}{
		{CameraFront, 0},
		{CameraFrontLeft, 1},
		{CameraFrontRight, 2},
		{CameraSideLeft, 3},
		{CameraSideRight, 4},
	}
	for _, tt := range tests {
		if got := tt.name.Index(); got != tt.want {
			t.Errorf("%s.Index() = %d, want %d", tt.name, got, tt.want)
		}
	}
	assert.False(t, CameraUnknown.Valid())
	assert.True(t, CameraSideRight.Valid())
	assert.False(t, CameraName(6).Valid())
}

func TestParseLabelType(t *testing.T) {
	got, err := ParseLabelType("cyclist")
	require.NoError(t, err)
	assert.Equal(t, TypeCyclist, got)

	_, err = ParseLabelType("TRUCK")
	assert.Error(t, err)

	assert.Equal(t, "SIGN", TypeSign.String())
	assert.Equal(t, "LabelType(9)", LabelType(9).String())
}

func TestSensorTag_Suffix(t *testing.T) {
	assert.Equal(t, "_FRONT", TagFront.Suffix())
	assert.Equal(t, "_FRONT_RIGHT", TagFrontRight.Suffix())
	assert.Equal(t, "_SIDE_LEFT", TagSideLeft.Suffix())
}

func TestSensorTag_TextRoundTrip(t *testing.T) {
	for _, tag := range SensorTags {
		b, err := tag.MarshalText()
		require.NoError(t, err)

		var back SensorTag
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, tag, back)
	}

	var s SensorTag
	assert.Error(t, s.UnmarshalText([]byte("TOP")))
}

func TestSplitTaggedID(t *testing.T) {
	tests := []struct {
		id     string
		wantID string
		tag    SensorTag
		ok     bool
	}{
		{"abc_FRONT", "abc", TagFront, true},
		{"abc_FRONT_LEFT", "abc", TagFrontLeft, true},
		{"abc_FRONT_RIGHT", "abc", TagFrontRight, true},
		{"x_y_SIDE_RIGHT", "x_y", TagSideRight, true},
		{"abc_SIDE_LEFT", "abc", TagSideLeft, true},
		{"abc", "", -1, false},
		{"_FRONT", "", -1, false},
		{"abc_REAR", "", -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			id, tag, ok := SplitTaggedID(tt.id)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.tag, tag)
		})
	}
}
