package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Point
		wantErr bool
	}{
		{name: "plain pair", in: "31.5, 34.75", want: Point{31.5, 34.75}},
		{name: "no spaces", in: "31.5,34.75", want: Point{31.5, 34.75}},
		{name: "padded", in: "  -12.25 ,  100.5  ", want: Point{-12.25, 100.5}},
		{name: "letters", in: "abc", wantErr: true},
		{name: "single number", in: "31.5", wantErr: true},
		{name: "three tokens", in: "1,2,3", wantErr: true},
		{name: "empty second token", in: "31.5,", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "nan", in: "NaN, NaN", wantErr: true},
		{name: "lowercase nan", in: "nan,1", wantErr: true},
		{name: "infinity", in: "Inf, -Inf", wantErr: true},
		{name: "lat out of range", in: "90.5, 10", wantErr: true},
		{name: "lng out of range", in: "10, -180.01", wantErr: true},
		{name: "range edges", in: "-90, 180", want: Point{-90, 180}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_SixDecimals(t *testing.T) {
	assert.Equal(t, "31.500000, 34.750000", Format(Point{31.5, 34.75}))
	assert.Equal(t, "-0.123457, 1.000000", Format(Point{-0.1234567, 1}))
}

func TestMapsURL(t *testing.T) {
	u, err := MapsURL("31.5, 34.75")
	require.NoError(t, err)
	assert.Equal(t, "https://www.google.com/maps?q=31.5,34.75&z=15", u)

	_, err = MapsURL("nowhere")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestHasCoordinates(t *testing.T) {
	assert.True(t, HasCoordinates("1, 2"))
	assert.False(t, HasCoordinates("1"))
	assert.False(t, HasCoordinates("NaN, NaN"))
}

func TestPicker_MoveIgnoresPointOffTheGlobe(t *testing.T) {
	p := Open("31.5, 34.75")
	p.Move(Point{Lat: 120, Lng: 0})
	assert.Equal(t, Point{31.5, 34.75}, p.Marker)

	q := Open("")
	q.Move(Point{Lat: 0, Lng: 200})
	assert.False(t, q.Placed())
}

func TestPicker_OpenOnInvalidUsesDefaultAndConfirmIsNoop(t *testing.T) {
	p := Open("abc")
	assert.Equal(t, DefaultCenter, p.Center)
	assert.Equal(t, DefaultZoom, p.Zoom)
	assert.False(t, p.Placed())
	assert.Empty(t, p.Live())

	v, changed, err := p.Confirm("abc")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.False(t, changed)
	assert.Empty(t, v)
}

func TestPicker_MoveThenConfirm(t *testing.T) {
	p := Open("31.5, 34.75")
	require.True(t, p.Placed())
	assert.Equal(t, Point{31.5, 34.75}, p.Center)

	p.Move(Point{32.1, 34.8})
	assert.Equal(t, "32.100000, 34.800000", p.Live())

	v, changed, err := p.Confirm("31.5, 34.75")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "32.100000, 34.800000", v)

	_, changed, err = p.Confirm(v)
	require.NoError(t, err)
	assert.False(t, changed)
}
