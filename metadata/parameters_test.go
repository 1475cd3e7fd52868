package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParameters(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Values
	}{
		{
			name: "Progress",
			text: "progress: 88200/176400/264600\r\n",
			want: Values{Position: floatPtr(0), Duration: floatPtr(4)},
		},
		{
			name: "Progress mid track",
			text: "progress: 1000/442000/2206000",
			want: Values{Position: floatPtr(8), Duration: floatPtr(50)},
		},
		{
			name: "Progress across timestamp wrap",
			text: "progress: 4294923196/44100/176400",
			want: Values{Position: floatPtr(0), Duration: floatPtr(5)},
		},
		{
			name: "Volume",
			text: "volume: -11.123456\r\n",
			want: Values{Volume: floatPtr(-11.123456)},
		},
		{
			name: "Both",
			text: "volume: -30.0\r\nprogress: 0/0/441000\r\n",
			want: Values{Volume: floatPtr(-30), Position: floatPtr(-2), Duration: floatPtr(10)},
		},
		{
			name: "Case and spacing",
			text: "Volume:-5",
			want: Values{Volume: floatPtr(-5)},
		},
		{
			name: "Unknown keys ignored",
			text: "foo: bar\r\nnot a parameter\r\n",
			want: Values{},
		},
		{
			name: "Empty",
			text: "",
			want: Values{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParameters(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseParametersMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"Two progress fields", "progress: 1/2"},
		{"Non numeric progress", "progress: a/b/c"},
		{"Negative progress", "progress: -1/2/3"},
		{"Bad volume", "volume: loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParameters(tt.text)
			assert.ErrorIs(t, err, ErrMalformedParameter)
			assert.True(t, got.IsEmpty())
		})
	}
}
