package format

import (
	"testing"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func TestNew(t *testing.T) {
	logger := newTestLogger()

	testCases := []struct {
		name        string
		formatName  string
		expected    string
		expectError bool
	}{
		{
			name:       "JSONFormatter",
			formatName: "json",
			expected:   "json",
		},
		{
			name:       "DefaultToJSON",
			formatName: "",
			expected:   "json",
		},
		{
			name:        "UnknownFormatter",
			formatName:  "xml",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			formatter, err := New(tc.formatName, nil, logger)
			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, formatter)
			} else {
				require.NoError(t, err)
				require.NotNil(t, formatter)
				assert.Equal(t, tc.expected, formatter.Name())
			}
		})
	}
}
