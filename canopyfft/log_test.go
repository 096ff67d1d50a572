package canopyfft

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_SetLogLevel(t *testing.T) {
	for _, level := range LogLevels {
		assert.NoError(t, SetLogLevel("canopyfft_test", level))
	}
	assert.Error(t, SetLogLevel("canopyfft_test", "VERBOSE"))
}
