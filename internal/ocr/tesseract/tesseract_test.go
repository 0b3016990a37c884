package tesseract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Languages(t *testing.T) {
	assert.Equal(t, []string{"eng", "sqi"}, New("eng+sqi", "").languages)
	assert.Equal(t, []string{"deu"}, New(" deu + ", "").languages)
	assert.Equal(t, []string{"eng"}, New("", "").languages)
}
