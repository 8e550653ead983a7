package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	cases := map[int64]string{
		0:     "0с",
		-5:    "0с",
		59:    "59с",
		61:    "1м 1с",
		3600:  "1ч",
		3723:  "1ч 2м 3с",
		90060: "25ч 1м",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatDuration(in), "seconds=%d", in)
	}
}

func TestTopTags(t *testing.T) {
	tags := []string{"math", "go", "", "math", "chess", "go", "math"}
	got := TopTags(tags, 2)
	assert.Equal(t, []TagCount{{Tag: "math", Count: 3}, {Tag: "go", Count: 2}}, got)

	assert.Len(t, TopTags(tags, 0), 3)
	assert.Empty(t, TopTags(nil, 20))
}
