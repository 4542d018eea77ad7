package roadmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeProgress(t *testing.T) {
	r := &Roadmap{
		Sections: []*Section{
			{Topics: []*Topic{{Completed: true}, {Completed: false}}},
			{Topics: []*Topic{{Completed: true}}},
			{Topics: nil},
		},
	}

	r.ComputeProgress()

	assert.Equal(t, 50.0, r.Sections[0].Progress)
	assert.Equal(t, 100.0, r.Sections[1].Progress)
	assert.Equal(t, 0.0, r.Sections[2].Progress)
	assert.Equal(t, 66.66, r.Progress)
}

func TestComputeProgress_Empty(t *testing.T) {
	r := &Roadmap{}
	r.ComputeProgress()
	assert.Equal(t, 0.0, r.Progress)
}
