package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionFor(t *testing.T) {
	tests := []struct {
		dir  Direction
		want Action
	}{
		{DirectionAdded, ActionMarked},
		{DirectionRemoved, ActionFixed},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			got := ActionFor(tt.dir)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}
