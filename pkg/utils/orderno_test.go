package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderNoShape(t *testing.T) {
	now := time.Now().Unix()
	orderNo := NewOrderNo(now)

	assert.Len(t, orderNo, 13)
	code, err := OrderNoToCode(orderNo)
	require.NoError(t, err)
	assert.Positive(t, code)
}

func TestNewOrderNoVaries(t *testing.T) {
	now := time.Now().Unix()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[NewOrderNo(now)] = true
	}
	// 4 random digits across 100 draws: collisions happen, identical
	// output for all draws would mean the suffix is broken.
	assert.Greater(t, len(seen), 50)
}

func TestOrderNoToCodeRejectsGarbage(t *testing.T) {
	_, err := OrderNoToCode("ORD-123")
	require.Error(t, err)
}
