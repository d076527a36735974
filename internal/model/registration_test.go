package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestValidStatus(t *testing.T) {
    assert.True(t, ValidStatus(StatusApproved))
    assert.True(t, ValidStatus(StatusRejected))
    assert.False(t, ValidStatus("PENDING"))
    assert.False(t, ValidStatus("approved"))
    assert.False(t, ValidStatus(""))
}
