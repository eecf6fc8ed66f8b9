package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeAuditDetailsTagsPayload(t *testing.T) {
	remaining := 2
	raw, err := EncodeAuditDetails(LoginDetails{Email: "admin@cefib.pe", Reason: "invalid_password", RemainingAttempts: &remaining})
	require.NoError(t, err)

	var decoded struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "login", decoded.Type)
	assert.Equal(t, "admin@cefib.pe", decoded.Data["email"])
	assert.EqualValues(t, 2, decoded.Data["remainingAttempts"])
}

func TestEncodeAuditDetailsNil(t *testing.T) {
	raw, err := EncodeAuditDetails(nil)
	require.NoError(t, err)
	assert.Nil(t, raw)
}
