package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientEventDecoding(t *testing.T) {
	raw := []byte(`{"id":3,"send_message":{"conversation_id":"abc","content":"hi"}}`)

	var evt ClientEvent
	require.NoError(t, json.Unmarshal(raw, &evt))

	assert.Equal(t, 3, evt.Id)
	require.NotNil(t, evt.SendMessage)
	assert.Equal(t, "abc", evt.SendMessage.ConversationId)
	assert.Equal(t, "hi", evt.SendMessage.Content)
	assert.Nil(t, evt.Typing)
	assert.Nil(t, evt.CallUser)
}

func TestServerEventEncoding(t *testing.T) {
	evt := NoErrOK(7, nil)

	raw, err := json.Marshal(evt)
	require.NoError(t, err)

	// unset variants stay off the wire
	assert.NotContains(t, string(raw), "new_message")
	assert.NotContains(t, string(raw), "presence")
	assert.Contains(t, string(raw), `"response"`)
}

func TestErrInvalidEvent(t *testing.T) {
	evt := ErrInvalidEvent(5)
	assert.Equal(t, 5, evt.Id)
	assert.Equal(t, http.StatusBadRequest, evt.Response.ResponseCode)

	// unparseable frames have no request id to echo
	evt = ErrInvalidEvent(-1)
	assert.Zero(t, evt.Id)
}
