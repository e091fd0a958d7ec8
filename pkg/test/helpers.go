package test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	memrepo "github.com/lutheralien/to-do-api/internal/adapter/database/memory/repository"
	"github.com/lutheralien/to-do-api/internal/core/model/response"
)

// InitTestRepo returns an empty in-memory todo store.
func InitTestRepo() *memrepo.TodoRepository {
	return memrepo.NewTodoRepository()
}

// Envelope is a decoded response body whose data is kept raw for a second pass.
type Envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	StatusCode int             `json:"status_code"`
	Message    *string         `json:"message"`
}

func DecodeEnvelope(t *testing.T, body []byte) Envelope {
	t.Helper()

	var envelope Envelope
	require.NoError(t, json.Unmarshal(body, &envelope), "body: %s", body)

	return envelope
}

func DecodeData[T any](t *testing.T, envelope Envelope) T {
	t.Helper()

	var data T
	require.NoError(t, json.Unmarshal(envelope.Data, &data), "data: %s", envelope.Data)

	return data
}

func DecodeTodo(t *testing.T, envelope Envelope) response.TodoResponse {
	t.Helper()

	return DecodeData[response.TodoResponse](t, envelope)
}
