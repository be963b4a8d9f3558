// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protocol

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(msgs ...Message) Receive {
	i := 0
	return func(context.Context) (Message, error) {
		m := msgs[i]
		i++
		return m, nil
	}
}

func TestReadBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		msgs    []Message
		want    string
		wantErr error
	}{
		{
			name: "single chunk",
			msgs: []Message{{Type: HTTPRequest, Body: []byte(`{"a":1}`)}},
			want: `{"a":1}`,
		},
		{
			name: "chunks concatenated until more body unset",
			msgs: []Message{
				{Type: HTTPRequest, Body: []byte("hel"), MoreBody: true},
				{Type: HTTPRequest, Body: []byte("lo"), MoreBody: true},
				{Type: HTTPRequest, Body: []byte("!")},
			},
			want: "hello!",
		},
		{
			name: "empty body",
			msgs: []Message{{Type: HTTPRequest}},
			want: "",
		},
		{
			name: "disconnect mid body",
			msgs: []Message{
				{Type: HTTPRequest, Body: []byte("par"), MoreBody: true},
				{Type: HTTPDisconnect},
			},
			wantErr: ErrDisconnected,
		},
		{
			name:    "unexpected message",
			msgs:    []Message{{Type: LifespanStartup}},
			wantErr: ErrUnexpectedMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			body, err := ReadBody(context.Background(), feed(tt.msgs...))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(body))
		})
	}
}

func TestStatusRecorder(t *testing.T) {
	t.Parallel()

	var forwarded []Message
	rec := NewStatusRecorder(func(_ context.Context, m Message) error {
		forwarded = append(forwarded, m)
		return nil
	})

	_, ok := rec.Status()
	assert.False(t, ok)

	ctx := context.Background()
	require.NoError(t, rec.Send(ctx, Message{Type: HTTPResponseStart, Status: 201}))
	require.NoError(t, rec.Send(ctx, Message{Type: HTTPResponseBody, Body: []byte("x")}))

	status, ok := rec.Status()
	assert.True(t, ok)
	assert.Equal(t, 201, status)
	assert.Len(t, forwarded, 2)
	assert.Equal(t, 201, forwarded[0].Status)
}

func TestScopeHeader(t *testing.T) {
	t.Parallel()

	s := &Scope{Headers: []Header{{Name: "Content-Type", Value: "application/json"}, {Name: "X-A", Value: "1"}}}
	assert.Equal(t, "application/json", s.Header("content-type"))
	assert.Empty(t, s.Header("missing"))

	ps := Params{{Key: "id", Value: "7"}}
	v, ok := ps.Get("id")
	assert.True(t, ok)
	assert.Equal(t, "7", v)
	assert.Equal(t, map[string]string{"id": "7"}, ps.Map())
}
