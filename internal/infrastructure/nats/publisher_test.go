package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subjects []string
	bodies   [][]byte
	err      error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, data)
	return nil
}

func TestPublish_Envelope(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "licencias.", zerolog.Nop())

	require.NoError(t, p.Publish(context.Background(), "license.activated", map[string]string{"license_id": "l1"}))
	require.Len(t, fc.subjects, 1)
	assert.Equal(t, "licencias.license.activated", fc.subjects[0])

	var env Envelope
	require.NoError(t, json.Unmarshal(fc.bodies[0], &env))
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "licencias.license.activated", env.Subject)
	assert.JSONEq(t, `{"license_id":"l1"}`, string(env.Payload))
}

func TestPublish_Errores(t *testing.T) {
	fc := &fakeConn{err: errors.New("desconectado")}
	p := newPublisher(fc, "", zerolog.Nop())
	assert.Equal(t, "wallet.ledger", p.Subject("wallet.ledger"))
	assert.Error(t, p.Publish(context.Background(), "wallet.ledger", 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, "wallet.ledger", 1), context.Canceled)
}
