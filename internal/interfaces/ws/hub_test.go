package ws_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/interfaces/ws"
)

type fakeClient struct {
	mu      sync.Mutex
	msgs    [][]byte
	closed  bool
	failing bool
}

func (f *fakeClient) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("broken pipe")
	}
	f.msgs = append(f.msgs, data)
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeClient) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.msgs...)
}

func (f *fakeClient) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func startHub(t *testing.T, buffer int) *ws.Hub {
	t.Helper()
	h := ws.NewHub(buffer, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

func TestHub_DifundeEventosATodosLosClientes(t *testing.T) {
	h := startHub(t, 8)
	a, b := &fakeClient{}, &fakeClient{}
	h.Register(a)
	h.Register(b)

	h.Publish(dto.StockEvent{Type: "stock_update", Action: dto.StockActionTransactionCreated, ProductID: 3, NewStock: 9})

	for _, c := range []*fakeClient{a, b} {
		require.Eventually(t, func() bool { return len(c.received()) == 1 }, time.Second, 5*time.Millisecond)
		var got dto.StockEvent
		require.NoError(t, json.Unmarshal(c.received()[0], &got))
		assert.Equal(t, int64(3), got.ProductID)
		assert.Equal(t, int64(9), got.NewStock)
	}
}

func TestHub_ClienteConErrorSeDescarta(t *testing.T) {
	h := startHub(t, 8)
	bad := &fakeClient{failing: true}
	h.Register(bad)
	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 5*time.Millisecond)

	h.Publish(dto.StockEvent{ProductID: 1})

	require.Eventually(t, func() bool { return h.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, bad.isClosed())
}

func TestHub_UnregisterCierraConexion(t *testing.T) {
	h := startHub(t, 8)
	c := &fakeClient{}
	h.Register(c)
	h.Unregister(c)
	require.Eventually(t, c.isClosed, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, h.Len())
}

func TestHub_PublishNoBloqueaSinConsumidor(t *testing.T) {
	// Sin Run el buffer se llena y los eventos extra se descartan.
	h := ws.NewHub(1, zerolog.Nop())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Publish(dto.StockEvent{ProductID: int64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish bloqueó")
	}
}

func TestHub_RegisterTrasApagadoCierraCliente(t *testing.T) {
	h := ws.NewHub(1, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.Run(ctx)

	c := &fakeClient{}
	h.Register(c)
	h.Unregister(c)
	assert.True(t, c.isClosed())
	assert.Equal(t, 0, h.Len())
}
