package settlement

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/counterline/pos/internal/app/domain/order"
	"github.com/counterline/pos/internal/paygate"
	"github.com/counterline/pos/pkg/logger"
)

// Store tracks live settlement sessions per terminal session id. It is the
// explicit replacement for process-global cart state: every session is
// created against it and removed when closed.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	api     Upstream
	gateway paygate.Gateway
	log     *logger.Logger
}

// NewStore creates a session store bound to the upstream API and payment
// gateway.
func NewStore(api Upstream, gw paygate.Gateway, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewDefault("settlement")
	}
	return &Store{
		sessions: make(map[string]*Session),
		api:      api,
		gateway:  gw,
		log:      log,
	}
}

// Start opens a new settlement session for a cart and returns its id.
func (st *Store) Start(cart order.Cart) (string, *Session) {
	id := uuid.NewString()
	session := NewSession(cart, st.api, st.gateway, st.log)

	st.mu.Lock()
	st.sessions[id] = session
	st.mu.Unlock()

	st.log.WithFields(map[string]interface{}{
		"session_id": id,
		"order_id":   cart.OrderID,
		"total":      cart.Total(),
	}).Info("settlement session started")

	return id, session
}

// Get returns the live session for an id.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	session, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("settlement session %s not found", id)
	}
	return session, nil
}

// Release drops a session from the store. Closed sessions are released by
// the HTTP layer once their final response has been written.
func (st *Store) Release(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Count returns the number of live sessions.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
