package loyalty

import (
	"context"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/shared"
)

// ClientService exposes loyalty accounts to the API
type ClientService struct {
	ledger *Ledger
}

// NewClientService creates a new ClientService
func NewClientService(ledger *Ledger) *ClientService {
	return &ClientService{ledger: ledger}
}

// Enroll creates a client with a zero balance
func (s *ClientService) Enroll(ctx context.Context, tenantID uuid.UUID, actor string, req EnrollClientRequest) (*ClientResponse, error) {
	client, err := s.ledger.EnrollClient(ctx, tenantID, req.PersonID, actor)
	if err != nil {
		return nil, err
	}
	resp := ToClientResponse(client)
	return &resp, nil
}

// Get returns a client and its current balance
func (s *ClientService) Get(ctx context.Context, tenantID, clientID uuid.UUID) (*ClientResponse, error) {
	client, err := s.ledger.GetClient(ctx, tenantID, clientID)
	if err != nil {
		return nil, err
	}
	resp := ToClientResponse(client)
	return &resp, nil
}

// List returns a page of clients
func (s *ClientService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ClientResponse, int64, error) {
	clients, total, err := s.ledger.ListClients(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ClientResponse, len(clients))
	for i, c := range clients {
		out[i] = ToClientResponse(c)
	}
	return out, total, nil
}

// History returns the client's entries oldest first
func (s *ClientService) History(ctx context.Context, tenantID, clientID uuid.UUID) ([]PointTransactionResponse, error) {
	history, err := s.ledger.History(ctx, tenantID, clientID)
	if err != nil {
		return nil, err
	}
	return ToPointTransactionResponses(history), nil
}

// Audit replays the client's history against its stored balance
func (s *ClientService) Audit(ctx context.Context, tenantID, clientID uuid.UUID) (*LedgerAudit, error) {
	return s.ledger.Audit(ctx, tenantID, clientID)
}
