package domain

import "context"

// TicketJournal is an append-only audit log of submitted tickets.
type TicketJournal interface {
	SaveTicket(ctx context.Context, ticket *Ticket) error
	ListTickets(ctx context.Context, limit int) ([]*Ticket, error)
}
