package fixtures

import (
	"errors"
	"fmt"

	"github.com/kiroku-io/kiroku/aggregate"
	"github.com/kiroku-io/kiroku/id"
)

// OpenAccount is a test command that opens a bank account.
type OpenAccount struct {
	AccountID string
	Owner     string
}

// MessageName returns a unique name for the message type.
func (OpenAccount) MessageName() string { return "fixtures.OpenAccount" }

// AggregateID returns the ID of the account that the command targets.
func (c OpenAccount) AggregateID() string { return c.AccountID }

// Deposit is a test command that deposits funds into an account.
type Deposit struct {
	AccountID string
	Amount    int64
}

// MessageName returns a unique name for the message type.
func (Deposit) MessageName() string { return "fixtures.Deposit" }

// AggregateID returns the ID of the account that the command targets.
func (c Deposit) AggregateID() string { return c.AccountID }

// Withdraw is a test command that withdraws funds from an account.
type Withdraw struct {
	AccountID string
	Amount    int64
}

// MessageName returns a unique name for the message type.
func (Withdraw) MessageName() string { return "fixtures.Withdraw" }

// AggregateID returns the ID of the account that the command targets.
func (c Withdraw) AggregateID() string { return c.AccountID }

// CloseAccount is a test command that closes an account.
type CloseAccount struct {
	AccountID string
}

// MessageName returns a unique name for the message type.
func (CloseAccount) MessageName() string { return "fixtures.CloseAccount" }

// AggregateID returns the ID of the account that the command targets.
func (c CloseAccount) AggregateID() string { return c.AccountID }

// AccountOpened is a test domain event recorded when an account is opened.
//
// It indexes the account under its owner's name, and produces an integration
// event for external consumers.
type AccountOpened struct {
	ID        id.EventID
	AccountID string
	Owner     string
}

// MessageName returns a unique name for the message type.
func (AccountOpened) MessageName() string { return "fixtures.AccountOpened" }

// EventID returns the event's unique identifier.
func (e AccountOpened) EventID() id.EventID { return e.ID }

// EventType returns the portable name of the event type.
func (AccountOpened) EventType() string { return "account-opened" }

// IndexKeywords returns the keywords under which the account should be
// discoverable.
func (e AccountOpened) IndexKeywords() []string { return []string{e.Owner} }

// IntegrationEvents returns the integration events to publish as a result of
// this event.
func (e AccountOpened) IntegrationEvents() []aggregate.IntegrationEvent {
	return []aggregate.IntegrationEvent{
		AccountOpenedNotice{
			ID:        e.ID.String(),
			AccountID: e.AccountID,
			Owner:     e.Owner,
		},
	}
}

// FundsDeposited is a test domain event recorded when funds are deposited.
type FundsDeposited struct {
	ID        id.EventID
	AccountID string
	Amount    int64
}

// MessageName returns a unique name for the message type.
func (FundsDeposited) MessageName() string { return "fixtures.FundsDeposited" }

// EventID returns the event's unique identifier.
func (e FundsDeposited) EventID() id.EventID { return e.ID }

// EventType returns the portable name of the event type.
func (FundsDeposited) EventType() string { return "funds-deposited" }

// FundsWithdrawn is a test domain event recorded when funds are withdrawn.
type FundsWithdrawn struct {
	ID        id.EventID
	AccountID string
	Amount    int64
}

// MessageName returns a unique name for the message type.
func (FundsWithdrawn) MessageName() string { return "fixtures.FundsWithdrawn" }

// EventID returns the event's unique identifier.
func (e FundsWithdrawn) EventID() id.EventID { return e.ID }

// EventType returns the portable name of the event type.
func (FundsWithdrawn) EventType() string { return "funds-withdrawn" }

// AccountClosed is a test domain event recorded when an account is closed.
//
// It removes the account's owner keyword from the inverted index.
type AccountClosed struct {
	ID        id.EventID
	AccountID string
	Owner     string
}

// MessageName returns a unique name for the message type.
func (AccountClosed) MessageName() string { return "fixtures.AccountClosed" }

// EventID returns the event's unique identifier.
func (e AccountClosed) EventID() id.EventID { return e.ID }

// EventType returns the portable name of the event type.
func (AccountClosed) EventType() string { return "account-closed" }

// DeindexKeywords returns the keywords under which the account should no
// longer be discoverable.
func (e AccountClosed) DeindexKeywords() []string { return []string{e.Owner} }

// AccountOpenedNotice is a test integration event published when an account
// is opened.
type AccountOpenedNotice struct {
	ID        string
	AccountID string
	Owner     string
}

// MessageName returns a unique name for the message type.
func (AccountOpenedNotice) MessageName() string { return "fixtures.AccountOpenedNotice" }

// EventID returns the event's unique identifier.
func (e AccountOpenedNotice) EventID() string { return e.ID }

// EventType returns the portable name of the event type.
func (AccountOpenedNotice) EventType() string { return "account-opened-notice" }

// Account is a test aggregate root.
type Account struct {
	AccountID string
	Owner     string
	Balance   int64
	IsOpen    bool
}

// NewAccount returns a new account with the given ID and no recorded history.
func NewAccount(id string) *Account {
	return &Account{AccountID: id}
}

// AggregateType returns a unique name for the aggregate type.
func (*Account) AggregateType() string { return "account" }

// AggregateID returns the ID of this account.
func (a *Account) AggregateID() string { return a.AccountID }

// Handle validates c against the current state and returns the resulting
// event.
func (a *Account) Handle(c aggregate.Command) (aggregate.DomainEvent, error) {
	switch c := c.(type) {
	case OpenAccount:
		if a.IsOpen {
			return nil, errors.New("account is already open")
		}
		return AccountOpened{
			ID:        id.NewEventID(),
			AccountID: c.AccountID,
			Owner:     c.Owner,
		}, nil

	case Deposit:
		if !a.IsOpen {
			return nil, errors.New("account is not open")
		}
		return FundsDeposited{
			ID:        id.NewEventID(),
			AccountID: c.AccountID,
			Amount:    c.Amount,
		}, nil

	case Withdraw:
		if !a.IsOpen {
			return nil, errors.New("account is not open")
		}
		if c.Amount > a.Balance {
			return nil, errors.New("insufficient funds")
		}
		return FundsWithdrawn{
			ID:        id.NewEventID(),
			AccountID: c.AccountID,
			Amount:    c.Amount,
		}, nil

	case CloseAccount:
		if !a.IsOpen {
			return nil, errors.New("account is not open")
		}
		return AccountClosed{
			ID:        id.NewEventID(),
			AccountID: c.AccountID,
			Owner:     a.Owner,
		}, nil

	default:
		return nil, fmt.Errorf("unexpected command type %T", c)
	}
}

// Apply folds e into the account state.
func (a *Account) Apply(e aggregate.DomainEvent) {
	switch e := e.(type) {
	case AccountOpened:
		a.AccountID = e.AccountID
		a.Owner = e.Owner
		a.IsOpen = true

	case FundsDeposited:
		a.Balance += e.Amount

	case FundsWithdrawn:
		a.Balance -= e.Amount

	case AccountClosed:
		a.IsOpen = false

	default:
		panic(fmt.Sprintf("unexpected event type %T", e))
	}
}
