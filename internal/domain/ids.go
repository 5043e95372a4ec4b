package domain

import "github.com/google/uuid"

type (
	FundID        string
	AccountID     string
	PeriodID      string
	EventID       string
	TransactionID string
)

func NewFundID() FundID               { return FundID(uuid.NewString()) }
func NewAccountID() AccountID         { return AccountID(uuid.NewString()) }
func NewPeriodID() PeriodID           { return PeriodID(uuid.NewString()) }
func NewEventID() EventID             { return EventID(uuid.NewString()) }
func NewTransactionID() TransactionID { return TransactionID(uuid.NewString()) }
