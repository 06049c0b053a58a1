package port

import (
	"context"

	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
)

// CaseRecordSource delivers the raw case records of both health-plan systems
type CaseRecordSource interface {
	FetchCaseRecords(ctx context.Context) ([]entity.RawRecord, error)
}

// Lark receive id types
const (
	ReceiveIDOpenID = "open_id"
	ReceiveIDUserID = "user_id"
	ReceiveIDEmail  = "email"
)

// MessageSender delivers plain-text staff messages
type MessageSender interface {
	SendText(ctx context.Context, receiveIDType, receiveID, text string) error
}
