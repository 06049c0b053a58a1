package lark

import (
	"context"
	"encoding/json"
	"fmt"

	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/garyjia/calaim-taskhub/internal/application/port"
)

// createMessageFunc posts one message body addressed by receiveIDType
type createMessageFunc func(ctx context.Context, receiveIDType string, body *larkim.CreateMessageReqBody) (*larkim.CreateMessageResp, error)

// Messenger implements port.MessageSender over the Lark IM API
type Messenger struct {
	create createMessageFunc
	logger *zap.Logger
}

// NewMessenger creates a new Lark message sender
func NewMessenger(sdk *SDKClient, logger *zap.Logger) *Messenger {
	return &Messenger{
		create: func(ctx context.Context, receiveIDType string, body *larkim.CreateMessageReqBody) (*larkim.CreateMessageResp, error) {
			req := larkim.NewCreateMessageReqBuilder().
				ReceiveIdType(receiveIDType).
				Body(body).
				Build()
			return sdk.GetClient().Im.Message.Create(ctx, req)
		},
		logger: logger,
	}
}

// SendText sends a plain-text message
func (m *Messenger) SendText(ctx context.Context, receiveIDType, receiveID, text string) error {
	if receiveID == "" {
		return fmt.Errorf("receive id cannot be empty")
	}
	if text == "" {
		return fmt.Errorf("content cannot be empty")
	}

	content, err := textContent(text)
	if err != nil {
		return err
	}

	body := larkim.NewCreateMessageReqBodyBuilder().
		ReceiveId(receiveID).
		MsgType(larkim.MsgTypeText).
		Content(content).
		Build()

	resp, err := m.create(ctx, receiveIDType, body)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("receive_id", receiveID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("receive_id", receiveID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	m.logger.Info("Message sent successfully",
		zap.String("message_id", messageID),
		zap.String("receive_id_type", receiveIDType))
	return nil
}

// textContent renders the Lark text message body
func textContent(text string) (string, error) {
	b, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}
	return string(b), nil
}

var _ port.MessageSender = (*Messenger)(nil)
