package lark

import (
	"context"
	"errors"
	"testing"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTextContent_Escapes(t *testing.T) {
	content, err := textContent("Ana \"L\"\nT2038 Requested -> Need First Contact")
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"Ana \"L\"\nT2038 Requested -> Need First Contact"}`, content)
}

func TestMessenger_SendText(t *testing.T) {
	var (
		got     *larkim.CreateMessageReqBody
		gotType string
	)
	messageID := "om_1"
	m := &Messenger{
		logger: zap.NewNop(),
		create: func(ctx context.Context, receiveIDType string, body *larkim.CreateMessageReqBody) (*larkim.CreateMessageResp, error) {
			got, gotType = body, receiveIDType
			return &larkim.CreateMessageResp{Data: &larkim.CreateMessageRespData{MessageId: &messageID}}, nil
		},
	}

	require.NoError(t, m.SendText(context.Background(), "email", "maria@example.org", "hello"))
	require.NotNil(t, got)
	assert.Equal(t, "email", gotType)
	require.NotNil(t, got.ReceiveId)
	assert.Equal(t, "maria@example.org", *got.ReceiveId)
	require.NotNil(t, got.MsgType)
	assert.Equal(t, larkim.MsgTypeText, *got.MsgType)
	require.NotNil(t, got.Content)
	assert.JSONEq(t, `{"text":"hello"}`, *got.Content)
}

func TestMessenger_Failures(t *testing.T) {
	boom := errors.New("network down")

	m := &Messenger{logger: zap.NewNop(), create: func(ctx context.Context, receiveIDType string, body *larkim.CreateMessageReqBody) (*larkim.CreateMessageResp, error) {
		return nil, boom
	}}
	assert.ErrorIs(t, m.SendText(context.Background(), "open_id", "ou_1", "x"), boom)
	assert.Error(t, m.SendText(context.Background(), "open_id", "", "x"))
	assert.Error(t, m.SendText(context.Background(), "open_id", "ou_1", ""))

	m.create = func(ctx context.Context, receiveIDType string, body *larkim.CreateMessageReqBody) (*larkim.CreateMessageResp, error) {
		return &larkim.CreateMessageResp{CodeError: larkcore.CodeError{Code: 230002, Msg: "bot not in chat"}}, nil
	}
	assert.ErrorContains(t, m.SendText(context.Background(), "open_id", "ou_1", "x"), "code=230002")
}
