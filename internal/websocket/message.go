package websocket

import (
	"bytes"
	"encoding/json"
	"errors"
)

// OutgoingMessage 序列化为扁平结构 {"type": ..., <Data 的字段>...}
type OutgoingMessage struct {
	Type string
	Data any
}

func (m OutgoingMessage) MarshalJSON() ([]byte, error) {
	typ, err := json.Marshal(m.Type)
	if err != nil {
		return nil, err
	}
	if m.Data == nil {
		return []byte(`{"type":` + string(typ) + `}`), nil
	}
	data, err := json.Marshal(m.Data)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, err
		}
	} else {
		fields["data"] = trimmed
	}
	fields["type"] = typ
	return json.Marshal(fields)
}

// IncomingMessage 客户端上行消息；Raw 保存完整原始帧，按 Type 再解码
type IncomingMessage struct {
	From string
	Type string
	Raw  json.RawMessage
}

var ErrMissingType = errors.New("message has no type")

func ParseIncoming(from string, frame []byte) (IncomingMessage, error) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(frame, &base); err != nil {
		return IncomingMessage{}, err
	}
	if base.Type == "" {
		return IncomingMessage{}, ErrMissingType
	}
	return IncomingMessage{From: from, Type: base.Type, Raw: json.RawMessage(frame)}, nil
}

// Decode 把原始帧解码到 v
func (m IncomingMessage) Decode(v any) error {
	return json.Unmarshal(m.Raw, v)
}
