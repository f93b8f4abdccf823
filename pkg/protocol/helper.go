package protocol

import (
	"encoding/json"
	"fmt"
)

// Packet 统一包裹：类型 + 负载
type Packet struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Marshal 序列化一条消息为线上字节
func Marshal(t MessageType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化负载失败: %w", err)
	}
	data, err := json.Marshal(Packet{Type: t, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("序列化包失败: %w", err)
	}
	return data, nil
}

// Unmarshal 解析线上字节为 Packet
func Unmarshal(data []byte) (*Packet, error) {
	var pkt Packet
	if err := json.Unmarshal(data, &pkt); err != nil {
		return nil, fmt.Errorf("解析包失败: %w", err)
	}
	if pkt.Type == "" {
		return nil, fmt.Errorf("缺少消息类型")
	}
	return &pkt, nil
}

// Decode 将负载解析到目标结构
func (p *Packet) Decode(v any) error {
	if err := json.Unmarshal(p.Payload, v); err != nil {
		return fmt.Errorf("解析 %s 负载失败: %w", p.Type, err)
	}
	return nil
}

// ========== 构造函数 ==========

func NewJoinRequest(name, token string) ([]byte, error) {
	return Marshal(TypeJoinRequest, JoinRequest{Name: name, Token: token})
}

func NewJoinAccept(accept JoinAccept) ([]byte, error) {
	return Marshal(TypeJoinAccept, accept)
}

func NewStateReport(report StateReport) ([]byte, error) {
	return Marshal(TypeStateReport, report)
}

func NewSnapshot(snapshot Snapshot) ([]byte, error) {
	return Marshal(TypeSnapshot, snapshot)
}

func NewJumpAction(clientTimeMs uint64) ([]byte, error) {
	return Marshal(TypeJumpAction, JumpAction{ClientTimeMs: clientTimeMs})
}

func NewCrouchToggle(crouching bool) ([]byte, error) {
	return Marshal(TypeCrouchToggle, CrouchToggle{Crouching: crouching})
}

func NewPlayerJoin(playerID int32, name string) ([]byte, error) {
	return Marshal(TypePlayerJoin, PlayerJoin{PlayerID: playerID, Name: name})
}

func NewPlayerLeave(playerID int32) ([]byte, error) {
	return Marshal(TypePlayerLeave, PlayerLeave{PlayerID: playerID})
}

func NewError(reason string) ([]byte, error) {
	return Marshal(TypeError, ErrorMessage{Reason: reason})
}
