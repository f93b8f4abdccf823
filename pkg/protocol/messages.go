package protocol

// MessageType 消息类型
type MessageType string

const (
	TypeJoinRequest  MessageType = "join_request"
	TypeJoinAccept   MessageType = "join_accept"
	TypeStateReport  MessageType = "state_report"
	TypeSnapshot     MessageType = "snapshot"
	TypeJumpAction   MessageType = "jump_action"
	TypeCrouchToggle MessageType = "crouch_toggle"
	TypePlayerJoin   MessageType = "player_join"
	TypePlayerLeave  MessageType = "player_leave"
	TypePing         MessageType = "ping"
	TypePong         MessageType = "pong"
	TypeError        MessageType = "error"
)

// JoinRequest 客户端加入请求（token 仅在重连时携带）
type JoinRequest struct {
	Name  string `json:"name"`
	Token string `json:"token,omitempty"`
}

// JoinAccept 服务器确认加入
type JoinAccept struct {
	PlayerID     int32   `json:"player_id"`
	Token        string  `json:"token"`
	SpawnX       float64 `json:"spawn_x"`
	SpawnY       float64 `json:"spawn_y"`
	ServerTimeMs int64   `json:"server_time_ms"`
}

// StateReport 客户端状态上报（≤30Hz，只带最新状态）
type StateReport struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	ClientTimeMs uint64  `json:"client_time_ms"`
	Sprinting    bool    `json:"sprinting"` // 有效冲刺：按住冲刺且确实在移动
	Facing       int32   `json:"facing"`
}

// Snapshot 服务器权威快照，整体替换客户端的上一份
// Seq 单调递增，用于丢弃乱序或重复的快照
type Snapshot struct {
	Seq          uint32  `json:"seq"`
	PlayerID     int32   `json:"player_id"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Facing       int32   `json:"facing"`
	Crouching    bool    `json:"crouching"`
	OnWater      bool    `json:"on_water"`
	JumpStartMs  int64   `json:"jump_start_ms"`
	ServerTimeMs int64   `json:"server_time_ms"`
}

// JumpAction 起跳动作
type JumpAction struct {
	ClientTimeMs uint64 `json:"client_time_ms"`
}

// CrouchToggle 潜行开关（服务器确认后才生效）
type CrouchToggle struct {
	Crouching bool `json:"crouching"`
}

// PlayerJoin 其他玩家加入
type PlayerJoin struct {
	PlayerID int32  `json:"player_id"`
	Name     string `json:"name"`
}

// PlayerLeave 其他玩家离开
type PlayerLeave struct {
	PlayerID int32 `json:"player_id"`
}

// Ping / Pong 往返时延探测
type Ping struct {
	ClientTimeMs int64 `json:"client_time_ms"`
}

type Pong struct {
	ClientTimeMs int64 `json:"client_time_ms"`
	ServerTimeMs int64 `json:"server_time_ms"`
}

// ErrorMessage 服务器侧错误提示
type ErrorMessage struct {
	Reason string `json:"reason"`
}
