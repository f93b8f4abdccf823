package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"meadow/pkg/core"
	"meadow/pkg/protocol"
)

// 服务器配置
const (
	// ServerTPS 快照广播频率
	ServerTPS = 20

	// MaxPlayers 世界容量
	MaxPlayers = 32

	// MaxReportedSpeed 位移校验上限：基础 × 冲刺，再留 25% 裕量
	MaxReportedSpeed = core.BaseSpeed * core.SprintMultiplier * 1.25

	// ReportSlack 位移校验的固定容差（单位），吸收时钟抖动
	ReportSlack = 50.0
)

var snapshotInterval = time.Second / ServerTPS

// playerState 服务器记录的玩家状态
type playerState struct {
	id          int32
	name        string
	conn        *Connection
	pos         mgl64.Vec2
	facing      core.Facing
	crouching   bool
	jumpStartMs int64

	lastReportAt time.Time // 服务器时钟，用于位移预算
	snapSeq      uint32    // 该玩家快照的单调序号
}

// World 世界：玩家集合与固定频率的快照广播
// 校验只做位移预算裁剪——超出预算的上报被拒绝，
// 客户端会通过快照偏差触发可见的纠偏
type World struct {
	mu      sync.Mutex
	players map[int32]*playerState
	nextID  int32
	log     *zap.SugaredLogger
}

// NewWorld 创建世界
func NewWorld(log *zap.SugaredLogger) *World {
	return &World{
		players: make(map[int32]*playerState),
		log:     log,
	}
}

// Join 接纳一名新玩家，返回 ID 与出生点
func (w *World) Join(name string, conn *Connection) (int32, mgl64.Vec2, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextID++
	return w.admit(w.nextID, name, conn)
}

// Rejoin 断线重连：会话里的原 ID 未被占用且确实签发过时复用，
// 否则退化为新玩家接纳
func (w *World) Rejoin(id int32, name string, conn *Connection) (int32, mgl64.Vec2, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, taken := w.players[id]; taken || id <= 0 || id > w.nextID {
		w.nextID++
		id = w.nextID
	}
	return w.admit(id, name, conn)
}

// admit 持锁调用：容量检查、出生点分配、互相通知并登记
func (w *World) admit(id int32, name string, conn *Connection) (int32, mgl64.Vec2, error) {
	if len(w.players) >= MaxPlayers {
		return 0, mgl64.Vec2{}, fmt.Errorf("世界已满 (%d)", MaxPlayers)
	}

	spawn := core.ClampToWorld(mgl64.Vec2{
		600 + float64(id%8)*80,
		600 + float64((id/8)%8)*80,
	})

	p := &playerState{
		id:           id,
		name:         name,
		conn:         conn,
		pos:          spawn,
		facing:       core.FacingDown,
		lastReportAt: time.Now(),
	}

	// 互相通知：新人收到已有玩家，老玩家收到新人
	for _, other := range w.players {
		if data, err := protocol.NewPlayerJoin(other.id, other.name); err == nil {
			_ = conn.Send(data)
		}
		if data, err := protocol.NewPlayerJoin(id, name); err == nil {
			_ = other.conn.Send(data)
		}
	}

	w.players[id] = p
	w.log.Infow("玩家加入", "player_id", id, "name", name)
	return id, spawn, nil
}

// Leave 移除一名玩家并广播离开
func (w *World) Leave(id int32) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.players[id]; !ok {
		return
	}
	delete(w.players, id)

	for _, other := range w.players {
		if data, err := protocol.NewPlayerLeave(id); err == nil {
			_ = other.conn.Send(data)
		}
	}
	w.log.Infow("玩家离开", "player_id", id)
}

// HandleReport 处理状态上报
// 位移在预算内则采纳（边界裁剪后），超预算保留服务器位置
func (w *World) HandleReport(id int32, report protocol.StateReport) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.players[id]
	if !ok {
		return
	}

	now := time.Now()
	dt := now.Sub(p.lastReportAt).Seconds()
	p.lastReportAt = now

	target := core.ClampToWorld(mgl64.Vec2{report.X, report.Y})
	budget := MaxReportedSpeed*dt + ReportSlack

	if target.Sub(p.pos).Len() <= budget {
		p.pos = target
	} else {
		// 超出位移预算：拒绝，让客户端从快照回拉
		w.log.Debugw("位移超出预算", "player_id", id, "dt", dt)
	}
	p.facing = core.Facing(report.Facing)
}

// HandleJump 记录起跳时刻（服务器时钟）
func (w *World) HandleJump(id int32) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.players[id]; ok {
		p.jumpStartMs = time.Now().UnixMilli()
	}
}

// HandleCrouch 更新潜行状态
func (w *World) HandleCrouch(id int32, crouching bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.players[id]; ok {
		p.crouching = crouching
	}
}

// StartTicker 启动快照广播循环
func (w *World) StartTicker(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(snapshotInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.broadcast()
			}
		}
	}()
}

// broadcast 给每个连接发送所有玩家（含自己）的快照
func (w *World) broadcast() {
	w.mu.Lock()
	defer w.mu.Unlock()

	nowMs := time.Now().UnixMilli()

	for _, p := range w.players {
		p.snapSeq++
		snap := protocol.Snapshot{
			Seq:          p.snapSeq,
			PlayerID:     p.id,
			X:            p.pos[0],
			Y:            p.pos[1],
			Facing:       int32(p.facing),
			Crouching:    p.crouching,
			OnWater:      core.IsWater(p.pos),
			JumpStartMs:  p.jumpStartMs,
			ServerTimeMs: nowMs,
		}
		data, err := protocol.NewSnapshot(snap)
		if err != nil {
			continue
		}
		for _, recipient := range w.players {
			_ = recipient.conn.Send(data)
		}
	}
}

// PlayerCount 在线人数
func (w *World) PlayerCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.players)
}
