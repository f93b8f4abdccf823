package client

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"meadow/pkg/core"
)

// InputSource 输入来源（键盘实现或测试桩）
type InputSource interface {
	ReadInput() core.MoveInput
	ConsumeJump() bool
	ConsumeCrouchToggle() bool
}

// GameConn Avatar 对网络层的依赖
type GameConn interface {
	StateSender
	PollSnapshot() (AuthoritativeSnapshot, bool)
	SendJump(clientTimeMs uint64) error
	SendCrouchToggle(crouching bool) error
}

// AvatarView 渲染层每帧读取的只读视图
type AvatarView struct {
	Ready      bool
	Position   mgl64.Vec2
	Facing     core.Facing
	Correcting bool
	Crouching  bool
	OnWater    bool
}

// Avatar 本地角色：把输入、预测、纠偏、上行和诊断编排进一帧
// 单线程协作式调度，由渲染循环的回调驱动，帧内无挂起点
type Avatar struct {
	predictor *Predictor
	uplink    *Uplink
	diag      *Diagnostics
	input     InputSource
	conn      GameConn
	log       *zap.SugaredLogger

	lastTick time.Time
}

// NewAvatar 创建本地角色编排器
func NewAvatar(input InputSource, conn GameConn, diag *Diagnostics, log *zap.SugaredLogger) *Avatar {
	return &Avatar{
		predictor: NewPredictor(),
		uplink:    NewUplink(conn, log),
		diag:      diag,
		input:     input,
		conn:      conn,
		log:       log,
	}
}

// Tick 每帧推进一次
// 帧内顺序固定：读输入 → 模拟/纠偏推进 → 消化权威快照 →
// 上行调度 → 诊断记录
func (a *Avatar) Tick(now time.Time) {
	started := time.Now()

	dt := 0.0
	if !a.lastTick.IsZero() {
		dt = now.Sub(a.lastTick).Seconds()
	}
	a.lastTick = now
	nowMs := now.UnixMilli()

	in := a.input.ReadInput()

	if a.input.ConsumeJump() {
		// 本地立即生效，服务器确认经快照回流
		a.predictor.NoteJump(nowMs)
		if err := a.conn.SendJump(uint64(nowMs)); err != nil {
			a.log.Debugw("起跳上报失败", "err", err)
		}
	}
	if a.input.ConsumeCrouchToggle() {
		want := !a.predictor.Flags().Crouching
		if err := a.conn.SendCrouchToggle(want); err != nil {
			a.log.Debugw("潜行切换上报失败", "err", err)
		}
	}

	a.predictor.Advance(in, nowMs, dt)

	// 快照异步到达，循环取尽；最新一份胜出，乱序在预测器内按 seq 丢弃
	for {
		s, ok := a.conn.PollSnapshot()
		if !ok {
			break
		}
		a.predictor.ApplySnapshot(s)
	}

	sent, rejected := false, false
	if a.predictor.Ready() {
		st := a.predictor.State()
		a.uplink.Offer(st.Position, in, st.Facing, nowMs)
		sent, rejected = a.uplink.Flush(now)
	}
	// 前置条件不满足时本帧仅记录为未发送，不视为错误
	a.diag.Record(now, time.Since(started), sent, rejected)
}

// View 渲染层只读视图（值拷贝，无失效通知机制）
func (a *Avatar) View() AvatarView {
	st := a.predictor.State()
	flags := a.predictor.Flags()
	return AvatarView{
		Ready:      a.predictor.Ready(),
		Position:   st.Position,
		Facing:     st.Facing,
		Correcting: a.predictor.Correcting(),
		Crouching:  flags.Crouching,
		OnWater:    flags.OnWater,
	}
}

// Position 当前预测位置（相机跟随用）
func (a *Avatar) Position() mgl64.Vec2 {
	return a.predictor.State().Position
}
