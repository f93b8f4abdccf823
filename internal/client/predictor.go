package client

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"meadow/pkg/core"
)

// ===== 预测与纠偏配置 =====
const (
	// DivergenceThreshold 预测位置与权威位置的距离阈值（单位）
	// 小于阈值信任本地预测，避免可见抖动；大于阈值启动平滑拉回
	DivergenceThreshold = 100.0

	// CorrectionStep 纠偏轨迹每帧推进的进度（固定步长，非时间缩放）
	CorrectionStep = 0.2
)

// AuthoritativeSnapshot 最近一次服务器确认的本地玩家状态
// 由网络层异步推送，到达即整体替换，从不逐字段合并
type AuthoritativeSnapshot struct {
	Seq      uint32
	Position mgl64.Vec2
	Facing   core.Facing
	Flags    core.ServerFlags
}

// correctionTrajectory 纠偏轨迹，仅在纠偏进行中存在
type correctionTrajectory struct {
	start    mgl64.Vec2
	target   mgl64.Vec2
	progress float64 // ∈ [0,1]
}

// Predictor 本地预测与权威纠偏
// 独占持有 MotionState；收到权威快照时检测偏差，超阈值则用
// ease-out-cubic 轨迹平滑拉回，而不是直接瞬移
type Predictor struct {
	state       core.MotionState
	flags       core.ServerFlags
	ready       bool // 收到首个权威快照后才开始模拟
	lastSeq     uint32
	lastSnapDir core.Facing
	traj        *correctionTrajectory
	localJumpMs int64 // 本地乐观记录的起跳时刻，待快照确认
}

// NewPredictor 创建预测器，等待首个权威快照完成初始化
func NewPredictor() *Predictor {
	return &Predictor{}
}

// Ready 是否已收到首个权威快照
func (p *Predictor) Ready() bool {
	return p.ready
}

// Correcting 纠偏轨迹是否进行中
func (p *Predictor) Correcting() bool {
	return p.traj != nil
}

// State 当前预测状态（值拷贝，渲染层只读）
func (p *Predictor) State() core.MotionState {
	return p.state
}

// Flags 最近一次服务器确认的修饰状态
func (p *Predictor) Flags() core.ServerFlags {
	return p.flags
}

// NoteJump 本地起跳：立即生效豁免窗口，不等快照往返
func (p *Predictor) NoteJump(nowMs int64) {
	p.localJumpMs = nowMs
}

// ApplySnapshot 接收权威快照
// 乱序或重复的快照（seq 不增）直接丢弃；小偏差只做记账，
// 大偏差从当前位置（可能已部分纠偏）重启轨迹，从不排队多条纠偏
func (p *Predictor) ApplySnapshot(s AuthoritativeSnapshot) {
	if p.ready && s.Seq <= p.lastSeq {
		return
	}
	p.lastSeq = s.Seq
	p.flags = s.Flags

	target := core.ClampToWorld(s.Position)

	if !p.ready {
		p.ready = true
		p.lastSnapDir = s.Facing
		p.state = core.MotionState{Position: target, Facing: s.Facing}
		return
	}

	// 朝向独立于纠偏状态：快照朝向变化即采纳
	if s.Facing != p.lastSnapDir {
		p.lastSnapDir = s.Facing
		p.state.Facing = s.Facing
	}

	if target.Sub(p.state.Position).Len() <= DivergenceThreshold {
		return
	}
	p.traj = &correctionTrajectory{start: p.state.Position, target: target}
}

// Advance 推进一帧：纠偏轨迹优先，否则执行本地模拟
func (p *Predictor) Advance(in core.MoveInput, nowMs int64, dt float64) {
	if !p.ready {
		return
	}
	if p.traj != nil {
		p.stepCorrection()
		return
	}
	flags := p.flags
	if p.localJumpMs > flags.JumpStartMs {
		flags.JumpStartMs = p.localJumpMs
	}
	core.Step(&p.state, in, flags, nowMs, dt)
}

// stepCorrection 推进纠偏轨迹一步
// ease-out-cubic：先快后慢，拉回过程不显突兀
func (p *Predictor) stepCorrection() {
	t := p.traj
	t.progress += CorrectionStep
	if t.progress >= 1 {
		p.state.Position = t.target
		p.traj = nil
		return
	}
	ease := 1 - math.Pow(1-t.progress, 3)
	p.state.Position = t.start.Add(t.target.Sub(t.start).Mul(ease))
}
