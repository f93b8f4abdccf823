package core

import "github.com/go-gl/mathgl/mgl64"

// MotionState 本地预测的角色状态（纯逻辑，不包含渲染）
// 位置只由本地模拟器和纠偏器写入，渲染层只读
type MotionState struct {
	Position mgl64.Vec2
	Facing   Facing
}

// MoveInput 一帧内的移动输入（方向向量已归一化，与帧率无关）
type MoveInput struct {
	Direction mgl64.Vec2
	Sprinting bool
}

// ServerFlags 服务器确认的修饰状态，随权威快照整体下发
type ServerFlags struct {
	Crouching   bool
	OnWater     bool
	JumpStartMs int64 // 起跳时刻（毫秒），0 表示从未起跳
}

// Moving 输入是否超出死区
func (in MoveInput) Moving() bool {
	return in.Direction.Len() >= InputDeadzone
}

// EffectiveSpeed 组合速度乘数：基础 × 冲刺 × 潜行 × 水面
// 起跳后 JumpGraceMs 内豁免水面减速
func EffectiveSpeed(in MoveInput, flags ServerFlags, nowMs int64) float64 {
	speed := float64(BaseSpeed)
	if in.Sprinting {
		speed *= SprintMultiplier
	}
	if flags.Crouching {
		speed *= CrouchMultiplier
	}
	if flags.OnWater && nowMs-flags.JumpStartMs >= JumpGraceMs {
		speed *= WaterMultiplier
	}
	return speed
}

// Step 推进一帧本地模拟
// 纯函数式更新：不阻塞、不分配、不失败，每帧必须执行
func Step(st *MotionState, in MoveInput, flags ServerFlags, nowMs int64, dt float64) {
	if dt > MaxDeltaTime {
		dt = MaxDeltaTime
	}
	if dt <= 0 {
		return
	}
	if !in.Moving() {
		// 死区内不移动，朝向保持不变
		return
	}

	dir := in.Direction.Normalize()
	speed := EffectiveSpeed(in, flags, nowMs)
	st.Position = ClampToWorld(st.Position.Add(dir.Mul(speed * dt)))
	st.Facing = FacingOf(dir)
}

// ClampToWorld 将位置按分量约束到世界边界内
func ClampToWorld(p mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		clamp(p[0], AvatarRadius, WorldSize-AvatarRadius),
		clamp(p[1], AvatarRadius, WorldSize-AvatarRadius),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
