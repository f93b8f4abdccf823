package client

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meadow/pkg/core"
)

func snapAt(seq uint32, x, y float64) AuthoritativeSnapshot {
	return AuthoritativeSnapshot{Seq: seq, Position: mgl64.Vec2{x, y}}
}

// initPredictor 用首份快照把预测器初始化到指定位置
func initPredictor(t *testing.T, x, y float64) *Predictor {
	t.Helper()
	p := NewPredictor()
	p.ApplySnapshot(snapAt(1, x, y))
	require.True(t, p.Ready())
	require.Equal(t, mgl64.Vec2{x, y}, p.State().Position)
	return p
}

func TestFirstSnapshotInitializes(t *testing.T) {
	p := NewPredictor()
	require.False(t, p.Ready())

	p.ApplySnapshot(AuthoritativeSnapshot{
		Seq:      1,
		Position: mgl64.Vec2{1000, 2000},
		Facing:   core.FacingUp,
	})

	assert.True(t, p.Ready())
	assert.Equal(t, mgl64.Vec2{1000, 2000}, p.State().Position)
	assert.Equal(t, core.FacingUp, p.State().Facing)
	assert.False(t, p.Correcting())
}

func TestSmallDivergenceTrustsLocalPrediction(t *testing.T) {
	p := initPredictor(t, 1000, 1000)

	// 偏差恰好在阈值上：只做记账，位置不动
	p.ApplySnapshot(snapAt(2, 1100, 1000))

	assert.Equal(t, mgl64.Vec2{1000, 1000}, p.State().Position)
	assert.False(t, p.Correcting())
}

func TestLargeDivergenceStartsCorrection(t *testing.T) {
	p := initPredictor(t, 1000, 1000)

	p.ApplySnapshot(snapAt(2, 1150, 1000))

	assert.True(t, p.Correcting())
	// 轨迹启动当帧位置不变，下一帧才推进
	assert.Equal(t, mgl64.Vec2{1000, 1000}, p.State().Position)
}

func TestCorrectionConvergesInFiveTicks(t *testing.T) {
	p := initPredictor(t, 1000, 1000)
	p.ApplySnapshot(snapAt(2, 1150, 1000))

	for i := 0; i < 5; i++ {
		require.True(t, p.Correcting())
		p.Advance(core.MoveInput{}, 0, 1.0/60)
	}

	assert.Equal(t, mgl64.Vec2{1150, 1000}, p.State().Position)
	assert.False(t, p.Correcting())
}

func TestCorrectionErrorCurve(t *testing.T) {
	// n 步后剩余误差 = (1-0.2n)^3 × 初始距离
	const initial = 150.0
	p := initPredictor(t, 1000, 1000)
	p.ApplySnapshot(snapAt(2, 1000+initial, 1000))

	target := mgl64.Vec2{1000 + initial, 1000}
	for n := 1; n <= 4; n++ {
		p.Advance(core.MoveInput{}, 0, 1.0/60)
		want := math.Pow(1-0.2*float64(n), 3) * initial
		assert.InDelta(t, want, target.Sub(p.State().Position).Len(), 1e-9, "after %d ticks", n)
	}
}

func TestRedivergenceRestartsFromPartialPosition(t *testing.T) {
	p := initPredictor(t, 1000, 1000)
	p.ApplySnapshot(snapAt(2, 1150, 1000))

	// 推进两步后轨迹过半
	p.Advance(core.MoveInput{}, 0, 1.0/60)
	p.Advance(core.MoveInput{}, 0, 1.0/60)
	partial := p.State().Position

	// 第二个偏差事件：丢弃旧轨迹，从当前部分纠偏的位置重新出发
	newTarget := mgl64.Vec2{1000, 1300}
	p.ApplySnapshot(snapAt(3, newTarget[0], newTarget[1]))
	require.True(t, p.Correcting())
	assert.Equal(t, partial, p.State().Position)

	p.Advance(core.MoveInput{}, 0, 1.0/60)
	ease := 1 - math.Pow(1-CorrectionStep, 3)
	want := partial.Add(newTarget.Sub(partial).Mul(ease))
	assert.InDelta(t, want[0], p.State().Position[0], 1e-9)
	assert.InDelta(t, want[1], p.State().Position[1], 1e-9)

	for i := 0; i < 4; i++ {
		p.Advance(core.MoveInput{}, 0, 1.0/60)
	}
	assert.Equal(t, newTarget, p.State().Position)
	assert.False(t, p.Correcting())
}

func TestStaleSnapshotDiscarded(t *testing.T) {
	p := initPredictor(t, 1000, 1000)
	p.ApplySnapshot(snapAt(5, 1010, 1000))

	// 乱序到达的旧快照（seq 不增）不得触发纠偏
	p.ApplySnapshot(snapAt(4, 5000, 5000))
	p.ApplySnapshot(snapAt(5, 5000, 5000))

	assert.False(t, p.Correcting())
	assert.Equal(t, mgl64.Vec2{1000, 1000}, p.State().Position)
}

func TestInputSuspendedDuringCorrection(t *testing.T) {
	p := initPredictor(t, 1000, 1000)
	p.ApplySnapshot(snapAt(2, 1200, 1000))

	// 纠偏期间输入驱动的积分被挂起：纵向输入不产生纵向位移
	p.Advance(core.MoveInput{Direction: mgl64.Vec2{0, 1}}, 0, 1.0/60)

	assert.InDelta(t, 1000, p.State().Position[1], 1e-9)
}

func TestFacingAdoptedFromSnapshot(t *testing.T) {
	p := initPredictor(t, 1000, 1000)

	p.ApplySnapshot(AuthoritativeSnapshot{Seq: 2, Position: mgl64.Vec2{1010, 1000}, Facing: core.FacingLeft})
	assert.Equal(t, core.FacingLeft, p.State().Facing)

	// 本地模拟改变朝向后，快照朝向未变化时不覆盖本地值
	p.Advance(core.MoveInput{Direction: mgl64.Vec2{1, 0}}, 0, 1.0/60)
	require.Equal(t, core.FacingRight, p.State().Facing)
	p.ApplySnapshot(AuthoritativeSnapshot{Seq: 3, Position: mgl64.Vec2{1020, 1000}, Facing: core.FacingLeft})
	assert.Equal(t, core.FacingRight, p.State().Facing)
}

func TestLocalJumpSuppressesWaterPenalty(t *testing.T) {
	const nowMs = 100_000
	p := NewPredictor()
	p.ApplySnapshot(AuthoritativeSnapshot{
		Seq:      1,
		Position: mgl64.Vec2{2800, 1000},
		Flags:    core.ServerFlags{OnWater: true},
	})

	// 未起跳：水面减半
	p.Advance(core.MoveInput{Direction: mgl64.Vec2{0, 1}}, nowMs, 0.1)
	assert.InDelta(t, 1000+core.BaseSpeed*core.WaterMultiplier*0.1, p.State().Position[1], 1e-9)

	// 本地乐观起跳：豁免窗口立即生效，不等快照确认
	p.NoteJump(nowMs)
	before := p.State().Position[1]
	p.Advance(core.MoveInput{Direction: mgl64.Vec2{0, 1}}, nowMs+100, 0.1)
	assert.InDelta(t, before+core.BaseSpeed*0.1, p.State().Position[1], 1e-9)
}
