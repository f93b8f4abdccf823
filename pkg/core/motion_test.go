package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepDisplacementMatchesEffectiveSpeed(t *testing.T) {
	st := MotionState{Position: mgl64.Vec2{3000, 3000}}
	in := MoveInput{Direction: mgl64.Vec2{1, 0}}

	before := st.Position
	Step(&st, in, ServerFlags{}, 0, 0.05)

	require.InDelta(t, BaseSpeed*0.05, st.Position.Sub(before).Len(), 1e-9)
}

func TestStepSustainedSecond(t *testing.T) {
	// 持续 1 秒向右移动，基础速度 400，无修饰 → x 前进 400
	st := MotionState{Position: mgl64.Vec2{3000, 3000}}
	in := MoveInput{Direction: mgl64.Vec2{1, 0}}

	for i := 0; i < 100; i++ {
		Step(&st, in, ServerFlags{}, 0, 0.01)
	}

	require.InDelta(t, 3400, st.Position[0], 1e-6)
	require.InDelta(t, 3000, st.Position[1], 1e-9)
}

func TestEffectiveSpeed(t *testing.T) {
	const nowMs = 100_000

	tests := []struct {
		name  string
		in    MoveInput
		flags ServerFlags
		want  float64
	}{
		{
			name: "no modifiers",
			want: 400,
		},
		{
			name: "sprint doubles",
			in:   MoveInput{Sprinting: true},
			want: 800,
		},
		{
			name:  "sprint and crouch cancel out",
			in:    MoveInput{Sprinting: true},
			flags: ServerFlags{Crouching: true},
			want:  400,
		},
		{
			name:  "water halves without jump",
			flags: ServerFlags{OnWater: true},
			want:  200,
		},
		{
			name:  "jump grace suppresses water penalty",
			flags: ServerFlags{OnWater: true, JumpStartMs: nowMs - 200},
			want:  400,
		},
		{
			name:  "water penalty returns after grace",
			flags: ServerFlags{OnWater: true, JumpStartMs: nowMs - 600},
			want:  200,
		},
		{
			name:  "crouch on water stacks",
			flags: ServerFlags{Crouching: true, OnWater: true},
			want:  100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EffectiveSpeed(tt.in, tt.flags, nowMs), 1e-9)
		})
	}
}

func TestStepDeadzoneKeepsPositionAndFacing(t *testing.T) {
	st := MotionState{Position: mgl64.Vec2{3000, 3000}, Facing: FacingLeft}
	in := MoveInput{Direction: mgl64.Vec2{0.001, 0.001}}

	Step(&st, in, ServerFlags{}, 0, 0.016)

	assert.Equal(t, mgl64.Vec2{3000, 3000}, st.Position)
	assert.Equal(t, FacingLeft, st.Facing)
}

func TestStepClampsDeltaTime(t *testing.T) {
	// 卡顿后超长 dt 按 0.1 秒封顶
	st := MotionState{Position: mgl64.Vec2{3000, 3000}}
	in := MoveInput{Direction: mgl64.Vec2{1, 0}}

	Step(&st, in, ServerFlags{}, 0, 0.5)

	require.InDelta(t, 3000+BaseSpeed*MaxDeltaTime, st.Position[0], 1e-9)
}

func TestStepStaysInWorldBounds(t *testing.T) {
	st := MotionState{Position: mgl64.Vec2{AvatarRadius + 5, AvatarRadius + 5}}
	in := MoveInput{Direction: mgl64.Vec2{-0.70710678, -0.70710678}, Sprinting: true}

	for i := 0; i < 200; i++ {
		Step(&st, in, ServerFlags{}, 0, 0.1)
		assert.GreaterOrEqual(t, st.Position[0], float64(AvatarRadius))
		assert.GreaterOrEqual(t, st.Position[1], float64(AvatarRadius))
	}
	assert.Equal(t, mgl64.Vec2{AvatarRadius, AvatarRadius}, st.Position)

	st.Position = mgl64.Vec2{WorldSize - AvatarRadius - 5, WorldSize - AvatarRadius - 5}
	in.Direction = mgl64.Vec2{0.70710678, 0.70710678}
	for i := 0; i < 200; i++ {
		Step(&st, in, ServerFlags{}, 0, 0.1)
		assert.LessOrEqual(t, st.Position[0], WorldSize-AvatarRadius)
		assert.LessOrEqual(t, st.Position[1], WorldSize-AvatarRadius)
	}
}

func TestFacingOf(t *testing.T) {
	tests := []struct {
		name string
		dir  mgl64.Vec2
		want Facing
	}{
		{"up", mgl64.Vec2{0, -1}, FacingUp},
		{"down", mgl64.Vec2{0, 1}, FacingDown},
		{"left", mgl64.Vec2{-1, 0}, FacingLeft},
		{"right", mgl64.Vec2{1, 0}, FacingRight},
		{"up-left", mgl64.Vec2{-0.7, -0.7}, FacingUpLeft},
		{"up-right", mgl64.Vec2{0.7, -0.7}, FacingUpRight},
		{"down-left", mgl64.Vec2{-0.7, 0.7}, FacingDownLeft},
		{"down-right", mgl64.Vec2{0.7, 0.7}, FacingDownRight},
		// 摇杆漂移：次轴超出死区但远小于主导轴，仍判四向
		{"drift stays right", mgl64.Vec2{1, 0.05}, FacingRight},
		{"drift stays down", mgl64.Vec2{0.05, 1}, FacingDown},
		{"dominant left", mgl64.Vec2{-1, 0.4}, FacingLeft},
		{"comparable axes diagonal", mgl64.Vec2{0.6, 0.7}, FacingDownRight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FacingOf(tt.dir))
		})
	}
}

func TestIsWater(t *testing.T) {
	assert.True(t, IsWater(mgl64.Vec2{2800, 1000}))
	assert.True(t, IsWater(mgl64.Vec2{4500, 5000}))
	assert.False(t, IsWater(mgl64.Vec2{1000, 1000}))
	assert.False(t, IsWater(mgl64.Vec2{3500, 1000}))
}
