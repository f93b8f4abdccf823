package client

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestRemoteAvatarInterpolatesBetweenSamples(t *testing.T) {
	r := NewRemoteAvatar(2, "other")
	r.AddSample(1000, 0, 0, 0)
	r.AddSample(1100, 100, 0, 0)

	// 渲染时间 = 1150 - 延迟 100 = 1050，恰在两样本正中
	r.Update(1150)

	assert.InDelta(t, 50, r.Position[0], 1e-9)
	assert.InDelta(t, 0, r.Position[1], 1e-9)
}

func TestRemoteAvatarDeadReckonsThenHolds(t *testing.T) {
	r := NewRemoteAvatar(2, "other")
	r.AddSample(1000, 0, 0, 0)
	r.AddSample(1100, 100, 0, 0) // 速度 1 单位/ms

	// 样本断流 200ms：在推测窗口内按最后速度外推
	r.Update(1300)
	assert.InDelta(t, 300, r.Position[0], 1e-9)

	// 超出推测窗口：停在最后已知位置
	r.Update(1500)
	assert.InDelta(t, 100, r.Position[0], 1e-9)
}

func TestRemoteAvatarEmptyBufferNoop(t *testing.T) {
	r := NewRemoteAvatar(2, "other")
	r.Update(1000)
	assert.Equal(t, mgl64.Vec2{}, r.Position)
}
