package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Facing 八方向朝向
type Facing int

const (
	FacingDown Facing = iota
	FacingUp
	FacingLeft
	FacingRight
	FacingUpLeft
	FacingUpRight
	FacingDownLeft
	FacingDownRight
)

func (f Facing) String() string {
	switch f {
	case FacingDown:
		return "down"
	case FacingUp:
		return "up"
	case FacingLeft:
		return "left"
	case FacingRight:
		return "right"
	case FacingUpLeft:
		return "up-left"
	case FacingUpRight:
		return "up-right"
	case FacingDownLeft:
		return "down-left"
	case FacingDownRight:
		return "down-right"
	}
	return "unknown"
}

// FacingOf 由移动向量推导朝向
// 主导轴幅值超过另一轴两倍时判为该轴的四向，两轴幅值相当（含恰好相等）
// 时判为对角；摇杆沿单轴的轻微漂移因此不会把四向抖成对角
// 坐标系 y 向下为正（与屏幕一致），因此 dir[1] < 0 表示朝上
func FacingOf(dir mgl64.Vec2) Facing {
	ax := math.Abs(dir[0])
	ay := math.Abs(dir[1])
	horizontal := ax > InputDeadzone
	vertical := ay > InputDeadzone

	if horizontal && vertical {
		if ax >= 2*ay {
			vertical = false
		} else if ay >= 2*ax {
			horizontal = false
		}
	}

	switch {
	case horizontal && vertical:
		if dir[1] < 0 {
			if dir[0] < 0 {
				return FacingUpLeft
			}
			return FacingUpRight
		}
		if dir[0] < 0 {
			return FacingDownLeft
		}
		return FacingDownRight
	case horizontal:
		if dir[0] < 0 {
			return FacingLeft
		}
		return FacingRight
	case vertical:
		if dir[1] < 0 {
			return FacingUp
		}
		return FacingDown
	}
	return FacingDown
}
