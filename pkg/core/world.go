package core

import "github.com/go-gl/mathgl/mgl64"

// RiverBand 垂直河道（x 区间），客户端绘制、服务器判定水面共用
type RiverBand struct {
	MinX, MaxX float64
}

// RiverBands 世界内的河道布局
var RiverBands = []RiverBand{
	{MinX: 2600, MaxX: 3000},
	{MinX: 4400, MaxX: 4600},
}

// IsWater 位置是否处于水面
func IsWater(p mgl64.Vec2) bool {
	for _, band := range RiverBands {
		if p[0] >= band.MinX && p[0] <= band.MaxX {
			return true
		}
	}
	return false
}
