package client

import (
	"github.com/go-gl/mathgl/mgl64"

	"meadow/pkg/core"
)

// ===== 远端玩家插值配置 =====
const (
	// InterpolationDelayMs 插值延迟（毫秒）：远端玩家渲染时间滞后于服务器时间
	// 值越大越平滑，但延迟感越强
	InterpolationDelayMs int64 = 100

	// InterpolationBufferSize 插值缓冲区大小：保留最近 N 份快照
	InterpolationBufferSize = 30

	// DeadReckoningMaxMs 航位推测最大时长（毫秒）：超时后停在最后已知位置
	DeadReckoningMaxMs int64 = 250
)

// remoteSample 远端玩家状态快照（插值缓冲）
type remoteSample struct {
	timestamp int64
	x, y      float64
	facing    core.Facing
}

// RemoteAvatar 其他玩家：快照缓冲插值与航位推测
type RemoteAvatar struct {
	ID   int32
	Name string

	Position mgl64.Vec2
	Facing   core.Facing

	buffer        []remoteSample
	lastVelocityX float64
	lastVelocityY float64
}

// NewRemoteAvatar 创建远端玩家
func NewRemoteAvatar(id int32, name string) *RemoteAvatar {
	return &RemoteAvatar{
		ID:     id,
		Name:   name,
		buffer: make([]remoteSample, 0, InterpolationBufferSize),
	}
}

// AddSample 把一份快照加入插值缓冲区
func (r *RemoteAvatar) AddSample(serverTimeMs int64, x, y float64, facing core.Facing) {
	// 计算速度（用于航位推测）
	if len(r.buffer) > 0 {
		last := r.buffer[len(r.buffer)-1]
		dt := float64(serverTimeMs - last.timestamp)
		if dt > 0 {
			r.lastVelocityX = (x - last.x) / dt
			r.lastVelocityY = (y - last.y) / dt
		}
	}

	r.buffer = append(r.buffer, remoteSample{timestamp: serverTimeMs, x: x, y: y, facing: facing})

	if len(r.buffer) > InterpolationBufferSize {
		r.buffer = r.buffer[1:]
	}
}

// Update 按估算的服务器时间更新插值位置（每帧调用）
func (r *RemoteAvatar) Update(serverTimeMs int64) {
	if len(r.buffer) == 0 {
		return
	}

	// 渲染时间 = 服务器时间 - 插值延迟
	renderTime := serverTimeMs - InterpolationDelayMs

	// 找到 renderTime 两侧的快照
	var prev, next *remoteSample
	for i := 0; i < len(r.buffer)-1; i++ {
		if r.buffer[i].timestamp <= renderTime && r.buffer[i+1].timestamp >= renderTime {
			prev = &r.buffer[i]
			next = &r.buffer[i+1]
			break
		}
	}

	if prev != nil && next != nil {
		totalTime := float64(next.timestamp - prev.timestamp)
		if totalTime > 0 {
			alpha := float64(renderTime-prev.timestamp) / totalTime
			r.Position = mgl64.Vec2{
				prev.x + (next.x-prev.x)*alpha,
				prev.y + (next.y-prev.y)*alpha,
			}
			r.Facing = next.facing
		}
	} else {
		// 缓冲区不足或渲染时间超出范围，使用航位推测
		last := r.buffer[len(r.buffer)-1]
		timeSinceLast := serverTimeMs - last.timestamp

		if timeSinceLast <= DeadReckoningMaxMs {
			r.Position = mgl64.Vec2{
				last.x + r.lastVelocityX*float64(timeSinceLast),
				last.y + r.lastVelocityY*float64(timeSinceLast),
			}
		} else {
			// 超时，停在最后已知位置
			r.Position = mgl64.Vec2{last.x, last.y}
		}
		r.Facing = last.facing
	}

	r.cleanupOldSamples(renderTime)
}

// cleanupOldSamples 清理过期快照（保留 renderTime 之前的最后一份作为插值起点）
func (r *RemoteAvatar) cleanupOldSamples(renderTime int64) {
	cutoff := -1
	for i := 0; i < len(r.buffer); i++ {
		if r.buffer[i].timestamp <= renderTime {
			cutoff = i
		} else {
			break
		}
	}
	if cutoff > 0 {
		r.buffer = r.buffer[cutoff:]
	}
}
