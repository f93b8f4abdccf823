package client

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"meadow/pkg/core"
	"meadow/pkg/protocol"
)

// UplinkInterval 状态上报的最小间隔（约 30Hz）
// 上行频率与渲染帧率解耦：帧率再高也只发最新状态
const UplinkInterval = 33 * time.Millisecond

// StateSender 上行发送端，由网络层实现
type StateSender interface {
	SendStateReport(report protocol.StateReport) error
}

// Uplink 上行调度器：固定节拍上报最新本地状态
// 每帧覆盖待发状态，到点才发送；没有队列，错过的状态不补发
type Uplink struct {
	sender  StateSender
	limiter *rate.Limiter
	log     *zap.SugaredLogger

	pending    protocol.StateReport
	hasPending bool
}

// NewUplink 创建上行调度器
func NewUplink(sender StateSender, log *zap.SugaredLogger) *Uplink {
	return &Uplink{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Every(UplinkInterval), 1),
		log:     log,
	}
}

// Offer 每帧记录最新待发状态（覆盖旧值）
// 有效冲刺 = 按住冲刺且确实在移动
func (u *Uplink) Offer(pos mgl64.Vec2, in core.MoveInput, facing core.Facing, nowMs int64) {
	u.pending = protocol.StateReport{
		X:            pos[0],
		Y:            pos[1],
		ClientTimeMs: uint64(nowMs),
		Sprinting:    in.Sprinting && in.Moving(),
		Facing:       int32(facing),
	}
	u.hasPending = true
}

// Flush 若发送间隔已到则发出待发状态，返回 (已发送, 被拒绝)
// 发送即忘：不等待响应，权威纠正经由快照异步到达
// 失败不立即重试，令牌退回，下一帧带着更新的状态再试
func (u *Uplink) Flush(now time.Time) (sent, rejected bool) {
	if !u.hasPending {
		return false, false
	}
	reservation := u.limiter.ReserveN(now, 1)
	if !reservation.OK() || reservation.DelayFrom(now) > 0 {
		if reservation.OK() {
			reservation.CancelAt(now)
		}
		return false, false
	}
	if err := u.sender.SendStateReport(u.pending); err != nil {
		reservation.CancelAt(now)
		u.log.Debugw("状态上报失败", "err", err)
		return false, true
	}
	u.hasPending = false
	return true, false
}
