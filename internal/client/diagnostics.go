package client

import (
	"time"

	"go.uber.org/zap"
)

// ===== 诊断配置 =====
const (
	// LagSpikeThreshold 单个模拟周期超过该时长记为卡顿
	LagSpikeThreshold = 20 * time.Millisecond

	// DiagnosticsInterval 诊断窗口时长，到期汇总并清零
	DiagnosticsInterval = 10 * time.Second
)

// DiagnosticsStats 一个窗口内的聚合结果
type DiagnosticsStats struct {
	Cycles    int64
	Sent      int64
	Rejected  int64
	LagSpikes int64
	MeanCycle time.Duration
	MaxCycle  time.Duration
}

// Diagnostics 模拟循环的观测窗口
// 会话级对象，由构造函数初始化并注入循环，不使用包级单例；
// 只做观测，从不抛错或阻塞模拟
type Diagnostics struct {
	log *zap.SugaredLogger

	windowStart time.Time
	cycles      int64
	sent        int64
	rejected    int64
	lagSpikes   int64
	totalCycle  time.Duration
	maxCycle    time.Duration
}

// NewDiagnostics 创建诊断监视器
func NewDiagnostics(log *zap.SugaredLogger, now time.Time) *Diagnostics {
	return &Diagnostics{log: log, windowStart: now}
}

// Record 记录一个模拟周期的结果
// 窗口按时间切分（非按次数），到期输出汇总并重置
func (d *Diagnostics) Record(now time.Time, cycle time.Duration, sent, rejected bool) {
	d.cycles++
	d.totalCycle += cycle
	if cycle > d.maxCycle {
		d.maxCycle = cycle
	}
	if cycle > LagSpikeThreshold {
		d.lagSpikes++
	}
	if sent {
		d.sent++
	}
	if rejected {
		d.rejected++
	}

	if now.Sub(d.windowStart) >= DiagnosticsInterval {
		d.flush(now)
	}
}

// Stats 当前窗口的聚合快照（HUD 与测试用）
func (d *Diagnostics) Stats() DiagnosticsStats {
	stats := DiagnosticsStats{
		Cycles:    d.cycles,
		Sent:      d.sent,
		Rejected:  d.rejected,
		LagSpikes: d.lagSpikes,
		MaxCycle:  d.maxCycle,
	}
	if d.cycles > 0 {
		stats.MeanCycle = d.totalCycle / time.Duration(d.cycles)
	}
	return stats
}

// flush 输出窗口汇总并重置计数
func (d *Diagnostics) flush(now time.Time) {
	stats := d.Stats()
	d.log.Infow("模拟循环诊断",
		"cycles", stats.Cycles,
		"sent", stats.Sent,
		"rejected", stats.Rejected,
		"lag_spikes", stats.LagSpikes,
		"mean_cycle", stats.MeanCycle,
		"max_cycle", stats.MaxCycle,
	)

	d.windowStart = now
	d.cycles = 0
	d.sent = 0
	d.rejected = 0
	d.lagSpikes = 0
	d.totalCycle = 0
	d.maxCycle = 0
}
