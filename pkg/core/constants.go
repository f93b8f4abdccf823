package core

// 世界配置
const (
	WorldSize    = 6000.0 // 世界边长（单位）
	AvatarRadius = 20.0   // 角色碰撞半径，位置始终被约束在 [radius, size-radius]
)

// 游戏帧率
const (
	FPS          = 60
	MaxDeltaTime = 0.1 // 单帧最大积分时长（秒），卡顿恢复后防止位置飞跃
)

// 移动配置
const (
	BaseSpeed        = 400.0 // 基础速度（单位/秒）
	SprintMultiplier = 2.0   // 冲刺加成
	CrouchMultiplier = 0.5   // 潜行减速
	WaterMultiplier  = 0.5   // 水面减速
	InputDeadzone    = 0.01  // 输入向量模长低于该值视为静止
	JumpGraceMs      = 500   // 起跳后豁免水面减速的窗口（毫秒）
)
