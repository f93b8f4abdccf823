package server

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT 相关配置
const (
	// SessionTTL 会话有效期
	SessionTTL = 30 * time.Minute

	// Token 签名者
	tokenIssuer = "meadow-server"
)

// Claims 定义 JWT Claims
type Claims struct {
	PlayerID int32 `json:"player_id"`
	jwt.RegisteredClaims
}

// getSigningKey 获取签名密钥
// 从环境变量 MEADOW_JWT_SECRET 读取，不存在时使用默认值
func getSigningKey() []byte {
	secret := os.Getenv("MEADOW_JWT_SECRET")
	if secret == "" {
		// 开发环境默认密钥，生产环境应设置环境变量
		secret = "meadow-dev-secret-change-in-production"
	}
	return []byte(secret)
}

// GenerateSessionToken 生成会话 Token
func GenerateSessionToken(playerID int32) (string, error) {
	now := time.Now()
	claims := Claims{
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("player-%d", playerID),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getSigningKey())
}

// VerifySessionToken 验证并解析 Token，返回 playerID
func VerifySessionToken(tokenString string) (int32, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getSigningKey(), nil
	})

	if err != nil {
		return 0, fmt.Errorf("token parsing failed: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims.PlayerID, nil
	}

	return 0, fmt.Errorf("invalid token")
}
