package auth

import (
	"encoding/json"

	"github.com/SlpAus/nebula-leaderboard-backend/internal/identity"
	"github.com/SlpAus/nebula-leaderboard-backend/pkg/sessioncrypto"
	"github.com/golang-jwt/jwt/v5"
)

// IDTokenClaims 是身份令牌中本服务关心的显示声明。
type IDTokenClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// decodeIDTokenClaims 不验证签名地解码身份令牌的声明。
// 令牌本身的正确性由身份提供方保证，这里只提取显示信息；
// 本地不做签名校验是一个已知的待加强点，不是有意的安全属性。
func decodeIDTokenClaims(idToken string) (*IDTokenClaims, error) {
	claims := &IDTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// sessionUser 是会话载荷中冗余存储的用户信息三元组。
type sessionUser struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	UserName string `json:"user_name"`
}

// sessionPayload 把提供方的原始认证结果和用户信息捆绑为会话载荷。
// 加密后整体交给客户端持有，服务端签发后不再解读。
type sessionPayload struct {
	identity.AuthenticationResult
	User sessionUser `json:"user"`
}

// buildSessionBlob 组装会话载荷并用配置的密钥加密为不透明字符串。
func buildSessionBlob(sealer *sessioncrypto.Sealer, result *identity.AuthenticationResult, claims *IDTokenClaims) (string, error) {
	payload := sessionPayload{
		AuthenticationResult: *result,
		User: sessionUser{
			UserID:   claims.Subject,
			Email:    claims.Email,
			UserName: claims.Username,
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return sealer.Seal(raw)
}
