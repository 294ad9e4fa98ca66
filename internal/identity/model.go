package identity

import "fmt"

// SignUpInput 定义了注册新用户时需要提交的全部字段。
type SignUpInput struct {
	Username          string
	Password          string
	Email             string
	Name              string
	PreferredUsername string
}

// SignUpResult 是身份提供方注册接口的解码结果。
// Status 保留提供方返回的HTTP状态码，API层按约定原样转发。
type SignUpResult struct {
	UserSub       string `json:"user_sub"`
	UserConfirmed bool   `json:"user_confirmed"`
	Status        int    `json:"-"`
}

// AuthenticationResult 是一次成功登录后提供方返回的令牌集合。
// 所有字段在适配器边界解码为强类型，不向上传递未解析的JSON。
type AuthenticationResult struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// ProviderError 表示身份提供方返回的错误响应。
// StatusCode 保留提供方的HTTP状态码，供API层决定对外状态。
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("身份提供方返回状态码 %d", e.StatusCode)
}
