package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"tripplanner/internal/config"
)

// FederatedClaims 是身份提供方令牌校验后得到的身份信息。
type FederatedClaims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// FederatedTokenVerifier verifies an identity-provider token and returns the
// identity it asserts. Implementations are expected to reject expired or
// tampered tokens.
type FederatedTokenVerifier interface {
	Verify(ctx context.Context, token string) (*FederatedClaims, error)
}

// httpTokenVerifier 通过提供方的 tokeninfo 端点校验令牌（例如 Google）。
type httpTokenVerifier struct {
	tokenInfoURL string
	client       *http.Client
}

// NewHTTPTokenVerifier creates a verifier backed by the provider's tokeninfo
// endpoint configured in AuthConfig.
func NewHTTPTokenVerifier(authCfg config.AuthConfig) FederatedTokenVerifier {
	return &httpTokenVerifier{
		tokenInfoURL: authCfg.TokenInfoURL,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify 调用 tokeninfo 端点换取令牌对应的身份声明。
func (v *httpTokenVerifier) Verify(ctx context.Context, token string) (*FederatedClaims, error) {
	endpoint := v.tokenInfoURL + "?id_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("构造 tokeninfo 请求失败: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("调用 tokeninfo 端点失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("联合登录令牌无效: tokeninfo 返回 %d", resp.StatusCode)
	}

	var claims FederatedClaims
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("解析 tokeninfo 响应失败: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("联合登录令牌缺少 sub 声明")
	}
	return &claims, nil
}
