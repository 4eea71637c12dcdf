package service

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/ItsBenaYT/starryevents/internal/config"
	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
	"github.com/ItsBenaYT/starryevents/internal/domain/repository"
	apperrors "github.com/ItsBenaYT/starryevents/internal/pkg/errors"
)

// ErrTokenVerificationFailed означает, что id_token провайдера не прошёл проверку
var ErrTokenVerificationFailed = errors.New("identity token verification failed")

const (
	// stateKeyPrefix — префикс ключей state в кеше
	stateKeyPrefix = "oidc:state:"
	// stateTTL — сколько живёт state между редиректом на провайдера и callback
	stateTTL = 10 * time.Minute
	// jwksTTL — период кеширования ключей подписи провайдера
	jwksTTL = time.Hour
)

// OIDCService реализует логин через внешнего OIDC-провайдера:
// редирект на авторизацию, обмен кода, проверка подписи id_token по JWKS
// и upsert профиля пользователя. Пароли и проверка учетных данных
// в приложении отсутствуют.
type OIDCService struct {
	cfg        config.OIDCConfig
	userRepo   repository.UserRepository
	cache      repository.CacheRepository
	httpClient *http.Client

	discoveryMu sync.RWMutex
	discovery   *oidcDiscovery

	jwksMu     sync.RWMutex
	jwksKeys   map[string]*rsa.PublicKey
	jwksExpiry time.Time
}

// NewOIDCService создает новый сервис OIDC-логина
func NewOIDCService(
	cfg config.OIDCConfig,
	userRepo repository.UserRepository,
	cache repository.CacheRepository,
) (*OIDCService, error) {
	if cfg.IssuerURL == "" {
		return nil, fmt.Errorf("oidc issuer url is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("oidc client id is required")
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("oidc redirect url is required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache repository is required")
	}
	return &OIDCService{
		cfg:        cfg,
		userRepo:   userRepo,
		cache:      cache,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// oidcDiscovery — нужная часть ответа /.well-known/openid-configuration
type oidcDiscovery struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
}

// stateRecord хранится в кеше между редиректом и callback
type stateRecord struct {
	Nonce string `json:"nonce"`
}

// AuthURL формирует URL авторизации провайдера и сохраняет state в кеше
func (s *OIDCService) AuthURL(ctx context.Context) (string, error) {
	disc, err := s.getDiscovery(ctx)
	if err != nil {
		return "", err
	}

	state := uuid.NewString()
	nonce := uuid.NewString()
	if err := s.cache.SetJSON(stateKeyPrefix+state, stateRecord{Nonce: nonce}, stateTTL); err != nil {
		return "", fmt.Errorf("failed to store oidc state: %w", err)
	}

	values := url.Values{}
	values.Set("client_id", s.cfg.ClientID)
	values.Set("redirect_uri", s.cfg.RedirectURL)
	values.Set("response_type", "code")
	values.Set("scope", "openid email profile")
	values.Set("state", state)
	values.Set("nonce", nonce)

	return disc.AuthorizationEndpoint + "?" + values.Encode(), nil
}

// HandleCallback завершает логин: проверяет state, обменивает код на id_token,
// верифицирует его и создаёт/обновляет пользователя по subject провайдера
func (s *OIDCService) HandleCallback(ctx context.Context, code, state string) (*entity.User, error) {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(state) == "" {
		return nil, fmt.Errorf("%w: code and state are required", apperrors.ErrValidation)
	}

	var record stateRecord
	if err := s.cache.GetJSON(stateKeyPrefix+state, &record); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown or expired state", apperrors.ErrUnauthorized)
		}
		return nil, err
	}
	// State одноразовый — удаляем сразу, до обмена кода
	if err := s.cache.Delete(stateKeyPrefix + state); err != nil {
		return nil, err
	}

	idToken, err := s.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	info, err := s.verifyIDToken(ctx, idToken, record.Nonce)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		ID:              info.Sub,
		FirstName:       info.FirstName,
		LastName:        info.LastName,
		ProfileImageURL: info.Picture,
	}
	if info.Email != "" {
		email := info.Email
		user.Email = &email
	}

	saved, err := s.userRepo.Upsert(user)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user from oidc login: %w", err)
	}

	return saved, nil
}

// LogoutURL возвращает URL завершения сессии у провайдера.
// Если провайдер не объявляет end_session_endpoint, возвращается
// post-logout адрес приложения.
func (s *OIDCService) LogoutURL(ctx context.Context) string {
	disc, err := s.getDiscovery(ctx)
	if err != nil || disc.EndSessionEndpoint == "" {
		if s.cfg.PostLogoutURL != "" {
			return s.cfg.PostLogoutURL
		}
		return "/"
	}

	values := url.Values{}
	values.Set("client_id", s.cfg.ClientID)
	if s.cfg.PostLogoutURL != "" {
		values.Set("post_logout_redirect_uri", s.cfg.PostLogoutURL)
	}
	return disc.EndSessionEndpoint + "?" + values.Encode()
}

func (s *OIDCService) getDiscovery(ctx context.Context) (*oidcDiscovery, error) {
	s.discoveryMu.RLock()
	if s.discovery != nil {
		defer s.discoveryMu.RUnlock()
		return s.discovery, nil
	}
	s.discoveryMu.RUnlock()

	discoveryURL := strings.TrimRight(s.cfg.IssuerURL, "/") + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create oidc discovery request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("oidc discovery status=%d body=%s", resp.StatusCode, string(body))
	}

	var disc oidcDiscovery
	if err := json.NewDecoder(resp.Body).Decode(&disc); err != nil {
		return nil, fmt.Errorf("failed to decode oidc discovery response: %w", err)
	}
	if disc.AuthorizationEndpoint == "" || disc.TokenEndpoint == "" || disc.JWKSURI == "" {
		return nil, fmt.Errorf("oidc discovery response is incomplete")
	}

	s.discoveryMu.Lock()
	s.discovery = &disc
	s.discoveryMu.Unlock()

	return &disc, nil
}

func (s *OIDCService) exchangeCode(ctx context.Context, code string) (string, error) {
	disc, err := s.getDiscovery(ctx)
	if err != nil {
		return "", err
	}

	values := url.Values{}
	values.Set("grant_type", "authorization_code")
	values.Set("code", code)
	values.Set("client_id", s.cfg.ClientID)
	if s.cfg.ClientSecret != "" {
		values.Set("client_secret", s.cfg.ClientSecret)
	}
	values.Set("redirect_uri", s.cfg.RedirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, disc.TokenEndpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("%w: token exchange status=%d body=%s", ErrTokenVerificationFailed, resp.StatusCode, string(body))
	}

	var payload struct {
		IDToken string `json:"id_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse token exchange response: %w", err)
	}
	if payload.IDToken == "" {
		return "", fmt.Errorf("%w: id_token not returned by token exchange", ErrTokenVerificationFailed)
	}

	return payload.IDToken, nil
}

// parsedTokenInfo — проверенные claims провайдера
type parsedTokenInfo struct {
	Sub       string
	Email     string
	FirstName string
	LastName  string
	Picture   string
}

type idTokenClaims struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	GivenName string `json:"given_name"`
	Family    string `json:"family_name"`
	Picture   string `json:"profile_image_url"`
	Nonce     string `json:"nonce"`
	jwt.RegisteredClaims
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (s *OIDCService) verifyIDToken(ctx context.Context, idToken, expectedNonce string) (*parsedTokenInfo, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, fmt.Errorf("%w: empty id token", ErrTokenVerificationFailed)
	}

	claims := &idTokenClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	token, err := parser.ParseWithClaims(idToken, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if strings.TrimSpace(kid) == "" {
			return nil, fmt.Errorf("%w: missing kid header", ErrTokenVerificationFailed)
		}
		return s.getPublicKey(ctx, strings.TrimSpace(kid))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenVerificationFailed, err)
	}
	if token == nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrTokenVerificationFailed)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenVerificationFailed)
	}
	if strings.TrimRight(claims.Issuer, "/") != strings.TrimRight(s.cfg.IssuerURL, "/") {
		return nil, fmt.Errorf("%w: invalid issuer", ErrTokenVerificationFailed)
	}
	audMatched := false
	for _, aud := range claims.Audience {
		if aud == s.cfg.ClientID {
			audMatched = true
			break
		}
	}
	if !audMatched {
		return nil, fmt.Errorf("%w: audience mismatch", ErrTokenVerificationFailed)
	}
	if claims.ExpiresAt == nil || time.Now().After(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("%w: token expired", ErrTokenVerificationFailed)
	}
	if expectedNonce != "" && claims.Nonce != expectedNonce {
		return nil, fmt.Errorf("%w: nonce mismatch", ErrTokenVerificationFailed)
	}

	// Провайдеры по-разному называют claims имени: пробуем оба варианта
	firstName := strings.TrimSpace(claims.FirstName)
	if firstName == "" {
		firstName = strings.TrimSpace(claims.GivenName)
	}
	lastName := strings.TrimSpace(claims.LastName)
	if lastName == "" {
		lastName = strings.TrimSpace(claims.Family)
	}

	return &parsedTokenInfo{
		Sub:       strings.TrimSpace(claims.Subject),
		Email:     strings.TrimSpace(claims.Email),
		FirstName: firstName,
		LastName:  lastName,
		Picture:   strings.TrimSpace(claims.Picture),
	}, nil
}

func (s *OIDCService) getPublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	now := time.Now()
	s.jwksMu.RLock()
	if key, ok := s.jwksKeys[kid]; ok && now.Before(s.jwksExpiry) {
		s.jwksMu.RUnlock()
		return key, nil
	}
	s.jwksMu.RUnlock()

	if err := s.refreshJWKS(ctx); err != nil {
		return nil, err
	}

	s.jwksMu.RLock()
	defer s.jwksMu.RUnlock()
	key, ok := s.jwksKeys[kid]
	if !ok || key == nil {
		return nil, fmt.Errorf("%w: jwks key not found", ErrTokenVerificationFailed)
	}
	return key, nil
}

func (s *OIDCService) refreshJWKS(ctx context.Context) error {
	disc, err := s.getDiscovery(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, disc.JWKSURI, nil)
	if err != nil {
		return fmt.Errorf("failed to create jwks request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to fetch jwks: %v", ErrTokenVerificationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: jwks status=%d body=%s", ErrTokenVerificationFailed, resp.StatusCode, string(body))
	}

	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("failed to decode jwks response: %w", err)
	}
	if len(set.Keys) == 0 {
		return fmt.Errorf("%w: empty jwks response", ErrTokenVerificationFailed)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if strings.TrimSpace(k.Kid) == "" || k.Kty != "RSA" {
			continue
		}
		pub, err := parseRSAPublicKey(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: no usable RSA keys in jwks", ErrTokenVerificationFailed)
	}

	s.jwksMu.Lock()
	s.jwksKeys = keys
	s.jwksExpiry = time.Now().Add(jwksTTL)
	s.jwksMu.Unlock()

	return nil
}

func parseRSAPublicKey(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("invalid jwk modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("invalid jwk exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e <= 0 {
		return nil, fmt.Errorf("invalid jwk exponent value")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
