package app

import (
	"context"
	"fmt"
	"sync"

	cryptoService "github.com/allisson/tabvault/internal/crypto/service"
	"github.com/allisson/tabvault/internal/kvstore"
	vaultHTTP "github.com/allisson/tabvault/internal/vault/http"
	vaultService "github.com/allisson/tabvault/internal/vault/service"
	vaultUseCase "github.com/allisson/tabvault/internal/vault/usecase"
)

// vaultDeps holds the lazily initialized vault components.
type vaultDeps struct {
	cryptoEngine   vaultUseCase.CryptoEngine
	passportClient *vaultService.PassportClient
	oauthFlow      *vaultService.OAuthFlow
	tokenVault     vaultUseCase.TokenVault
	authUseCase    vaultUseCase.AuthUseCase
	authHandler    *vaultHTTP.AuthHandler

	cryptoEngineInit   sync.Once
	passportClientInit sync.Once
	oauthFlowInit      sync.Once
	tokenVaultInit     sync.Once
	authUseCaseInit    sync.Once
	authHandlerInit    sync.Once
}

// CryptoEngine returns the token encryption engine. When a KMS key URI is
// configured, the passphrase is unwrapped through it first.
func (c *Container) CryptoEngine() (vaultUseCase.CryptoEngine, error) {
	var err error
	c.vaultDeps.cryptoEngineInit.Do(func() {
		c.vaultDeps.cryptoEngine, err = c.initCryptoEngine()
		if err != nil {
			c.initErrors["cryptoEngine"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cryptoEngine"]; exists {
		return nil, storedErr
	}
	return c.vaultDeps.cryptoEngine, nil
}

// PassportClient returns the authorization server gateway.
func (c *Container) PassportClient() *vaultService.PassportClient {
	c.vaultDeps.passportClientInit.Do(func() {
		c.vaultDeps.passportClient = vaultService.NewPassportClient(
			c.config.PassportServerURL,
			c.Logger(),
		)
	})
	return c.vaultDeps.passportClient
}

// OAuthFlow returns the PKCE login flow helper.
func (c *Container) OAuthFlow() (*vaultService.OAuthFlow, error) {
	var err error
	c.vaultDeps.oauthFlowInit.Do(func() {
		var store kvstore.Store
		store, err = c.KVStore()
		if err != nil {
			c.initErrors["oauthFlow"] = err
			return
		}
		c.vaultDeps.oauthFlow = vaultService.NewOAuthFlow(vaultService.OAuthFlowConfig{
			ServerURL:   c.config.PassportServerURL,
			ClientID:    c.config.PassportClientID,
			RedirectURI: c.config.PassportRedirectURI,
			PromptMode:  c.config.PassportPromptMode,
		}, store)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["oauthFlow"]; exists {
		return nil, storedErr
	}
	return c.vaultDeps.oauthFlow, nil
}

// TokenVault returns the encrypted token vault.
func (c *Container) TokenVault() (vaultUseCase.TokenVault, error) {
	var err error
	c.vaultDeps.tokenVaultInit.Do(func() {
		c.vaultDeps.tokenVault, err = c.initTokenVault()
		if err != nil {
			c.initErrors["tokenVault"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenVault"]; exists {
		return nil, storedErr
	}
	return c.vaultDeps.tokenVault, nil
}

// AuthUseCase returns the login orchestration use case.
func (c *Container) AuthUseCase() (vaultUseCase.AuthUseCase, error) {
	var err error
	c.vaultDeps.authUseCaseInit.Do(func() {
		c.vaultDeps.authUseCase, err = c.initAuthUseCase()
		if err != nil {
			c.initErrors["authUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authUseCase"]; exists {
		return nil, storedErr
	}
	return c.vaultDeps.authUseCase, nil
}

// AuthHandler returns the auth HTTP handler.
func (c *Container) AuthHandler() (*vaultHTTP.AuthHandler, error) {
	var err error
	c.vaultDeps.authHandlerInit.Do(func() {
		var useCase vaultUseCase.AuthUseCase
		useCase, err = c.AuthUseCase()
		if err != nil {
			c.initErrors["authHandler"] = err
			return
		}
		c.vaultDeps.authHandler = vaultHTTP.NewAuthHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["authHandler"]; exists {
		return nil, storedErr
	}
	return c.vaultDeps.authHandler, nil
}

// initCryptoEngine resolves the passphrase and creates the crypto engine.
func (c *Container) initCryptoEngine() (vaultUseCase.CryptoEngine, error) {
	passphrase, err := cryptoService.ResolvePassphrase(
		context.Background(),
		c.config.VaultKMSKeyURI,
		c.config.VaultPassphrase,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault passphrase: %w", err)
	}

	engine, err := cryptoService.NewEngine(passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create crypto engine: %w", err)
	}
	return engine, nil
}

// initTokenVault creates the token vault with its metrics decorator.
func (c *Container) initTokenVault() (vaultUseCase.TokenVault, error) {
	store, err := c.KVStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get kv store for token vault: %w", err)
	}

	engine, err := c.CryptoEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to get crypto engine for token vault: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for token vault: %w", err)
	}

	vault := vaultUseCase.NewTokenVault(
		store,
		engine,
		c.PassportClient(),
		c.Clock(),
		c.config.VaultTokenTTL,
		c.Logger(),
	)

	return vaultUseCase.NewTokenVaultWithMetrics(vault, businessMetrics), nil
}

// initAuthUseCase creates the auth use case with its metrics decorator.
func (c *Container) initAuthUseCase() (vaultUseCase.AuthUseCase, error) {
	flow, err := c.OAuthFlow()
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth flow for auth use case: %w", err)
	}

	vault, err := c.TokenVault()
	if err != nil {
		return nil, fmt.Errorf("failed to get token vault for auth use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for auth use case: %w", err)
	}

	useCase := vaultUseCase.NewAuthUseCase(
		flow,
		c.PassportClient(),
		vault,
		c.config.PassportClientID,
		c.config.PassportRedirectURI,
		c.Logger(),
	)

	return vaultUseCase.NewAuthUseCaseWithMetrics(useCase, businessMetrics), nil
}
