package config

import (
	"fmt"
	"os"
	"strings"

	"hiretrack/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	// Secret paths
	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault
type VaultSecrets struct {
	Auth     string `mapstructure:"auth"`     // Path to JWT signing secret ("jwt_secret" key)
	Email    string `mapstructure:"email"`    // Path to email provider credentials ("api_key" key)
	Database string `mapstructure:"database"` // Path to storage DSN ("dsn" key)
	TLSCerts string `mapstructure:"tlsCerts"` // Path to TLS certificates ("cert", "key", "ca" keys)
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// NewVaultClient creates a new Vault client from configuration
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled")
		}
		return nil, nil
	}

	if logger != nil {
		logger.Debug("Initializing Vault client",
			"address", config.Address,
			"namespace", config.Namespace,
			"token_file", config.TokenFile,
			"has_token", config.Token != "")
	}

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		if logger != nil {
			logger.LogError(err, "Failed to create Vault client")
		}
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config, logger)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	if err := testVaultConnection(client, config.Address, logger); err != nil {
		return nil, err
	}

	return &VaultClient{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig, logger *errors.Logger) (string, error) {
	token := config.Token

	if token == "" && config.TokenFile != "" {
		if logger != nil {
			logger.Debug("Reading Vault token from file", "file", config.TokenFile)
		}
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			if logger != nil {
				logger.LogError(err, "Failed to read Vault token file", "file", config.TokenFile)
			}
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}

	return token, nil
}

// testVaultConnection tests the connection to Vault
func testVaultConnection(client *api.Client, address string, logger *errors.Logger) error {
	health, err := client.Sys().Health()
	if err != nil {
		if logger != nil {
			logger.LogError(err, "Failed to connect to Vault", "address", address)
		}
		return fmt.Errorf("failed to connect to vault: %w", err)
	}

	if logger != nil {
		logger.Info("Successfully connected to Vault",
			"address", address,
			"version", health.Version,
			"sealed", health.Sealed)
	}

	return nil
}

// GetSecretV2 retrieves a secret's data from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (map[string]any, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	if vc.logger != nil {
		vc.logger.Debug("Reading secret from Vault", "path", path)
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		if vc.logger != nil {
			vc.logger.LogError(err, "Failed to read secret from Vault", "path", path)
		}
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	return data, nil
}

// GetStringSecret retrieves a string value from a Vault secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	data, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, ok := data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return strValue, nil
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the
// config. Vault values win over file and environment values.
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled, skipping secret loading")
		}
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	if client == nil {
		return nil
	}

	if err := loadAuthSecretFromVault(client, config, logger); err != nil {
		return err
	}
	if err := loadEmailSecretFromVault(client, config, logger); err != nil {
		return err
	}
	if err := loadDatabaseSecretFromVault(client, config, logger); err != nil {
		return err
	}
	if err := loadTLSCertsFromVault(client, config, logger); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("Successfully completed applying secrets from Vault")
	}
	return nil
}

// loadAuthSecretFromVault loads the JWT signing secret from Vault
func loadAuthSecretFromVault(client *VaultClient, config *Config, logger *errors.Logger) error {
	if config.Vault.Secrets.Auth == "" {
		return nil
	}

	secret, err := client.GetStringSecret(config.Vault.Secrets.Auth, "jwt_secret")
	if err != nil {
		return fmt.Errorf("failed to load JWT secret from vault: %w", err)
	}
	if secret != "" {
		config.Auth.JWTSecret = secret
		if logger != nil {
			logger.Info("JWT secret loaded from Vault")
		}
	}
	return nil
}

// loadEmailSecretFromVault loads the email provider API key from Vault
func loadEmailSecretFromVault(client *VaultClient, config *Config, logger *errors.Logger) error {
	if config.Vault.Secrets.Email == "" {
		return nil
	}

	apiKey, err := client.GetStringSecret(config.Vault.Secrets.Email, "api_key")
	if err != nil {
		return fmt.Errorf("failed to load email API key from vault: %w", err)
	}
	if apiKey != "" {
		config.Email.APIKey = apiKey
		if logger != nil {
			logger.Info("Email API key loaded from Vault")
		}
	}
	return nil
}

// loadDatabaseSecretFromVault loads the storage DSN from Vault
func loadDatabaseSecretFromVault(client *VaultClient, config *Config, logger *errors.Logger) error {
	if config.Vault.Secrets.Database == "" {
		return nil
	}

	dsn, err := client.GetStringSecret(config.Vault.Secrets.Database, "dsn")
	if err != nil {
		return fmt.Errorf("failed to load storage DSN from vault: %w", err)
	}
	if dsn != "" {
		config.Storage.DSN = dsn
		if logger != nil {
			logger.Info("Storage DSN loaded from Vault")
		}
	}
	return nil
}

// loadTLSCertsFromVault loads TLS certificates from Vault
func loadTLSCertsFromVault(client *VaultClient, config *Config, logger *errors.Logger) error {
	if config.Vault.Secrets.TLSCerts == "" {
		return nil
	}

	tlsData, err := client.GetSecretV2(config.Vault.Secrets.TLSCerts)
	if err != nil {
		return fmt.Errorf("failed to load TLS certificates from vault: %w", err)
	}

	certCount := 0
	certCount += loadSingleCertificate(tlsData, "cert", &config.Server.TLS.CertContent)
	certCount += loadSingleCertificate(tlsData, "key", &config.Server.TLS.KeyContent)
	certCount += loadSingleCertificate(tlsData, "ca", &config.Server.TLS.CAContent)

	if logger != nil {
		logger.Info("TLS certificates loaded from Vault", "certificates_loaded", certCount)
	}
	return nil
}

// loadSingleCertificate loads a single certificate field from Vault data
func loadSingleCertificate(tlsData map[string]any, key string, target *string) int {
	if content, ok := tlsData[key].(string); ok && content != "" {
		*target = content
		return 1
	}
	return 0
}
