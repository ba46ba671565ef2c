// Package config holds the account settings consumed by the mailbox engine.
// Settings live in a TOML file and are carried as an explicitly constructed
// value with load/reload/store operations; there is no ambient global.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvConfigPath overrides the settings file location.
	EnvConfigPath = "MAILAGENT_CONFIG"

	maskedSecret = "********"
)

// Server holds connection settings for one mail server.
type Server struct {
	UserName string `mapstructure:"user_name" toml:"user_name" json:"user_name"`
	Password string `mapstructure:"password" toml:"password" json:"password"`
	Host     string `mapstructure:"host" toml:"host" json:"host"`
	Port     int    `mapstructure:"port" toml:"port" json:"port"`

	// UseSSL enables implicit TLS (usually port 993/465).
	UseSSL bool `mapstructure:"use_ssl" toml:"use_ssl" json:"use_ssl"`
	// StartSSL enables opportunistic TLS upgrade (usually port 587).
	StartSSL bool `mapstructure:"start_ssl" toml:"start_ssl" json:"start_ssl"`
}

// Masked returns a copy with the password replaced.
func (s Server) Masked() Server {
	s.Password = maskedSecret
	return s
}

// EmailAccount is a mailbox-backed account: one incoming (retrieval) server,
// one outgoing (submission) server, and a display sender identity.
type EmailAccount struct {
	AccountName  string    `mapstructure:"account_name" toml:"account_name" json:"account_name"`
	Description  string    `mapstructure:"description" toml:"description" json:"description"`
	FullName     string    `mapstructure:"full_name" toml:"full_name" json:"full_name"`
	EmailAddress string    `mapstructure:"email_address" toml:"email_address" json:"email_address"`
	Incoming     Server    `mapstructure:"incoming" toml:"incoming" json:"incoming"`
	Outgoing     Server    `mapstructure:"outgoing" toml:"outgoing" json:"outgoing"`
	CreatedAt    time.Time `mapstructure:"created_at" toml:"created_at" json:"created_at"`
	UpdatedAt    time.Time `mapstructure:"updated_at" toml:"updated_at" json:"updated_at"`
}

// Masked returns a copy with both server passwords replaced.
func (a EmailAccount) Masked() EmailAccount {
	a.Incoming = a.Incoming.Masked()
	a.Outgoing = a.Outgoing.Masked()
	return a
}

// ProviderAccount is an API-backed account variant. It carries credentials
// only; mailbox operations are not supported for it.
type ProviderAccount struct {
	AccountName  string    `mapstructure:"account_name" toml:"account_name" json:"account_name"`
	Description  string    `mapstructure:"description" toml:"description" json:"description"`
	ProviderName string    `mapstructure:"provider_name" toml:"provider_name" json:"provider_name"`
	APIKey       string    `mapstructure:"api_key" toml:"api_key" json:"api_key"`
	CreatedAt    time.Time `mapstructure:"created_at" toml:"created_at" json:"created_at"`
	UpdatedAt    time.Time `mapstructure:"updated_at" toml:"updated_at" json:"updated_at"`
}

// Masked returns a copy with the API key replaced.
func (a ProviderAccount) Masked() ProviderAccount {
	a.APIKey = maskedSecret
	return a
}

// Settings is the full account configuration, bound to the file it was
// loaded from.
type Settings struct {
	Emails    []EmailAccount    `mapstructure:"emails" toml:"emails" json:"emails"`
	Providers []ProviderAccount `mapstructure:"providers" toml:"providers" json:"providers"`

	path string
}

// DefaultPath returns the settings file location: EnvConfigPath when set,
// otherwise ~/.config/mailagent/config.toml.
func DefaultPath() string {
	if path := strings.TrimSpace(os.Getenv(EnvConfigPath)); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.toml")
	}
	return filepath.Join(home, ".config", "mailagent", "config.toml")
}

// Load reads settings from the TOML file at path. A missing file yields
// empty settings bound to that path. An account fully described by
// environment variables is overlaid first, replacing a same-named file
// account.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	settings := &Settings{path: path}

	err := v.ReadInConfig()
	switch {
	case err == nil:
		if err := v.Unmarshal(settings); err != nil {
			return nil, fmt.Errorf("parsing settings %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No file yet: start empty.
	default:
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading settings %s: %w", path, err)
		}
	}

	if env := accountFromEnv(); env != nil {
		settings.overlay(*env)
	}

	if err := settings.validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Reload re-reads the settings file this value was loaded from.
func (s *Settings) Reload() error {
	reloaded, err := Load(s.path)
	if err != nil {
		return err
	}
	*s = *reloaded
	return nil
}

// Store writes the settings back to their TOML file, creating parent
// directories if needed.
func (s *Settings) Store() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("toml")
	v.Set("emails", s.Emails)
	v.Set("providers", s.Providers)

	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("writing settings to %s: %w", s.path, err)
	}
	return nil
}

// Path returns the file this settings value is bound to.
func (s *Settings) Path() string { return s.path }

// AddEmail prepends an email account, rejecting duplicate names.
func (s *Settings) AddEmail(account EmailAccount) error {
	if s.nameTaken(account.AccountName) {
		return fmt.Errorf("duplicate account name %s", account.AccountName)
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	s.Emails = append([]EmailAccount{account}, s.Emails...)
	return nil
}

// AddProvider prepends a provider account, rejecting duplicate names.
func (s *Settings) AddProvider(account ProviderAccount) error {
	if s.nameTaken(account.AccountName) {
		return fmt.Errorf("duplicate account name %s", account.AccountName)
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	s.Providers = append([]ProviderAccount{account}, s.Providers...)
	return nil
}

// DeleteEmail removes the named email account, if present.
func (s *Settings) DeleteEmail(name string) {
	kept := s.Emails[:0]
	for _, a := range s.Emails {
		if a.AccountName != name {
			kept = append(kept, a)
		}
	}
	s.Emails = kept
}

// DeleteProvider removes the named provider account, if present.
func (s *Settings) DeleteProvider(name string) {
	kept := s.Providers[:0]
	for _, a := range s.Providers {
		if a.AccountName != name {
			kept = append(kept, a)
		}
	}
	s.Providers = kept
}

// Email returns the named email account.
func (s *Settings) Email(name string) (*EmailAccount, bool) {
	for i := range s.Emails {
		if s.Emails[i].AccountName == name {
			return &s.Emails[i], true
		}
	}
	return nil, false
}

// Provider returns the named provider account.
func (s *Settings) Provider(name string) (*ProviderAccount, bool) {
	for i := range s.Providers {
		if s.Providers[i].AccountName == name {
			return &s.Providers[i], true
		}
	}
	return nil, false
}

// AccountNames lists every configured account name, emails first.
func (s *Settings) AccountNames() []string {
	names := make([]string, 0, len(s.Emails)+len(s.Providers))
	for _, a := range s.Emails {
		names = append(names, a.AccountName)
	}
	for _, a := range s.Providers {
		names = append(names, a.AccountName)
	}
	return names
}

// Masked returns a deep copy with every credential replaced.
func (s *Settings) Masked() *Settings {
	masked := &Settings{path: s.path}
	for _, a := range s.Emails {
		masked.Emails = append(masked.Emails, a.Masked())
	}
	for _, a := range s.Providers {
		masked.Providers = append(masked.Providers, a.Masked())
	}
	return masked
}

// overlay inserts an environment-derived account first, replacing any
// same-named file account.
func (s *Settings) overlay(account EmailAccount) {
	for i := range s.Emails {
		if s.Emails[i].AccountName == account.AccountName {
			s.Emails[i] = account
			return
		}
	}
	s.Emails = append([]EmailAccount{account}, s.Emails...)
}

func (s *Settings) nameTaken(name string) bool {
	_, emailOk := s.Email(name)
	_, providerOk := s.Provider(name)
	return emailOk || providerOk
}

func (s *Settings) validate() error {
	seen := make(map[string]bool, len(s.Emails)+len(s.Providers))
	for _, name := range s.AccountNames() {
		if name == "" {
			return fmt.Errorf("account with empty name")
		}
		if seen[name] {
			return fmt.Errorf("duplicate account name %s", name)
		}
		seen[name] = true
	}
	return nil
}

// Environment variables describing a complete account. The email address,
// password and both hosts are required; everything else has defaults.
const (
	envAccountName  = "MAILAGENT_ACCOUNT_NAME"
	envFullName     = "MAILAGENT_FULL_NAME"
	envEmailAddress = "MAILAGENT_EMAIL_ADDRESS"
	envUserName     = "MAILAGENT_USER_NAME"
	envPassword     = "MAILAGENT_PASSWORD"
	envIMAPHost     = "MAILAGENT_IMAP_HOST"
	envIMAPPort     = "MAILAGENT_IMAP_PORT"
	envIMAPSSL      = "MAILAGENT_IMAP_SSL"
	envSMTPHost     = "MAILAGENT_SMTP_HOST"
	envSMTPPort     = "MAILAGENT_SMTP_PORT"
	envSMTPSSL      = "MAILAGENT_SMTP_SSL"
	envSMTPStartSSL = "MAILAGENT_SMTP_START_SSL"
)

// accountFromEnv builds an account from environment variables, or nil when
// the required variables are absent.
func accountFromEnv() *EmailAccount {
	address := os.Getenv(envEmailAddress)
	password := os.Getenv(envPassword)
	imapHost := os.Getenv(envIMAPHost)
	smtpHost := os.Getenv(envSMTPHost)
	if address == "" || password == "" || imapHost == "" || smtpHost == "" {
		return nil
	}

	userName := envDefault(envUserName, address)
	fullName := envDefault(envFullName, strings.SplitN(address, "@", 2)[0])

	now := time.Now()
	return &EmailAccount{
		AccountName:  envDefault(envAccountName, "default"),
		FullName:     fullName,
		EmailAddress: address,
		Incoming: Server{
			UserName: userName,
			Password: password,
			Host:     imapHost,
			Port:     envInt(envIMAPPort, 993),
			UseSSL:   envBool(envIMAPSSL, true),
		},
		Outgoing: Server{
			UserName: userName,
			Password: password,
			Host:     smtpHost,
			Port:     envInt(envSMTPPort, 465),
			UseSSL:   envBool(envSMTPSSL, true),
			StartSSL: envBool(envSMTPStartSSL, false),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

// ExampleSettings returns a starter configuration for "init".
func ExampleSettings(path string) *Settings {
	now := time.Now()
	return &Settings{
		path: path,
		Emails: []EmailAccount{{
			AccountName:  "work",
			FullName:     "Your Name",
			EmailAddress: "user@example.com",
			Incoming: Server{
				UserName: "user@example.com",
				Password: "secret",
				Host:     "imap.example.com",
				Port:     993,
				UseSSL:   true,
			},
			Outgoing: Server{
				UserName: "user@example.com",
				Password: "secret",
				Host:     "smtp.example.com",
				Port:     587,
				StartSSL: true,
			},
			CreatedAt: now,
			UpdatedAt: now,
		}},
	}
}
