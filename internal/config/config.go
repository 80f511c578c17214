package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server Server `yaml:"server"`
	Token  Token  `yaml:"token"`
	Repo   Repo   `yaml:"repo"`
	Admin  Admin  `yaml:"admin"`
	Upload Upload `yaml:"upload"`
}

type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type Token struct {
	// Secret signs access tokens. Randomly generated when unset,
	// which logs everyone out on restart.
	Secret string `yaml:"secret"`

	// LifetimeMinutes is the access token expiry. The original
	// deployment used 30 days.
	LifetimeMinutes int `yaml:"lifetime_minutes"`
}

type Repo struct {
	Path string `yaml:"path"`
}

type Admin struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	FullName string `yaml:"full_name"`
}

type Upload struct {
	Dir          string `yaml:"dir"`
	MaxFileBytes int64  `yaml:"max_file_bytes"`
}

func (c *Config) setDefaults() {
	c.Server.Host = "0.0.0.0"
	c.Server.Port = 8000

	c.Token.LifetimeMinutes = 43200 // 30 days

	c.Repo.Path = "paradetect.json"

	c.Admin.Email = "admin@paradetect.ai"
	c.Admin.Password = "admin123"
	c.Admin.FullName = "Admin User"

	c.Upload.Dir = "uploads"
	c.Upload.MaxFileBytes = 10485760 // 10MB
}

// Load reads the yaml config, applying defaults for anything the file
// doesn't set. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	conf := &Config{}
	conf.setDefaults()

	b, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(b, conf); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if conf.Token.Secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generating token secret: %w", err)
		}
		conf.Token.Secret = base64.RawStdEncoding.EncodeToString(buf)
	} else if len(conf.Token.Secret) < 16 {
		return nil, fmt.Errorf("token.secret must be at least 16 characters")
	}

	if conf.Token.LifetimeMinutes <= 0 {
		return nil, fmt.Errorf("token.lifetime_minutes must be positive")
	}

	return conf, nil
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
