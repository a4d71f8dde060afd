package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables holding the site login.
const (
	EnvUsername = "SCRAPEKING_USERNAME"
	EnvPassword = "SCRAPEKING_PASSWORD"
)

// ErrNoCredentials is returned when the login is not configured.
var ErrNoCredentials = errors.New("config: " + EnvUsername + " and " + EnvPassword + " must be set")

// Credentials is the site login.
type Credentials struct {
	Username string
	Password string
}

// LoadCredentials reads the login from the environment after loading the
// given .env files. Missing files are ignored; variables already set in
// the environment win over file values.
func LoadCredentials(envFiles ...string) (Credentials, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Credentials{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	c := Credentials{
		Username: os.Getenv(EnvUsername),
		Password: os.Getenv(EnvPassword),
	}
	if c.Username == "" || c.Password == "" {
		return c, ErrNoCredentials
	}
	return c, nil
}
