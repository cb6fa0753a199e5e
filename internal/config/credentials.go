package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/jgivc/batchfetch/internal/common"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

const (
	EnvUsername = "DL_USERNAME"
	EnvPassword = "DL_PASSWORD"
)

type Credentials struct {
	Username string
	Password string
}

// String never exposes the password, only its length.
func (c Credentials) String() string {
	return fmt.Sprintf("Username %s, password %s", c.Username, strings.Repeat("*", len(c.Password)))
}

func (c Credentials) LogValue() slog.Value {
	return slog.StringValue(c.String())
}

// LoadCredentials reads the dotenv file envFile. Variables already set in the
// process environment win over the file, as with godotenv.Load.
func LoadCredentials(afs afero.Fs, envFile string) (*Credentials, error) {
	f, err := afs.Open(envFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: env file %s", common.ErrCredentialsNotFound, envFile)
		}

		return nil, fmt.Errorf("cannot open env file %s: %w", envFile, err)
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("cannot parse env file %s: %w", envFile, err)
	}

	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}

		return values[key]
	}

	creds := &Credentials{
		Username: lookup(EnvUsername),
		Password: lookup(EnvPassword),
	}

	if creds.Username == "" {
		return nil, fmt.Errorf("%w: %s is not set", common.ErrCredentialsNotFound, EnvUsername)
	}

	if creds.Password == "" {
		return nil, fmt.Errorf("%w: %s is not set", common.ErrCredentialsNotFound, EnvPassword)
	}

	return creds, nil
}
