package util

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const EnvKey = "DCA_ENV"

type Secrets struct {
	Db     DbSecrets     `json:"db"`
	Alpaca AlpacaSecrets `json:"alpaca"`
	Port   int           `json:"port"`
}

type DbSecrets struct {
	Host      string `json:"host"`
	User      string `json:"user"`
	Port      string `json:"port"`
	Password  string `json:"password"`
	Database  string `json:"database"`
	EnableSsl bool   `json:"enableSsl"`
}

type AlpacaSecrets struct {
	ApiKey    string `json:"apiKey"`
	ApiSecret string `json:"apiSecret"`
	Endpoint  string `json:"endpoint"`
}

func (t DbSecrets) ToConnectionStr() string {
	x := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
		t.Host, t.Port, t.User, t.Password, t.Database)
	if !t.EnableSsl {
		x += " sslmode=disable"
	}
	return x
}

func (a AlpacaSecrets) Enabled() bool {
	return a.ApiKey != "" && a.ApiSecret != ""
}

func Env() string {
	return strings.ToLower(os.Getenv(EnvKey))
}

func secretsFile() string {
	switch Env() {
	case "dev":
		return "secrets-dev.json"
	case "test":
		return "secrets-test.json"
	}
	return "/go/src/app/secrets.json"
}

func LoadSecrets() (*Secrets, error) {
	f, err := os.ReadFile(secretsFile())
	if err != nil {
		return nil, fmt.Errorf("could not open secrets file: %w", err)
	}

	secrets := Secrets{}
	err = json.Unmarshal(f, &secrets)
	if err != nil {
		return nil, fmt.Errorf("failed to parse secrets: %w", err)
	}
	if secrets.Port == 0 {
		secrets.Port = 3009
	}

	return &secrets, nil
}
