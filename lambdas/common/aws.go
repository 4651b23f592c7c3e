package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"gopkg.in/yaml.v3"
)

type DBEntry struct {
	Name     string `yaml:"name" json:"name"`
	Host     string `yaml:"host" json:"host"`
	Database string `yaml:"database" json:"database"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

func (db DBEntry) GetDSN() string {
	// username:password@tcp(host:3306)/database?parseTime=true
	host := db.Host
	if !strings.Contains(host, ":") {
		host = host + ":3306"
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", db.Username, db.Password, host, db.Database)
}

// LoadDatabases reads the environment list from the SSM parameter
// 'sitecrew-databases', keyed by lowercased environment name.
func LoadDatabases(ctx context.Context) (map[string]DBEntry, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := ssm.NewFromConfig(cfg)
	paramName := "sitecrew-databases"

	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get parameter %s: %w", paramName, err)
	}

	if out.Parameter == nil || out.Parameter.Value == nil {
		return nil, fmt.Errorf("parameter %s is empty", paramName)
	}

	var entries []DBEntry
	if err := yaml.Unmarshal([]byte(*out.Parameter.Value), &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal databases: %w", err)
	}

	result := make(map[string]DBEntry)
	for _, entry := range entries {
		result[strings.ToLower(entry.Name)] = entry
	}

	return result, nil
}

// ResolveDSN picks the DSN for an environment name from the parameter
// store listing.
func ResolveDSN(ctx context.Context, env string) (string, error) {
	env = strings.ToLower(env)
	if env == "" {
		return "", fmt.Errorf("environment (env) is required")
	}

	dbs, err := LoadDatabases(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load databases from SSM: %w", err)
	}

	entry, ok := dbs[env]
	if !ok {
		return "", fmt.Errorf("environment '%s' not found in parameter store", env)
	}
	return entry.GetDSN(), nil
}
